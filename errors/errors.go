package errors

import "fmt"

var (
	ErrWorkerPanic          = fmt.Errorf("worker panic")
	ErrMessageNotFound      = fmt.Errorf("message not found")
	ErrChannelNotFound      = fmt.Errorf("channel not found")
	ErrUserNotFound         = fmt.Errorf("user not found")
	ErrDetectionUnreliable  = fmt.Errorf("language detection unreliable")
	ErrTranslationRejected  = fmt.Errorf("translation engine rejected the request")
	ErrConnectionIDRequired = fmt.Errorf("userId is required at handshake")
)
