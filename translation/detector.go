package translation

import (
	"chat-relay/errors"

	"github.com/abadojack/whatlanggo"
)

// Detector identifies the language of a text. Implementations return an
// error when they cannot give a trustworthy answer; the Gateway turns
// that into a fallback, never a failure.
type Detector interface {
	Detect(text string) (string, error)
}

// WhatlangDetector runs detection in-process, no network round-trip.
type WhatlangDetector struct{}

func NewWhatlangDetector() WhatlangDetector {
	return WhatlangDetector{}
}

func (WhatlangDetector) Detect(text string) (string, error) {
	// whatlanggo's IsReliable threshold rejects ordinary sentences, so
	// the only unusable answer is an unmapped language code.
	code := whatlanggo.Detect(text).Lang.Iso6391()
	if code == "" {
		return "", errors.ErrDetectionUnreliable
	}
	return code, nil
}
