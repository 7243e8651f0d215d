package domain

import (
	"github.com/go-playground/validator/v10"
)

// SendMessageCommand is the inbound intent behind the "sendMessage" event.
type SendMessageCommand struct {
	Sender    string      `json:"sender" validate:"required"`
	Recipient string      `json:"recipient" validate:"required"`
	Type      MessageType `json:"messageType" validate:"required,oneof=text file"`
	Content   string      `json:"content"`
	FileURL   string      `json:"fileUrl"`
}

// SendChannelMessageCommand is the intent behind "send-channel-message".
type SendChannelMessageCommand struct {
	ChannelID string      `json:"channelId" validate:"required"`
	Sender    string      `json:"sender" validate:"required"`
	Type      MessageType `json:"messageType" validate:"required,oneof=text file"`
	Content   string      `json:"content"`
	FileURL   string      `json:"fileUrl"`
}

// NewValidator builds the validator used on every inbound send command.
// The struct-level rules enforce the type/field invariant: text messages
// carry content, file messages carry a file url.
func NewValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterStructValidation(func(sl validator.StructLevel) {
		cmd := sl.Current().Interface().(SendMessageCommand)
		reportPayloadErrors(sl, cmd.Type, cmd.Content, cmd.FileURL)
	}, SendMessageCommand{})
	validate.RegisterStructValidation(func(sl validator.StructLevel) {
		cmd := sl.Current().Interface().(SendChannelMessageCommand)
		reportPayloadErrors(sl, cmd.Type, cmd.Content, cmd.FileURL)
	}, SendChannelMessageCommand{})
	return validate
}

func reportPayloadErrors(sl validator.StructLevel, t MessageType, content, fileURL string) {
	switch t {
	case MessageText:
		if content == "" {
			sl.ReportError(content, "Content", "content", "required_for_text", "")
		}
	case MessageFile:
		if fileURL == "" {
			sl.ReportError(fileURL, "FileURL", "fileUrl", "required_for_file", "")
		}
	}
}
