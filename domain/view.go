package domain

import (
	"time"

	"github.com/google/uuid"
)

// MessageView is what a given viewer actually sees: the message with its
// Content replaced by the rendering rule output. Views are computed, never
// stored.
type MessageView struct {
	ID           uuid.UUID   `json:"id"`
	Sender       string      `json:"sender"`
	Recipient    string      `json:"recipient,omitempty"`
	ChannelID    string      `json:"channelId,omitempty"`
	Type         MessageType `json:"messageType"`
	Content      string      `json:"content,omitempty"`
	FileURL      string      `json:"fileUrl,omitempty"`
	LanguageFrom string      `json:"languageFrom,omitempty"`
	IsTranslated bool        `json:"isTranslated"`
	Timestamp    time.Time   `json:"timestamp"`
}
