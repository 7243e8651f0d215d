// Package domain contains core concepts of the relay.
// This file defines the multi-language Message representation.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultLanguage is the baseline language code assumed whenever a
// user has no preferred language on record.
const DefaultLanguage = "en"

type MessageType string

const (
	MessageText MessageType = "text"
	MessageFile MessageType = "file"
)

// Message is created once and mutated exactly twice afterwards:
// detection writes LanguageFrom, each successful translation adds one
// TranslatedContent entry. OriginalContent is the sender-authored text
// and is never overwritten.
type Message struct {
	ID              uuid.UUID         `json:"id"`
	Sender          string            `json:"sender"`
	Recipient       string            `json:"recipient,omitempty"`
	ChannelID       string            `json:"channelId,omitempty"`
	Type            MessageType       `json:"messageType"`
	Content         string            `json:"content,omitempty"`
	OriginalContent string            `json:"originalContent,omitempty"`
	LanguageFrom    string            `json:"languageFrom,omitempty"`
	Translations    map[string]string `json:"translatedContent,omitempty"`
	FileURL         string            `json:"fileUrl,omitempty"`
	Timestamp       time.Time         `json:"timestamp"`
}

// Translation returns the cached translation for a language code.
func (m Message) Translation(lang string) (string, bool) {
	text, ok := m.Translations[lang]
	return text, ok
}
