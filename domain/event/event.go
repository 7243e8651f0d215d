// Package event defines the delivery events pushed to connected sinks.
package event

import "chat-relay/domain"

// DeliveryEvent is anything a live connection can receive. EventName is
// the named event on the wire.
type DeliveryEvent interface {
	EventName() string
}

// DirectMessage carries a recipient- or sender-specific view of a direct
// message.
type DirectMessage struct {
	Message domain.MessageView `json:"message"`
}

func (DirectMessage) EventName() string { return "receiveMessage" }

// ChannelMessage carries a member-specific view of a channel message.
type ChannelMessage struct {
	Message   domain.MessageView `json:"message"`
	ChannelID string             `json:"channelId"`
}

func (ChannelMessage) EventName() string { return "receive-channel-message" }
