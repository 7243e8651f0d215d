// Package ws is the WebSocket transport: one bidirectional event channel
// per connected user, carrying named events.
package ws

import (
	"context"
	"log/slog"

	"chat-relay/domain/event"
)

// Sink buffers delivery events for one connection; the write pump drains
// it onto the socket. A full buffer drops the event rather than blocking
// the pipeline: delivery is at-most-once and the store is the durable
// record.
type Sink struct {
	events chan event.DeliveryEvent
	log    *slog.Logger
}

func NewSink(bufferSize int, log *slog.Logger) *Sink {
	return &Sink{events: make(chan event.DeliveryEvent, bufferSize), log: log}
}

// Consume is called by the pipeline and workers. It hands the event to
// the connection owner; the write pump takes it from there.
func (s *Sink) Consume(ctx context.Context, e event.DeliveryEvent) error {
	select {
	case s.events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		s.log.Warn("Connection buffer full, dropping event", "event", e.EventName())
		return nil
	}
}

func (s *Sink) Events() <-chan event.DeliveryEvent {
	return s.events
}
