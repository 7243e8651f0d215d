package contract

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"reflect"
)

// EventSink is one live connection's inbox. Delivery is best-effort and
// at-most-once: a sink that cannot accept an event simply misses it.
type EventSink interface {
	Consume(ctx context.Context, e event.DeliveryEvent) error
}

// IRegistry maps user ids to their single live connection. Register
// replaces any prior handle for the user; Unregister is identity-matched
// so a late disconnect cannot evict a fresh reconnection.
type IRegistry interface {
	Register(userID string, sink EventSink)
	Unregister(sink EventSink)
	Lookup(userID string) (EventSink, bool)
}

// IUserDirectory is the external user lookup collaborator.
type IUserDirectory interface {
	GetUser(id string) (domain.User, error)
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision, avoiding manual naming in the Worker
// interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
