// Package runtime owns delivery: the connection registry, the pipeline
// and the workers that run translation continuations. It orchestrates
// without containing domain rules.
package runtime

import (
	"sync"

	"chat-relay/contract"
)

// Registry is the process-wide map from user id to live connection.
// Pure transient state: nothing is persisted, it rebuilds from nothing
// on restart. A user absent from the registry simply misses live events
// and relies on the message store on next connect.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]contract.EventSink
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]contract.EventSink)}
}

// Register makes sink the one live handle for userID. A reconnect
// without prior cleanup evicts the stale handle instead of keeping two.
func (r *Registry) Register(userID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[userID] = sink
}

// Unregister removes the entry holding exactly this handle. A no-op when
// the handle is absent: disconnect may race with eviction on reconnect,
// and the loser must not evict the fresh connection.
func (r *Registry) Unregister(sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, current := range r.sessions {
		if current == sink {
			delete(r.sessions, userID)
			return
		}
	}
}

// Lookup returns the current live handle for userID, if any.
func (r *Registry) Lookup(userID string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sink, ok := r.sessions[userID]
	return sink, ok
}

// Size reports the number of live connections, for logs.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
