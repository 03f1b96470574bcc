package registry

import (
	"context"
	"sync"
)

// MemoryRegistry serves a single process deployment.
type MemoryRegistry struct {
	mu      sync.RWMutex
	entries map[Topic]map[string]string
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{entries: make(map[Topic]map[string]string)}
}

func (r *MemoryRegistry) Register(_ context.Context, topic Topic, identity, handle string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byIdentity, ok := r.entries[topic]
	if !ok {
		byIdentity = make(map[string]string)
		r.entries[topic] = byIdentity
	}
	byIdentity[identity] = handle
	return nil
}

func (r *MemoryRegistry) Unregister(_ context.Context, topic Topic, identity, handle string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.entries[topic][identity]; ok && current == handle {
		delete(r.entries[topic], identity)
	}
	return nil
}

func (r *MemoryRegistry) Lookup(_ context.Context, topic Topic, identity string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handle, ok := r.entries[topic][identity]
	return handle, ok, nil
}
