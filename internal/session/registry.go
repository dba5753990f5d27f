package session

import "sync"

// Registry hands out one Provider per user for the lifetime of the
// process. onNew runs once per created provider, before any state
// transition, so the caller can bind downstream consumers.
type Registry struct {
	mu    sync.Mutex
	byID  map[string]*Provider
	onNew func(*Provider)
}

func NewRegistry(onNew func(*Provider)) *Registry {
	return &Registry{byID: make(map[string]*Provider), onNew: onNew}
}

func (r *Registry) ForUser(userID string) *Provider {
	r.mu.Lock()
	p, ok := r.byID[userID]
	if !ok {
		p = NewProvider()
		r.byID[userID] = p
	}
	r.mu.Unlock()

	if !ok && r.onNew != nil {
		r.onNew(p)
	}
	return p
}
