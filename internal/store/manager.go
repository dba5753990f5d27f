package store

import (
	"sync"

	"github.com/isabelacreiter/TaskFlow/internal/collection"
	"github.com/isabelacreiter/TaskFlow/internal/session"
	"github.com/sirupsen/logrus"
)

// Manager hands out one refcounted Store per active identity. The local
// snapshot cache is owned exclusively by one store instance per
// identity and never shared across concurrently held identities.
type Manager struct {
	col collection.Collection
	log *logrus.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	store *Store
	refs  int
}

func NewManager(col collection.Collection, log *logrus.Logger) *Manager {
	return &Manager{col: col, log: log, entries: make(map[string]*entry)}
}

// Acquire returns the identity's store, subscribing on first use.
func (m *Manager) Acquire(userID string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[userID]
	if !ok {
		e = &entry{store: New(m.col, m.log)}
		e.store.Subscribe(userID)
		m.entries[userID] = e
	}
	e.refs++
	return e.store
}

// Peek returns the identity's store without taking a reference, or nil
// when no store is active.
func (m *Manager) Peek(userID string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[userID]; ok {
		return e.store
	}
	return nil
}

// Release drops one reference; the last release tears the store down.
func (m *Manager) Release(userID string) {
	m.mu.Lock()
	e, ok := m.entries[userID]
	if ok {
		e.refs--
		if e.refs <= 0 {
			delete(m.entries, userID)
		} else {
			e = nil
		}
	}
	m.mu.Unlock()

	if ok && e != nil {
		e.store.Teardown()
	}
}

func (m *Manager) TeardownAll() {
	m.mu.Lock()
	entries := m.entries
	m.entries = make(map[string]*entry)
	m.mu.Unlock()

	for _, e := range entries {
		e.store.Teardown()
	}
}

// Bind ties a session provider to the manager: signing in acquires the
// identity's store, signing out releases it, and switching identity
// clears the previous task set before the new identity's snapshot
// arrives. Pending suspends, it never acquires.
func Bind(p *session.Provider, m *Manager) (stop func()) {
	updates, cancel := p.Updates()
	done := make(chan struct{})

	go func() {
		defer close(done)
		held := ""
		for state := range updates {
			switch state.Phase {
			case session.SignedIn:
				if held == state.UserID {
					continue
				}
				if held != "" {
					m.Release(held)
				}
				held = state.UserID
				m.Acquire(held)
			case session.SignedOut:
				if held != "" {
					m.Release(held)
					held = ""
				}
			}
		}
		if held != "" {
			m.Release(held)
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
