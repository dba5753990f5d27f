// Package notify delivers transient, dismissible user notifications.
// Every write failure produces exactly one notice naming the failed
// action category; nothing here blocks the caller.
package notify

import (
	"sync"
	"time"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionLoad   Action = "load"
)

type Notice struct {
	Action  Action    `json:"action"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

type Notifier struct {
	mu   sync.Mutex
	subs map[chan Notice]struct{}
}

func New() *Notifier {
	return &Notifier{subs: make(map[chan Notice]struct{})}
}

// Publish fans the notice out to all subscribers. A subscriber that has
// stopped draining loses the oldest notice, never the newest.
func (n *Notifier) Publish(action Action, message string) {
	notice := Notice{Action: action, Message: message, Time: time.Now().UTC()}
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs {
		for {
			select {
			case ch <- notice:
			default:
				select {
				case <-ch:
				default:
				}
				continue
			}
			break
		}
	}
}

// Subscribe registers a listener. The returned cancel func must be
// called exactly once; after it returns the channel is closed.
func (n *Notifier) Subscribe() (<-chan Notice, func()) {
	ch := make(chan Notice, 8)
	n.mu.Lock()
	n.subs[ch] = struct{}{}
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if _, ok := n.subs[ch]; ok {
			delete(n.subs, ch)
			close(ch)
		}
	}
	return ch, cancel
}
