// Package session tracks the authenticated identity as a reactive value.
// "Identity pending" and "no identity" are distinct: the former suspends
// data fetching, the latter redirects to authentication.
package session

import "sync"

type Phase int

const (
	// Pending: the auth handshake has not finished yet.
	Pending Phase = iota
	// SignedIn: a verified identity is present.
	SignedIn
	// SignedOut: the handshake finished with no identity.
	SignedOut
)

func (p Phase) String() string {
	switch p {
	case Pending:
		return "pending"
	case SignedIn:
		return "signed-in"
	case SignedOut:
		return "signed-out"
	}
	return "unknown"
}

type State struct {
	Phase  Phase
	UserID string
}

// Provider holds one identity's auth state and fans out one emission per
// actual transition. A fresh provider starts Pending.
type Provider struct {
	mu    sync.Mutex
	state State
	subs  map[chan State]struct{}
}

func NewProvider() *Provider {
	return &Provider{
		state: State{Phase: Pending},
		subs:  make(map[chan State]struct{}),
	}
}

func (p *Provider) Current() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Provider) SetSignedIn(userID string) {
	p.set(State{Phase: SignedIn, UserID: userID})
}

func (p *Provider) SetSignedOut() {
	p.set(State{Phase: SignedOut})
}

func (p *Provider) set(next State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == next {
		return
	}
	p.state = next
	for ch := range p.subs {
		// coalesce to the latest state when the consumer lags
		select {
		case ch <- next:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- next
		}
	}
}

// Updates delivers the current state immediately, then one emission per
// transition until cancel is called.
func (p *Provider) Updates() (<-chan State, func()) {
	ch := make(chan State, 4)
	p.mu.Lock()
	ch <- p.state
	p.subs[ch] = struct{}{}
	p.mu.Unlock()

	cancel := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if _, ok := p.subs[ch]; ok {
			delete(p.subs, ch)
			close(ch)
		}
	}
	return ch, cancel
}
