package collection

import (
	"context"
	"errors"
	"time"

	"github.com/isabelacreiter/TaskFlow/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// Breaker wraps a Collection's write path in a circuit breaker so a dead
// backend fails fast instead of stacking up timed-out writes. Watch is
// passed through untouched; the subscription loop has its own retry.
type Breaker struct {
	inner Collection
	cb    *gobreaker.CircuitBreaker
}

func WithBreaker(inner Collection, log *logrus.Logger) *Breaker {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "tasks-collection",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		// a missing document is an answer from the backend, not an outage
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Infof("circuit breaker %q changed from %s to %s", name, from.String(), to.String())
		},
	})
	return &Breaker{inner: inner, cb: cb}
}

func (b *Breaker) Watch(ctx context.Context, ownerID string) (<-chan Snapshot, <-chan error) {
	return b.inner.Watch(ctx, ownerID)
}

func (b *Breaker) Insert(ctx context.Context, task models.Task) (string, error) {
	id, err := b.cb.Execute(func() (any, error) {
		return b.inner.Insert(ctx, task)
	})
	if err != nil {
		return "", err
	}
	return id.(string), nil
}

func (b *Breaker) Patch(ctx context.Context, id string, fields Fields) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.inner.Patch(ctx, id, fields)
	})
	return err
}

func (b *Breaker) Delete(ctx context.Context, id string) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.inner.Delete(ctx, id)
	})
	return err
}
