// Package store keeps a locally cached, reactive view of all tasks
// owned by one identity consistent with the remote collection. The
// remote collection is authoritative: apart from pending shadow
// entries, the cache only changes when a subscription snapshot arrives.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/isabelacreiter/TaskFlow/internal/collection"
	"github.com/isabelacreiter/TaskFlow/internal/models"
	"github.com/isabelacreiter/TaskFlow/internal/notify"
	"github.com/sirupsen/logrus"
)

type State int

const (
	Unsubscribed State = iota
	Subscribing
	Synced
	Broken
)

func (s State) String() string {
	switch s {
	case Unsubscribed:
		return "unsubscribed"
	case Subscribing:
		return "subscribing"
	case Synced:
		return "synced"
	case Broken:
		return "broken"
	}
	return "unknown"
}

const (
	retryBase = 500 * time.Millisecond
	retryMax  = 30 * time.Second
)

// CreateInput is a task shape lacking identifier, owner and creation
// time; the store assigns those.
type CreateInput struct {
	Title       string
	Description string
	DueDate     string
	Priority    models.Priority
	Status      models.TaskStatus
	Subtasks    []models.Subtask
}

type Store struct {
	col      collection.Collection
	notifier *notify.Notifier
	log      *logrus.Logger

	mu       sync.Mutex
	state    State
	ownerID  string
	snapshot []models.Task
	shadows  map[string]models.Task
	synced   chan struct{}

	cancel    context.CancelFunc
	done      chan struct{}
	listeners map[chan []models.Task]struct{}

	now func() time.Time
}

func New(col collection.Collection, log *logrus.Logger) *Store {
	return &Store{
		col:       col,
		notifier:  notify.New(),
		log:       log,
		shadows:   make(map[string]models.Task),
		synced:    make(chan struct{}),
		listeners: make(map[chan []models.Task]struct{}),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Notices exposes the store's user-visible notification stream.
func (s *Store) Notices() (<-chan notify.Notice, func()) {
	return s.notifier.Subscribe()
}

// Subscribe tears down any previous subscription, clears the cache, and
// opens a standing subscription scoped to identity. An empty identity
// leaves the store holding an empty set with no subscription: there is
// no task list without a session.
func (s *Store) Subscribe(identity string) {
	s.Teardown()

	if identity == "" {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	s.ownerID = identity
	s.state = Subscribing
	s.synced = make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go s.run(ctx, identity, done)
}

// Teardown cancels the live subscription and clears the local cache.
// When it returns, no further emissions reach listeners: late snapshots
// from the old subscription are discarded.
func (s *Store) Teardown() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	s.mu.Lock()
	s.ownerID = ""
	s.state = Unsubscribed
	s.snapshot = nil
	s.shadows = make(map[string]models.Task)
	s.broadcastLocked()
	s.mu.Unlock()
}

// Tasks returns the current merged view: the last confirmed snapshot
// plus any still-pending shadow entries.
func (s *Store) Tasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mergedLocked()
}

// WaitSynced blocks until the first snapshot of the current
// subscription has been applied, the subscription breaks, or ctx ends.
func (s *Store) WaitSynced(ctx context.Context) error {
	s.mu.Lock()
	synced := s.synced
	s.mu.Unlock()
	select {
	case <-synced:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Listen registers a snapshot listener; the current view is delivered
// immediately. Cancel must be called exactly once.
func (s *Store) Listen() (<-chan []models.Task, func()) {
	ch := make(chan []models.Task, 8)
	s.mu.Lock()
	ch <- s.mergedLocked()
	s.listeners[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.listeners[ch]; ok {
			delete(s.listeners, ch)
			close(ch)
		}
	}
	return ch, cancel
}

// Create issues a durable write for a new task. A shadow entry with the
// task's pre-assigned id becomes visible immediately and is reconciled
// away once the confirmed task arrives in a snapshot. On failure the
// shadow is rolled back and the failure is flagged, not silently
// dropped.
func (s *Store) Create(ctx context.Context, input CreateInput) (string, error) {
	s.mu.Lock()
	owner := s.ownerID
	s.mu.Unlock()

	task := models.Task{
		ID:          uuid.NewString(),
		OwnerID:     owner,
		Title:       input.Title,
		Description: input.Description,
		DueDate:     input.DueDate,
		Priority:    input.Priority,
		Status:      input.Status,
		Subtasks:    append([]models.Subtask{}, input.Subtasks...),
		CreatedAt:   s.now().Format(time.RFC3339),
	}
	if task.Status == "" {
		task.Status = models.StatusTodo
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}

	shadow := task.Clone()
	shadow.Pending = true
	s.mu.Lock()
	s.shadows[task.ID] = shadow
	s.broadcastLocked()
	s.mu.Unlock()

	if _, err := s.col.Insert(ctx, task); err != nil {
		s.mu.Lock()
		delete(s.shadows, task.ID)
		s.broadcastLocked()
		s.mu.Unlock()
		s.log.Errorf("create task failed: %v", err)
		s.notifier.Publish(notify.ActionCreate, "could not create task")
		return "", err
	}
	return task.ID, nil
}

// Update issues a partial write. Local state changes only via the
// subscription push; concurrent updates to the same task are
// independent partial writes and the last one accepted by the backend
// wins.
func (s *Store) Update(ctx context.Context, id string, fields collection.Fields) error {
	if err := s.col.Patch(ctx, id, fields); err != nil {
		s.log.Errorf("update task %s failed: %v", id, err)
		s.notifier.Publish(notify.ActionUpdate, "could not update task")
		return err
	}
	return nil
}

// Remove deletes a task. Deleting an already-deleted id is success from
// the caller's view.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.shadows[id]; ok {
		delete(s.shadows, id)
		s.broadcastLocked()
	}
	s.mu.Unlock()

	if err := s.col.Delete(ctx, id); err != nil {
		s.log.Errorf("delete task %s failed: %v", id, err)
		s.notifier.Publish(notify.ActionDelete, "could not delete task")
		return err
	}
	return nil
}

// ToggleSubtask flips one subtask's completed flag as a targeted patch:
// sibling subtasks and every other task field are left untouched.
func (s *Store) ToggleSubtask(ctx context.Context, taskID, subtaskID string) error {
	s.mu.Lock()
	var subs []models.Subtask
	found := false
	for _, t := range s.mergedLocked() {
		if t.ID != taskID {
			continue
		}
		subs = append([]models.Subtask(nil), t.Subtasks...)
		for i := range subs {
			if subs[i].ID == subtaskID {
				subs[i].Completed = !subs[i].Completed
				found = true
			}
		}
		break
	}
	s.mu.Unlock()

	if !found {
		s.notifier.Publish(notify.ActionUpdate, "could not update subtask")
		return collection.ErrNotFound
	}
	return s.Update(ctx, taskID, collection.Fields{"subtasks": subs})
}

// SetSubtasks replaces the subtask list, preserving the given order.
func (s *Store) SetSubtasks(ctx context.Context, taskID string, subs []models.Subtask) error {
	return s.Update(ctx, taskID, collection.Fields{"subtasks": subs})
}

// run owns the subscription for one identity: it consumes snapshot
// emissions, and on a broken watch keeps the last good snapshot
// available, notifies once per failure transition, and retries with
// exponential backoff.
func (s *Store) run(ctx context.Context, identity string, done chan struct{}) {
	defer close(done)

	backoff := retryBase
	for {
		snaps, errs := s.col.Watch(ctx, identity)

	consume:
		for {
			select {
			case snap, ok := <-snaps:
				if !ok {
					break consume
				}
				s.apply(snap)
				backoff = retryBase
			case err, ok := <-errs:
				if !ok {
					break consume
				}
				s.broken(err)
				break consume
			case <-ctx.Done():
				return
			}
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
		if backoff *= 2; backoff > retryMax {
			backoff = retryMax
		}
	}
}

// apply replaces the confirmed snapshot and reconciles shadows: a
// shadow whose id now appears in the snapshot is confirmed and removed.
func (s *Store) apply(snap collection.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = models.CloneTasks(snap)
	for id := range s.shadows {
		for _, t := range s.snapshot {
			if t.ID == id {
				delete(s.shadows, id)
				break
			}
		}
	}
	if s.state != Synced {
		s.state = Synced
		select {
		case <-s.synced:
		default:
			close(s.synced)
		}
	}
	s.broadcastLocked()
}

// broken flags the subscription as failed. The previous snapshot stays
// in place, stale but available, and the notification fires once per
// failure transition rather than once per retry.
func (s *Store) broken(err error) {
	s.mu.Lock()
	wasBroken := s.state == Broken
	s.state = Broken
	select {
	case <-s.synced:
	default:
		close(s.synced)
	}
	s.mu.Unlock()

	s.log.Warnf("task subscription broken: %v", err)
	if !wasBroken {
		s.notifier.Publish(notify.ActionLoad, "could not load tasks")
	}
}

func (s *Store) mergedLocked() []models.Task {
	out := models.CloneTasks(s.snapshot)
	for _, shadow := range s.shadows {
		out = append(out, shadow.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) broadcastLocked() {
	view := s.mergedLocked()
	for ch := range s.listeners {
		// coalesce to the latest view when the listener lags
		for {
			select {
			case ch <- view:
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
