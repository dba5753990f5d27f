package collection

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/isabelacreiter/TaskFlow/internal/models"
)

// Memory is an in-process Collection used by tests and by the -backend
// memory dev mode. It implements the same push semantics as the mongo
// backend: full owner-scoped snapshots on every matching change.
type Memory struct {
	mu       sync.Mutex
	docs     map[string]models.Task
	watchers map[*memWatcher]struct{}
}

type memWatcher struct {
	owner  string
	snaps  chan Snapshot
	errs   chan error
	closed bool
}

func NewMemory() *Memory {
	return &Memory{
		docs:     make(map[string]models.Task),
		watchers: make(map[*memWatcher]struct{}),
	}
}

func (m *Memory) Watch(ctx context.Context, ownerID string) (<-chan Snapshot, <-chan error) {
	w := &memWatcher{
		owner: ownerID,
		snaps: make(chan Snapshot, 16),
		errs:  make(chan error, 1),
	}

	m.mu.Lock()
	m.watchers[w] = struct{}{}
	w.deliver(m.snapshotLocked(ownerID))
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		m.dropLocked(w)
		m.mu.Unlock()
	}()

	return w.snaps, w.errs
}

func (m *Memory) Insert(ctx context.Context, task models.Task) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[task.ID] = task.Clone()
	m.notifyLocked(task.OwnerID)
	return task.ID, nil
}

func (m *Memory) Patch(ctx context.Context, id string, fields Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range stripImmutable(fields) {
		switch k {
		case "title":
			if s, ok := v.(string); ok {
				doc.Title = s
			}
		case "description":
			if s, ok := v.(string); ok {
				doc.Description = s
			}
		case "dueDate":
			if s, ok := v.(string); ok {
				doc.DueDate = s
			}
		case "priority":
			doc.Priority = models.Priority(asString(v))
		case "status":
			doc.Status = models.TaskStatus(asString(v))
		case "subtasks":
			if subs, ok := v.([]models.Subtask); ok {
				doc.Subtasks = append([]models.Subtask(nil), subs...)
			}
		}
	}
	m.docs[id] = doc
	m.notifyLocked(doc.OwnerID)
	return nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[id]
	if !ok {
		// idempotent
		return nil
	}
	delete(m.docs, id)
	m.notifyLocked(doc.OwnerID)
	return nil
}

// BreakWatch terminates every live subscription for ownerID with err,
// simulating a dropped connection. The owner's next Watch starts clean.
func (m *Memory) BreakWatch(ownerID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for w := range m.watchers {
		if w.owner != ownerID {
			continue
		}
		w.errs <- err
		m.dropLocked(w)
	}
}

func (m *Memory) snapshotLocked(ownerID string) Snapshot {
	var snap Snapshot
	for _, doc := range m.docs {
		if doc.OwnerID == ownerID {
			snap = append(snap, doc.Clone())
		}
	}
	sort.Slice(snap, func(i, j int) bool {
		if snap[i].CreatedAt != snap[j].CreatedAt {
			return snap[i].CreatedAt < snap[j].CreatedAt
		}
		return snap[i].ID < snap[j].ID
	})
	return snap
}

func (m *Memory) notifyLocked(ownerID string) {
	snap := m.snapshotLocked(ownerID)
	for w := range m.watchers {
		if w.owner == ownerID {
			w.deliver(snap)
		}
	}
}

func (m *Memory) dropLocked(w *memWatcher) {
	if w.closed {
		return
	}
	w.closed = true
	delete(m.watchers, w)
	close(w.snaps)
	close(w.errs)
}

// deliver coalesces to the latest snapshot when the consumer lags;
// snapshots are full replacements, so dropping an old one is safe.
func (w *memWatcher) deliver(snap Snapshot) {
	if w.closed {
		return
	}
	for {
		select {
		case w.snaps <- snap:
			return
		default:
			select {
			case <-w.snaps:
			default:
			}
		}
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case models.TaskStatus:
		return string(s)
	case models.Priority:
		return string(s)
	default:
		return ""
	}
}
