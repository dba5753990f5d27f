package collection

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/isabelacreiter/TaskFlow/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Mongo stores tasks in a MongoDB collection and drives Watch from the
// collection's change stream.
type Mongo struct {
	tasks *mongo.Collection
	log   *logrus.Logger
}

func NewMongo(tasks *mongo.Collection, log *logrus.Logger) *Mongo {
	return &Mongo{tasks: tasks, log: log}
}

func (m *Mongo) Watch(ctx context.Context, ownerID string) (<-chan Snapshot, <-chan error) {
	snaps := make(chan Snapshot, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(snaps)
		defer close(errs)

		// Delete events carry no document, so the stream watches the
		// whole collection and every event triggers an owner-scoped
		// re-query. Snapshots are full replacements either way.
		stream, err := m.tasks.Watch(ctx, mongo.Pipeline{})
		if err != nil {
			errs <- fmt.Errorf("open change stream: %w", err)
			return
		}
		defer stream.Close(context.Background())

		snap, err := m.query(ctx, ownerID)
		if err != nil {
			errs <- fmt.Errorf("initial snapshot: %w", err)
			return
		}
		if !send(ctx, snaps, snap) {
			return
		}

		for stream.Next(ctx) {
			snap, err := m.query(ctx, ownerID)
			if err != nil {
				errs <- fmt.Errorf("re-query after change: %w", err)
				return
			}
			if !send(ctx, snaps, snap) {
				return
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			errs <- fmt.Errorf("change stream: %w", err)
		}
	}()

	return snaps, errs
}

func (m *Mongo) Insert(ctx context.Context, task models.Task) (string, error) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if _, err := m.tasks.InsertOne(ctx, task); err != nil {
		return "", fmt.Errorf("insert task: %w", err)
	}
	return task.ID, nil
}

func (m *Mongo) Patch(ctx context.Context, id string, fields Fields) error {
	set := bson.M{}
	for k, v := range stripImmutable(fields) {
		set[k] = v
	}
	if len(set) == 0 {
		return nil
	}
	res, err := m.tasks.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("patch task %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) Delete(ctx context.Context, id string) error {
	res, err := m.tasks.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		m.log.Debugf("delete of missing task %s ignored", id)
	}
	return nil
}

func (m *Mongo) query(ctx context.Context, ownerID string) (Snapshot, error) {
	cursor, err := m.tasks.Find(ctx, bson.M{"ownerId": ownerID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var snap Snapshot
	for cursor.Next(ctx) {
		var task models.Task
		if err := cursor.Decode(&task); err != nil {
			return nil, err
		}
		snap = append(snap, task)
	}
	return snap, cursor.Err()
}

func send(ctx context.Context, ch chan<- Snapshot, snap Snapshot) bool {
	select {
	case ch <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}
