package models

import (
	"strings"
	"time"
)

type TaskStatus string

const (
	StatusTodo  TaskStatus = "todo"
	StatusDoing TaskStatus = "doing"
	StatusDone  TaskStatus = "done"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// DateLayout is the wire format for DueDate: a calendar date, no time component.
const DateLayout = "2006-01-02"

type Subtask struct {
	ID        string `json:"id" bson:"id"`
	Title     string `json:"title" bson:"title"`
	Completed bool   `json:"completed" bson:"completed"`
}

type Task struct {
	ID          string     `json:"id" bson:"_id"`
	OwnerID     string     `json:"ownerId" bson:"ownerId"`
	Title       string     `json:"title" bson:"title"`
	Description string     `json:"description" bson:"description"`
	DueDate     string     `json:"dueDate,omitempty" bson:"dueDate,omitempty"`
	Priority    Priority   `json:"priority" bson:"priority"`
	Status      TaskStatus `json:"status" bson:"status"`
	Subtasks    []Subtask  `json:"subtasks" bson:"subtasks"`
	CreatedAt   string     `json:"createdAt" bson:"createdAt"`

	// Pending marks a locally synthesized shadow entry that has not yet
	// been confirmed by a snapshot. Never persisted.
	Pending bool `json:"pending,omitempty" bson:"-"`
}

// convert various user inputs to standard status values
func NormalizeStatus(s string) TaskStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "todo", "to-do", "to_do":
		return StatusTodo
	case "doing", "in-progress", "in_progress", "inprogress", "in progress":
		return StatusDoing
	case "done", "completed":
		return StatusDone
	default:
		return ""
	}
}

func NormalizePriority(p string) Priority {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "low":
		return PriorityLow
	case "", "medium":
		return PriorityMedium
	case "high":
		return PriorityHigh
	default:
		return ""
	}
}

// ValidDate reports whether s is a well-formed YYYY-MM-DD date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// Clone returns a deep copy; subtask order is preserved.
func (t Task) Clone() Task {
	out := t
	if t.Subtasks != nil {
		out.Subtasks = make([]Subtask, len(t.Subtasks))
		copy(out.Subtasks, t.Subtasks)
	}
	return out
}

func CloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
