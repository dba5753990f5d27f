// Package views projects the synchronized task set into view-specific
// shapes. Every projection is a pure function of the snapshot,
// recomputed on each change; no view keeps its own mutable copy.
package views

import (
	"time"

	"github.com/isabelacreiter/TaskFlow/internal/models"
)

// List filters by status; an empty status returns every task.
func List(tasks []models.Task, status models.TaskStatus) []models.Task {
	if status == "" {
		return models.CloneTasks(tasks)
	}
	out := []models.Task{}
	for _, t := range tasks {
		if t.Status == status {
			out = append(out, t.Clone())
		}
	}
	return out
}

type Column struct {
	Status models.TaskStatus `json:"status"`
	Title  string            `json:"title"`
	Tasks  []models.Task     `json:"tasks"`
}

// Kanban groups the snapshot into the three board columns; input order
// is preserved within each column.
func Kanban(tasks []models.Task) []Column {
	cols := []Column{
		{Status: models.StatusTodo, Title: "To Do", Tasks: []models.Task{}},
		{Status: models.StatusDoing, Title: "Doing", Tasks: []models.Task{}},
		{Status: models.StatusDone, Title: "Done", Tasks: []models.Task{}},
	}
	for _, t := range tasks {
		for i := range cols {
			if cols[i].Status == t.Status {
				cols[i].Tasks = append(cols[i].Tasks, t.Clone())
			}
		}
	}
	return cols
}

type CalendarEvent struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Date  string `json:"date"` // YYYY-MM-DD
}

// Calendar yields one event per task that has a due date; tasks without
// one are not calendar entries.
func Calendar(tasks []models.Task) []CalendarEvent {
	events := []CalendarEvent{}
	for _, t := range tasks {
		if t.DueDate == "" {
			continue
		}
		events = append(events, CalendarEvent{ID: t.ID, Title: t.Title, Date: t.DueDate})
	}
	return events
}

type Detail struct {
	Task              models.Task `json:"task"`
	CompletedSubtasks int         `json:"completedSubtasks"`
	TotalSubtasks     int         `json:"totalSubtasks"`
}

func DetailOf(tasks []models.Task, id string) (Detail, bool) {
	for _, t := range tasks {
		if t.ID != id {
			continue
		}
		d := Detail{Task: t.Clone(), TotalSubtasks: len(t.Subtasks)}
		for _, sub := range t.Subtasks {
			if sub.Completed {
				d.CompletedSubtasks++
			}
		}
		return d, true
	}
	return Detail{}, false
}

type Metrics struct {
	Pending           int                     `json:"pending"`
	CompletedThisWeek int                     `json:"completedThisWeek"`
	Overdue           int                     `json:"overdue"`
	ByPriority        map[models.Priority]int `json:"byPriority"`
}

// Dashboard computes the metrics overview. Weeks start on Monday;
// overdue means a due date strictly before today's date on a task that
// is not done.
func Dashboard(tasks []models.Task, now time.Time) Metrics {
	m := Metrics{ByPriority: map[models.Priority]int{
		models.PriorityLow:    0,
		models.PriorityMedium: 0,
		models.PriorityHigh:   0,
	}}
	nowYear, nowWeek := now.ISOWeek()
	today := now.Format(models.DateLayout)

	for _, t := range tasks {
		m.ByPriority[t.Priority]++

		if t.Status != models.StatusDone {
			m.Pending++
			if t.DueDate != "" && t.DueDate < today {
				m.Overdue++
			}
			continue
		}
		created, err := time.Parse(time.RFC3339, t.CreatedAt)
		if err != nil {
			continue
		}
		if y, w := created.ISOWeek(); y == nowYear && w == nowWeek {
			m.CompletedThisWeek++
		}
	}
	return m
}
