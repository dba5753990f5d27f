package views

import (
	"testing"
	"time"

	"github.com/isabelacreiter/TaskFlow/internal/models"
)

func sampleTasks() []models.Task {
	return []models.Task{
		{ID: "t1", Title: "write report", Status: models.StatusTodo, Priority: models.PriorityHigh, DueDate: "2025-01-10"},
		{ID: "t2", Title: "review notes", Status: models.StatusDoing, Priority: models.PriorityMedium, DueDate: "2025-01-12"},
		{ID: "t3", Title: "someday idea", Status: models.StatusTodo, Priority: models.PriorityLow},
	}
}

func TestListFiltersByStatus(t *testing.T) {
	tasks := sampleTasks()

	all := List(tasks, "")
	if len(all) != 3 {
		t.Fatalf("unfiltered list: %d tasks, want 3", len(all))
	}
	todos := List(tasks, models.StatusTodo)
	if len(todos) != 2 {
		t.Fatalf("todo list: %d tasks, want 2", len(todos))
	}
	done := List(tasks, models.StatusDone)
	if len(done) != 0 {
		t.Fatalf("done list: %d tasks, want 0", len(done))
	}
}

func TestKanbanColumns(t *testing.T) {
	cols := Kanban(sampleTasks())
	if len(cols) != 3 {
		t.Fatalf("got %d columns, want 3", len(cols))
	}
	if cols[0].Status != models.StatusTodo || len(cols[0].Tasks) != 2 {
		t.Fatalf("todo column: %+v", cols[0])
	}
	if cols[1].Status != models.StatusDoing || len(cols[1].Tasks) != 1 {
		t.Fatalf("doing column: %+v", cols[1])
	}
	if cols[2].Status != models.StatusDone || len(cols[2].Tasks) != 0 {
		t.Fatalf("done column: %+v", cols[2])
	}
	// stable order within a column
	if cols[0].Tasks[0].ID != "t1" || cols[0].Tasks[1].ID != "t3" {
		t.Fatalf("todo column order changed: %+v", cols[0].Tasks)
	}
}

// two tasks with due dates and one without yield exactly two entries
func TestCalendarProjection(t *testing.T) {
	events := Calendar(sampleTasks())
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	dates := map[string]bool{}
	for _, e := range events {
		dates[e.Date] = true
	}
	if !dates["2025-01-10"] || !dates["2025-01-12"] {
		t.Fatalf("unexpected event dates: %+v", events)
	}
}

func TestDetailSubtaskRatio(t *testing.T) {
	tasks := []models.Task{{
		ID:    "t1",
		Title: "packing",
		Subtasks: []models.Subtask{
			{ID: "s1", Title: "clothes", Completed: true},
			{ID: "s2", Title: "passport", Completed: false},
			{ID: "s3", Title: "tickets", Completed: true},
		},
	}}

	d, ok := DetailOf(tasks, "t1")
	if !ok {
		t.Fatal("task not found")
	}
	if d.CompletedSubtasks != 2 || d.TotalSubtasks != 3 {
		t.Fatalf("ratio %d/%d, want 2/3", d.CompletedSubtasks, d.TotalSubtasks)
	}
	if _, ok := DetailOf(tasks, "missing"); ok {
		t.Fatal("found a task that does not exist")
	}
}

func TestDashboardMetrics(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC) // Wednesday
	tasks := []models.Task{
		// pending, overdue
		{ID: "t1", Status: models.StatusTodo, Priority: models.PriorityHigh, DueDate: "2025-01-10"},
		// pending, due later
		{ID: "t2", Status: models.StatusDoing, Priority: models.PriorityMedium, DueDate: "2025-02-01"},
		// done this week (Monday of the same ISO week)
		{ID: "t3", Status: models.StatusDone, Priority: models.PriorityLow, CreatedAt: "2025-01-13T09:00:00Z"},
		// done a previous week
		{ID: "t4", Status: models.StatusDone, Priority: models.PriorityLow, CreatedAt: "2025-01-02T09:00:00Z"},
	}

	m := Dashboard(tasks, now)
	if m.Pending != 2 {
		t.Errorf("pending = %d, want 2", m.Pending)
	}
	if m.Overdue != 1 {
		t.Errorf("overdue = %d, want 1", m.Overdue)
	}
	if m.CompletedThisWeek != 1 {
		t.Errorf("completedThisWeek = %d, want 1", m.CompletedThisWeek)
	}
	if m.ByPriority[models.PriorityLow] != 2 || m.ByPriority[models.PriorityHigh] != 1 {
		t.Errorf("byPriority = %+v", m.ByPriority)
	}
}

func TestProjectionsAreDeterministic(t *testing.T) {
	tasks := sampleTasks()
	first := Kanban(tasks)
	second := Kanban(tasks)
	if len(first[0].Tasks) != len(second[0].Tasks) {
		t.Fatal("same snapshot projected differently")
	}
	// projections must not alias the snapshot
	first[0].Tasks[0].Title = "mutated"
	if tasks[0].Title == "mutated" {
		t.Fatal("projection mutated the snapshot")
	}
}
