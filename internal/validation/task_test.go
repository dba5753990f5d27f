package validation

import "testing"

func TestCreateTaskValid(t *testing.T) {
	payloads := []string{
		`{"title":"Buy milk","priority":"low"}`,
		`{"title":"Plan trip","dueDate":"2025-01-10","status":"doing"}`,
		`{"title":"Pack","subtasks":[{"id":"s1","title":"clothes"},{"id":"s2","title":"passport","completed":true}]}`,
	}
	for _, p := range payloads {
		if err := CreateTask([]byte(p)); err != nil {
			t.Errorf("valid payload rejected: %s: %v", p, err)
		}
	}
}

func TestCreateTaskRejected(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"missing title", `{"priority":"low"}`},
		{"empty title", `{"title":""}`},
		{"blank title", `{"title":"   "}`},
		{"bad priority", `{"title":"x","priority":"urgent"}`},
		{"bad status", `{"title":"x","status":"archived"}`},
		{"malformed date", `{"title":"x","dueDate":"10/01/2025"}`},
		{"impossible date", `{"title":"x","dueDate":"2025-13-40"}`},
		{"date with time", `{"title":"x","dueDate":"2025-01-10T12:00:00Z"}`},
		{"empty subtask title", `{"title":"x","subtasks":[{"id":"s1","title":""}]}`},
		{"duplicate subtask ids", `{"title":"x","subtasks":[{"id":"s1","title":"a"},{"id":"s1","title":"b"}]}`},
		{"not json", `title = x`},
	}
	for _, c := range cases {
		if err := CreateTask([]byte(c.payload)); err == nil {
			t.Errorf("%s: payload accepted, want rejection", c.name)
		}
	}
}

func TestUpdateTaskPartial(t *testing.T) {
	if err := UpdateTask([]byte(`{"status":"done"}`)); err != nil {
		t.Errorf("partial status update rejected: %v", err)
	}
	if err := UpdateTask([]byte(`{"dueDate":"2025-05-01"}`)); err != nil {
		t.Errorf("partial dueDate update rejected: %v", err)
	}
	if err := UpdateTask([]byte(`{}`)); err == nil {
		t.Error("empty update accepted, want rejection")
	}
	if err := UpdateTask([]byte(`{"ownerId":"mallory"}`)); err == nil {
		t.Error("unknown field accepted, want rejection")
	}
	if err := UpdateTask([]byte(`{"title":""}`)); err == nil {
		t.Error("empty title accepted, want rejection")
	}
}
