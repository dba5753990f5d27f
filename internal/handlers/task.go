package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/isabelacreiter/TaskFlow/internal/collection"
	"github.com/isabelacreiter/TaskFlow/internal/models"
	"github.com/isabelacreiter/TaskFlow/internal/store"
	"github.com/isabelacreiter/TaskFlow/internal/validation"
	"github.com/isabelacreiter/TaskFlow/internal/views"
)

const snapshotWait = 3 * time.Second

// acquireStore resolves the caller's store; release must be called when
// the request is done with it.
func (h *Handler) acquireStore(r *http.Request) (*store.Store, func(), bool) {
	userID, _ := r.Context().Value("user_id").(string)
	if userID == "" {
		return nil, nil, false
	}
	st := h.Stores.Acquire(userID)
	return st, func() { h.Stores.Release(userID) }, true
}

// waitSnapshot blocks until the store holds its first snapshot so reads
// right after login do not observe a transiently empty set.
func waitSnapshot(r *http.Request, st *store.Store) {
	ctx, cancel := context.WithTimeout(r.Context(), snapshotWait)
	defer cancel()
	_ = st.WaitSynced(ctx)
}

// GET /api/tasks?status={todo|doing|done}
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	st, release, ok := h.acquireStore(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	defer release()
	waitSnapshot(r, st)

	status := models.TaskStatus("")
	if raw := r.URL.Query().Get("status"); raw != "" {
		status = models.NormalizeStatus(raw)
		if status == "" {
			sendError(w, "Invalid status value", http.StatusBadRequest)
			return
		}
	}
	sendJSON(w, http.StatusOK, views.List(st.Tasks(), status))
}

type createTaskInput struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	DueDate     string         `json:"dueDate"`
	Priority    string         `json:"priority"`
	Status      string         `json:"status"`
	Subtasks    []subtaskInput `json:"subtasks"`
}

type subtaskInput struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// POST /api/tasks
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	st, release, ok := h.acquireStore(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	defer release()

	raw, ok := readBody(w, r)
	if !ok {
		return
	}
	if err := validation.CreateTask(raw); err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var input createTaskInput
	if err := json.Unmarshal(raw, &input); err != nil {
		sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	id, err := st.Create(r.Context(), store.CreateInput{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		DueDate:     input.DueDate,
		Priority:    models.NormalizePriority(input.Priority),
		Status:      models.NormalizeStatus(input.Status),
		Subtasks:    toSubtasks(input.Subtasks),
	})
	if err != nil {
		sendError(w, "Failed to create task", http.StatusBadGateway)
		return
	}

	w.Header().Set("Location", "/api/tasks/"+id)
	sendJSON(w, http.StatusAccepted, map[string]string{"id": id})
}

// GET /api/tasks/{id}
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	st, release, ok := h.acquireStore(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	defer release()
	waitSnapshot(r, st)

	detail, found := views.DetailOf(st.Tasks(), mux.Vars(r)["id"])
	if !found {
		sendError(w, "Task not found", http.StatusNotFound)
		return
	}
	sendJSON(w, http.StatusOK, detail)
}

// PATCH /api/tasks/{id}
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	st, release, ok := h.acquireStore(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	defer release()
	waitSnapshot(r, st)

	id := mux.Vars(r)["id"]
	if !ownsTask(st, id) {
		sendError(w, "Task not found", http.StatusNotFound)
		return
	}

	raw, ok := readBody(w, r)
	if !ok {
		return
	}
	if err := validation.UpdateTask(raw); err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	fields, err := patchFields(raw)
	if err != nil {
		sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	if err := st.Update(r.Context(), id, fields); err != nil {
		sendError(w, "Failed to update task", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// DELETE /api/tasks/{id}
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	st, release, ok := h.acquireStore(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	defer release()
	waitSnapshot(r, st)

	id := mux.Vars(r)["id"]
	if !ownsTask(st, id) {
		// foreign ids and already-deleted own ids look the same here;
		// neither reaches the backend
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := st.Remove(r.Context(), id); err != nil {
		sendError(w, "Failed to delete task", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/tasks/{id}/subtasks/{subtaskId}/toggle
func (h *Handler) ToggleSubtask(w http.ResponseWriter, r *http.Request) {
	st, release, ok := h.acquireStore(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	defer release()
	waitSnapshot(r, st)

	vars := mux.Vars(r)
	if err := st.ToggleSubtask(r.Context(), vars["id"], vars["subtaskId"]); err != nil {
		if err == collection.ErrNotFound {
			sendError(w, "Subtask not found", http.StatusNotFound)
			return
		}
		sendError(w, "Failed to update subtask", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// PUT /api/tasks/{id}/subtasks
func (h *Handler) ReplaceSubtasks(w http.ResponseWriter, r *http.Request) {
	st, release, ok := h.acquireStore(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	defer release()
	waitSnapshot(r, st)

	id := mux.Vars(r)["id"]
	if !ownsTask(st, id) {
		sendError(w, "Task not found", http.StatusNotFound)
		return
	}

	var input []subtaskInput
	if !decodeJSONBody(w, r, &input) {
		return
	}
	seen := make(map[string]bool, len(input))
	for _, sub := range input {
		if strings.TrimSpace(sub.Title) == "" {
			sendError(w, "subtask title must not be blank", http.StatusBadRequest)
			return
		}
		if sub.ID != "" && seen[sub.ID] {
			sendError(w, "duplicate subtask id "+sub.ID, http.StatusBadRequest)
			return
		}
		seen[sub.ID] = true
	}

	if err := st.SetSubtasks(r.Context(), id, toSubtasks(input)); err != nil {
		sendError(w, "Failed to update subtasks", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func ownsTask(st *store.Store, id string) bool {
	for _, t := range st.Tasks() {
		if t.ID == id {
			return true
		}
	}
	return false
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if !isJSONContentType(r) {
		sendError(w, "Content-Type must be application/json", http.StatusBadRequest)
		return nil, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		sendError(w, "Invalid request body", http.StatusBadRequest)
		return nil, false
	}
	return raw, true
}

// patchFields keeps only patchable keys, normalizing enums and typing
// the subtask array for the adapter.
func patchFields(raw []byte) (collection.Fields, error) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}

	fields := collection.Fields{}
	for key, value := range body {
		switch key {
		case "title", "description", "dueDate":
			var s string
			if err := json.Unmarshal(value, &s); err != nil {
				return nil, err
			}
			if key == "title" {
				s = strings.TrimSpace(s)
			}
			fields[key] = s
		case "status":
			var s string
			if err := json.Unmarshal(value, &s); err != nil {
				return nil, err
			}
			fields[key] = string(models.NormalizeStatus(s))
		case "priority":
			var s string
			if err := json.Unmarshal(value, &s); err != nil {
				return nil, err
			}
			fields[key] = string(models.NormalizePriority(s))
		case "subtasks":
			var subs []subtaskInput
			if err := json.Unmarshal(value, &subs); err != nil {
				return nil, err
			}
			fields[key] = toSubtasks(subs)
		}
	}
	return fields, nil
}

func toSubtasks(input []subtaskInput) []models.Subtask {
	out := make([]models.Subtask, 0, len(input))
	for _, sub := range input {
		id := sub.ID
		if id == "" {
			id = uuid.NewString()
		}
		out = append(out, models.Subtask{
			ID:        id,
			Title:     strings.TrimSpace(sub.Title),
			Completed: sub.Completed,
		})
	}
	return out
}
