package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Router wires every route. Authenticated routes all require a valid
// session token; sign-in and sign-up do not.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/api/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/api/logout", h.AuthMiddleware(h.Logout)).Methods(http.MethodPost)

	r.HandleFunc("/api/tasks", h.AuthMiddleware(h.ListTasks)).Methods(http.MethodGet)
	r.HandleFunc("/api/tasks", h.AuthMiddleware(h.CreateTask)).Methods(http.MethodPost)
	r.HandleFunc("/api/tasks/{id}", h.AuthMiddleware(h.GetTask)).Methods(http.MethodGet)
	r.HandleFunc("/api/tasks/{id}", h.AuthMiddleware(h.UpdateTask)).Methods(http.MethodPatch, http.MethodPut)
	r.HandleFunc("/api/tasks/{id}", h.AuthMiddleware(h.DeleteTask)).Methods(http.MethodDelete)
	r.HandleFunc("/api/tasks/{id}/subtasks", h.AuthMiddleware(h.ReplaceSubtasks)).Methods(http.MethodPut)
	r.HandleFunc("/api/tasks/{id}/subtasks/{subtaskId}/toggle", h.AuthMiddleware(h.ToggleSubtask)).Methods(http.MethodPost)

	r.HandleFunc("/api/board", h.AuthMiddleware(h.KanbanBoard)).Methods(http.MethodGet)
	r.HandleFunc("/api/calendar", h.AuthMiddleware(h.CalendarEvents)).Methods(http.MethodGet)
	r.HandleFunc("/api/dashboard", h.AuthMiddleware(h.DashboardMetrics)).Methods(http.MethodGet)

	r.HandleFunc("/ws", h.AuthMiddleware(h.HandleWebSocket)).Methods(http.MethodGet)

	return r
}
