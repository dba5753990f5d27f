package handlers

import (
	"net/http"
	"time"

	"github.com/isabelacreiter/TaskFlow/internal/views"
)

// GET /api/board
func (h *Handler) KanbanBoard(w http.ResponseWriter, r *http.Request) {
	st, release, ok := h.acquireStore(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	defer release()
	waitSnapshot(r, st)

	sendJSON(w, http.StatusOK, views.Kanban(st.Tasks()))
}

// GET /api/calendar
func (h *Handler) CalendarEvents(w http.ResponseWriter, r *http.Request) {
	st, release, ok := h.acquireStore(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	defer release()
	waitSnapshot(r, st)

	sendJSON(w, http.StatusOK, views.Calendar(st.Tasks()))
}

// GET /api/dashboard
func (h *Handler) DashboardMetrics(w http.ResponseWriter, r *http.Request) {
	st, release, ok := h.acquireStore(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	defer release()
	waitSnapshot(r, st)

	sendJSON(w, http.StatusOK, views.Dashboard(st.Tasks(), time.Now().UTC()))
}
