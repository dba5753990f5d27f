package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/isabelacreiter/TaskFlow/internal/models"
	"github.com/isabelacreiter/TaskFlow/internal/notify"
)

type wsFrame struct {
	Type   string         `json:"type"`
	Tasks  []models.Task  `json:"tasks,omitempty"`
	Notice *notify.Notice `json:"notice,omitempty"`
}

/*
GET /ws streams the caller's synchronized task view.

Each connection holds one reference on the identity's store: the first
connection starts the subscription, the last release tears it down. The
client receives a "snapshot" frame for every store emission and a
"notice" frame for every user-visible notification.
*/
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientIP := r.RemoteAddr
	if h.RateLimiter != nil && !h.RateLimiter.Allow(clientIP) {
		sendError(w, "Too many WebSocket connection attempts", http.StatusTooManyRequests)
		return
	}

	st, release, ok := h.acquireStore(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // adjust for production
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Warnf("websocket upgrade failed: %v", err)
		release()
		return
	}

	snapshots, cancelSnapshots := st.Listen()
	notices, cancelNotices := st.Notices()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case tasks, ok := <-snapshots:
				if !ok {
					return
				}
				if err := conn.WriteJSON(wsFrame{Type: "snapshot", Tasks: tasks}); err != nil {
					return
				}
			case notice, ok := <-notices:
				if !ok {
					return
				}
				if err := conn.WriteJSON(wsFrame{Type: "notice", Notice: &notice}); err != nil {
					return
				}
			}
		}
	}()

	// the read loop only detects the client going away
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	cancelSnapshots()
	cancelNotices()
	<-done
	conn.Close()
	release()
}
