package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/isabelacreiter/TaskFlow/internal/models"
)

func TestWebSocketStreamsSnapshots(t *testing.T) {
	_, router, mem := setupHTTP(t)
	userID := uuid.NewString()
	authz := bearerForUser(t, userID)

	server := httptest.NewServer(router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	header := http.Header{"Authorization": []string{authz}}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("dial: %v (resp=%v)", err, resp)
	}
	defer conn.Close()

	// first frame: the (empty) initial snapshot
	var frame struct {
		Type  string        `json:"type"`
		Tasks []models.Task `json:"tasks"`
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read first frame: %v", err)
	}
	if frame.Type != "snapshot" {
		t.Fatalf("first frame type = %q, want snapshot", frame.Type)
	}

	// a backend write pushes a fresh snapshot to the connected client
	if _, err := mem.Insert(context.Background(), models.Task{
		ID: "t1", OwnerID: userID, Title: "pushed", Status: models.StatusTodo,
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("read frame: %v", err)
		}
		if frame.Type == "snapshot" && len(frame.Tasks) == 1 && frame.Tasks[0].Title == "pushed" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("pushed task never arrived: %+v", frame)
		}
	}
}

func TestWebSocketRequiresAuth(t *testing.T) {
	_, router, _ := setupHTTP(t)

	server := httptest.NewServer(router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("unauthenticated dial succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unexpected handshake response: %+v", resp)
	}
}
