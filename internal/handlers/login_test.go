package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

func registerUser(t *testing.T, router *mux.Router, email, password string) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/register", "",
		map[string]string{"email": email, "password": password})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status=%d body=%s", rec.Code, rec.Body.String())
	}
	var resp struct {
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return resp.UserID
}

func TestLogin_HappyPath(t *testing.T) {
	_, router, _ := setupHTTP(t)
	registerUser(t, router, "alice@example.com", "correct-horse")

	rec := doJSON(t, router, http.MethodPost, "/api/login", "",
		`{"email":"alice@example.com","password":"correct-horse"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	var resp struct {
		UserID string `json:"user_id"`
		Token  string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Token == "" || resp.UserID == "" {
		t.Fatalf("missing token or user id: %+v", resp)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	_, router, _ := setupHTTP(t)
	registerUser(t, router, "alice@example.com", "correct-horse")

	rec := doJSON(t, router, http.MethodPost, "/api/login", "",
		`{"email":"alice@example.com","password":"wrong-horse"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, want 401", rec.Code)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	_, router, _ := setupHTTP(t)

	rec := doJSON(t, router, http.MethodPost, "/api/login", "",
		`{"email":"nobody@example.com","password":"correct-horse"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, want 401", rec.Code)
	}
}

func TestLogin_StartsSubscription(t *testing.T) {
	h, router, _ := setupHTTP(t)
	userID := registerUser(t, router, "alice@example.com", "correct-horse")

	rec := doJSON(t, router, http.MethodPost, "/api/login", "",
		`{"email":"alice@example.com","password":"correct-horse"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status=%d", rec.Code)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.Stores.Peek(userID) != nil {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("login never started the identity's task subscription")
}

func TestLogout_ReleasesStore(t *testing.T) {
	h, router, _ := setupHTTP(t)
	userID := registerUser(t, router, "alice@example.com", "correct-horse")

	if rec := doJSON(t, router, http.MethodPost, "/api/login", "",
		`{"email":"alice@example.com","password":"correct-horse"}`); rec.Code != http.StatusOK {
		t.Fatalf("login status=%d", rec.Code)
	}

	authz := bearerForUser(t, userID)
	if rec := doJSON(t, router, http.MethodPost, "/api/logout", authz, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("logout status=%d", rec.Code)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.Stores.Peek(userID) == nil {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("logout never released the identity's store")
}
