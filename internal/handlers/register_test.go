package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestRegister_HappyPath(t *testing.T) {
	_, router, _ := setupHTTP(t)

	rec := doJSON(t, router, http.MethodPost, "/api/register", "",
		`{"email":"alice@example.com","password":"correct-horse"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	var resp struct {
		UserID string `json:"user_id"`
		Email  string `json:"email"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.UserID == "" || resp.Email != "alice@example.com" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	_, router, _ := setupHTTP(t)

	body := `{"email":"alice@example.com","password":"correct-horse"}`
	if rec := doJSON(t, router, http.MethodPost, "/api/register", "", body); rec.Code != http.StatusCreated {
		t.Fatalf("first register status=%d", rec.Code)
	}
	if rec := doJSON(t, router, http.MethodPost, "/api/register", "", body); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register status=%d, want 409", rec.Code)
	}
}

func TestRegister_Validation(t *testing.T) {
	_, router, _ := setupHTTP(t)

	cases := []struct {
		name string
		body string
	}{
		{"bad email", `{"email":"not-an-email","password":"correct-horse"}`},
		{"short password", `{"email":"alice@example.com","password":"short"}`},
		{"bad json", `{"email":`},
	}
	for _, c := range cases {
		rec := doJSON(t, router, http.MethodPost, "/api/register", "", c.body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status=%d, want 400", c.name, rec.Code)
		}
	}
}
