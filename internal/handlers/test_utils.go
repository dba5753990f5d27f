package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/isabelacreiter/TaskFlow/internal/collection"
	"github.com/isabelacreiter/TaskFlow/internal/session"
	"github.com/isabelacreiter/TaskFlow/internal/store"
	"github.com/isabelacreiter/TaskFlow/internal/users"
	"github.com/sirupsen/logrus"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setupHTTP(t *testing.T) (*Handler, *mux.Router, *collection.Memory) {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	mem := collection.NewMemory()
	stores := store.NewManager(mem, log)
	t.Cleanup(stores.TeardownAll)

	sessions := session.NewRegistry(func(p *session.Provider) {
		stop := store.Bind(p, stores)
		t.Cleanup(stop)
	})

	h := &Handler{
		Users:       users.NewMemoryRepository(),
		Stores:      stores,
		Sessions:    sessions,
		RateLimiter: NewRateLimiter(50, time.Second),
		JWTSecret:   testSecret,
		Log:         log,
	}
	return h, h.Router(), mem
}

func bearerForUser(t *testing.T, userID string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(1 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign jwt: %v", err)
	}
	return "Bearer " + signed
}

func doJSON(t *testing.T, router *mux.Router, method, path, authz string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			buf, err := json.Marshal(body)
			if err != nil {
				t.Fatalf("marshal body: %v", err)
			}
			reader = bytes.NewReader(buf)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func awaitStatus(t *testing.T, router *mux.Router, path, authz, taskID, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		rec := doJSON(t, router, http.MethodGet, path, authz, nil)
		if rec.Code == http.StatusOK {
			var listed []struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &listed); err == nil {
				for _, task := range listed {
					if task.ID == taskID && task.Status == want {
						return
					}
				}
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("task %s never reached status %q", taskID, want)
}
