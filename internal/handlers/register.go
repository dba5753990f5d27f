package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/isabelacreiter/TaskFlow/internal/models"
	"github.com/isabelacreiter/TaskFlow/internal/users"
	"golang.org/x/crypto/bcrypt"
)

type credentialsInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	clientIP := r.RemoteAddr
	if h.RateLimiter != nil && !h.RateLimiter.Allow(clientIP) {
		h.Log.Warnf("rate limit exceeded for %s", clientIP)
		sendError(w, "Too many attempts. Please try again later.", http.StatusTooManyRequests)
		return
	}

	input, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Log.Errorf("hash password: %v", err)
		sendError(w, "Cannot hash password", http.StatusInternalServerError)
		return
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        input.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}

	if err := h.Users.Create(r.Context(), user); err != nil {
		if errors.Is(err, users.ErrDuplicate) {
			sendError(w, "Email already registered", http.StatusConflict)
			return
		}
		h.Log.Errorf("save user: %v", err)
		sendError(w, "Cannot save user", http.StatusInternalServerError)
		return
	}

	h.Log.Infof("user registered: %s", user.Email)
	sendJSON(w, http.StatusCreated, map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
	})
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsInput, bool) {
	var input credentialsInput
	if !decodeJSONBody(w, r, &input) {
		return input, false
	}
	if !isValidEmail(input.Email) {
		sendError(w, "Invalid email", http.StatusBadRequest)
		return input, false
	}
	if len(input.Password) < 8 {
		sendError(w, "Password must be at least 8 characters long", http.StatusBadRequest)
		return input, false
	}
	return input, true
}

func isValidEmail(email string) bool {
	const emailRegex = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	re := regexp.MustCompile(emailRegex)
	return re.MatchString(email)
}
