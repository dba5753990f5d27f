package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	clientIP := r.RemoteAddr
	if h.RateLimiter != nil && !h.RateLimiter.Allow(clientIP) {
		h.Log.Warnf("rate limit exceeded for %s", clientIP)
		sendError(w, "Too many login attempts. Please try again later.", http.StatusTooManyRequests)
		return
	}

	input, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	user, err := h.Users.GetByEmail(r.Context(), input.Email)
	if err != nil {
		h.Log.Infof("login failed for %s: %v", input.Email, err)
		sendError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	if err := bcrypt.CompareHashAndPassword(
		[]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		h.Log.Infof("invalid password for %s", input.Email)
		sendError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	tokenString, err := h.signToken(user.ID)
	if err != nil {
		h.Log.Errorf("sign token: %v", err)
		sendError(w, "Cannot create token", http.StatusInternalServerError)
		return
	}

	// flipping the session to signed-in starts the identity's task
	// subscription
	h.Sessions.ForUser(user.ID).SetSignedIn(user.ID)

	h.Log.Infof("user logged in: %s", input.Email)
	sendJSON(w, http.StatusOK, map[string]any{
		"user_id":    user.ID,
		"user_email": user.Email,
		"token":      tokenString,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value("user_id").(string)
	if userID == "" {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	h.Sessions.ForUser(userID).SetSignedOut()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) signToken(sub string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(24 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	})
	return token.SignedString([]byte(h.JWTSecret))
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !isJSONContentType(r) {
		sendError(w, "Content-Type must be application/json", http.StatusBadRequest)
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}
