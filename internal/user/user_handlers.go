package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"watchlist/internal/auth"
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type UserHandlers struct {
	Service *UserService
	Tokens  *auth.TokenService
}

func NewUserHandlers(service *UserService, tokens *auth.TokenService) *UserHandlers {
	return &UserHandlers{Service: service, Tokens: tokens}
}

// TokenHandler exchanges the owner's credentials, sent as JSON or as a form,
// for a bearer token
func (h *UserHandlers) TokenHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var creds Credentials
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "Invalid request format"})
			return
		}
	} else {
		creds.Username = r.FormValue("username")
		creds.Password = r.FormValue("password")
	}

	u, err := h.Service.Authenticate(r.Context(), creds.Username, creds.Password)
	switch {
	case errors.Is(err, ErrInvalidInput):
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid input."})
		return
	case errors.Is(err, ErrInvalidCredentials):
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid username or password."})
		return
	case err != nil:
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "Internal server error"})
		return
	}

	token, expiresAt, err := h.Tokens.GenerateToken(u.ID, u.Username)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "Failed to generate token"})
		return
	}

	json.NewEncoder(w).Encode(TokenResponse{Token: token, ExpiresAt: expiresAt})
}
