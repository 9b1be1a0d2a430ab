package handlers

import (
	"context"
	"errors"
	"net/http"

	"fluencytrail/models"
	"fluencytrail/services/accounts"
)

type accountsService interface {
	Register(ctx context.Context, email, name, password, timezone string) (models.User, error)
	Confirm(ctx context.Context, token string) (models.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, userID, current, next string) error
}

var _ accountsService = (*accounts.Service)(nil)

type AuthHandler struct {
	Accounts accountsService
}

func NewAuthHandler(svc accountsService) *AuthHandler {
	return &AuthHandler{Accounts: svc}
}

// Signup registers a new account and queues the confirmation email. Login is
// handled separately by the auth middleware's credential provider.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
		Timezone string `json:"timezone"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	user, err := h.Accounts.Register(r.Context(), payload.Email, payload.Name, payload.Password, payload.Timezone)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, accounts.ErrEmailTaken):
			status = http.StatusConflict
		case errors.Is(err, accounts.ErrEmailRequired),
			errors.Is(err, accounts.ErrEmailInvalid),
			errors.Is(err, accounts.ErrNameRequired),
			errors.Is(err, accounts.ErrPasswordShort),
			errors.Is(err, accounts.ErrBadTimezone):
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		var payload struct {
			Token string `json:"token"`
		}
		if !decodeJSON(w, r, &payload) {
			return
		}
		token = payload.Token
	}

	user, err := h.Accounts.Confirm(r.Context(), token)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, accounts.ErrTokenInvalid) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// RequestReset always answers 202 so the endpoint cannot be used to probe
// for registered addresses.
func (h *AuthHandler) RequestReset(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	if err := h.Accounts.RequestPasswordReset(r.Context(), payload.Email); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "if that address is registered, a reset email is on its way",
	})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	err := h.Accounts.ResetPassword(r.Context(), payload.Token, payload.Password)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, accounts.ErrTokenInvalid),
			errors.Is(err, accounts.ErrTokenExpired),
			errors.Is(err, accounts.ErrPasswordShort):
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var payload struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	err := h.Accounts.ChangePassword(r.Context(), user.ID, payload.CurrentPassword, payload.NewPassword)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, accounts.ErrInvalidCredentials):
			status = http.StatusForbidden
		case errors.Is(err, accounts.ErrPasswordShort):
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}
