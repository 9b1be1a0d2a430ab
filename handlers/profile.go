package handlers

import (
	"context"
	"errors"
	"net/http"

	"fluencytrail/models"
	"fluencytrail/services/accounts"
)

type profileService interface {
	UpdateProfile(ctx context.Context, userID, name, timezone string) (models.User, error)
}

var _ profileService = (*accounts.Service)(nil)

type ProfileHandler struct {
	Accounts profileService
}

func NewProfileHandler(svc profileService) *ProfileHandler {
	return &ProfileHandler{Accounts: svc}
}

// Current returns the authenticated user's profile.
func (h *ProfileHandler) Current(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var payload struct {
		Name     string `json:"name"`
		Timezone string `json:"timezone"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	updated, err := h.Accounts.UpdateProfile(r.Context(), user.ID, payload.Name, payload.Timezone)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, accounts.ErrNameRequired) || errors.Is(err, accounts.ErrBadTimezone) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}
