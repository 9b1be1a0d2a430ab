package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"fluencytrail/internal/database"
	"fluencytrail/models"
	"fluencytrail/services/media"
	"fluencytrail/services/timers"
)

type timersService interface {
	Start(ctx context.Context, userID string, input models.TimerInput) (models.ActivityTimer, error)
	Stop(ctx context.Context, userID, id string) (models.StoppedTimer, error)
	Cancel(ctx context.Context, userID, id string) error
	Running(ctx context.Context, userID string) (models.ActivityTimer, error)
	List(ctx context.Context, userID string, limit int) ([]models.ActivityTimer, error)
}

var _ timersService = (*timers.Service)(nil)

type TimersHandler struct {
	Service timersService
}

func NewTimersHandler(svc timersService) *TimersHandler {
	return &TimersHandler{Service: svc}
}

func (h *TimersHandler) Start(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var input models.TimerInput
	if !decodeJSON(w, r, &input) {
		return
	}

	t, err := h.Service.Start(r.Context(), user.ID, input)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, timers.ErrAlreadyRunning):
			status = http.StatusConflict
		case errors.Is(err, timers.ErrBadType),
			errors.Is(err, timers.ErrLanguageNotAttached),
			errors.Is(err, media.ErrBadRef):
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// Stop closes the timer and returns both the timer and the logged activity.
func (h *TimersHandler) Stop(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	stopped, err := h.Service.Stop(r.Context(), user.ID, mux.Vars(r)["id"])
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, database.ErrNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusOK, stopped)
}

func (h *TimersHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.Service.Cancel(r.Context(), user.ID, mux.Vars(r)["id"]); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, database.ErrNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Running returns the active timer or a 204 when none is running.
func (h *TimersHandler) Running(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	t, err := h.Service.Running(r.Context(), user.ID)
	if errors.Is(err, database.ErrNotFound) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TimersHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.Service.List(r.Context(), user.ID, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []models.ActivityTimer{}
	}
	writeJSON(w, http.StatusOK, items)
}
