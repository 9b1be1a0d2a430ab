package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"fluencytrail/internal/database"
	"fluencytrail/models"
	"fluencytrail/services/activities"
	"fluencytrail/services/media"
)

type activitiesService interface {
	Log(ctx context.Context, userID string, input models.ActivityInput) (models.Activity, error)
	Get(ctx context.Context, userID, id string) (models.Activity, error)
	List(ctx context.Context, userID, languageCode string, limit, offset int) ([]models.Activity, error)
	Update(ctx context.Context, userID, id string, input models.ActivityInput) (models.Activity, error)
	Delete(ctx context.Context, userID, id string) error
}

var _ activitiesService = (*activities.Service)(nil)

type ActivitiesHandler struct {
	Service activitiesService
}

func NewActivitiesHandler(svc activitiesService) *ActivitiesHandler {
	return &ActivitiesHandler{Service: svc}
}

func (h *ActivitiesHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var input models.ActivityInput
	if !decodeJSON(w, r, &input) {
		return
	}

	a, err := h.Service.Log(r.Context(), user.ID, input)
	if err != nil {
		http.Error(w, err.Error(), activityStatus(err))
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *ActivitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, err := h.Service.List(r.Context(), user.ID, q.Get("language"), limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []models.Activity{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ActivitiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	a, err := h.Service.Get(r.Context(), user.ID, mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), activityStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *ActivitiesHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var input models.ActivityInput
	if !decodeJSON(w, r, &input) {
		return
	}

	a, err := h.Service.Update(r.Context(), user.ID, mux.Vars(r)["id"], input)
	if err != nil {
		http.Error(w, err.Error(), activityStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *ActivitiesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), user.ID, mux.Vars(r)["id"]); err != nil {
		http.Error(w, err.Error(), activityStatus(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func activityStatus(err error) int {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, activities.ErrBadType),
		errors.Is(err, activities.ErrBadDuration),
		errors.Is(err, activities.ErrBadDate),
		errors.Is(err, activities.ErrFutureDate),
		errors.Is(err, activities.ErrLanguageNotAttached),
		errors.Is(err, activities.ErrNotesTooLong),
		errors.Is(err, media.ErrBadRef):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
