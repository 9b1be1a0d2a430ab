package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"fluencytrail/internal/database"
	"fluencytrail/models"
	"fluencytrail/services/media"
)

type mediaService interface {
	Search(ctx context.Context, userID, query string) ([]models.SearchResult, error)
	Get(ctx context.Context, userID, id string) (models.Media, error)
	CreateCustom(ctx context.Context, userID string, input models.CustomMediaInput) (models.CustomMedia, error)
	GetCustom(ctx context.Context, userID, id string) (models.CustomMedia, error)
	ListCustom(ctx context.Context, userID string) ([]models.CustomMedia, error)
	UpdateCustom(ctx context.Context, userID, id string, input models.CustomMediaInput) (models.CustomMedia, error)
	DeleteCustom(ctx context.Context, userID, id string) error
}

var _ mediaService = (*media.Service)(nil)

type MediaHandler struct {
	Service mediaService
}

func NewMediaHandler(svc mediaService) *MediaHandler {
	return &MediaHandler{Service: svc}
}

// Search merges TMDB titles with the user's custom media.
func (h *MediaHandler) Search(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		http.Error(w, "query parameter q is required", http.StatusBadRequest)
		return
	}

	results, err := h.Service.Search(r.Context(), user.ID, query)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *MediaHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	m, err := h.Service.Get(r.Context(), user.ID, mux.Vars(r)["id"])
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, database.ErrNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MediaHandler) CreateCustom(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var input models.CustomMediaInput
	if !decodeJSON(w, r, &input) {
		return
	}

	cm, err := h.Service.CreateCustom(r.Context(), user.ID, input)
	if err != nil {
		http.Error(w, err.Error(), customMediaStatus(err))
		return
	}
	writeJSON(w, http.StatusCreated, cm)
}

func (h *MediaHandler) ListCustom(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	items, err := h.Service.ListCustom(r.Context(), user.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []models.CustomMedia{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *MediaHandler) GetCustom(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	cm, err := h.Service.GetCustom(r.Context(), user.ID, mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), customMediaStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, cm)
}

func (h *MediaHandler) UpdateCustom(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var input models.CustomMediaInput
	if !decodeJSON(w, r, &input) {
		return
	}

	cm, err := h.Service.UpdateCustom(r.Context(), user.ID, mux.Vars(r)["id"], input)
	if err != nil {
		http.Error(w, err.Error(), customMediaStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, cm)
}

func (h *MediaHandler) DeleteCustom(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeleteCustom(r.Context(), user.ID, mux.Vars(r)["id"]); err != nil {
		http.Error(w, err.Error(), customMediaStatus(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func customMediaStatus(err error) int {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, media.ErrTitleRequired), errors.Is(err, media.ErrBadMetadata):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrSlugExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
