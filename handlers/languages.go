package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"fluencytrail/models"
	"fluencytrail/services/languages"
)

type languagesService interface {
	List(ctx context.Context) ([]models.Language, error)
	UserLanguages(ctx context.Context, userID string) ([]models.UserLanguage, error)
	Add(ctx context.Context, userID, code string) error
	Remove(ctx context.Context, userID, code string) error
	SetPrimary(ctx context.Context, userID, code string) error
}

var _ languagesService = (*languages.Service)(nil)

type LanguagesHandler struct {
	Service languagesService
}

func NewLanguagesHandler(svc languagesService) *LanguagesHandler {
	return &LanguagesHandler{Service: svc}
}

// Catalog lists every supported language.
func (h *LanguagesHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	langs, err := h.Service.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, langs)
}

// Mine lists the user's study languages with the primary flagged.
func (h *LanguagesHandler) Mine(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	langs, err := h.Service.UserLanguages(r.Context(), user.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, langs)
}

func (h *LanguagesHandler) Add(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var payload struct {
		Code string `json:"code"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	if err := h.Service.Add(r.Context(), user.ID, payload.Code); err != nil {
		http.Error(w, err.Error(), languageStatus(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LanguagesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	code := strings.TrimSpace(mux.Vars(r)["code"])
	if err := h.Service.Remove(r.Context(), user.ID, code); err != nil {
		http.Error(w, err.Error(), languageStatus(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LanguagesHandler) SetPrimary(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	code := strings.TrimSpace(mux.Vars(r)["code"])
	if err := h.Service.SetPrimary(r.Context(), user.ID, code); err != nil {
		http.Error(w, err.Error(), languageStatus(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func languageStatus(err error) int {
	switch {
	case errors.Is(err, languages.ErrUnknownLanguage):
		return http.StatusBadRequest
	case errors.Is(err, languages.ErrNotAttached):
		return http.StatusNotFound
	case errors.Is(err, languages.ErrLastLanguage), errors.Is(err, languages.ErrPrimaryLanguage):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
