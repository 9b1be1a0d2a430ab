package handlers

import (
	"context"
	"net/http"

	"fluencytrail/models"
	"fluencytrail/services/stats"
)

type statsService interface {
	Overview(ctx context.Context, userID, languageCode string) (models.Stats, error)
}

var _ statsService = (*stats.Service)(nil)

type StatsHandler struct {
	Service statsService
}

func NewStatsHandler(svc statsService) *StatsHandler {
	return &StatsHandler{Service: svc}
}

// Overview returns totals, streaks and the heatmap, optionally filtered to
// one language via ?language=.
func (h *StatsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	overview, err := h.Service.Overview(r.Context(), user.ID, r.URL.Query().Get("language"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}
