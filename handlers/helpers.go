package handlers

import (
	"encoding/json"
	"net/http"

	"fluencytrail/internal/identity"
	"fluencytrail/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// requireUser pulls the authenticated user set by the identity middleware.
func requireUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return models.User{}, false
	}
	return user, true
}
