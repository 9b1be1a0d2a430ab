package api

import (
	"net/http"

	"github.com/go-pkgz/auth/v2"
	"github.com/gorilla/mux"

	"fluencytrail/handlers"
	"fluencytrail/services/accounts"
	"fluencytrail/services/activities"
	"fluencytrail/services/languages"
	"fluencytrail/services/media"
	"fluencytrail/services/stats"
	"fluencytrail/services/timers"
)

// Deps carries everything the router needs wired up.
type Deps struct {
	Auth       *auth.Service
	Users      userFinder
	Accounts   *accounts.Service
	Languages  *languages.Service
	Media      *media.Service
	Activities *activities.Service
	Timers     *timers.Service
	Stats      *stats.Service
}

// Register mounts the full API on router: session endpoints under /auth,
// public signup/confirm/reset endpoints, and the authenticated API under
// /api/v1.
func Register(router *mux.Router, deps Deps) {
	authHandler := handlers.NewAuthHandler(deps.Accounts)
	profileHandler := handlers.NewProfileHandler(deps.Accounts)
	languagesHandler := handlers.NewLanguagesHandler(deps.Languages)
	mediaHandler := handlers.NewMediaHandler(deps.Media)
	activitiesHandler := handlers.NewActivitiesHandler(deps.Activities)
	timersHandler := handlers.NewTimersHandler(deps.Timers)
	statsHandler := handlers.NewStatsHandler(deps.Stats)

	router.Use(corsMiddleware)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	// Login, logout and avatar endpoints come from the auth service.
	authRoutes, avaRoutes := deps.Auth.Handlers()
	router.PathPrefix("/auth").Handler(authRoutes)
	router.PathPrefix("/avatar").Handler(avaRoutes)

	api := router.PathPrefix("/api/v1").Subrouter()

	// Account lifecycle endpoints that must work without a session.
	public := api.PathPrefix("/account").Subrouter()
	public.HandleFunc("/signup", authHandler.Signup).Methods(http.MethodPost)
	public.HandleFunc("/confirm", authHandler.Confirm).Methods(http.MethodGet, http.MethodPost)
	public.HandleFunc("/reset-request", authHandler.RequestReset).Methods(http.MethodPost)
	public.HandleFunc("/reset", authHandler.ResetPassword).Methods(http.MethodPost)

	m := deps.Auth.Middleware()
	protected := api.NewRoute().Subrouter()
	protected.Use(m.Auth, identityMiddleware(deps.Users))

	protected.HandleFunc("/account/password", authHandler.ChangePassword).Methods(http.MethodPut)
	protected.HandleFunc("/profile", profileHandler.Current).Methods(http.MethodGet)
	protected.HandleFunc("/profile", profileHandler.Update).Methods(http.MethodPut)

	protected.HandleFunc("/languages", languagesHandler.Catalog).Methods(http.MethodGet)
	protected.HandleFunc("/profile/languages", languagesHandler.Mine).Methods(http.MethodGet)
	protected.HandleFunc("/profile/languages", languagesHandler.Add).Methods(http.MethodPost)
	protected.HandleFunc("/profile/languages/{code}", languagesHandler.Remove).Methods(http.MethodDelete)
	protected.HandleFunc("/profile/languages/{code}/primary", languagesHandler.SetPrimary).Methods(http.MethodPut)

	protected.HandleFunc("/media/search", mediaHandler.Search).Methods(http.MethodGet)
	protected.HandleFunc("/media/{id}", mediaHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/custom-media", mediaHandler.ListCustom).Methods(http.MethodGet)
	protected.HandleFunc("/custom-media", mediaHandler.CreateCustom).Methods(http.MethodPost)
	protected.HandleFunc("/custom-media/{id}", mediaHandler.GetCustom).Methods(http.MethodGet)
	protected.HandleFunc("/custom-media/{id}", mediaHandler.UpdateCustom).Methods(http.MethodPut)
	protected.HandleFunc("/custom-media/{id}", mediaHandler.DeleteCustom).Methods(http.MethodDelete)

	protected.HandleFunc("/activities", activitiesHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/activities", activitiesHandler.Create).Methods(http.MethodPost)
	protected.HandleFunc("/activities/{id}", activitiesHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/activities/{id}", activitiesHandler.Update).Methods(http.MethodPut)
	protected.HandleFunc("/activities/{id}", activitiesHandler.Delete).Methods(http.MethodDelete)

	protected.HandleFunc("/timers", timersHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/timers", timersHandler.Start).Methods(http.MethodPost)
	protected.HandleFunc("/timers/running", timersHandler.Running).Methods(http.MethodGet)
	protected.HandleFunc("/timers/{id}/stop", timersHandler.Stop).Methods(http.MethodPost)
	protected.HandleFunc("/timers/{id}", timersHandler.Cancel).Methods(http.MethodDelete)

	protected.HandleFunc("/stats", statsHandler.Overview).Methods(http.MethodGet)
}
