package api

import (
	"context"
	"net/http"

	"github.com/go-pkgz/auth/v2/token"
	"github.com/gorilla/mux"

	"fluencytrail/internal/identity"
	"fluencytrail/models"
)

type userFinder interface {
	GetByEmail(ctx context.Context, email string) (models.User, error)
}

// identityMiddleware resolves the JWT identity set by the auth middleware
// into a full user record and stores it on the request context. The direct
// provider authenticates by email, so the token's name field carries it.
func identityMiddleware(users userFinder) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info, err := token.GetUserInfo(r)
			if err != nil {
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}

			user, err := users.GetByEmail(r.Context(), info.Name)
			if err != nil {
				http.Error(w, "account no longer exists", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(identity.WithUser(r.Context(), user)))
		})
	}
}

// corsMiddleware handles CORS for API routes
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
