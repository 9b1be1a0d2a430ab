package api

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-pkgz/auth/v2"
	"github.com/go-pkgz/auth/v2/avatar"
	"github.com/go-pkgz/auth/v2/provider"
	"github.com/go-pkgz/auth/v2/token"

	"fluencytrail/config"
	"fluencytrail/services/accounts"
)

// NewAuthService builds the session layer: a direct (email/password)
// provider backed by the accounts service, with JWT state kept in an
// HTTP-only cookie.
func NewAuthService(cfg config.AuthSettings, appName, baseURL string, creds *accounts.Service) *auth.Service {
	svc := auth.NewService(auth.Opts{
		SecretReader: token.SecretFunc(func(string) (string, error) {
			return cfg.Secret, nil
		}),
		TokenDuration:  time.Duration(cfg.TokenTTLMinutes) * time.Minute,
		CookieDuration: time.Duration(cfg.CookieTTLHours) * time.Hour,
		Issuer:         appName,
		URL:            baseURL,
		AvatarStore:    avatar.NewLocalFS(cfg.AvatarDirectory),
		DisableXSRF:    true,
	})

	svc.AddDirectProvider("local", provider.CredCheckerFunc(func(user, password string) (bool, error) {
		_, err := creds.CheckCredentials(context.Background(), user, password)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, accounts.ErrInvalidCredentials):
			return false, nil
		case errors.Is(err, accounts.ErrNotConfirmed):
			log.Printf("[auth] login rejected for unconfirmed account")
			return false, nil
		default:
			return false, err
		}
	}))

	return svc
}
