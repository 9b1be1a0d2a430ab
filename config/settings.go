package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Settings represents the application configuration persisted to disk.
// Secrets can be overridden from the environment; see applyEnvOverrides.
type Settings struct {
	Server   ServerSettings   `json:"server"`
	App      AppSettings      `json:"app"`
	Database DatabaseSettings `json:"database"`
	Media    MediaSettings    `json:"media"`
	Auth     AuthSettings     `json:"auth"`
	SMTP     SMTPSettings     `json:"smtp"`
	Log      LogConfig        `json:"log"`
}

type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// AppSettings carries values embedded into outbound emails and auth cookies.
type AppSettings struct {
	Name    string `json:"name"`
	BaseURL string `json:"baseUrl"`
}

type DatabaseSettings struct {
	Path string `json:"path"`
}

// MediaSettings configures the TMDB integration and its read-through cache.
type MediaSettings struct {
	TMDBAPIKey    string `json:"tmdbApiKey"`
	Language      string `json:"language"`
	CacheTTLHours int    `json:"cacheTtlHours"`
}

// AuthSettings configures session issuance. Secret signs the session JWT; an
// empty value is replaced with a generated one on first start.
type AuthSettings struct {
	Secret           string `json:"secret"`
	TokenTTLMinutes  int    `json:"tokenTtlMinutes"`
	CookieTTLHours   int    `json:"cookieTtlHours"`
	AvatarDirectory  string `json:"avatarDirectory"`
	ResetTTLMinutes  int    `json:"resetTtlMinutes"`
}

// SMTPSettings configures the transactional mail relay.
type SMTPSettings struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	File       string `json:"file"`
	Level      string `json:"level"`
	MaxSize    int    `json:"maxSize"`
	MaxAge     int    `json:"maxAge"`
	MaxBackups int    `json:"maxBackups"`
	Compress   bool   `json:"compress"`
}

// DefaultSettings returns sane defaults for a fresh install.
func DefaultSettings() Settings {
	return Settings{
		Server:   ServerSettings{Host: "0.0.0.0", Port: 8910},
		App:      AppSettings{Name: "FluencyTrail", BaseURL: "http://localhost:8910"},
		Database: DatabaseSettings{Path: "data/fluencytrail.db"},
		Media:    MediaSettings{TMDBAPIKey: "", Language: "en", CacheTTLHours: 6},
		Auth: AuthSettings{
			Secret:          "",
			TokenTTLMinutes: 15,
			CookieTTLHours:  24 * 7,
			AvatarDirectory: "data/avatars",
			ResetTTLMinutes: 60,
		},
		SMTP: SMTPSettings{Host: "", Port: 587, Username: "", Password: "", From: "no-reply@fluencytrail.local"},
		Log: LogConfig{
			File:       "data/logs/backend.log",
			Level:      "info",
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		},
	}
}

// Manager loads and persists settings to a JSON file.
type Manager struct {
	path string
}

func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

// EnsureDir ensures the config file's parent directory exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads settings from disk, creating the file with defaults when it does
// not exist yet, then applies environment overrides for secrets.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return applyEnvOverrides(defaults), nil
	}

	f, err := os.Open(m.path)
	if err != nil {
		return Settings{}, err
	}
	defer f.Close()

	s := DefaultSettings()
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return Settings{}, err
	}

	if s.Media.CacheTTLHours <= 0 {
		s.Media.CacheTTLHours = 6
	}
	if s.Auth.TokenTTLMinutes <= 0 {
		s.Auth.TokenTTLMinutes = 15
	}
	if s.Auth.CookieTTLHours <= 0 {
		s.Auth.CookieTTLHours = 24 * 7
	}
	if s.Auth.ResetTTLMinutes <= 0 {
		s.Auth.ResetTTLMinutes = 60
	}

	return applyEnvOverrides(s), nil
}

// Save writes the provided settings to disk atomically.
func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, m.path)
}

// applyEnvOverrides lets deployments keep secrets out of the settings file.
func applyEnvOverrides(s Settings) Settings {
	if v := env("FLUENCYTRAIL_TMDB_API_KEY"); v != "" {
		s.Media.TMDBAPIKey = v
	}
	if v := env("FLUENCYTRAIL_AUTH_SECRET"); v != "" {
		s.Auth.Secret = v
	}
	if v := env("FLUENCYTRAIL_BASE_URL"); v != "" {
		s.App.BaseURL = v
	}
	if v := env("FLUENCYTRAIL_SMTP_HOST"); v != "" {
		s.SMTP.Host = v
	}
	if v := env("FLUENCYTRAIL_SMTP_USERNAME"); v != "" {
		s.SMTP.Username = v
	}
	if v := env("FLUENCYTRAIL_SMTP_PASSWORD"); v != "" {
		s.SMTP.Password = v
	}
	if v := env("FLUENCYTRAIL_SMTP_FROM"); v != "" {
		s.SMTP.From = v
	}
	return s
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
