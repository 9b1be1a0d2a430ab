package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-password/password"
	"gopkg.in/natefinch/lumberjack.v2"

	"fluencytrail/api"
	"fluencytrail/config"
	"fluencytrail/internal/database"
	"fluencytrail/services/accounts"
	"fluencytrail/services/activities"
	"fluencytrail/services/languages"
	"fluencytrail/services/mailer"
	"fluencytrail/services/media"
	"fluencytrail/services/stats"
	"fluencytrail/services/timers"
)

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	fmt.Println("🚀 FluencyTrail Backend Starting...")

	// .env is optional; environment overrides are applied by the config layer.
	_ = godotenv.Load()

	configPath := os.Getenv("FLUENCYTRAIL_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("data", "settings.json")
	}

	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Set up file logging with rotation
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			multiWriter := io.MultiWriter(os.Stdout, fileWriter)
			log.SetOutput(multiWriter)
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	// Generate a session secret on first boot and persist it.
	if settings.Auth.Secret == "" {
		secret, err := password.Generate(64, 10, 0, false, true)
		if err != nil {
			log.Fatalf("failed to generate session secret: %v", err)
		}
		settings.Auth.Secret = secret
		if err := cfgManager.Save(settings); err != nil {
			log.Fatalf("failed to persist session secret: %v", err)
		}
		fmt.Println("🔑 Generated a new session secret.")
	}

	if settings.Media.TMDBAPIKey == "" {
		fmt.Println("⚠️  No TMDB API key configured: media search will return custom entries only.")
	}

	if err := os.MkdirAll(filepath.Dir(settings.Database.Path), 0755); err != nil {
		log.Fatalf("failed to create data directory: %v", err)
	}
	if err := os.MkdirAll(settings.Auth.AvatarDirectory, 0755); err != nil {
		log.Fatalf("failed to create avatar directory: %v", err)
	}

	db, err := database.Open(settings.Database.Path)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	conn := db.Connection()
	userRepo := database.NewUserRepository(conn)
	languageRepo := database.NewLanguageRepository(conn)
	mediaRepo := database.NewMediaRepository(conn)
	customRepo := database.NewCustomMediaRepository(conn)
	activityRepo := database.NewActivityRepository(conn)
	timerRepo := database.NewTimerRepository(conn)

	mail := mailer.New(settings.SMTP, settings.App.Name, settings.App.BaseURL)
	if !mail.Configured() {
		fmt.Println("📭 SMTP not configured: confirmation and reset emails are logged, not sent.")
	}

	accountsSvc := accounts.NewService(userRepo, mail, time.Duration(settings.Auth.ResetTTLMinutes)*time.Minute)
	languagesSvc := languages.NewService(languageRepo, userRepo, activityRepo)

	cacheTTL := time.Duration(settings.Media.CacheTTLHours) * time.Hour
	mediaSvc := media.NewService(mediaRepo, customRepo, settings.Media.TMDBAPIKey, settings.Media.Language, cacheTTL)

	activitiesSvc := activities.NewService(activityRepo, userRepo, mediaSvc)
	timersSvc := timers.NewService(timerRepo, activityRepo, userRepo, mediaSvc)
	statsSvc := stats.NewService(activityRepo, userRepo)

	authSvc := api.NewAuthService(settings.Auth, settings.App.Name, settings.App.BaseURL, accountsSvc)

	router := mux.NewRouter()
	api.Register(router, api.Deps{
		Auth:       authSvc,
		Users:      userRepo,
		Accounts:   accountsSvc,
		Languages:  languagesSvc,
		Media:      mediaSvc,
		Activities: activitiesSvc,
		Timers:     timersSvc,
		Stats:      statsSvc,
	})

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		fmt.Printf("🌐 Listening on http://%s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("🛑 Shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
