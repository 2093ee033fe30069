package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ridecrew/ridecrew/db"
	"github.com/ridecrew/ridecrew/internal/auth"
	"github.com/ridecrew/ridecrew/internal/config"
	"github.com/ridecrew/ridecrew/internal/handlers"
	"github.com/ridecrew/ridecrew/internal/providers"
	"github.com/ridecrew/ridecrew/internal/router"
	"github.com/ridecrew/ridecrew/internal/scheduler"
	"github.com/ridecrew/ridecrew/internal/services"
	"github.com/ridecrew/ridecrew/internal/session"
	"github.com/ridecrew/ridecrew/internal/store"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg)
	if err := auth.InitJWTSecret(cfg.Session.JWTSecret); err != nil {
		log.Fatalf("Failed to initialize JWT secret: %v", err)
	}

	dataStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 10*time.Second)
	redisClient, err := session.Connect(startupCtx, cfg.Storage.RedisURL)
	cancelStartup()
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	sessions := session.NewStore(redisClient, cfg.Session.TTL)

	strava := providers.NewStravaClient(providers.StravaConfig{
		ClientID:     cfg.Strava.ClientID,
		ClientSecret: cfg.Strava.ClientSecret,
		BaseURL:      cfg.Strava.BaseURL,
		RedirectURL:  cfg.StravaRedirectURL(),
		Timeout:      cfg.App.ProviderTimeout,
		RateLimit:    cfg.Strava.RateLimit,
		RateBurst:    cfg.Strava.RateBurst,
	})

	google := providers.NewGoogleClient(providers.GoogleConfig{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL(),
		UserInfoURL:  cfg.Google.UserInfoURL,
		Timeout:      cfg.App.ProviderTimeout,
	})

	hub := handlers.NewFeedHub(cfg.Server.AllowedOrigins)
	groups := services.NewGroupService(dataStore, hub)

	h := &handlers.Handler{
		Store:      dataStore,
		Sessions:   sessions,
		Identity:   services.NewIdentityService(dataStore, cfg.App.VerifyPasswords),
		Importer:   services.NewImportService(dataStore, strava),
		Stats:      services.NewStatsService(dataStore),
		Groups:     groups,
		Activities: services.NewActivityService(dataStore, groups),
		Strava:     strava,
		Google:     google,
		Hub:        hub,
		Cookies: handlers.CookieConfig{
			Domain: cfg.Session.CookieDomain,
			Secure: cfg.Session.CookieSecure,
		},
		ClientURL: cfg.Server.ClientURL,
	}

	var refresh *scheduler.Scheduler
	if cfg.App.TokenRefreshSchedule != "" {
		tokens := services.NewTokenService(dataStore, strava, scheduler.RefreshWindow)
		refresh = scheduler.NewScheduler(cfg.App.TokenRefreshSchedule, tokens)
		if err := refresh.Start(); err != nil {
			log.Fatalf("Failed to start token refresh scheduler: %v", err)
		}
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.NewRouter(h, sessions, cfg.Server.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.WithFields(log.Fields{
			"port":    cfg.Server.Port,
			"storage": cfg.Storage.Driver,
		}).Info("Server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-shutdownCh

	if refresh != nil {
		refresh.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}

func setupLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		log.Warnf("Invalid LOG_LEVEL %q, using info", cfg.App.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode)
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.Storage.Driver != config.StoragePostgres {
		log.Warn("Using in-memory storage, data is lost on restart")
		return store.NewMemoryStore(), nil
	}

	conn, err := db.Connect(cfg.Storage.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(conn); err != nil {
		return nil, err
	}

	return store.NewGormStore(conn), nil
}
