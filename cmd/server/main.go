package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/roundrobin/backend/internal/calendar"
	"github.com/roundrobin/backend/internal/config"
	"github.com/roundrobin/backend/internal/db"
	httpapi "github.com/roundrobin/backend/internal/http"
	"github.com/roundrobin/backend/internal/models"
	"github.com/roundrobin/backend/internal/routing"
	"github.com/roundrobin/backend/internal/scheduling"
	"github.com/roundrobin/backend/internal/secrets"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "roundrobin-backend").Logger()

	if cfg.EncryptionKey == "" {
		logger.Fatal().Msg("ENCRYPTION_KEY is required")
	}
	cipher, err := secrets.NewCipher(cfg.EncryptionKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init token cipher")
	}

	ctx := context.Background()
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	if cfg.MigrateOnStart {
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate db")
		}
		logger.Info().Msg("migrations applied")
	}

	registry := calendar.NewRegistry()
	registry.Register(models.ProviderGoogle, &calendar.GoogleProvider{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		MaxRetries:   cfg.ProviderMaxRetries,
	})
	registry.Register(models.ProviderMicrosoft, &calendar.MicrosoftProvider{
		ClientID:     cfg.MicrosoftClientID,
		ClientSecret: cfg.MicrosoftClientSecret,
		Tenant:       cfg.MicrosoftTenant,
		Client:       &http.Client{Timeout: cfg.ProviderTimeout},
		MaxRetries:   cfg.ProviderMaxRetries,
	})

	tokens := &scheduling.TokenManager{
		Store:            store,
		Registry:         registry,
		Cipher:           cipher,
		RefreshThreshold: cfg.RefreshThreshold,
		Logger:           logger,
	}
	engine := &routing.Engine{Store: store, Logger: logger}
	availability := &scheduling.AvailabilityService{
		Tokens:      tokens,
		Hours:       calendar.BusinessHours{Start: cfg.BusinessHoursStart, End: cfg.BusinessHoursEnd},
		Granularity: cfg.SlotGranularity,
		Logger:      logger,
	}
	bookings := &scheduling.BookingService{
		Store:  store,
		Tokens: tokens,
		Logger: logger,
	}

	router := httpapi.Router(cfg, store, engine, availability, bookings, tokens, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
