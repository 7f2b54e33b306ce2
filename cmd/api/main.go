package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/cibilbank/backend/internal/auth"
	"github.com/cibilbank/backend/internal/cache"
	"github.com/cibilbank/backend/internal/config"
	"github.com/cibilbank/backend/internal/db"
	appdomain "github.com/cibilbank/backend/internal/domain/application"
	docdomain "github.com/cibilbank/backend/internal/domain/document"
	"github.com/cibilbank/backend/internal/domain/steps"
	"github.com/cibilbank/backend/internal/eligibility"
	"github.com/cibilbank/backend/internal/http/handlers"
	"github.com/cibilbank/backend/internal/observability"
	postgresrepo "github.com/cibilbank/backend/internal/repository/postgres"
	"github.com/cibilbank/backend/internal/repository/redisstore"
	"github.com/cibilbank/backend/internal/server"
	"github.com/cibilbank/backend/internal/ws"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := observability.NewLogger(cfg.Env)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect postgres", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect redis", "err", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	authRepo := db.NewAuthRepository(pool)
	jwtManager := auth.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTSigningKey)
	authService := auth.NewService(authRepo, jwtManager, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	authHandler := handlers.NewAuthHandler(authService, auth.CookieConfig{Domain: cfg.CookieDomain, Secure: cfg.CookieSecure}, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	hub := ws.NewHub()
	notifier := ws.NewStatusNotifier(hub)

	applicationRepo := postgresrepo.NewApplicationRepository(pool)
	auditRepo := postgresrepo.NewStatusAuditRepository(pool)
	applicationService := appdomain.NewService(applicationRepo, auditRepo, notifier)

	gateway := eligibility.NewGateway(eligibility.Config{
		BaseURL:      cfg.EligibilityBaseURL,
		ClientID:     cfg.EligibilityClientID,
		ClientSecret: cfg.EligibilityClientSecret,
		Timeout:      cfg.EligibilityTimeout,
	})

	documentRepo := postgresrepo.NewDocumentRepository(pool)
	documentService := docdomain.NewService(documentRepo, applicationService, gateway, cfg.MaxDocumentBytes)

	fragmentStore := redisstore.NewFragmentStore(redisClient, cfg.FragmentTTL)
	fragmentService := steps.NewFragmentService(applicationService, fragmentStore)
	sequencer := steps.NewSequencer(applicationService, fragmentStore, documentService)

	r := server.NewRouter(cfg, logger, server.Dependencies{
		DBPinger:           pool,
		CachePinger:        cache.Pinger{Client: redisClient},
		AuthHandler:        authHandler,
		ApplicationHandler: handlers.NewApplicationHandler(applicationService),
		StepsHandler:       handlers.NewStepsHandler(fragmentService, sequencer),
		DocumentHandler:    handlers.NewDocumentHandler(documentService),
		EligibilityHandler: handlers.NewEligibilityHandler(gateway),
		WSHandler:          ws.NewHandler(hub),
		JWTManager:         jwtManager,
	})
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("api server starting", "addr", cfg.Addr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)
	logger.Info("api server stopped")
}
