package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ipede/authorization-service/internal/domain"
	"github.com/ipede/authorization-service/internal/infrastructure/audit"
	"github.com/ipede/authorization-service/internal/infrastructure/config"
	"github.com/ipede/authorization-service/internal/infrastructure/database"
	"github.com/ipede/authorization-service/internal/infrastructure/registry"
	"github.com/ipede/authorization-service/internal/infrastructure/repository"
	"github.com/ipede/authorization-service/internal/infrastructure/secret"
	"github.com/ipede/authorization-service/internal/infrastructure/signer"
	"github.com/ipede/authorization-service/internal/infrastructure/store"
	"github.com/ipede/authorization-service/internal/infrastructure/token"
	httprouter "github.com/ipede/authorization-service/internal/interfaces/http"
	"go.uber.org/zap"
)

// @title Authorization Service API
// @version 1.0
// @description OAuth2 / OpenID Connect authorization server
// @host localhost:8080
func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize signer and issuer
	signingKey, err := signer.NewLocal(cfg.SigningKeyPath, logger)
	if err != nil {
		logger.Fatal("Failed to initialize signing key", zap.Error(err))
	}
	issuer := token.NewIssuer(signingKey, cfg.IssuerURL, logger)
	auditSink := audit.NewZapSink(logger)

	deps := httprouter.Dependencies{
		Issuer: issuer,
		Audit:  auditSink,
		Signer: signingKey,
		Config: cfg,
		Logger: logger,
	}

	// Select the artifact store backend
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		db, err := database.NewPostgres(ctx, cfg, logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		if err := db.RunMigrations(ctx); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}

		deps.Store = store.NewPostgres(db, logger)
		deps.Registry = registry.NewPostgres(db, logger)
		deps.Subjects = repository.NewSubjectDirectory(db, logger)
		deps.ReadyCheck = db.Ping
	case config.StoreDriverMemory:
		deps.Store = store.NewMemory(logger)
		deps.Registry = registry.NewMemory(seedClients(logger), logger)
		deps.Subjects = repository.NewMemorySubjectDirectory(nil)
	default:
		logger.Fatal("Unknown store driver", zap.String("store_driver", cfg.StoreDriver))
	}

	// Best-effort reclamation of expired artifacts
	go store.Sweep(ctx, deps.Store, cfg.SweepInterval, logger)

	// Create router
	router := httprouter.NewRouter(deps)

	// Start server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", zap.Int("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	logger.Info("Shutting down server...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited properly")
}

// seedClients registers the development clients the memory registry
// starts with. CLIENT_SECRET overrides the default web-app secret.
func seedClients(logger *zap.Logger) []domain.Client {
	webAppSecret := os.Getenv("CLIENT_SECRET")
	if webAppSecret == "" {
		webAppSecret = "web-app-secret"
	}
	hash, err := secret.Hash(webAppSecret)
	if err != nil {
		logger.Fatal("Failed to hash seed client secret", zap.Error(err))
	}

	return []domain.Client{
		&domain.ConfidentialClient{
			ClientProfile: domain.ClientProfile{
				ID:            "web-app",
				RedirectURIs:  []string{"http://localhost:3000/callback"},
				GrantTypes:    []string{domain.GrantAuthorizationCode, domain.GrantRefreshToken, domain.GrantClientCredentials},
				ResponseTypes: []string{domain.ResponseTypeCode, domain.ResponseTypeToken},
				Scopes:        domain.SupportedScopes,
			},
			SecretHash: hash,
		},
		&domain.PublicClient{
			ClientProfile: domain.ClientProfile{
				ID:            "spa",
				RedirectURIs:  []string{"http://localhost:3000/spa/callback"},
				GrantTypes:    []string{domain.GrantAuthorizationCode},
				ResponseTypes: []string{domain.ResponseTypeCode, domain.ResponseTypeToken},
				Scopes:        []string{domain.ScopeOpenID, domain.ScopeProfile},
			},
		},
	}
}
