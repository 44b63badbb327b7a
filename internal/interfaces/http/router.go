package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ipede/authorization-service/internal/application"
	"github.com/ipede/authorization-service/internal/domain"
	"github.com/ipede/authorization-service/internal/infrastructure/config"
	"github.com/ipede/authorization-service/internal/interfaces/http/handlers"
	"github.com/ipede/authorization-service/internal/interfaces/http/middleware/auth"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// Dependencies carries the collaborators the router wires into the
// services and handlers. Store and Registry are interfaces so the
// memory and postgres implementations are interchangeable.
type Dependencies struct {
	Registry domain.ClientRegistry
	Store    domain.ArtifactStore
	Issuer   domain.TokenIssuer
	Subjects domain.SubjectDirectory
	Audit    domain.AuditSink
	Signer   domain.Signer
	Config   *config.Config
	Logger   *zap.Logger

	// ReadyCheck reports backing-store health for the readiness
	// endpoint. nil means always ready.
	ReadyCheck func() error
}

type Router struct {
	router *chi.Mux
}

func NewRouter(deps Dependencies) *Router {
	cfg := deps.Config
	logger := deps.Logger

	authorizeService := application.NewAuthorizeService(
		deps.Registry, deps.Store, deps.Issuer, deps.Subjects, deps.Audit,
		cfg.CodeTTL, cfg.AccessTokenTTL, logger)
	tokenService := application.NewTokenService(
		deps.Registry, deps.Store, deps.Issuer, deps.Subjects, deps.Audit,
		cfg.AccessTokenTTL, cfg.RefreshTokenTTL, logger)
	oidcService := application.NewOIDCService(
		deps.Store, deps.Subjects, deps.Signer, cfg.IssuerURL, logger)

	sessionAuth := auth.NewSessionAuthenticator([]byte(cfg.SessionSecret), cfg.LoginURL, logger)

	authorizeHandler := handlers.NewAuthorizeHandler(authorizeService, logger)
	tokenHandler := handlers.NewTokenHandler(tokenService, logger)
	oidcHandler := handlers.NewOIDCHandler(oidcService, logger)

	router := createRouter()

	// Health check endpoints
	router.Group(func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})

		r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
			if deps.ReadyCheck != nil {
				if err := deps.ReadyCheck(); err != nil {
					logger.Error("readiness check failed", zap.Error(err))
					w.WriteHeader(http.StatusServiceUnavailable)
					w.Write([]byte("Backing store unavailable"))
					return
				}
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Ready"))
		})

		r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Alive"))
		})
	})

	// Swagger UI configuration
	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
		httpSwagger.DeepLinking(true),
		httpSwagger.PersistAuthorization(true),
	))

	router.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "docs/swagger.json")
	})

	// Discovery endpoints
	router.Group(func(r chi.Router) {
		r.Get("/.well-known/openid-configuration", oidcHandler.OpenIDConfiguration)
		r.Get("/.well-known/jwks.json", oidcHandler.JWKS)
	})

	// Front channel: the session middleware suspends unauthenticated
	// flows by redirecting to the login collaborator.
	router.Group(func(r chi.Router) {
		r.Use(sessionAuth.Verifier(), sessionAuth.Authenticator)
		r.Get("/oauth2/authorize", authorizeHandler.Authorize)
	})

	// Back channel: client authentication happens inside the service.
	router.Group(func(r chi.Router) {
		r.Post("/oauth2/token", tokenHandler.Token)
		r.Get("/oauth2/userinfo", oidcHandler.UserInfo)
	})

	return &Router{router: router}
}

func createRouter() *chi.Mux {
	router := chi.NewRouter()

	// Add middleware
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Timeout(60 * time.Second))

	return router
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
