package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ipede/authorization-service/internal/domain"
	httperrors "github.com/ipede/authorization-service/internal/interfaces/http/errors"
	"go.uber.org/zap"
)

// OIDCHandler serves userinfo, discovery, and JWKS.
type OIDCHandler struct {
	service domain.OIDCService
	logger  *zap.Logger
}

// NewOIDCHandler creates an OIDCHandler.
func NewOIDCHandler(service domain.OIDCService, logger *zap.Logger) *OIDCHandler {
	return &OIDCHandler{
		service: service,
		logger:  logger,
	}
}

// UserInfo resolves the bearer token and returns the scope-gated
// claims recorded on it.
func (h *OIDCHandler) UserInfo(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		httperrors.RespondWithInvalidToken(w)
		return
	}

	claims, err := h.service.UserInfo(r.Context(), token)
	if err != nil {
		if err == domain.ErrInvalidToken || domain.ErrInvalidToken.Is(err) {
			httperrors.RespondWithInvalidToken(w)
			return
		}
		h.logger.Error("userinfo failed", zap.Error(err))
		httperrors.RespondWithError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(claims); err != nil {
		h.logger.Error("failed to encode userinfo response", zap.Error(err))
	}
}

// JWKS publishes the verification key set.
func (h *OIDCHandler) JWKS(w http.ResponseWriter, r *http.Request) {
	jwks, err := h.service.GetJWKS(r.Context())
	if err != nil {
		h.logger.Error("failed to build JWKS", zap.Error(err))
		httperrors.RespondWithError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(jwks); err != nil {
		h.logger.Error("failed to encode JWKS response", zap.Error(err))
	}
}

// OpenIDConfiguration serves the discovery document.
func (h *OIDCHandler) OpenIDConfiguration(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.service.GetOpenIDConfiguration(r.Context())); err != nil {
		h.logger.Error("failed to encode discovery response", zap.Error(err))
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
