package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ipede/authorization-service/internal/domain"
	httperrors "github.com/ipede/authorization-service/internal/interfaces/http/errors"
	"go.uber.org/zap"
)

// TokenHandler serves the back-channel /token endpoint.
type TokenHandler struct {
	service domain.TokenService
	logger  *zap.Logger
}

// NewTokenHandler creates a TokenHandler.
func NewTokenHandler(service domain.TokenService, logger *zap.Logger) *TokenHandler {
	return &TokenHandler{
		service: service,
		logger:  logger,
	}
}

// Token parses the form-encoded grant request, resolves the client
// credentials from HTTP Basic auth or the body, and dispatches.
func (h *TokenHandler) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httperrors.RespondWithError(w, domain.ErrInvalidRequest.WithDescription("request body must be form-encoded"))
		return
	}

	req := &domain.TokenRequest{
		GrantType:    r.PostFormValue("grant_type"),
		Code:         r.PostFormValue("code"),
		RedirectURI:  r.PostFormValue("redirect_uri"),
		RefreshToken: r.PostFormValue("refresh_token"),
		Scope:        r.PostFormValue("scope"),
		ClientID:     r.PostFormValue("client_id"),
		ClientSecret: r.PostFormValue("client_secret"),
	}

	// Basic auth wins over body credentials when both are present.
	if id, secret, ok := r.BasicAuth(); ok {
		req.ClientID = id
		req.ClientSecret = secret
	}

	if req.GrantType == "" {
		httperrors.RespondWithError(w, domain.ErrInvalidRequest.WithDescription("grant_type is required"))
		return
	}

	response, err := h.service.Exchange(r.Context(), req)
	if err != nil {
		h.logger.Warn("token exchange rejected",
			zap.String("grant_type", req.GrantType),
			zap.String("client_id", req.ClientID),
			zap.Error(err))
		httperrors.RespondWithError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode token response", zap.Error(err))
	}
}
