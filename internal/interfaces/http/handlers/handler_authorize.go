package handlers

import (
	"net/http"

	"github.com/ipede/authorization-service/internal/domain"
	httperrors "github.com/ipede/authorization-service/internal/interfaces/http/errors"
	"go.uber.org/zap"
)

// AuthorizeHandler serves the front-channel /authorize endpoint.
type AuthorizeHandler struct {
	service domain.AuthorizeService
	logger  *zap.Logger
}

// NewAuthorizeHandler creates an AuthorizeHandler.
func NewAuthorizeHandler(service domain.AuthorizeService, logger *zap.Logger) *AuthorizeHandler {
	return &AuthorizeHandler{
		service: service,
		logger:  logger,
	}
}

// Authorize parses and validates the request, then redirects the user
// agent with the minted artifact. Validation failures are direct JSON
// errors: a redirect is only ever issued to a URI that survived the
// registration check.
func (h *AuthorizeHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &domain.AuthorizeRequest{
		ResponseType: query.Get("response_type"),
		ClientID:     query.Get("client_id"),
		RedirectURI:  query.Get("redirect_uri"),
		Scope:        query.Get("scope"),
		State:        query.Get("state"),
		Nonce:        query.Get("nonce"),
	}

	if req.ResponseType == "" || req.ClientID == "" || req.RedirectURI == "" {
		httperrors.RespondWithError(w, domain.ErrInvalidRequest.WithDescription(
			"response_type, client_id, and redirect_uri are required"))
		return
	}

	subjectID, ok := domain.GetSubject(r.Context())
	if !ok || subjectID == "" {
		// The session middleware redirects unauthenticated requests
		// before the handler runs; reaching this point is a wiring
		// fault, not a user error.
		h.logger.Error("authorize handler reached without authenticated subject")
		httperrors.RespondWithError(w, domain.ErrServerError)
		return
	}
	req.SubjectID = subjectID

	result, err := h.service.Authorize(r.Context(), req)
	if err != nil {
		h.logger.Warn("authorization rejected",
			zap.String("client_id", req.ClientID),
			zap.String("response_type", req.ResponseType),
			zap.Error(err))
		httperrors.RespondWithError(w, err)
		return
	}

	http.Redirect(w, r, result.RedirectURL, http.StatusFound)
}
