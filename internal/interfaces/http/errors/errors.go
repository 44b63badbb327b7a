package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/ipede/authorization-service/internal/domain"
)

// ErrorResponse is the RFC 6749 error body.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// RespondWithError renders an error in the OAuth2 wire format. Errors
// that are not protocol errors are surfaced as server_error with no
// internal detail.
func RespondWithError(w http.ResponseWriter, err error) {
	var oauthErr *domain.OAuthError
	if !stderrors.As(err, &oauthErr) {
		oauthErr = domain.ErrServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(oauthErr.Status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:            oauthErr.Code,
		ErrorDescription: oauthErr.Description,
	})
}

// RespondWithInvalidToken renders the 401 the userinfo endpoint owes a
// bad bearer token, including the WWW-Authenticate challenge.
func RespondWithInvalidToken(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	RespondWithError(w, domain.ErrInvalidToken)
}
