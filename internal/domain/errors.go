package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// OAuthError is an RFC 6749 protocol error. Code is the wire-level
// error code, Status the HTTP status it is returned with.
type OAuthError struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
	Status      int    `json:"-"`
}

func (e *OAuthError) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WithDescription returns a copy of the error carrying a more specific
// description. The sentinel itself is never mutated so errors.Is keeps
// working on the copies.
func (e *OAuthError) WithDescription(description string) *OAuthError {
	return &OAuthError{Code: e.Code, Description: description, Status: e.Status}
}

// Is matches any OAuthError with the same wire code, so copies produced
// by WithDescription compare equal to their sentinel.
func (e *OAuthError) Is(target error) bool {
	var oe *OAuthError
	if !errors.As(target, &oe) {
		return false
	}
	return e.Code == oe.Code
}

var (
	ErrInvalidRequest          = &OAuthError{Code: "invalid_request", Description: "the request is missing a required parameter or is otherwise malformed", Status: http.StatusBadRequest}
	ErrInvalidClient           = &OAuthError{Code: "invalid_client", Description: "client authentication failed", Status: http.StatusUnauthorized}
	ErrInvalidGrant            = &OAuthError{Code: "invalid_grant", Description: "the provided grant is invalid, expired, or revoked", Status: http.StatusBadRequest}
	ErrUnauthorizedClient      = &OAuthError{Code: "unauthorized_client", Description: "the client is not authorized to use this grant type", Status: http.StatusBadRequest}
	ErrUnsupportedGrantType    = &OAuthError{Code: "unsupported_grant_type", Description: "the grant type is not supported", Status: http.StatusBadRequest}
	ErrUnsupportedResponseType = &OAuthError{Code: "unsupported_response_type", Description: "the response type is not supported", Status: http.StatusBadRequest}
	ErrInvalidScope            = &OAuthError{Code: "invalid_scope", Description: "the requested scope is invalid or exceeds the granted scope", Status: http.StatusBadRequest}
	ErrInvalidToken            = &OAuthError{Code: "invalid_token", Description: "the access token is missing, expired, or unknown", Status: http.StatusUnauthorized}
	ErrServerError             = &OAuthError{Code: "server_error", Description: "the authorization server encountered an unexpected condition", Status: http.StatusInternalServerError}
)

// Artifact store sentinels. All of them surface as invalid_grant at the
// token endpoint; they stay distinct for logging and tests.
var (
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrArtifactExpired  = errors.New("artifact expired")
	ErrArtifactUsed     = errors.New("artifact already used")
	ErrArtifactExists   = errors.New("artifact already stored")
)

// ErrSubjectNotFound is returned by a SubjectDirectory when no record
// exists for the authenticated subject id.
var ErrSubjectNotFound = errors.New("subject not found")
