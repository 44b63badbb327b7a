package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ipede/authorization-service/internal/domain"
	httperrors "github.com/ipede/authorization-service/internal/interfaces/http/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestAuthorizeRedirectsOnSuccess(t *testing.T) {
	// Setup
	logger, _ := zap.NewDevelopment()
	mockService := new(MockAuthorizeService)
	handler := NewAuthorizeHandler(mockService, logger)

	mockService.On("Authorize", mock.Anything, mock.MatchedBy(func(req *domain.AuthorizeRequest) bool {
		return req.ClientID == "web-app" &&
			req.ResponseType == "code" &&
			req.SubjectID == "user-1" &&
			req.State == "xyz123"
	})).Return(&domain.AuthorizeResult{
		RedirectURL: "https://app.example.com/callback?code=abc&state=xyz123",
	}, nil)

	// Create test request with an authenticated subject on the context
	req := httptest.NewRequest("GET",
		"/oauth2/authorize?response_type=code&client_id=web-app&redirect_uri=https%3A%2F%2Fapp.example.com%2Fcallback&scope=openid&state=xyz123", nil)
	req = req.WithContext(domain.WithSubject(req.Context(), "user-1"))
	w := httptest.NewRecorder()

	// Execute request
	handler.Authorize(w, req)

	// Assertions
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://app.example.com/callback?code=abc&state=xyz123", w.Header().Get("Location"))
	mockService.AssertExpectations(t)
}

func TestAuthorizeMissingParameters(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	mockService := new(MockAuthorizeService)
	handler := NewAuthorizeHandler(mockService, logger)

	req := httptest.NewRequest("GET", "/oauth2/authorize?client_id=web-app", nil)
	req = req.WithContext(domain.WithSubject(req.Context(), "user-1"))
	w := httptest.NewRecorder()

	handler.Authorize(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body httperrors.ErrorResponse
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "invalid_request", body.Error)

	// The service is never consulted on a malformed request.
	mockService.AssertNotCalled(t, "Authorize")
}

func TestAuthorizeRejectionIsDirectError(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	mockService := new(MockAuthorizeService)
	handler := NewAuthorizeHandler(mockService, logger)

	mockService.On("Authorize", mock.Anything, mock.Anything).
		Return(nil, domain.ErrInvalidRequest.WithDescription("redirect_uri is not registered for this client"))

	req := httptest.NewRequest("GET",
		"/oauth2/authorize?response_type=code&client_id=web-app&redirect_uri=https%3A%2F%2Fevil.example.com%2F&scope=openid", nil)
	req = req.WithContext(domain.WithSubject(req.Context(), "user-1"))
	w := httptest.NewRecorder()

	handler.Authorize(w, req)

	// No redirect: the error is rendered directly.
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, w.Header().Get("Location"))

	var body httperrors.ErrorResponse
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "invalid_request", body.Error)
	assert.Equal(t, "redirect_uri is not registered for this client", body.ErrorDescription)
}

func TestAuthorizeWithoutSubject(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	mockService := new(MockAuthorizeService)
	handler := NewAuthorizeHandler(mockService, logger)

	req := httptest.NewRequest("GET",
		"/oauth2/authorize?response_type=code&client_id=web-app&redirect_uri=https%3A%2F%2Fapp.example.com%2Fcallback", nil)
	w := httptest.NewRecorder()

	handler.Authorize(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	mockService.AssertNotCalled(t, "Authorize")
}
