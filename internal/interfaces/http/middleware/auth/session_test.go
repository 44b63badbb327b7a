package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/jwtauth/v5"
	"github.com/ipede/authorization-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSessionSecret = "test-session-secret"

func newTestChain(t *testing.T, next http.Handler) http.Handler {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	authenticator := NewSessionAuthenticator([]byte(testSessionSecret), "http://localhost:8080/login", logger)
	return authenticator.Verifier()(authenticator.Authenticator(next))
}

func sessionToken(t *testing.T, subject string) string {
	t.Helper()
	auth := jwtauth.New("HS256", []byte(testSessionSecret), nil)
	_, tokenString, err := auth.Encode(map[string]interface{}{"sub": subject})
	require.NoError(t, err)
	return tokenString
}

func TestAuthenticatorPassesSubject(t *testing.T) {
	var gotSubject string
	chain := newTestChain(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject, _ = domain.GetSubject(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/oauth2/authorize?response_type=code&client_id=web-app", nil)
	req.Header.Set("Authorization", "Bearer "+sessionToken(t, "user-1"))
	w := httptest.NewRecorder()

	chain.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", gotSubject)
}

// An unauthenticated request suspends the flow: the user agent goes to
// the login service carrying the original URL to resume afterwards.
func TestAuthenticatorSuspendsWithoutSession(t *testing.T) {
	chain := newTestChain(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	}))

	original := "/oauth2/authorize?response_type=code&client_id=web-app&state=xyz123"
	req := httptest.NewRequest("GET", original, nil)
	w := httptest.NewRecorder()

	chain.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "localhost:8080", location.Host)
	assert.Equal(t, "/login", location.Path)
	assert.Equal(t, original, location.Query().Get("continue"))
}

func TestAuthenticatorRejectsForgedToken(t *testing.T) {
	chain := newTestChain(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	}))

	// Signed with a different secret.
	forged := jwtauth.New("HS256", []byte("other-secret"), nil)
	_, tokenString, err := forged.Encode(map[string]interface{}{"sub": "user-1"})
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/oauth2/authorize", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()

	chain.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "/login")
}

func TestAuthenticatorRejectsTokenWithoutSubject(t *testing.T) {
	chain := newTestChain(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	}))

	auth := jwtauth.New("HS256", []byte(testSessionSecret), nil)
	_, tokenString, err := auth.Encode(map[string]interface{}{"scope": "whatever"})
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/oauth2/authorize", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()

	chain.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
}
