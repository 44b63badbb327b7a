package auth

import (
	"net/http"
	"net/url"

	"github.com/go-chi/jwtauth/v5"
	"github.com/ipede/authorization-service/internal/domain"
	"go.uber.org/zap"
)

// SessionAuthenticator verifies the session token the external login
// service issues after authenticating the resource owner. The core
// only consumes the subject id; credential verification happens
// entirely in the collaborator.
type SessionAuthenticator struct {
	auth     *jwtauth.JWTAuth
	loginURL string
	logger   *zap.Logger
}

// NewSessionAuthenticator creates an authenticator over the HS256
// secret shared with the login service.
func NewSessionAuthenticator(sessionSecret []byte, loginURL string, logger *zap.Logger) *SessionAuthenticator {
	return &SessionAuthenticator{
		auth:     jwtauth.New("HS256", sessionSecret, nil),
		loginURL: loginURL,
		logger:   logger,
	}
}

// Verifier extracts and parses the session token from the request.
func (a *SessionAuthenticator) Verifier() func(http.Handler) http.Handler {
	return jwtauth.Verifier(a.auth)
}

// Authenticator requires a valid session and puts the subject id on
// the context. Without one, the flow is suspended: the user agent is
// sent to the login service with the original request carried in the
// continue parameter, and resumes by replaying the request once a
// session exists.
func (a *SessionAuthenticator) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, _, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil || token.Subject() == "" {
			a.suspend(w, r)
			return
		}

		ctx := domain.WithSubject(r.Context(), token.Subject())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *SessionAuthenticator) suspend(w http.ResponseWriter, r *http.Request) {
	login, err := url.Parse(a.loginURL)
	if err != nil {
		a.logger.Error("invalid login URL", zap.String("login_url", a.loginURL), zap.Error(err))
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	q := login.Query()
	q.Set("continue", r.URL.String())
	login.RawQuery = q.Encode()

	http.Redirect(w, r, login.String(), http.StatusFound)
}
