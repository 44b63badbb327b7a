package domain

import "context"

// AuthorizeRequest is a parsed front-channel /authorize request. The
// handler guarantees ResponseType, ClientID, and RedirectURI are
// non-empty before the service runs; SubjectID is the authenticated
// subject resolved by the session middleware.
type AuthorizeRequest struct {
	ResponseType string
	ClientID     string
	RedirectURI  string
	Scope        string
	State        string
	Nonce        string
	SubjectID    string
}

// AuthorizeResult is the outcome of a successful pass through the
// front-channel state machine: the absolute URL the user agent is
// redirected to. For the code flow the artifact travels in the query
// string, for the implicit flow in the fragment.
type AuthorizeResult struct {
	RedirectURL string
}

// AuthorizeService is the front-channel state machine.
type AuthorizeService interface {
	Authorize(ctx context.Context, req *AuthorizeRequest) (*AuthorizeResult, error)
}

// TokenRequest is a parsed back-channel /token request. ClientID and
// ClientSecret come from HTTP Basic auth or the form body.
type TokenRequest struct {
	GrantType    string
	Code         string
	RedirectURI  string
	RefreshToken string
	Scope        string
	ClientID     string
	ClientSecret string
}

// TokenService dispatches back-channel grants.
type TokenService interface {
	Exchange(ctx context.Context, req *TokenRequest) (*TokenResponse, error)
}

// OIDCService serves the read-mostly auxiliary endpoints.
type OIDCService interface {
	// UserInfo returns the claims for the subject behind the access
	// token, filtered strictly by the scopes recorded on that token.
	UserInfo(ctx context.Context, accessToken string) (map[string]interface{}, error)

	GetJWKS(ctx context.Context) (map[string]interface{}, error)
	GetOpenIDConfiguration(ctx context.Context) map[string]interface{}
}
