package domain

import (
	"context"
	"time"
)

// Default artifact lifetimes.
const (
	DefaultAuthorizationCodeTTL = 10 * time.Minute
	DefaultAccessTokenTTL       = time.Hour
	DefaultRefreshTokenTTL      = 30 * 24 * time.Hour
)

// AuthorizationCode is a short-lived, single-use artifact minted on the
// front channel and redeemed exactly once on the back channel.
type AuthorizationCode struct {
	Code        string    `json:"code"`
	ClientID    string    `json:"client_id"`
	SubjectID   string    `json:"subject_id"`
	Scopes      []string  `json:"scopes"`
	RedirectURI string    `json:"redirect_uri"`
	Nonce       string    `json:"nonce,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	Used        bool      `json:"used"`
	UsedAt      time.Time `json:"used_at,omitempty"`
}

// AccessToken is an opaque credential. Validity is determined purely by
// store lookup, never by token content. It is not renewed in place.
type AccessToken struct {
	Token     string    `json:"token"`
	ClientID  string    `json:"client_id"`
	SubjectID string    `json:"subject_id"`
	Scopes    []string  `json:"scopes"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RefreshToken is a long-lived opaque credential. Each successful use
// invalidates it and produces exactly one successor; the lineage never
// branches.
type RefreshToken struct {
	Token     string    `json:"token"`
	ClientID  string    `json:"client_id"`
	SubjectID string    `json:"subject_id"`
	Scopes    []string  `json:"scopes"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ArtifactStore owns the lifecycle of codes and tokens; no other
// component mutates them. Expiry is checked lazily at every lookup, so
// correctness never depends on a background sweep.
//
// ConsumeAuthorizationCode and ConsumeRefreshToken are the two
// correctness-critical operations: each must be atomic with respect to
// concurrent callers. Exactly one of N racing consumers of the same
// artifact succeeds; the rest get ErrArtifactUsed or
// ErrArtifactNotFound.
type ArtifactStore interface {
	SaveAuthorizationCode(ctx context.Context, code *AuthorizationCode) error

	// GetAuthorizationCode returns the code without consuming it, for
	// side-effect-free validation. Expired codes yield
	// ErrArtifactExpired, consumed ones ErrArtifactUsed.
	GetAuthorizationCode(ctx context.Context, code string, now time.Time) (*AuthorizationCode, error)

	// ConsumeAuthorizationCode atomically flips used from false to
	// true. The transition happens at most once per code, ever.
	ConsumeAuthorizationCode(ctx context.Context, code string, now time.Time) (*AuthorizationCode, error)

	SaveAccessToken(ctx context.Context, token *AccessToken) error
	GetAccessToken(ctx context.Context, token string, now time.Time) (*AccessToken, error)

	SaveRefreshToken(ctx context.Context, token *RefreshToken) error

	// GetRefreshToken returns the token without consuming it.
	GetRefreshToken(ctx context.Context, token string, now time.Time) (*RefreshToken, error)

	// ConsumeRefreshToken atomically removes and returns the token.
	// The removal is the serialization point of rotation: a racing
	// second consumer can never observe the token again.
	ConsumeRefreshToken(ctx context.Context, token string, now time.Time) (*RefreshToken, error)

	// DeleteExpired reclaims expired artifacts to bound memory. Best
	// effort only.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
