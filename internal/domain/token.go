package domain

import (
	"context"
	"crypto/rsa"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IDTokenClaims is the claim set of a signed identity assertion. The
// profile, email, and phone claims are populated only when the
// corresponding scope was granted.
type IDTokenClaims struct {
	jwt.RegisteredClaims
	Nonce         string `json:"nonce,omitempty"`
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
	EmailVerified *bool  `json:"email_verified,omitempty"`
	PhoneNumber   string `json:"phone_number,omitempty"`
}

// TokenResponse is the success body of the token endpoint.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	Scope        string `json:"scope"`
}

// Signer signs identity tokens with the server key and exposes the
// public half for JWKS publication.
type Signer interface {
	Sign(claims jwt.Claims) (string, error)
	PublicKey() *rsa.PublicKey
	KeyID() string
}

// TokenIssuer computes token values. It is stateless and never stores
// anything.
type TokenIssuer interface {
	// NewOpaqueToken returns a cryptographically random string with at
	// least 256 bits of entropy. The server never parses it back;
	// validity is a pure store lookup.
	NewOpaqueToken() (string, error)

	// NewIDToken builds and signs the identity assertion for the
	// subject, gating profile/email/phone claims on the granted
	// scopes. subject may be nil, in which case only the standard
	// claims are emitted.
	NewIDToken(subject *Subject, subjectID, clientID string, scopes []string, nonce string, now time.Time) (string, error)
}

// Subject is the read-only identity record the login collaborator
// maintains for an authenticated subject id.
type Subject struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Phone         string `json:"phone"`
}

// SubjectDirectory resolves subject attributes for claim building. The
// core never writes subjects.
type SubjectDirectory interface {
	FindByID(ctx context.Context, subjectID string) (*Subject, error)
}
