package token

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ipede/authorization-service/internal/domain"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// opaqueTokenBytes is 256 bits of entropy per issued token.
const opaqueTokenBytes = 32

// Issuer computes opaque tokens and signed ID tokens. It holds no
// state beyond its collaborators and never stores what it mints.
type Issuer struct {
	signer domain.Signer
	issuer string
	logger *zap.Logger
}

// NewIssuer creates an Issuer. issuer is the value of the iss claim,
// normally the server's public base URL.
func NewIssuer(signer domain.Signer, issuer string, logger *zap.Logger) *Issuer {
	return &Issuer{
		signer: signer,
		issuer: issuer,
		logger: logger,
	}
}

// NewOpaqueToken returns a base64url string over 256 bits of
// crypto/rand entropy. The server never decodes it again; validity is
// decided by store lookup alone.
func (i *Issuer) NewOpaqueToken() (string, error) {
	buf := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// NewIDToken builds the standard claim set and signs it. The profile,
// email, and phone claims are added only when the corresponding scope
// was granted and the directory returned a subject record.
func (i *Issuer) NewIDToken(subject *domain.Subject, subjectID, clientID string, scopes []string, nonce string, now time.Time) (string, error) {
	claims := &domain.IDTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   subjectID,
			Audience:  jwt.ClaimStrings{clientID},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(domain.DefaultAccessTokenTTL)),
			ID:        ulid.Make().String(),
		},
		Nonce: nonce,
	}

	if subject != nil {
		if domain.HasScope(scopes, domain.ScopeProfile) {
			claims.Name = subject.Name
		}
		if domain.HasScope(scopes, domain.ScopeEmail) {
			claims.Email = subject.Email
			verified := subject.EmailVerified
			claims.EmailVerified = &verified
		}
		if domain.HasScope(scopes, domain.ScopePhone) {
			claims.PhoneNumber = subject.Phone
		}
	}

	signed, err := i.signer.Sign(claims)
	if err != nil {
		i.logger.Error("failed to sign id token",
			zap.String("subject_id", subjectID),
			zap.String("client_id", clientID),
			zap.Error(err))
		return "", err
	}
	return signed, nil
}
