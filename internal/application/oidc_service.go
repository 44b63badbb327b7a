package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ipede/authorization-service/internal/domain"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"go.uber.org/zap"
)

// jwksCacheDuration bounds how long a built key document is served
// before it is rebuilt from the signer.
const jwksCacheDuration = 5 * time.Minute

// OIDCService serves the read-mostly endpoints: userinfo, discovery,
// and the JWKS document.
type OIDCService struct {
	store     domain.ArtifactStore
	subjects  domain.SubjectDirectory
	signer    domain.Signer
	issuerURL string
	logger    *zap.Logger

	mu        sync.RWMutex
	jwks      map[string]interface{}
	jwksBuilt time.Time
}

// NewOIDCService creates an OIDCService.
func NewOIDCService(
	store domain.ArtifactStore,
	subjects domain.SubjectDirectory,
	signer domain.Signer,
	issuerURL string,
	logger *zap.Logger,
) *OIDCService {
	return &OIDCService{
		store:     store,
		subjects:  subjects,
		signer:    signer,
		issuerURL: issuerURL,
		logger:    logger,
	}
}

// UserInfo resolves the bearer token against the store and returns the
// claims the scopes recorded on that token allow. The client's maximum
// scope set plays no role here; only what this token was granted.
func (s *OIDCService) UserInfo(ctx context.Context, accessToken string) (map[string]interface{}, error) {
	if accessToken == "" {
		return nil, domain.ErrInvalidToken
	}

	token, err := s.store.GetAccessToken(ctx, accessToken, time.Now())
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	claims := map[string]interface{}{
		"sub": token.SubjectID,
	}

	subject, err := s.subjects.FindByID(ctx, token.SubjectID)
	if err != nil {
		if err != domain.ErrSubjectNotFound {
			s.logger.Error("subject directory lookup failed",
				zap.String("subject_id", token.SubjectID),
				zap.Error(err))
			return nil, domain.ErrServerError
		}
		// Client-credentials tokens have no directory record; the
		// bare subject claim is the whole answer.
		return claims, nil
	}

	if domain.HasScope(token.Scopes, domain.ScopeProfile) {
		claims["name"] = subject.Name
	}
	if domain.HasScope(token.Scopes, domain.ScopeEmail) {
		claims["email"] = subject.Email
		claims["email_verified"] = subject.EmailVerified
	}
	if domain.HasScope(token.Scopes, domain.ScopePhone) {
		claims["phone_number"] = subject.Phone
	}

	return claims, nil
}

// GetJWKS publishes the verification key so third parties can check ID
// token signatures without calling back.
func (s *OIDCService) GetJWKS(ctx context.Context) (map[string]interface{}, error) {
	s.mu.RLock()
	if s.jwks != nil && time.Since(s.jwksBuilt) < jwksCacheDuration {
		cached := s.jwks
		s.mu.RUnlock()
		return cached, nil
	}
	s.mu.RUnlock()

	publicKey := s.signer.PublicKey()
	if publicKey == nil {
		s.logger.Error("signer has no public key")
		return nil, domain.ErrServerError
	}

	key, err := jwk.FromRaw(publicKey)
	if err != nil {
		s.logger.Error("failed to build JWK from public key", zap.Error(err))
		return nil, domain.ErrServerError
	}
	if err := key.Set(jwk.KeyIDKey, s.signer.KeyID()); err != nil {
		return nil, domain.ErrServerError
	}
	if err := key.Set(jwk.KeyUsageKey, "sig"); err != nil {
		return nil, domain.ErrServerError
	}
	if err := key.Set(jwk.AlgorithmKey, jwa.RS256); err != nil {
		return nil, domain.ErrServerError
	}

	document := map[string]interface{}{
		"keys": []jwk.Key{key},
	}

	s.mu.Lock()
	s.jwks = document
	s.jwksBuilt = time.Now()
	s.mu.Unlock()

	return document, nil
}

// GetOpenIDConfiguration returns the static discovery document.
func (s *OIDCService) GetOpenIDConfiguration(ctx context.Context) map[string]interface{} {
	return map[string]interface{}{
		"issuer":                                s.issuerURL,
		"authorization_endpoint":                fmt.Sprintf("%s/oauth2/authorize", s.issuerURL),
		"token_endpoint":                        fmt.Sprintf("%s/oauth2/token", s.issuerURL),
		"userinfo_endpoint":                     fmt.Sprintf("%s/oauth2/userinfo", s.issuerURL),
		"jwks_uri":                              fmt.Sprintf("%s/.well-known/jwks.json", s.issuerURL),
		"response_types_supported":              []string{domain.ResponseTypeCode, domain.ResponseTypeToken},
		"grant_types_supported":                 []string{domain.GrantAuthorizationCode, domain.GrantRefreshToken, domain.GrantClientCredentials},
		"subject_types_supported":               []string{"public"},
		"id_token_signing_alg_values_supported": []string{"RS256"},
		"scopes_supported":                      domain.SupportedScopes,
		"token_endpoint_auth_methods_supported": []string{"client_secret_basic", "client_secret_post"},
		"claims_supported":                      []string{"iss", "sub", "aud", "iat", "exp", "nonce", "name", "email", "email_verified", "phone_number"},
	}
}
