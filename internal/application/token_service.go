package application

import (
	"context"
	"strconv"
	"time"

	"github.com/ipede/authorization-service/internal/domain"
	"go.uber.org/zap"
)

// TokenService dispatches back-channel grants. The client is
// authenticated before any grant logic runs; all validation is
// side-effect-free until the atomic consume, which is the only write
// that can lose a race.
type TokenService struct {
	registry   domain.ClientRegistry
	store      domain.ArtifactStore
	issuer     domain.TokenIssuer
	subjects   domain.SubjectDirectory
	audit      domain.AuditSink
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *zap.Logger
}

// NewTokenService creates a TokenService.
func NewTokenService(
	registry domain.ClientRegistry,
	store domain.ArtifactStore,
	issuer domain.TokenIssuer,
	subjects domain.SubjectDirectory,
	audit domain.AuditSink,
	accessTTL, refreshTTL time.Duration,
	logger *zap.Logger,
) *TokenService {
	return &TokenService{
		registry:   registry,
		store:      store,
		issuer:     issuer,
		subjects:   subjects,
		audit:      audit,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		logger:     logger,
	}
}

// Exchange authenticates the client and dispatches on grant_type.
func (s *TokenService) Exchange(ctx context.Context, req *domain.TokenRequest) (*domain.TokenResponse, error) {
	if req.ClientID == "" {
		return nil, s.reject(ctx, req, domain.ErrInvalidClient.WithDescription("client_id is required"))
	}

	client, err := s.registry.Resolve(ctx, req.ClientID, req.ClientSecret)
	if err != nil {
		return nil, s.reject(ctx, req, domain.ErrInvalidClient)
	}

	if !client.Profile().AllowsGrant(req.GrantType) {
		switch req.GrantType {
		case domain.GrantAuthorizationCode, domain.GrantRefreshToken, domain.GrantClientCredentials:
			return nil, s.reject(ctx, req, domain.ErrUnauthorizedClient)
		}
	}

	switch req.GrantType {
	case domain.GrantAuthorizationCode:
		return s.exchangeAuthorizationCode(ctx, client, req)
	case domain.GrantRefreshToken:
		return s.exchangeRefreshToken(ctx, client, req)
	case domain.GrantClientCredentials:
		return s.exchangeClientCredentials(ctx, client, req)
	default:
		return nil, s.reject(ctx, req, domain.ErrUnsupportedGrantType)
	}
}

// exchangeAuthorizationCode redeems a single-use code. The read-only
// validation pass runs first so a mismatched request never marks the
// code used; the consume that follows is the atomic transition.
func (s *TokenService) exchangeAuthorizationCode(ctx context.Context, client domain.Client, req *domain.TokenRequest) (*domain.TokenResponse, error) {
	if req.Code == "" || req.RedirectURI == "" {
		return nil, s.reject(ctx, req, domain.ErrInvalidRequest.WithDescription("code and redirect_uri are required"))
	}

	now := time.Now()
	authCode, err := s.store.GetAuthorizationCode(ctx, req.Code, now)
	if err != nil {
		return nil, s.reject(ctx, req, domain.ErrInvalidGrant.WithDescription("authorization code is invalid or expired"))
	}

	if authCode.ClientID != client.Profile().ID {
		return nil, s.reject(ctx, req, domain.ErrInvalidGrant.WithDescription("authorization code was issued to another client"))
	}
	if authCode.RedirectURI != req.RedirectURI {
		return nil, s.reject(ctx, req, domain.ErrInvalidGrant.WithDescription("redirect_uri does not match the authorization request"))
	}

	// All checks passed; claim the code. A concurrent redeemer that
	// got here first wins, everyone else fails deterministically.
	authCode, err = s.store.ConsumeAuthorizationCode(ctx, req.Code, now)
	if err != nil {
		return nil, s.reject(ctx, req, domain.ErrInvalidGrant.WithDescription("authorization code has already been used"))
	}

	s.audit.Emit(ctx, domain.AuditEvent{
		Type:      domain.AuditCodeRedeemed,
		ClientID:  client.Profile().ID,
		SubjectID: authCode.SubjectID,
		GrantType: req.GrantType,
		Scopes:    authCode.Scopes,
		At:        now,
	})

	return s.issueTokens(ctx, client, authCode.SubjectID, authCode.Scopes, authCode.Nonce, true, now)
}

// exchangeRefreshToken rotates the presented token: the atomic consume
// invalidates it and exactly one successor is issued.
func (s *TokenService) exchangeRefreshToken(ctx context.Context, client domain.Client, req *domain.TokenRequest) (*domain.TokenResponse, error) {
	if req.RefreshToken == "" {
		return nil, s.reject(ctx, req, domain.ErrInvalidRequest.WithDescription("refresh_token is required"))
	}

	now := time.Now()
	current, err := s.store.GetRefreshToken(ctx, req.RefreshToken, now)
	if err != nil {
		return nil, s.reject(ctx, req, domain.ErrInvalidGrant.WithDescription("refresh token is invalid or expired"))
	}
	if current.ClientID != client.Profile().ID {
		return nil, s.reject(ctx, req, domain.ErrInvalidGrant.WithDescription("refresh token was issued to another client"))
	}

	scopes := current.Scopes
	if req.Scope != "" {
		requested := domain.ParseScopes(req.Scope)
		if !domain.SubsetOf(requested, current.Scopes) {
			return nil, s.reject(ctx, req, domain.ErrInvalidScope.WithDescription("requested scope exceeds the originally granted scope"))
		}
		scopes = requested
	}

	current, err = s.store.ConsumeRefreshToken(ctx, req.RefreshToken, now)
	if err != nil {
		return nil, s.reject(ctx, req, domain.ErrInvalidGrant.WithDescription("refresh token is no longer valid"))
	}

	s.audit.Emit(ctx, domain.AuditEvent{
		Type:      domain.AuditRefreshRotated,
		ClientID:  client.Profile().ID,
		SubjectID: current.SubjectID,
		GrantType: req.GrantType,
		Scopes:    scopes,
		At:        now,
	})

	return s.issueTokens(ctx, client, current.SubjectID, scopes, "", false, now)
}

// exchangeClientCredentials issues an access token only. The subject is
// the client itself; there is no refresh token and no ID token.
func (s *TokenService) exchangeClientCredentials(ctx context.Context, client domain.Client, req *domain.TokenRequest) (*domain.TokenResponse, error) {
	if !client.Confidential() {
		return nil, s.reject(ctx, req, domain.ErrUnauthorizedClient.WithDescription("client_credentials requires a confidential client"))
	}

	scopes := client.Profile().Scopes
	if req.Scope != "" {
		scopes = domain.NarrowScopes(domain.ParseScopes(req.Scope), client)
		if len(scopes) == 0 {
			return nil, s.reject(ctx, req, domain.ErrInvalidScope)
		}
	}

	now := time.Now()
	opaque, err := s.issuer.NewOpaqueToken()
	if err != nil {
		return nil, s.internal(ctx, req, "failed to generate access token", err)
	}

	accessToken := &domain.AccessToken{
		Token:     opaque,
		ClientID:  client.Profile().ID,
		SubjectID: client.Profile().ID,
		Scopes:    scopes,
		CreatedAt: now,
		ExpiresAt: now.Add(s.accessTTL),
	}
	if err := s.store.SaveAccessToken(ctx, accessToken); err != nil {
		return nil, s.internal(ctx, req, "failed to store access token", err)
	}

	s.audit.Emit(ctx, domain.AuditEvent{
		Type:      domain.AuditTokenIssued,
		ClientID:  client.Profile().ID,
		SubjectID: client.Profile().ID,
		GrantType: req.GrantType,
		Scopes:    scopes,
		At:        now,
	})

	return &domain.TokenResponse{
		AccessToken: opaque,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.accessTTL.Seconds()),
		Scope:       domain.FormatScopes(scopes),
	}, nil
}

// issueTokens mints the access/refresh pair and, when openid was
// granted and withIDToken is set, the signed identity assertion.
func (s *TokenService) issueTokens(ctx context.Context, client domain.Client, subjectID string, scopes []string, nonce string, withIDToken bool, now time.Time) (*domain.TokenResponse, error) {
	access, err := s.issuer.NewOpaqueToken()
	if err != nil {
		return nil, s.internalPlain("failed to generate access token", err)
	}
	refresh, err := s.issuer.NewOpaqueToken()
	if err != nil {
		return nil, s.internalPlain("failed to generate refresh token", err)
	}

	accessToken := &domain.AccessToken{
		Token:     access,
		ClientID:  client.Profile().ID,
		SubjectID: subjectID,
		Scopes:    scopes,
		CreatedAt: now,
		ExpiresAt: now.Add(s.accessTTL),
	}
	if err := s.store.SaveAccessToken(ctx, accessToken); err != nil {
		return nil, s.internalPlain("failed to store access token", err)
	}

	refreshToken := &domain.RefreshToken{
		Token:     refresh,
		ClientID:  client.Profile().ID,
		SubjectID: subjectID,
		Scopes:    scopes,
		CreatedAt: now,
		ExpiresAt: now.Add(s.refreshTTL),
	}
	if err := s.store.SaveRefreshToken(ctx, refreshToken); err != nil {
		return nil, s.internalPlain("failed to store refresh token", err)
	}

	response := &domain.TokenResponse{
		AccessToken:  access,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
		RefreshToken: refresh,
		Scope:        domain.FormatScopes(scopes),
	}

	if withIDToken && domain.HasScope(scopes, domain.ScopeOpenID) {
		subject, err := s.subjects.FindByID(ctx, subjectID)
		if err != nil && err != domain.ErrSubjectNotFound {
			return nil, s.internalPlain("subject directory lookup failed", err)
		}
		idToken, err := s.issuer.NewIDToken(subject, subjectID, client.Profile().ID, scopes, nonce, now)
		if err != nil {
			return nil, s.internalPlain("failed to sign id token", err)
		}
		response.IDToken = idToken
	}

	return response, nil
}

// reject records a denied grant on the audit trail and returns the
// protocol error unchanged.
func (s *TokenService) reject(ctx context.Context, req *domain.TokenRequest, err *domain.OAuthError) error {
	s.audit.Emit(ctx, domain.AuditEvent{
		Type:      domain.AuditGrantRejected,
		ClientID:  req.ClientID,
		GrantType: req.GrantType,
		Reason:    err.Code,
		At:        time.Now(),
	})
	return err
}

func (s *TokenService) internal(ctx context.Context, req *domain.TokenRequest, msg string, err error) error {
	s.logger.Error(msg, zap.String("client_id", req.ClientID), zap.Error(err))
	return domain.ErrServerError
}

func (s *TokenService) internalPlain(msg string, err error) error {
	s.logger.Error(msg, zap.Error(err))
	return domain.ErrServerError
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatInt(int64(d.Seconds()), 10)
}
