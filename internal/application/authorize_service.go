package application

import (
	"context"
	"net/url"
	"time"

	"github.com/ipede/authorization-service/internal/domain"
	"go.uber.org/zap"
)

// AuthorizeService runs the front-channel state machine. Each request
// is one pass: validate, mint an artifact, compute the redirect. The
// external login collaborator has already resolved the subject by the
// time Authorize runs.
type AuthorizeService struct {
	registry  domain.ClientRegistry
	store     domain.ArtifactStore
	issuer    domain.TokenIssuer
	subjects  domain.SubjectDirectory
	audit     domain.AuditSink
	codeTTL   time.Duration
	accessTTL time.Duration
	logger    *zap.Logger
}

// NewAuthorizeService creates an AuthorizeService.
func NewAuthorizeService(
	registry domain.ClientRegistry,
	store domain.ArtifactStore,
	issuer domain.TokenIssuer,
	subjects domain.SubjectDirectory,
	audit domain.AuditSink,
	codeTTL, accessTTL time.Duration,
	logger *zap.Logger,
) *AuthorizeService {
	return &AuthorizeService{
		registry:  registry,
		store:     store,
		issuer:    issuer,
		subjects:  subjects,
		audit:     audit,
		codeTTL:   codeTTL,
		accessTTL: accessTTL,
		logger:    logger,
	}
}

// Authorize validates the request and mints the artifact for the
// response type. Every returned error is a direct error: the caller
// must never redirect on a request that failed validation here,
// because the redirect URI is only trusted once it passed the
// registration check.
func (s *AuthorizeService) Authorize(ctx context.Context, req *domain.AuthorizeRequest) (*domain.AuthorizeResult, error) {
	client, err := s.registry.Lookup(ctx, req.ClientID)
	if err != nil {
		return nil, domain.ErrInvalidClient.WithDescription("unknown client")
	}

	if !client.Profile().HasRedirectURI(req.RedirectURI) {
		s.logger.Warn("redirect uri not registered",
			zap.String("client_id", req.ClientID),
			zap.String("redirect_uri", req.RedirectURI))
		return nil, domain.ErrInvalidRequest.WithDescription("redirect_uri is not registered for this client")
	}

	if !client.Profile().AllowsResponseType(req.ResponseType) {
		return nil, domain.ErrUnsupportedResponseType.WithDescription("response_type is not allowed for this client")
	}

	scopes := domain.NarrowScopes(domain.ParseScopes(req.Scope), client)
	if len(scopes) == 0 {
		return nil, domain.ErrInvalidScope.WithDescription("no requested scope is grantable to this client")
	}

	if req.SubjectID == "" {
		// The session middleware should have suspended the flow
		// before the service ran.
		return nil, domain.ErrServerError.WithDescription("no authenticated subject")
	}

	switch req.ResponseType {
	case domain.ResponseTypeCode:
		return s.issueCode(ctx, client, req, scopes)
	case domain.ResponseTypeToken:
		return s.issueImplicit(ctx, client, req, scopes)
	default:
		return nil, domain.ErrUnsupportedResponseType
	}
}

func (s *AuthorizeService) issueCode(ctx context.Context, client domain.Client, req *domain.AuthorizeRequest, scopes []string) (*domain.AuthorizeResult, error) {
	code, err := s.issuer.NewOpaqueToken()
	if err != nil {
		s.logger.Error("failed to generate authorization code", zap.Error(err))
		return nil, domain.ErrServerError
	}

	now := time.Now()
	authCode := &domain.AuthorizationCode{
		Code:        code,
		ClientID:    client.Profile().ID,
		SubjectID:   req.SubjectID,
		Scopes:      scopes,
		RedirectURI: req.RedirectURI,
		Nonce:       req.Nonce,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.codeTTL),
	}

	if err := s.store.SaveAuthorizationCode(ctx, authCode); err != nil {
		s.logger.Error("failed to store authorization code", zap.Error(err))
		return nil, domain.ErrServerError
	}

	s.audit.Emit(ctx, domain.AuditEvent{
		Type:      domain.AuditCodeIssued,
		ClientID:  client.Profile().ID,
		SubjectID: req.SubjectID,
		Scopes:    scopes,
		At:        now,
	})

	redirect, err := url.Parse(req.RedirectURI)
	if err != nil {
		return nil, domain.ErrInvalidRequest.WithDescription("redirect_uri is not a valid URI")
	}

	q := redirect.Query()
	q.Set("code", code)
	if req.State != "" {
		q.Set("state", req.State)
	}
	redirect.RawQuery = q.Encode()

	return &domain.AuthorizeResult{RedirectURL: redirect.String()}, nil
}

// issueImplicit mints an access token (and an ID token when openid was
// granted) directly. The values travel in the URI fragment, never the
// query string, so they stay out of logs and referrer headers.
func (s *AuthorizeService) issueImplicit(ctx context.Context, client domain.Client, req *domain.AuthorizeRequest, scopes []string) (*domain.AuthorizeResult, error) {
	opaque, err := s.issuer.NewOpaqueToken()
	if err != nil {
		s.logger.Error("failed to generate access token", zap.Error(err))
		return nil, domain.ErrServerError
	}

	now := time.Now()
	accessToken := &domain.AccessToken{
		Token:     opaque,
		ClientID:  client.Profile().ID,
		SubjectID: req.SubjectID,
		Scopes:    scopes,
		CreatedAt: now,
		ExpiresAt: now.Add(s.accessTTL),
	}
	if err := s.store.SaveAccessToken(ctx, accessToken); err != nil {
		s.logger.Error("failed to store access token", zap.Error(err))
		return nil, domain.ErrServerError
	}

	fragment := url.Values{}
	fragment.Set("access_token", opaque)
	fragment.Set("token_type", "Bearer")
	fragment.Set("expires_in", formatSeconds(s.accessTTL))
	fragment.Set("scope", domain.FormatScopes(scopes))
	if req.State != "" {
		fragment.Set("state", req.State)
	}

	if domain.HasScope(scopes, domain.ScopeOpenID) {
		subject, err := s.lookupSubject(ctx, req.SubjectID)
		if err != nil {
			return nil, domain.ErrServerError
		}
		idToken, err := s.issuer.NewIDToken(subject, req.SubjectID, client.Profile().ID, scopes, req.Nonce, now)
		if err != nil {
			return nil, domain.ErrServerError
		}
		fragment.Set("id_token", idToken)
	}

	s.audit.Emit(ctx, domain.AuditEvent{
		Type:      domain.AuditTokenIssued,
		ClientID:  client.Profile().ID,
		SubjectID: req.SubjectID,
		Scopes:    scopes,
		At:        now,
	})

	redirect, err := url.Parse(req.RedirectURI)
	if err != nil {
		return nil, domain.ErrInvalidRequest.WithDescription("redirect_uri is not a valid URI")
	}
	redirect.Fragment = fragment.Encode()

	return &domain.AuthorizeResult{RedirectURL: redirect.String()}, nil
}

// lookupSubject tolerates an absent directory record; the ID token then
// carries the standard claims only.
func (s *AuthorizeService) lookupSubject(ctx context.Context, subjectID string) (*domain.Subject, error) {
	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		if err == domain.ErrSubjectNotFound {
			return nil, nil
		}
		s.logger.Error("subject directory lookup failed",
			zap.String("subject_id", subjectID),
			zap.Error(err))
		return nil, err
	}
	return subject, nil
}
