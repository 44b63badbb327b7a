package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ipede/authorization-service/internal/domain"
	"github.com/ipede/authorization-service/internal/infrastructure/database"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Postgres implements ArtifactStore on PostgreSQL. The two consume
// operations are single conditional statements, so the row-level lock
// taken by the database is the compare-and-swap.
type Postgres struct {
	db     *database.Postgres
	logger *zap.Logger
}

// NewPostgres creates a PostgreSQL-backed artifact store.
func NewPostgres(db *database.Postgres, logger *zap.Logger) *Postgres {
	return &Postgres{
		db:     db,
		logger: logger,
	}
}

func (s *Postgres) SaveAuthorizationCode(ctx context.Context, code *domain.AuthorizationCode) error {
	scopes, err := json.Marshal(code.Scopes)
	if err != nil {
		return err
	}

	return s.db.Exec(ctx, `
		INSERT INTO authorization_codes (code, client_id, subject_id, scopes, redirect_uri, nonce, created_at, expires_at, used)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE)
	`, code.Code, code.ClientID, code.SubjectID, scopes, code.RedirectURI, code.Nonce, code.CreatedAt, code.ExpiresAt)
}

func (s *Postgres) GetAuthorizationCode(ctx context.Context, code string, now time.Time) (*domain.AuthorizationCode, error) {
	record := &domain.AuthorizationCode{}
	var scopes []byte

	err := s.db.QueryRow(ctx, `
		SELECT code, client_id, subject_id, scopes, redirect_uri, nonce, created_at, expires_at, used
		FROM authorization_codes WHERE code = $1
	`, code).Scan(&record.Code, &record.ClientID, &record.SubjectID, &scopes, &record.RedirectURI,
		&record.Nonce, &record.CreatedAt, &record.ExpiresAt, &record.Used)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrArtifactNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(scopes, &record.Scopes); err != nil {
		return nil, err
	}
	if now.After(record.ExpiresAt) {
		return nil, domain.ErrArtifactExpired
	}
	if record.Used {
		return nil, domain.ErrArtifactUsed
	}

	return record, nil
}

// ConsumeAuthorizationCode marks the code used with a single
// conditional UPDATE. Of N concurrent callers exactly one sees a row
// come back; the rest fall through to the diagnostic lookup.
func (s *Postgres) ConsumeAuthorizationCode(ctx context.Context, code string, now time.Time) (*domain.AuthorizationCode, error) {
	record := &domain.AuthorizationCode{}
	var scopes []byte

	err := s.db.QueryRow(ctx, `
		UPDATE authorization_codes
		SET used = TRUE, used_at = $2
		WHERE code = $1 AND used = FALSE AND expires_at > $2
		RETURNING code, client_id, subject_id, scopes, redirect_uri, nonce, created_at, expires_at
	`, code, now).Scan(&record.Code, &record.ClientID, &record.SubjectID, &scopes,
		&record.RedirectURI, &record.Nonce, &record.CreatedAt, &record.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.classifyCodeFailure(ctx, code, now)
		}
		return nil, err
	}

	if err := json.Unmarshal(scopes, &record.Scopes); err != nil {
		return nil, err
	}
	record.Used = true
	record.UsedAt = now
	return record, nil
}

// classifyCodeFailure distinguishes missing, expired, and replayed
// codes after a failed consume. Purely diagnostic; every outcome is
// invalid_grant to the caller.
func (s *Postgres) classifyCodeFailure(ctx context.Context, code string, now time.Time) error {
	var used bool
	var expiresAt time.Time
	err := s.db.QueryRow(ctx, `
		SELECT used, expires_at FROM authorization_codes WHERE code = $1
	`, code).Scan(&used, &expiresAt)
	if err != nil {
		return domain.ErrArtifactNotFound
	}
	if used {
		return domain.ErrArtifactUsed
	}
	if now.After(expiresAt) {
		return domain.ErrArtifactExpired
	}
	return domain.ErrArtifactNotFound
}

func (s *Postgres) SaveAccessToken(ctx context.Context, token *domain.AccessToken) error {
	scopes, err := json.Marshal(token.Scopes)
	if err != nil {
		return err
	}

	return s.db.Exec(ctx, `
		INSERT INTO access_tokens (token, client_id, subject_id, scopes, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, token.Token, token.ClientID, token.SubjectID, scopes, token.CreatedAt, token.ExpiresAt)
}

func (s *Postgres) GetAccessToken(ctx context.Context, token string, now time.Time) (*domain.AccessToken, error) {
	record := &domain.AccessToken{}
	var scopes []byte

	err := s.db.QueryRow(ctx, `
		SELECT token, client_id, subject_id, scopes, created_at, expires_at
		FROM access_tokens WHERE token = $1
	`, token).Scan(&record.Token, &record.ClientID, &record.SubjectID, &scopes, &record.CreatedAt, &record.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrArtifactNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(scopes, &record.Scopes); err != nil {
		return nil, err
	}
	if now.After(record.ExpiresAt) {
		return nil, domain.ErrArtifactExpired
	}

	return record, nil
}

func (s *Postgres) SaveRefreshToken(ctx context.Context, token *domain.RefreshToken) error {
	scopes, err := json.Marshal(token.Scopes)
	if err != nil {
		return err
	}

	return s.db.Exec(ctx, `
		INSERT INTO refresh_tokens (token, client_id, subject_id, scopes, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, token.Token, token.ClientID, token.SubjectID, scopes, token.CreatedAt, token.ExpiresAt)
}

func (s *Postgres) GetRefreshToken(ctx context.Context, token string, now time.Time) (*domain.RefreshToken, error) {
	record := &domain.RefreshToken{}
	var scopes []byte

	err := s.db.QueryRow(ctx, `
		SELECT token, client_id, subject_id, scopes, created_at, expires_at
		FROM refresh_tokens WHERE token = $1
	`, token).Scan(&record.Token, &record.ClientID, &record.SubjectID, &scopes, &record.CreatedAt, &record.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrArtifactNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(scopes, &record.Scopes); err != nil {
		return nil, err
	}
	if now.After(record.ExpiresAt) {
		return nil, domain.ErrArtifactExpired
	}

	return record, nil
}

// ConsumeRefreshToken claims the token with DELETE ... RETURNING. The
// delete is the serialization point of rotation.
func (s *Postgres) ConsumeRefreshToken(ctx context.Context, token string, now time.Time) (*domain.RefreshToken, error) {
	record := &domain.RefreshToken{}
	var scopes []byte

	err := s.db.QueryRow(ctx, `
		DELETE FROM refresh_tokens
		WHERE token = $1 AND expires_at > $2
		RETURNING token, client_id, subject_id, scopes, created_at, expires_at
	`, token, now).Scan(&record.Token, &record.ClientID, &record.SubjectID, &scopes, &record.CreatedAt, &record.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrArtifactNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(scopes, &record.Scopes); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Postgres) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	total := int64(0)

	for _, stmt := range []string{
		"DELETE FROM authorization_codes WHERE expires_at <= $1",
		"DELETE FROM access_tokens WHERE expires_at <= $1",
		"DELETE FROM refresh_tokens WHERE expires_at <= $1",
	} {
		affected, err := s.db.ExecAffected(ctx, stmt, now)
		if err != nil {
			return int(total), err
		}
		total += affected
	}

	return int(total), nil
}
