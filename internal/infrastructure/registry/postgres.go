package registry

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ipede/authorization-service/internal/domain"
	"github.com/ipede/authorization-service/internal/infrastructure/database"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Postgres reads client records from the oauth2_clients table. The
// core never writes it; registration is managed elsewhere.
type Postgres struct {
	db     *database.Postgres
	logger *zap.Logger
}

// NewPostgres creates a PostgreSQL-backed client registry.
func NewPostgres(db *database.Postgres, logger *zap.Logger) *Postgres {
	return &Postgres{
		db:     db,
		logger: logger,
	}
}

func (r *Postgres) Lookup(ctx context.Context, clientID string) (domain.Client, error) {
	var (
		profile       domain.ClientProfile
		secretHash    *string
		redirectURIs  []byte
		grantTypes    []byte
		responseTypes []byte
		scopes        []byte
	)

	err := r.db.QueryRow(ctx, `
		SELECT id, secret_hash, redirect_uris, grant_types, response_types, scopes
		FROM oauth2_clients WHERE id = $1
	`, clientID).Scan(&profile.ID, &secretHash, &redirectURIs, &grantTypes, &responseTypes, &scopes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("unknown client", zap.String("client_id", clientID))
			return nil, domain.ErrInvalidClient
		}
		r.logger.Error("failed to load client", zap.String("client_id", clientID), zap.Error(err))
		return nil, err
	}

	for _, pair := range []struct {
		raw []byte
		dst *[]string
	}{
		{redirectURIs, &profile.RedirectURIs},
		{grantTypes, &profile.GrantTypes},
		{responseTypes, &profile.ResponseTypes},
		{scopes, &profile.Scopes},
	} {
		if err := json.Unmarshal(pair.raw, pair.dst); err != nil {
			return nil, err
		}
	}

	if secretHash != nil && *secretHash != "" {
		return &domain.ConfidentialClient{ClientProfile: profile, SecretHash: *secretHash}, nil
	}
	return &domain.PublicClient{ClientProfile: profile}, nil
}

func (r *Postgres) Resolve(ctx context.Context, clientID, clientSecret string) (domain.Client, error) {
	client, err := r.Lookup(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if err := verifySecret(client, clientSecret); err != nil {
		r.logger.Warn("client authentication failed", zap.String("client_id", clientID))
		return nil, domain.ErrInvalidClient
	}
	return client, nil
}
