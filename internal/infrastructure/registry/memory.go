package registry

import (
	"context"

	"github.com/ipede/authorization-service/internal/domain"
	"github.com/ipede/authorization-service/internal/infrastructure/secret"
	"go.uber.org/zap"
)

// Memory is a static in-process client catalog, seeded at startup.
// Client records are immutable once registered; management lives
// outside this core.
type Memory struct {
	clients map[string]domain.Client
	logger  *zap.Logger
}

// NewMemory creates a registry over the given clients.
func NewMemory(clients []domain.Client, logger *zap.Logger) *Memory {
	index := make(map[string]domain.Client, len(clients))
	for _, client := range clients {
		index[client.Profile().ID] = client
	}
	return &Memory{
		clients: index,
		logger:  logger,
	}
}

func (r *Memory) Lookup(ctx context.Context, clientID string) (domain.Client, error) {
	client, ok := r.clients[clientID]
	if !ok {
		r.logger.Warn("unknown client", zap.String("client_id", clientID))
		return nil, domain.ErrInvalidClient
	}
	return client, nil
}

func (r *Memory) Resolve(ctx context.Context, clientID, clientSecret string) (domain.Client, error) {
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

// verifySecret enforces the credential policy of the client kind:
// confidential clients must present the matching secret, public
// clients must present none.
func verifySecret(client domain.Client, clientSecret string) error {
	confidential, ok := client.(*domain.ConfidentialClient)
	if !ok {
		if clientSecret != "" {
			return domain.ErrInvalidClient
		}
		return nil
	}
	if clientSecret == "" {
		return domain.ErrInvalidClient
	}
	return secret.Verify(clientSecret, confidential.SecretHash)
}
