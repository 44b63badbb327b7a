package store

import (
	"context"
	"sync"
	"time"

	"github.com/ipede/authorization-service/internal/domain"
	"go.uber.org/zap"
)

// Memory is an in-process ArtifactStore. A single mutex serializes the
// two compare-and-swap operations, which is the per-key-locking
// equivalent the redemption and rotation invariants require. A process
// restart invalidates all outstanding artifacts.
type Memory struct {
	mu            sync.RWMutex
	codes         map[string]*domain.AuthorizationCode
	accessTokens  map[string]*domain.AccessToken
	refreshTokens map[string]*domain.RefreshToken
	logger        *zap.Logger
}

// NewMemory creates an empty in-memory store.
func NewMemory(logger *zap.Logger) *Memory {
	return &Memory{
		codes:         make(map[string]*domain.AuthorizationCode),
		accessTokens:  make(map[string]*domain.AccessToken),
		refreshTokens: make(map[string]*domain.RefreshToken),
		logger:        logger,
	}
}

func (m *Memory) SaveAuthorizationCode(ctx context.Context, code *domain.AuthorizationCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.codes[code.Code]; exists {
		return domain.ErrArtifactExists
	}
	clone := *code
	m.codes[code.Code] = &clone
	return nil
}

func (m *Memory) GetAuthorizationCode(ctx context.Context, code string, now time.Time) (*domain.AuthorizationCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.codes[code]
	if !ok {
		return nil, domain.ErrArtifactNotFound
	}
	if now.After(record.ExpiresAt) {
		return nil, domain.ErrArtifactExpired
	}
	if record.Used {
		return nil, domain.ErrArtifactUsed
	}
	clone := *record
	return &clone, nil
}

// ConsumeAuthorizationCode flips used under the write lock. The check
// and the write are one critical section, so two racing redeemers can
// never both observe used=false.
func (m *Memory) ConsumeAuthorizationCode(ctx context.Context, code string, now time.Time) (*domain.AuthorizationCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.codes[code]
	if !ok {
		return nil, domain.ErrArtifactNotFound
	}
	if now.After(record.ExpiresAt) {
		return nil, domain.ErrArtifactExpired
	}
	if record.Used {
		return nil, domain.ErrArtifactUsed
	}

	record.Used = true
	record.UsedAt = now

	clone := *record
	return &clone, nil
}

func (m *Memory) SaveAccessToken(ctx context.Context, token *domain.AccessToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.accessTokens[token.Token]; exists {
		return domain.ErrArtifactExists
	}
	clone := *token
	m.accessTokens[token.Token] = &clone
	return nil
}

func (m *Memory) GetAccessToken(ctx context.Context, token string, now time.Time) (*domain.AccessToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.accessTokens[token]
	if !ok {
		return nil, domain.ErrArtifactNotFound
	}
	if now.After(record.ExpiresAt) {
		return nil, domain.ErrArtifactExpired
	}
	clone := *record
	return &clone, nil
}

func (m *Memory) SaveRefreshToken(ctx context.Context, token *domain.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.refreshTokens[token.Token]; exists {
		return domain.ErrArtifactExists
	}
	clone := *token
	m.refreshTokens[token.Token] = &clone
	return nil
}

func (m *Memory) GetRefreshToken(ctx context.Context, token string, now time.Time) (*domain.RefreshToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.refreshTokens[token]
	if !ok {
		return nil, domain.ErrArtifactNotFound
	}
	if now.After(record.ExpiresAt) {
		return nil, domain.ErrArtifactExpired
	}
	clone := *record
	return &clone, nil
}

// ConsumeRefreshToken deletes and returns the token in one critical
// section. The deletion serializes rotation: the loser of a race finds
// nothing.
func (m *Memory) ConsumeRefreshToken(ctx context.Context, token string, now time.Time) (*domain.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.refreshTokens[token]
	if !ok {
		return nil, domain.ErrArtifactNotFound
	}
	delete(m.refreshTokens, token)
	if now.After(record.ExpiresAt) {
		return nil, domain.ErrArtifactExpired
	}
	return record, nil
}

// DeleteExpired reclaims expired entries. Consumed codes are kept until
// expiry so a replay keeps failing with the same answer.
func (m *Memory) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for code, record := range m.codes {
		if now.After(record.ExpiresAt) {
			delete(m.codes, code)
			removed++
		}
	}
	for token, record := range m.accessTokens {
		if now.After(record.ExpiresAt) {
			delete(m.accessTokens, token)
			removed++
		}
	}
	for token, record := range m.refreshTokens {
		if now.After(record.ExpiresAt) {
			delete(m.refreshTokens, token)
			removed++
		}
	}
	return removed, nil
}
