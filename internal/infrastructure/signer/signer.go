package signer

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"os"
	"path/filepath"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const rsaKeySize = 2048

// Local signs identity tokens with an RSA key pair kept on local disk.
// The key is loaded from KeyPath when present, generated otherwise.
type Local struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	keyID      string
	keyPath    string
	logger     *zap.Logger
	mu         sync.RWMutex
}

// NewLocal creates a signer backed by the key at keyPath. An empty
// keyPath keeps the generated key in memory only.
func NewLocal(keyPath string, logger *zap.Logger) (*Local, error) {
	s := &Local{
		keyPath: keyPath,
		logger:  logger,
	}

	if err := s.loadOrGenerateKeyPair(); err != nil {
		return nil, err
	}
	s.keyID = generateKeyID(s.privateKey)

	return s, nil
}

func (s *Local) loadOrGenerateKeyPair() error {
	if s.keyPath != "" {
		if err := os.MkdirAll(filepath.Dir(s.keyPath), 0700); err != nil {
			return err
		}
		if err := s.loadKeyPair(); err == nil {
			return nil
		}
	}
	return s.generateKeyPair()
}

func (s *Local) loadKeyPair() error {
	privateKeyPEM, err := os.ReadFile(s.keyPath)
	if err != nil {
		return err
	}

	block, _ := pem.Decode(privateKeyPEM)
	if block == nil {
		return errInvalidKey
	}

	privateKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return err
	}

	s.privateKey = privateKey
	s.publicKey = &privateKey.PublicKey
	return nil
}

func (s *Local) generateKeyPair() error {
	privateKey, err := rsa.GenerateKey(rand.Reader, rsaKeySize)
	if err != nil {
		return err
	}

	if s.keyPath != "" {
		privateKeyPEM := pem.EncodeToMemory(&pem.Block{
			Type:  "RSA PRIVATE KEY",
			Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
		})
		if err := os.WriteFile(s.keyPath, privateKeyPEM, 0600); err != nil {
			return err
		}
	}

	s.privateKey = privateKey
	s.publicKey = &privateKey.PublicKey
	return nil
}

// Sign signs the claims with RS256 and stamps the key id into the
// header so verifiers can pick the key out of the JWKS document.
func (s *Local) Sign(claims jwt.Claims) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.keyID

	return token.SignedString(s.privateKey)
}

// PublicKey returns the verification key.
func (s *Local) PublicKey() *rsa.PublicKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.publicKey
}

// KeyID returns the current key id.
func (s *Local) KeyID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keyID
}

// RotateKey generates a fresh key pair and key id. Outstanding ID
// tokens verify against the old JWKS until their exp passes.
func (s *Local) RotateKey() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.generateKeyPair(); err != nil {
		return err
	}
	s.keyID = generateKeyID(s.privateKey)

	s.logger.Info("signing key rotated", zap.String("key_id", s.keyID))
	return nil
}

// generateKeyID derives a stable identifier from the public key
// components, base64url encoded without padding.
func generateKeyID(key *rsa.PrivateKey) string {
	modulus := key.N.Bytes()
	exponent := []byte{byte(key.E)}

	data := append(modulus, exponent...)
	hash := sha256.Sum256(data)

	return base64.RawURLEncoding.EncodeToString(hash[:])
}
