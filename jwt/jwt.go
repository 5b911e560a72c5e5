package jwt

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrTokenRevoked = errors.New("token revoked or expired")

// TokenStore tells whether an issued token is still on record. Logging out
// deletes the record, which revokes the token before its exp claim.
type TokenStore interface {
	TokenActive(ctx context.Context, token string) (bool, error)
}

type Claims struct {
	UserID    uint
	Role      string
	ExpiresAt time.Time
}

// Manager signs and verifies RS256 session tokens.
type Manager struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	ttl        time.Duration
	store      TokenStore
}

func NewManager(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, ttl time.Duration, store TokenStore) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{privateKey: privateKey, publicKey: publicKey, ttl: ttl, store: store}
}

// LoadManager reads the PEM key pair from disk.
func LoadManager(privateKeyPath, publicKeyPath string, ttl time.Duration, store TokenStore) (*Manager, error) {
	privateKey, err := loadPrivateKey(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("load private key: %w", err)
	}
	publicKey, err := loadPublicKey(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("load public key: %w", err)
	}
	return NewManager(privateKey, publicKey, ttl, store), nil
}

func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	keyBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return jwt.ParseRSAPrivateKeyFromPEM(keyBytes)
}

func loadPublicKey(path string) (*rsa.PublicKey, error) {
	keyBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return jwt.ParseRSAPublicKeyFromPEM(keyBytes)
}

// GenerateToken signs a token for userID with the given role.
func (m *Manager) GenerateToken(userID uint, role string) (string, time.Time, error) {
	exp := time.Now().Add(m.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"userID": userID,
		"role":   role,
		"exp":    exp.Unix(),
	})
	signed, err := token.SignedString(m.privateKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// VerifyToken checks the signature and expiry, then asks the store whether
// the token was revoked.
func (m *Manager) VerifyToken(ctx context.Context, tokenString string) (Claims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return m.publicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil {
		return Claims{}, err
	}
	if !token.Valid {
		return Claims{}, jwt.ErrTokenSignatureInvalid
	}

	userID, ok := claims["userID"].(float64)
	if !ok {
		return Claims{}, fmt.Errorf("%w: missing userID", jwt.ErrTokenInvalidClaims)
	}
	role, ok := claims["role"].(string)
	if !ok {
		return Claims{}, fmt.Errorf("%w: missing role", jwt.ErrTokenInvalidClaims)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return Claims{}, err
	}
	if exp == nil {
		return Claims{}, fmt.Errorf("%w: missing exp", jwt.ErrTokenInvalidClaims)
	}

	if m.store != nil {
		active, err := m.store.TokenActive(ctx, tokenString)
		if err != nil {
			return Claims{}, err
		}
		if !active {
			return Claims{}, ErrTokenRevoked
		}
	}

	return Claims{UserID: uint(userID), Role: role, ExpiresAt: exp.Time}, nil
}

// WriteKeyPair generates an RSA key pair and writes it as PEM files. Existing
// files are left alone unless overwrite is set.
func WriteKeyPair(privateKeyPath, publicKeyPath string, bits int, overwrite bool) error {
	if !overwrite {
		for _, path := range []string{privateKeyPath, publicKeyPath} {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
		}
	}

	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return err
	}
	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return err
	}

	files := []struct {
		path  string
		block *pem.Block
		mode  os.FileMode
	}{
		{privateKeyPath, &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}, 0o600},
		{publicKeyPath, &pem.Block{Type: "PUBLIC KEY", Bytes: publicDER}, 0o644},
	}
	for _, f := range files {
		if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
			return err
		}
		if err := os.WriteFile(f.path, pem.EncodeToMemory(f.block), f.mode); err != nil {
			return err
		}
	}
	return nil
}
