package jwt

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type memoryTokens map[string]bool

func (m memoryTokens) TokenActive(_ context.Context, token string) (bool, error) {
	return m[token], nil
}

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key
}

func TestGenerateAndVerify(t *testing.T) {
	key := testKey(t)
	store := memoryTokens{}
	m := NewManager(key, &key.PublicKey, time.Hour, store)

	token, exp, err := m.GenerateToken(42, "admin")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("exp in the past: %v", exp)
	}

	if _, err := m.VerifyToken(context.Background(), token); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("unrecorded token should be revoked, got %v", err)
	}

	store[token] = true
	claims, err := m.VerifyToken(context.Background(), token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.UserID != 42 || claims.Role != "admin" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	signer := NewManager(testKey(t), nil, time.Hour, nil)
	other := testKey(t)
	verifier := NewManager(other, &other.PublicKey, time.Hour, nil)

	token, _, err := signer.GenerateToken(1, "user")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := verifier.VerifyToken(context.Background(), token); err == nil {
		t.Fatal("token signed by another key was accepted")
	}
}

func TestVerifyRejectsExpiredAndHS256(t *testing.T) {
	key := testKey(t)
	m := NewManager(key, &key.PublicKey, time.Hour, nil)

	expired := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"userID": 1, "role": "user", "exp": time.Now().Add(-time.Minute).Unix(),
	})
	signed, _ := expired.SignedString(key)
	if _, err := m.VerifyToken(context.Background(), signed); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	hs := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userID": 1, "role": "admin", "exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, _ = hs.SignedString([]byte("guessable"))
	if _, err := m.VerifyToken(context.Background(), signed); err == nil {
		t.Fatal("HS256 token was accepted")
	}
}

func TestWriteKeyPairAndLoad(t *testing.T) {
	dir := t.TempDir()
	privatePath := filepath.Join(dir, "keys", "private_key.pem")
	publicPath := filepath.Join(dir, "keys", "public_key.pem")

	if err := WriteKeyPair(privatePath, publicPath, 2048, false); err != nil {
		t.Fatalf("WriteKeyPair: %v", err)
	}
	if err := WriteKeyPair(privatePath, publicPath, 2048, false); err == nil {
		t.Fatal("existing keys were overwritten")
	}

	m, err := LoadManager(privatePath, publicPath, time.Minute, nil)
	if err != nil {
		t.Fatalf("LoadManager: %v", err)
	}
	token, _, err := m.GenerateToken(7, "user")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	claims, err := m.VerifyToken(context.Background(), token)
	if err != nil || claims.UserID != 7 {
		t.Fatalf("got (%+v, %v)", claims, err)
	}

	if _, err := LoadManager(filepath.Join(dir, "missing.pem"), publicPath, 0, nil); err == nil {
		t.Fatal("expected error for a missing key")
	}
}
