package devtools

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims are the claims carried by a devtools session token: short
// lived, scoped to a single tab, never persisted past process restart.
type SessionClaims struct {
	jwt.RegisteredClaims
	TabID string `json:"tab_id,omitempty"`
}

// GenerateSigningKey creates a fresh P-256 key for signing devtools
// session tokens, the same curve and purpose as a wing's registration
// key, minted new on every loomd start rather than persisted.
func GenerateSigningKey() (*ecdsa.PrivateKey, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate devtools signing key: %w", err)
	}
	return key, nil
}

// ParseSigningKeyFromEnv parses a P-256 private key supplied out of band
// (PEM or base64-encoded DER), for deployments that want a stable
// devtools key across restarts instead of GenerateSigningKey's ephemeral
// one.
func ParseSigningKeyFromEnv(value string) (*ecdsa.PrivateKey, error) {
	if value == "" {
		return nil, fmt.Errorf("devtools signing key value is empty")
	}
	if block, _ := pem.Decode([]byte(value)); block != nil {
		return x509.ParseECPrivateKey(block.Bytes)
	}
	der, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode base64 devtools key: %w", err)
	}
	return x509.ParseECPrivateKey(der)
}

// IssueSessionToken mints an ES256 token granting access to one tab for
// ttl, handed to a local inspector client out of band (e.g. printed to
// the loomd log) rather than exchanged over the wire it protects.
func IssueSessionToken(key *ecdsa.PrivateKey, tabID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TabID: tabID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	return token.SignedString(key)
}

// ValidateSessionToken verifies tokenString against pub and returns its
// claims, failing closed on any signature, algorithm, or expiry mismatch.
func ValidateSessionToken(pub *ecdsa.PublicKey, tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return pub, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid devtools session token")
	}
	return claims, nil
}
