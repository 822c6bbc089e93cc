// Package token issues and verifies the signed session tokens handed to
// clients. Tokens are self-contained HS256 JWTs but remain opaque to callers;
// revocation lives in the session ledger, not here.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Claims carries the standard registered claims plus the application fields.
// Roles are a snapshot taken at issuance; validators must re-read current
// roles from storage instead of trusting this copy.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// Signer issues and parses tokens with a process-wide shared secret.
type Signer struct {
	secret   []byte
	issuer   string
	validity time.Duration
}

// ErrExpired is returned by Parse when the embedded expiry has elapsed.
// Any other parse failure means the token is structurally invalid.
var ErrExpired = errors.New("token: expired")

// NewSigner builds a Signer. Validity defaults to 24 hours when unset.
func NewSigner(secret, issuer string, validity time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, fmt.Errorf("token: empty signing secret")
	}
	if validity <= 0 {
		validity = 24 * time.Hour
	}
	return &Signer{
		secret:   []byte(secret),
		issuer:   issuer,
		validity: validity,
	}, nil
}

// Validity returns the configured token lifetime.
func (s *Signer) Validity() time.Duration {
	return s.validity
}

// Issue signs a token for the given user carrying the role snapshot.
// Returns the token string and its expiry timestamp.
func (s *Signer) Issue(userID, username string, roles []string, now time.Time) (string, time.Time, error) {
	if now.IsZero() {
		now = time.Now()
	}
	expiresAt := now.Add(s.validity)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:   userID,
		Username: username,
		Roles:    roles,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse verifies the signature and expiry and returns the embedded claims.
func (s *Signer) Parse(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("token: invalid claims")
	}
	return claims, nil
}
