// Package auth issues and validates the signed admin session token.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid admin token")

// AdminClaims binds a token to the credential pair it was issued for. The
// fingerprint is an HMAC of username:password, so rotating either the
// password or the secret invalidates every outstanding token.
type AdminClaims struct {
	Fingerprint string `json:"cfp"`
	jwt.RegisteredClaims
}

// TokenParams are the inputs shared by issuing and validating.
type TokenParams struct {
	Username string
	Password string
	Secret   string
	Issuer   string
	TTL      time.Duration
	Now      func() time.Time
}

func (p TokenParams) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Fingerprint derives the credential fingerprint carried in the cfp claim.
func Fingerprint(secret, username, password string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(username + ":" + password))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// IssueAdminToken signs an HS256 token for p.Username valid for p.TTL.
func IssueAdminToken(p TokenParams) (string, error) {
	now := p.now()
	claims := AdminClaims{
		Fingerprint: Fingerprint(p.Secret, p.Username, p.Password),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Username,
			Issuer:    p.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.TTL)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(p.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign admin token: %w", err)
	}
	return signed, nil
}

// ValidateAdminToken checks signature, issuer and expiry, then re-derives
// the fingerprint from the credentials in p. It returns the subject.
func ValidateAdminToken(tokenString string, p TokenParams) (string, error) {
	claims := &AdminClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return []byte(p.Secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if subtle.ConstantTimeCompare([]byte(claims.Subject), []byte(p.Username)) != 1 {
		return "", fmt.Errorf("%w: unknown subject", ErrInvalidToken)
	}
	expected := Fingerprint(p.Secret, p.Username, p.Password)
	if subtle.ConstantTimeCompare([]byte(claims.Fingerprint), []byte(expected)) != 1 {
		return "", fmt.Errorf("%w: credentials changed", ErrInvalidToken)
	}
	return claims.Subject, nil
}
