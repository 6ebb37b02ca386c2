package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testParams(now time.Time) TokenParams {
	return TokenParams{
		Username: "admin",
		Password: "correct-horse",
		Secret:   testSecret,
		Issuer:   "sintu-decorators-admin",
		TTL:      12 * time.Hour,
		Now:      func() time.Time { return now },
	}
}

func TestIssueAndValidateAdminToken(t *testing.T) {
	now := time.Now()
	p := testParams(now)

	token, err := IssueAdminToken(p)
	require.NoError(t, err)

	subject, err := ValidateAdminToken(token, p)
	require.NoError(t, err)
	assert.Equal(t, "admin", subject)
}

func TestValidateAdminToken_Rejections(t *testing.T) {
	now := time.Now()
	token, err := IssueAdminToken(testParams(now))
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		mutate func(p *TokenParams)
	}{
		{
			name:   "expired",
			token:  token,
			mutate: func(p *TokenParams) { p.Now = func() time.Time { return now.Add(13 * time.Hour) } },
		},
		{
			name:   "password rotated",
			token:  token,
			mutate: func(p *TokenParams) { p.Password = "new-password" },
		},
		{
			name:   "username changed",
			token:  token,
			mutate: func(p *TokenParams) { p.Username = "owner" },
		},
		{
			name:   "secret rotated",
			token:  token,
			mutate: func(p *TokenParams) { p.Secret = "fedcba9876543210fedcba9876543210" },
		},
		{
			name:   "wrong issuer",
			token:  token,
			mutate: func(p *TokenParams) { p.Issuer = "someone-else" },
		},
		{
			name:  "garbage",
			token: "not-a-token",
		},
		{
			name:  "legacy base64 credential",
			token: "YWRtaW46Y29ycmVjdC1ob3JzZQ==",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams(now)
			if tt.mutate != nil {
				tt.mutate(&p)
			}
			_, err := ValidateAdminToken(tt.token, p)
			assert.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidToken))
		})
	}
}

func TestValidateAdminToken_RejectsNoneAlgorithm(t *testing.T) {
	now := time.Now()
	p := testParams(now)
	claims := AdminClaims{
		Fingerprint: Fingerprint(p.Secret, p.Username, p.Password),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Username,
			Issuer:    p.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ValidateAdminToken(unsigned, p)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint(testSecret, "admin", "pw")
	assert.Equal(t, a, Fingerprint(testSecret, "admin", "pw"))
	assert.NotEqual(t, a, Fingerprint(testSecret, "admin", "pw2"))
	assert.NotEqual(t, a, Fingerprint("other-secret", "admin", "pw"))
}
