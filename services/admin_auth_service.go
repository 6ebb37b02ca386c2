package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/sintudecorators/contact-backend/config"
	"github.com/sintudecorators/contact-backend/internal/auth"
	"github.com/sintudecorators/contact-backend/logger"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// AdminAuthService is the admin session gate: it checks the configured
// credential pair and issues and verifies signed admin tokens. No session
// state is kept server-side.
type AdminAuthService struct {
	cfg *config.AdminConfig
	now func() time.Time
}

func NewAdminAuthService(cfg *config.AdminConfig) *AdminAuthService {
	return &AdminAuthService{cfg: cfg, now: time.Now}
}

func (s *AdminAuthService) params() auth.TokenParams {
	return auth.TokenParams{
		Username: s.cfg.Username,
		Password: s.cfg.Password,
		Secret:   s.cfg.TokenSecret,
		Issuer:   s.cfg.TokenIssuer,
		TTL:      s.cfg.TokenTTL,
		Now:      s.now,
	}
}

// Login returns a token when username and password match the configured
// pair exactly.
func (s *AdminAuthService) Login(_ context.Context, username, password string) (string, error) {
	// Both comparisons always run.
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.Username))
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.Password))
	if userOK&passOK != 1 {
		return "", ErrInvalidCredentials
	}

	token, err := auth.IssueAdminToken(s.params())
	if err != nil {
		return "", err
	}
	logger.GetLogger().Infow("Admin token issued",
		"username", username,
		"ttl", s.cfg.TokenTTL)
	return token, nil
}

// Authenticate verifies token against the current configuration and
// returns the admin username.
func (s *AdminAuthService) Authenticate(_ context.Context, token string) (string, error) {
	return auth.ValidateAdminToken(token, s.params())
}
