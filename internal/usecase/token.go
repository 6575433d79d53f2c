package usecase

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cleanops/backoffice-core/internal/core/domain"
	"github.com/cleanops/backoffice-core/internal/core/port"
	"github.com/cleanops/backoffice-core/internal/infra/config"
	"github.com/cleanops/backoffice-core/internal/infra/security"
)

// AccountView is the public projection of an authenticated identity. It
// never carries the password hash.
type AccountView struct {
	ID          string
	Username    string
	DisplayName string
	NationalID  string
	Role        domain.Role
	Active      bool
	LastLogin   *time.Time
}

// TokenService issues and verifies signed, time-boxed session tokens. It
// is fully stateless; the signed claim set is the only session record.
type TokenService struct {
	cfg    *config.AppConfig
	signer *security.TokenSigner
	clock  port.Clock
}

// NewTokenService constructs a TokenService.
func NewTokenService(cfg *config.AppConfig, signer *security.TokenSigner, clock port.Clock) (*TokenService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if signer == nil {
		return nil, fmt.Errorf("token signer is required")
	}
	if clock == nil {
		clock = port.SystemClock{}
	}
	return &TokenService{cfg: cfg, signer: signer, clock: clock}, nil
}

// TTL returns the configured session lifetime.
func (s *TokenService) TTL() time.Duration {
	ttl := s.cfg.JWT.SessionTTL
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return ttl
}

// Issue signs a session token for the supplied identity. The expiry is
// issued-at plus the configured TTL.
func (s *TokenService) Issue(view AccountView) (string, time.Time, error) {
	claims, err := security.NewSessionClaims(security.SessionClaimsOptions{
		SubjectID:   view.ID,
		Username:    view.Username,
		Role:        view.Role,
		DisplayName: view.DisplayName,
		NationalID:  view.NationalID,
		Active:      view.Active,
		Issuer:      s.cfg.App.Name,
		TTL:         s.TTL(),
		IssuedAt:    s.clock.Now(),
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("build session claims: %w", err)
	}

	signed, err := s.signer.Sign(claims)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}

	return signed, claims.ExpiresAt.Time, nil
}

// Verify validates the signature and time bounds of a session token and
// returns the embedded claims verbatim. No store lookup happens here; a
// caller needing freshness re-checks the account or directory itself.
func (s *TokenService) Verify(token string) (*security.SessionClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenInvalid
	}

	claims := &security.SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, s.signer.Keyfunc,
		jwt.WithIssuer(s.cfg.App.Name),
		jwt.WithAudience(s.cfg.App.Name),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if parsed == nil || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if strings.TrimSpace(claims.Subject) == "" || !claims.Role.Valid() {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
