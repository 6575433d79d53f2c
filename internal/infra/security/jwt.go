package security

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cleanops/backoffice-core/internal/core/domain"
)

// SessionClaims is the self-contained claim set embedded in a signed
// session token. The token is the sole source of truth for the request's
// identity; callers needing freshness re-validate against the stores.
type SessionClaims struct {
	Username    string      `json:"username"`
	Role        domain.Role `json:"role"`
	DisplayName string      `json:"display_name"`
	NationalID  string      `json:"national_id"`
	Active      bool        `json:"active"`
	jwt.RegisteredClaims
}

// SessionClaimsOptions configures creation of session token claims.
type SessionClaimsOptions struct {
	SubjectID   string
	Username    string
	Role        domain.Role
	DisplayName string
	NationalID  string
	Active      bool
	Issuer      string
	TTL         time.Duration
	IssuedAt    time.Time
}

const defaultSessionTTL = 8 * time.Hour

// NewSessionClaims constructs standardized session claims.
func NewSessionClaims(opts SessionClaimsOptions) (*SessionClaims, error) {
	subject := strings.TrimSpace(opts.SubjectID)
	if subject == "" {
		return nil, fmt.Errorf("jwt: subject id is required")
	}
	issuer := strings.TrimSpace(opts.Issuer)
	if issuer == "" {
		return nil, fmt.Errorf("jwt: issuer is required")
	}

	now := opts.IssuedAt
	if now.IsZero() {
		now = time.Now().UTC()
	} else {
		now = now.UTC()
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}

	return &SessionClaims{
		Username:    strings.TrimSpace(opts.Username),
		Role:        opts.Role,
		DisplayName: opts.DisplayName,
		NationalID:  opts.NationalID,
		Active:      opts.Active,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{issuer},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}, nil
}

// TokenSigner signs session claims with the active key and kid.
type TokenSigner struct {
	keys KeyProvider
	kid  string
}

// NewTokenSigner creates a TokenSigner bound to the supplied key provider.
func NewTokenSigner(keys KeyProvider, kid string) (*TokenSigner, error) {
	if keys == nil {
		return nil, fmt.Errorf("jwt: key provider is required")
	}
	kid = strings.TrimSpace(kid)
	if kid == "" {
		return nil, fmt.Errorf("jwt: key id is required")
	}
	return &TokenSigner{keys: keys, kid: kid}, nil
}

// KID returns the key identifier stamped into token headers.
func (s *TokenSigner) KID() string {
	return s.kid
}

// Sign produces the compact signed representation of the claims.
func (s *TokenSigner) Sign(claims *SessionClaims) (string, error) {
	if claims == nil {
		return "", fmt.Errorf("jwt: claims required")
	}

	signingKey, err := s.keys.GetSigningKey()
	if err != nil {
		return "", fmt.Errorf("jwt: get signing key: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.kid

	signed, err := token.SignedString(signingKey)
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}

	return signed, nil
}

// Keyfunc resolves the verification key from a parsed token's header,
// rejecting any non-RSA signing method.
func (s *TokenSigner) Keyfunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
		return nil, fmt.Errorf("jwt: unexpected signing method %v", t.Header["alg"])
	}

	kid, ok := t.Header["kid"].(string)
	if !ok {
		return nil, fmt.Errorf("jwt: kid header not found")
	}

	return s.keys.GetVerificationKey(kid)
}
