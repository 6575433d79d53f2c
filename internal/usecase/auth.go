package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cleanops/backoffice-core/internal/core/domain"
	"github.com/cleanops/backoffice-core/internal/core/port"
	"github.com/cleanops/backoffice-core/internal/infra/config"
	"github.com/cleanops/backoffice-core/internal/infra/security"
	"github.com/cleanops/backoffice-core/internal/repository"
)

const (
	defaultLockoutThreshold = 5
	defaultLockoutDuration  = 5 * time.Minute
)

// AuthService validates credentials, drives the failed-attempt lockout
// state machine and issues session tokens. The worker path is entirely
// separate from the account store so worker tokens can never pick up
// elevated claims.
type AuthService struct {
	cfg         *config.AppConfig
	accounts    port.AccountRepository
	directory   port.PersonDirectory
	tokens      *TokenService
	securityLog port.SecurityLog
	clock       port.Clock
	log         *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	cfg *config.AppConfig,
	accounts port.AccountRepository,
	directory port.PersonDirectory,
	tokens *TokenService,
	securityLog port.SecurityLog,
	clock port.Clock,
	log *zap.Logger,
) (*AuthService, error) {
	if tokens == nil {
		return nil, fmt.Errorf("token service is required")
	}
	if clock == nil {
		clock = port.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &AuthService{
		cfg:         cfg,
		accounts:    accounts,
		directory:   directory,
		tokens:      tokens,
		securityLog: securityLog,
		clock:       clock,
		log:         log,
	}, nil
}

func (s *AuthService) lockoutThreshold() int {
	if s.cfg != nil && s.cfg.Auth.LockoutThreshold > 0 {
		return s.cfg.Auth.LockoutThreshold
	}
	return defaultLockoutThreshold
}

func (s *AuthService) lockoutDuration() time.Duration {
	if s.cfg != nil && s.cfg.Auth.LockoutDuration > 0 {
		return s.cfg.Auth.LockoutDuration
	}
	return defaultLockoutDuration
}

// LoginInput carries the credentials and client metadata of one attempt.
type LoginInput struct {
	Username  string
	Password  string
	IP        string
	UserAgent string
}

// LoginResult is returned on a successful authentication.
type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	Account     AccountView
}

// Login validates a username/password pair for administrator and moderator
// accounts. Every branch emits exactly one security event, best-effort.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	input.Username = strings.TrimSpace(input.Username)
	if input.Username == "" {
		return nil, &ValidationError{Field: "username", Reason: "is required"}
	}
	if input.Password == "" {
		return nil, &ValidationError{Field: "password", Reason: "is required"}
	}

	account, err := s.accounts.GetByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.recordEvent(ctx, domain.SecurityEvent{
				Kind:     domain.EventLoginFailed,
				Username: input.Username,
				Detail:   "unknown username",
			}, input)
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	if !account.IsActive {
		s.recordEvent(ctx, domain.SecurityEvent{
			Kind:      domain.EventLoginFailed,
			AccountID: account.ID,
			Username:  account.Username,
			Role:      account.Role,
			Detail:    "inactive account",
		}, input)
		return nil, ErrAccountNotFound
	}

	now := s.clock.Now()

	if account.LockedAt(now) {
		remaining := account.LockRemaining(now)
		s.recordEvent(ctx, domain.SecurityEvent{
			Kind:      domain.EventLoginFailed,
			AccountID: account.ID,
			Username:  account.Username,
			Role:      account.Role,
			Detail:    fmt.Sprintf("attempt while locked, %s remaining", remaining.Round(time.Second)),
		}, input)
		return nil, &AccountLockedError{Remaining: remaining}
	}

	if account.LockedUntil != nil {
		// Lock expired: back to Active before the password check.
		if err := s.accounts.ResetLockout(ctx, account.ID); err != nil {
			return nil, fmt.Errorf("reset lockout: %w", err)
		}
		account.FailedAttempts = 0
		account.LockedUntil = nil
	}

	ok, err := security.VerifyPassword(input.Password, account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !ok {
		return nil, s.handlePasswordMismatch(ctx, account, input)
	}

	if err := s.accounts.RecordLoginSuccess(ctx, account.ID, now); err != nil {
		return nil, fmt.Errorf("record login success: %w", err)
	}

	view := AccountView{
		ID:          account.ID,
		Username:    account.Username,
		DisplayName: account.DisplayName,
		NationalID:  account.NationalID,
		Role:        account.Role,
		Active:      account.IsActive,
		LastLogin:   &now,
	}

	token, expiresAt, err := s.tokens.Issue(view)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	s.recordEvent(ctx, domain.SecurityEvent{
		Kind:      domain.EventLoginSuccess,
		AccountID: account.ID,
		Username:  account.Username,
		Role:      account.Role,
	}, input)

	return &LoginResult{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		Account:     view,
	}, nil
}

func (s *AuthService) handlePasswordMismatch(ctx context.Context, account *domain.Account, input LoginInput) error {
	attempts, err := s.accounts.IncrementFailedAttempts(ctx, account.ID)
	if err != nil {
		return fmt.Errorf("increment failed attempts: %w", err)
	}

	threshold := s.lockoutThreshold()
	if attempts >= threshold {
		duration := s.lockoutDuration()
		until := s.clock.Now().Add(duration)
		if err := s.accounts.Lock(ctx, account.ID, until); err != nil {
			return fmt.Errorf("lock account: %w", err)
		}

		s.recordEvent(ctx, domain.SecurityEvent{
			Kind:      domain.EventAccountLocked,
			AccountID: account.ID,
			Username:  account.Username,
			Role:      account.Role,
			Detail:    fmt.Sprintf("locked after %d failed attempts", attempts),
		}, input)
		return &AccountLockedError{Remaining: duration}
	}

	s.recordEvent(ctx, domain.SecurityEvent{
		Kind:      domain.EventLoginFailed,
		AccountID: account.ID,
		Username:  account.Username,
		Role:      account.Role,
		Detail:    fmt.Sprintf("wrong password, attempt %d of %d", attempts, threshold),
	}, input)
	return &InvalidPasswordError{AttemptsRemaining: threshold - attempts}
}

// LoginWorker authenticates a worker by possession of an active national
// id. No password, no lockout state: the directory is the only authority
// consulted, and the issued token always carries the worker role.
func (s *AuthService) LoginWorker(ctx context.Context, nationalID, ip, userAgent string) (*LoginResult, error) {
	nationalID = strings.TrimSpace(nationalID)
	if nationalID == "" {
		return nil, &ValidationError{Field: "national_id", Reason: "is required"}
	}

	meta := LoginInput{IP: ip, UserAgent: userAgent}

	worker, err := s.directory.FindActiveWorkerByNationalID(ctx, nationalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.recordEvent(ctx, domain.SecurityEvent{
				Kind:   domain.EventLoginFailed,
				Role:   domain.RoleWorker,
				Detail: "unknown or inactive worker national id",
			}, meta)
			return nil, ErrWorkerNotFound
		}
		return nil, fmt.Errorf("lookup worker: %w", err)
	}

	view := AccountView{
		ID:          worker.ID,
		Username:    worker.NationalID,
		DisplayName: worker.Name + " " + worker.Surname,
		NationalID:  worker.NationalID,
		Role:        domain.RoleWorker,
		Active:      worker.Active,
	}

	token, expiresAt, err := s.tokens.Issue(view)
	if err != nil {
		return nil, fmt.Errorf("issue worker token: %w", err)
	}

	s.recordEvent(ctx, domain.SecurityEvent{
		Kind:      domain.EventLoginSuccess,
		AccountID: worker.ID,
		Username:  worker.NationalID,
		Role:      domain.RoleWorker,
	}, meta)

	return &LoginResult{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		Account:     view,
	}, nil
}

// ParseAccessToken validates a session token and returns its claims.
func (s *AuthService) ParseAccessToken(token string) (*security.SessionClaims, error) {
	return s.tokens.Verify(token)
}

// recordEvent appends one audit record. Failures are logged and swallowed;
// the enclosing authentication result must not change because the sink is
// down.
func (s *AuthService) recordEvent(ctx context.Context, event domain.SecurityEvent, input LoginInput) {
	if s.securityLog == nil {
		return
	}

	event.ID = uuid.NewString()
	event.OccurredAt = s.clock.Now()
	event.IP = input.IP
	event.UserAgent = input.UserAgent

	if err := s.securityLog.Record(ctx, event); err != nil {
		s.log.Warn("security event write failed",
			zap.String("kind", string(event.Kind)),
			zap.String("username", event.Username),
			zap.Error(err),
		)
	}
}
