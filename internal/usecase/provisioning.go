package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cleanops/backoffice-core/internal/core/domain"
	"github.com/cleanops/backoffice-core/internal/core/port"
	"github.com/cleanops/backoffice-core/internal/infra/config"
	"github.com/cleanops/backoffice-core/internal/infra/security"
	"github.com/cleanops/backoffice-core/internal/repository"
)

// ProvisioningService derives moderator accounts from the personnel
// directory and seeds the initial administrator.
type ProvisioningService struct {
	cfg         *config.AppConfig
	accounts    port.AccountRepository
	directory   port.PersonDirectory
	securityLog port.SecurityLog
	clock       port.Clock
	log         *zap.Logger
}

// NewProvisioningService constructs a ProvisioningService instance.
func NewProvisioningService(
	cfg *config.AppConfig,
	accounts port.AccountRepository,
	directory port.PersonDirectory,
	securityLog port.SecurityLog,
	clock port.Clock,
	log *zap.Logger,
) *ProvisioningService {
	if clock == nil {
		clock = port.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ProvisioningService{
		cfg:         cfg,
		accounts:    accounts,
		directory:   directory,
		securityLog: securityLog,
		clock:       clock,
		log:         log,
	}
}

// ProvisionedAccount reports one account created by a sync run. The plain
// password is returned exactly once, at creation time; it is never stored.
type ProvisionedAccount struct {
	AccountID  string
	Username   string
	Password   string
	NationalID string
}

// SyncModerators walks the moderator directory and creates a login for
// every moderator that does not have one yet. Existing accounts are left
// untouched; the run is idempotent.
func (s *ProvisioningService) SyncModerators(ctx context.Context) ([]ProvisionedAccount, error) {
	moderators, err := s.directory.ListModerators(ctx)
	if err != nil {
		return nil, fmt.Errorf("list moderators: %w", err)
	}

	var created []ProvisionedAccount
	for _, mod := range moderators {
		if !mod.Active {
			continue
		}

		_, err := s.accounts.GetByNationalID(ctx, mod.NationalID)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return created, fmt.Errorf("lookup account for %s: %w", mod.NationalID, err)
		}

		account, password, err := s.provisionModerator(ctx, mod)
		if err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				// Concurrent sync run won the race; nothing to do.
				continue
			}
			return created, err
		}

		created = append(created, ProvisionedAccount{
			AccountID:  account.ID,
			Username:   account.Username,
			Password:   password,
			NationalID: account.NationalID,
		})
	}

	return created, nil
}

func (s *ProvisioningService) provisionModerator(ctx context.Context, mod domain.Person) (*domain.Account, string, error) {
	username, password, err := security.GenerateCredentials(mod.Name, mod.Surname, mod.NationalID)
	if err != nil {
		return nil, "", fmt.Errorf("generate credentials for %s: %w", mod.NationalID, err)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	account := &domain.Account{
		Username:     username,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(mod.Name + " " + mod.Surname),
		NationalID:   mod.NationalID,
		Role:         domain.RoleModerator,
		IsActive:     true,
		CreatedAt:    s.clock.Now(),
	}

	id, err := s.accounts.Create(ctx, *account)
	if err != nil {
		return nil, "", err
	}
	account.ID = id

	s.recordProvisioned(ctx, account)
	s.log.Info("moderator account provisioned",
		zap.String("username", account.Username),
		zap.String("account_id", account.ID),
	)

	return account, password, nil
}

// EnsureAdministrator creates the bootstrap administrator account when it
// does not exist. A blank configured password disables the seed.
func (s *ProvisioningService) EnsureAdministrator(ctx context.Context) error {
	if s.cfg == nil || s.cfg.Bootstrap.AdminPassword == "" {
		return nil
	}

	username := s.cfg.Bootstrap.AdminUsername
	if username == "" {
		username = "admin"
	}

	_, err := s.accounts.GetByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("lookup administrator: %w", err)
	}

	hash, err := security.HashPassword(s.cfg.Bootstrap.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash administrator password: %w", err)
	}

	account := &domain.Account{
		Username:     username,
		PasswordHash: hash,
		DisplayName:  s.cfg.Bootstrap.AdminDisplayName,
		NationalID:   s.cfg.Bootstrap.AdminNationalID,
		Role:         domain.RoleAdministrator,
		IsActive:     true,
		CreatedAt:    s.clock.Now(),
	}

	id, err := s.accounts.Create(ctx, *account)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("create administrator: %w", err)
	}
	account.ID = id

	s.recordProvisioned(ctx, account)
	s.log.Info("administrator account seeded", zap.String("username", username))
	return nil
}

func (s *ProvisioningService) recordProvisioned(ctx context.Context, account *domain.Account) {
	if s.securityLog == nil {
		return
	}

	event := domain.SecurityEvent{
		ID:         uuid.NewString(),
		Kind:       domain.EventAccountProvisioned,
		OccurredAt: s.clock.Now(),
		AccountID:  account.ID,
		Username:   account.Username,
		Role:       account.Role,
	}

	if err := s.securityLog.Record(ctx, event); err != nil {
		s.log.Warn("security event write failed",
			zap.String("kind", string(event.Kind)),
			zap.String("username", event.Username),
			zap.Error(err),
		)
	}
}
