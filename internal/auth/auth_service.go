package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
)

// AuthService registers accounts and verifies logins against the credential
// store. Hashing happens exactly once per plaintext, here; repositories
// persist hashes verbatim.
type AuthService struct {
	accounts       repository.AccountRepository
	hasher         *PasswordHasher
	minPasswordLen int
	log            *zap.Logger
}

// NewAuthService creates a new authentication service. minPasswordLen of
// zero disables the length check.
func NewAuthService(accounts repository.AccountRepository, hasher *PasswordHasher, minPasswordLen int, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{accounts: accounts, hasher: hasher, minPasswordLen: minPasswordLen, log: log}
}

// Register creates a new non-admin account. Fails with ErrValidation when a
// field is blank, too short or the confirmation does not match, and with
// ErrConflict when the username is taken.
func (s *AuthService) Register(ctx context.Context, username, password, confirmPassword string) (*models.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrValidation)
	}
	if password != confirmPassword {
		return nil, fmt.Errorf("%w: passwords do not match", ErrValidation)
	}
	if len(password) < s.minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, s.minPasswordLen)
	}

	if _, err := s.accounts.GetByUsername(ctx, username); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		Username:     username,
		PasswordHash: hash,
		IsAdmin:      false,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	s.log.Info("account registered", zap.String("username", username))
	return account, nil
}

// Login verifies the credentials and returns the account. Fails with
// ErrUserNotFound for unknown usernames and ErrInvalidCredentials when the
// hash comparison rejects the password.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.Account, error) {
	account, err := s.accounts.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if !s.hasher.VerifyPassword(password, account.PasswordHash) {
		s.log.Info("login rejected", zap.String("username", username))
		return nil, ErrInvalidCredentials
	}

	return account, nil
}

// ChangePassword re-hashes only when the submitted plaintext differs from
// the stored credential; submitting the current password is a no-op.
func (s *AuthService) ChangePassword(ctx context.Context, accountID int64, oldPassword, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: new password is required", ErrValidation)
	}
	if len(newPassword) < s.minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, s.minPasswordLen)
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	if !s.hasher.VerifyPassword(oldPassword, account.PasswordHash) {
		return ErrInvalidCredentials
	}
	if s.hasher.VerifyPassword(newPassword, account.PasswordHash) {
		// Unchanged plaintext; keep the existing hash.
		return nil
	}

	hash, err := s.hasher.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.accounts.UpdatePassword(ctx, accountID, hash)
}
