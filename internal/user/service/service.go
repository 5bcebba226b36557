package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"novabook/internal/user"
	dErrors "novabook/pkg/domain-errors"
	"novabook/pkg/platform/sentinel"
)

type Store interface {
	FindByID(ctx context.Context, id int64) (*user.User, error)
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	List(ctx context.Context) ([]user.User, error)
	FindByRole(ctx context.Context, role user.Role) ([]user.User, error)
	Create(ctx context.Context, u *user.User) error
	Update(ctx context.Context, u *user.User) error
	SoftDelete(ctx context.Context, id int64) error
}

// Service manages system accounts and password verification.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Create hashes the plaintext password and persists the account with
// normalized defaults. Unset role defaults to user; new accounts are active.
func (s *Service) Create(ctx context.Context, u *user.User, password string) (*user.User, error) {
	u.Email = strings.TrimSpace(strings.ToLower(u.Email))
	if u.Email == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if password == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "password is required")
	}
	if u.Role == "" {
		u.Role = user.RoleUser
	}
	u.Active = true
	u.Deleted = false

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "hash password")
	}
	u.PasswordHash = string(hash)

	if err := s.store.Create(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Newf(dErrors.CodeConflict, "email %s is already registered", u.Email)
		}
		return nil, err
	}
	s.logger.Info("user created", slog.Int64("user_id", u.ID), slog.String("role", string(u.Role)))
	return u, nil
}

// Authenticate verifies the password for an active account. Failures are
// reported uniformly so callers cannot distinguish a wrong password from
// an unknown or disabled account.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	u, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, err
	}
	if !u.CanAuthenticate() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	return u, nil
}

// ChangePassword replaces the account's password hash.
func (s *Service) ChangePassword(ctx context.Context, id int64, password string) error {
	if password == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}
	u, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "hash password")
	}
	u.PasswordHash = string(hash)
	if err := s.store.Update(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "user %d not found", id)
		}
		return err
	}
	s.logger.Info("password changed", slog.Int64("user_id", id))
	return nil
}

func (s *Service) FindByID(ctx context.Context, id int64) (*user.User, error) {
	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "user %d not found", id)
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) List(ctx context.Context) ([]user.User, error) {
	return s.store.List(ctx)
}

func (s *Service) FindByRole(ctx context.Context, role user.Role) ([]user.User, error) {
	return s.store.FindByRole(ctx, role)
}

func (s *Service) SoftDelete(ctx context.Context, id int64) error {
	if err := s.store.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "user %d not found", id)
		}
		return err
	}
	s.logger.Info("user deleted", slog.Int64("user_id", id))
	return nil
}

// EnsureAdmin seeds a default administrator account when none exists.
// Failures are reported to the caller, which treats them as non-fatal.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	admins, err := s.store.FindByRole(ctx, user.RoleAdmin)
	if err != nil {
		return err
	}
	if len(admins) > 0 {
		return nil
	}
	_, err = s.Create(ctx, &user.User{Email: email, Name: "Administrator", Role: user.RoleAdmin}, password)
	if err != nil {
		return err
	}
	s.logger.Info("default admin seeded", slog.String("email", email))
	return nil
}
