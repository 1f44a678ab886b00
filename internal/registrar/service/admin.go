package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/synapsekit/registrar/internal/registrar/domain"
	"github.com/synapsekit/registrar/internal/registrar/store"
	"github.com/synapsekit/registrar/pkg/cryptox"
	"github.com/synapsekit/registrar/pkg/slogx"
)

var (
	// ErrInvalidCredentials is returned for both unknown usernames and wrong
	// passwords; callers must not reveal which factor failed.
	ErrInvalidCredentials = errors.New("invalid username or password")

	ErrDuplicateAdmin = errors.New("admin username already exists")
)

type AdminService struct {
	Store store.Store
}

// Verify authenticates an admin. On a username miss it still burns a
// full-cost hash verification so response latency does not betray which
// usernames exist. On success it stamps last_login_at and returns the record.
func (s *AdminService) Verify(
	ctx context.Context,
	username, password string,
) (domain.AdminUser, error) {
	log := slogx.FromContext(ctx)

	admin, err := s.Store.Admins().GetAdminByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			cryptox.BurnVerification(password)
			log.Warn("login attempt for unknown admin")
			return domain.AdminUser{}, ErrInvalidCredentials
		}
		log.Error("failed to fetch admin", slog.Any("error", err))
		return domain.AdminUser{}, err
	}

	if err := cryptox.VerifyPassword(password, admin.PasswordHash); err != nil {
		log.Warn("admin login failed", slog.String("username", username))
		return domain.AdminUser{}, ErrInvalidCredentials
	}

	if err := s.Store.Admins().UpdateLastLogin(ctx, username); err != nil {
		log.Error("failed to update last login", slog.Any("error", err))
		return domain.AdminUser{}, err
	}

	log.Info("admin authenticated", slog.String("username", username))
	return admin, nil
}

// Create hashes the password with a fresh salt and inserts the admin.
func (s *AdminService) Create(
	ctx context.Context,
	username, password string,
) (domain.AdminUser, error) {
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.AdminUser{}, err
	}

	admin, err := s.Store.Admins().CreateAdmin(ctx, username, hash)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.AdminUser{}, ErrDuplicateAdmin
		}
		return domain.AdminUser{}, err
	}

	slogx.FromContext(ctx).Info("admin user created", slog.String("username", username))
	return admin, nil
}

// ChangePassword verifies the current password, enforces the policy on the
// replacement, and swaps the stored hash atomically.
func (s *AdminService) ChangePassword(
	ctx context.Context,
	username, currentPassword, newPassword string,
	policy PasswordPolicy,
) error {
	admin, err := s.Store.Admins().GetAdminByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			cryptox.BurnVerification(currentPassword)
			return ErrInvalidCredentials
		}
		return err
	}

	if err := cryptox.VerifyPassword(currentPassword, admin.PasswordHash); err != nil {
		return ErrInvalidCredentials
	}

	if err := policy.Validate(newPassword); err != nil {
		return err
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.Store.Admins().UpdatePasswordHash(ctx, username, hash); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("admin password changed", slog.String("username", username))
	return nil
}

// ListAdmins returns every admin record, ordered by username.
func (s *AdminService) ListAdmins(ctx context.Context) ([]domain.AdminUser, error) {
	return s.Store.Admins().ListAdmins(ctx)
}

// Remove deletes an admin user. Returns store.ErrNotFound when absent.
func (s *AdminService) Remove(ctx context.Context, username string) error {
	return s.Store.Admins().DeleteAdmin(ctx, username)
}
