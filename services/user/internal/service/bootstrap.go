package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mosgim/platform/pkg/logging"
	"github.com/mosgim/platform/services/user/internal/models"
	"github.com/mosgim/platform/services/user/internal/repo"
)

var defaultRoles = []string{models.RoleAdmin, models.RoleUser}

// EnsureDefaultRoles creates the admin and user roles when they are missing.
// Each role is handled on its own so a partially seeded store is completed.
func (s *AuthService) EnsureDefaultRoles(ctx context.Context) error {
	l := logging.FromContext(ctx)
	for _, name := range defaultRoles {
		created, err := s.Repo.EnsureRole(ctx, name)
		if err != nil {
			return err
		}
		if created {
			l.Info("role_created", "role", name)
		}
	}
	return nil
}

// registrationRole decides the role of a user being registered in tx. The
// first registration on a store without an admin claims the bootstrap flag
// and becomes admin; a concurrent claimant blocks on the flag row and loses.
func (s *AuthService) registrationRole(ctx context.Context, tx *repo.GormRepo) (string, error) {
	if s.adminConfigured.Load() {
		return models.RoleUser, nil
	}

	hasAdmin, err := tx.AdminExists(ctx)
	if err != nil {
		return "", err
	}
	if hasAdmin {
		s.adminConfigured.Store(true)
		return models.RoleUser, nil
	}

	claimed, err := tx.ClaimFlag(ctx, models.FlagBootstrapAdmin)
	if err != nil {
		return "", err
	}
	if claimed {
		return models.RoleAdmin, nil
	}
	return models.RoleUser, nil
}

// BootstrapClaimed reports whether a registration already took the
// bootstrap admin slot.
func (s *AuthService) BootstrapClaimed(ctx context.Context) (bool, error) {
	return s.Repo.FlagExists(ctx, models.FlagBootstrapAdmin)
}

func (s *AuthService) roleByName(ctx context.Context, tx *repo.GormRepo, name string) (*models.Role, error) {
	role, err := tx.FindRoleByName(ctx, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if _, err := tx.EnsureRole(ctx, name); err != nil {
		return nil, err
	}
	return tx.FindRoleByName(ctx, name)
}
