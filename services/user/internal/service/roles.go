package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mosgim/platform/services/user/internal/models"
	"github.com/mosgim/platform/services/user/internal/repo"
)

// IsAdminToken reports whether token is a live token of a user holding the
// admin role.
func (s *AuthService) IsAdminToken(ctx context.Context, token string) (bool, error) {
	if _, err := s.Tokens.Validate(token); err != nil {
		return false, nil
	}
	return s.Repo.IsAdminToken(ctx, token)
}

func (s *AuthService) RequireAdmin(ctx context.Context, token string) error {
	ok, err := s.IsAdminToken(ctx, token)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAdmin
	}
	return nil
}

func (s *AuthService) ListRoles(ctx context.Context) ([]models.Role, error) {
	return s.Repo.ListRoles(ctx)
}

func (s *AuthService) CreateRole(ctx context.Context, name string) (*models.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrValidation
	}
	role, err := s.Repo.CreateRole(ctx, name)
	if err != nil {
		if errors.Is(err, repo.ErrRoleAlreadyExist) {
			return nil, ErrRoleExists
		}
		return nil, err
	}
	return role, nil
}

func (s *AuthService) DeleteRole(ctx context.Context, id uint) error {
	ok, err := s.Repo.DeleteRole(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrRoleInUse) {
			return ErrRoleInUse
		}
		return err
	}
	if !ok {
		return ErrRoleNotFound
	}
	return nil
}

func (s *AuthService) AssignRole(ctx context.Context, userID, roleID uint) error {
	var role *models.Role
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var err error
		role, err = tx.FindRoleByID(ctx, roleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoleNotFound
			}
			return err
		}
		ok, err := tx.SetUserRole(ctx, userID, roleID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	if role.Name == models.RoleAdmin {
		s.adminConfigured.Store(true)
	}
	return nil
}

func (s *AuthService) UserRole(ctx context.Context, userID uint) (*models.Role, error) {
	user, err := s.Repo.GetUserById(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	role, err := s.Repo.FindRoleByID(ctx, user.RoleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	return role, nil
}
