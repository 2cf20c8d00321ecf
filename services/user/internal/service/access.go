package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mosgim/platform/services/user/internal/models"
	"github.com/mosgim/platform/services/user/internal/repo"
)

func (s *AuthService) ListServices(ctx context.Context) ([]models.Service, error) {
	return s.Repo.ListServices(ctx)
}

func (s *AuthService) CreateService(ctx context.Context, name string) (*models.Service, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrValidation
	}
	svc, err := s.Repo.CreateService(ctx, name)
	if err != nil {
		if errors.Is(err, repo.ErrServiceAlreadyExist) {
			return nil, ErrServiceExists
		}
		return nil, err
	}
	return svc, nil
}

func (s *AuthService) DeleteService(ctx context.Context, id uint) error {
	ok, err := s.Repo.DeleteService(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrServiceNotFound
	}
	return nil
}

// GrantService gives the user access to the service. It reports false when
// the grant already existed.
func (s *AuthService) GrantService(ctx context.Context, userID, serviceID uint) (bool, error) {
	var granted bool
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if _, err := tx.GetUserById(ctx, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if _, err := tx.FindServiceByID(ctx, serviceID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrServiceNotFound
			}
			return err
		}
		var err error
		granted, err = tx.GrantService(ctx, userID, serviceID)
		return err
	})
	return granted, err
}

func (s *AuthService) HasAccess(ctx context.Context, userID uint, serviceName string) (bool, error) {
	svc, err := s.Repo.FindServiceByName(ctx, serviceName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrServiceNotFound
		}
		return false, err
	}
	return s.Repo.HasGrant(ctx, userID, svc.ID)
}

func (s *AuthService) UserServices(ctx context.Context, userID uint) ([]models.Service, error) {
	if _, err := s.Repo.GetUserById(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.Repo.ListUserServices(ctx, userID)
}
