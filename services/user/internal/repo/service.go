package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mosgim/platform/services/user/internal/models"
)

func (r *GormRepo) CreateService(ctx context.Context, name string) (*models.Service, error) {
	svc := models.Service{Name: name}
	if err := r.DB.WithContext(ctx).Create(&svc).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrServiceAlreadyExist
		}
		return nil, err
	}
	return &svc, nil
}

// DeleteService reports false when no service has that id. Grants for the
// service go with it.
func (r *GormRepo) DeleteService(ctx context.Context, id uint) (bool, error) {
	res := r.DB.WithContext(ctx).Delete(&models.Service{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepo) ListServices(ctx context.Context) ([]models.Service, error) {
	var services []models.Service
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&services).Error; err != nil {
		return nil, err
	}
	return services, nil
}

func (r *GormRepo) FindServiceByID(ctx context.Context, id uint) (*models.Service, error) {
	var svc models.Service
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&svc).Error; err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *GormRepo) FindServiceByName(ctx context.Context, name string) (*models.Service, error) {
	var svc models.Service
	if err := r.DB.WithContext(ctx).Where("name = ?", name).First(&svc).Error; err != nil {
		return nil, err
	}
	return &svc, nil
}

// GrantService reports false when the user already had the grant.
func (r *GormRepo) GrantService(ctx context.Context, userID, serviceID uint) (bool, error) {
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "service_id"}},
			DoNothing: true,
		}).
		Create(&models.UserService{UserID: userID, ServiceID: serviceID})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepo) HasGrant(ctx context.Context, userID, serviceID uint) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.UserService{}).
		Where("user_id = ? AND service_id = ?", userID, serviceID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) ListUserServices(ctx context.Context, userID uint) ([]models.Service, error) {
	var services []models.Service
	if err := r.DB.WithContext(ctx).
		Joins("JOIN user_services ON user_services.service_id = services.id").
		Where("user_services.user_id = ?", userID).
		Order("services.id ASC").
		Find(&services).Error; err != nil {
		return nil, err
	}
	return services, nil
}
