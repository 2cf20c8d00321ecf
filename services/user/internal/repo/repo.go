package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mosgim/platform/services/user/internal/models"
)

var (
	ErrUserAlreadyExist    = errors.New("user already exist")
	ErrRoleAlreadyExist    = errors.New("role already exist")
	ErrServiceAlreadyExist = errors.New("service already exist")
	ErrRoleInUse           = errors.New("role is assigned to users")
)

// GormRepo is the credential store. A GormRepo built by Transaction is bound
// to that transaction; every other one runs each call on its own.
type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

func (r *GormRepo) Migrate(ctx context.Context) error {
	return r.DB.WithContext(ctx).AutoMigrate(models.All()...)
}

// Transaction runs fn inside one database transaction. The transaction is
// committed when fn returns nil and rolled back on error or panic.
func (r *GormRepo) Transaction(ctx context.Context, fn func(tx *GormRepo) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepo{DB: tx})
	})
}

// ClaimFlag inserts the named flag and reports whether this call created it.
func (r *GormRepo) ClaimFlag(ctx context.Context, name string) (bool, error) {
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.SystemFlag{Name: name})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepo) FlagExists(ctx context.Context, name string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.SystemFlag{}).
		Where("name = ?", name).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
