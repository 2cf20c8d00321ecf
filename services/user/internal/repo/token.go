package repo

import (
	"context"

	"github.com/mosgim/platform/services/user/internal/models"
)

func (r *GormRepo) FindTokenByUserID(ctx context.Context, userID uint) (*models.Token, error) {
	var token models.Token
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *GormRepo) FindToken(ctx context.Context, token string) (*models.Token, error) {
	var t models.Token
	if err := r.DB.WithContext(ctx).Where("token = ?", token).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *GormRepo) CreateToken(ctx context.Context, userID uint, token string) (*models.Token, error) {
	t := models.Token{UserID: userID, Token: token}
	if err := r.DB.WithContext(ctx).Create(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *GormRepo) DeleteUserTokens(ctx context.Context, userID uint) (int64, error) {
	res := r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Token{})
	return res.RowsAffected, res.Error
}

func (r *GormRepo) FindUserByToken(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).
		Joins("JOIN tokens ON tokens.user_id = users.id").
		Where("tokens.token = ?", token).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) IsAdminToken(ctx context.Context, token string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN tokens ON tokens.user_id = users.id").
		Joins("JOIN roles ON roles.id = users.role_id").
		Where("tokens.token = ? AND roles.name = ?", token, models.RoleAdmin).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
