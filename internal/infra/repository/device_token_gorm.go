package repository

import (
	"context"

	"storefront/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DeviceTokenGormRepository struct {
	db *gorm.DB
}

func NewDeviceTokenGormRepository(db *gorm.DB) *DeviceTokenGormRepository {
	return &DeviceTokenGormRepository{db: db}
}

// (user_id, token) が既にあれば端末種別だけ更新
func (r *DeviceTokenGormRepository) Upsert(ctx context.Context, t model.DeviceToken) (model.DeviceToken, error) {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"device_type", "updated_at"}),
	}).Create(&t).Error
	if err != nil {
		return model.DeviceToken{}, err
	}
	return t, nil
}

func (r *DeviceTokenGormRepository) ListByUser(ctx context.Context, userID int64) ([]model.DeviceToken, error) {
	var list []model.DeviceToken
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id asc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *DeviceTokenGormRepository) ListAll(ctx context.Context) ([]model.DeviceToken, error) {
	var list []model.DeviceToken
	if err := r.db.WithContext(ctx).Order("id asc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
