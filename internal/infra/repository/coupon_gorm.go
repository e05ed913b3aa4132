package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type CouponGormRepository struct {
	db *gorm.DB
}

func NewCouponGormRepository(db *gorm.DB) *CouponGormRepository {
	return &CouponGormRepository{db: db}
}

func (r *CouponGormRepository) FindByCode(ctx context.Context, code string) (model.Coupon, error) {
	var c model.Coupon
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&c).Error
	if isNotFound(err) {
		return model.Coupon{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Coupon{}, err
	}
	return c, nil
}

// 有効かつ期間内・上限未到達のもの
func (r *CouponGormRepository) ListActive(ctx context.Context, now time.Time) ([]model.Coupon, error) {
	var list []model.Coupon
	err := r.db.WithContext(ctx).
		Where("active = ? AND valid_from <= ? AND valid_to >= ?", true, now, now).
		Where("usage_limit = 0 OR used_count < usage_limit").
		Order("valid_to asc").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *CouponGormRepository) ListAll(ctx context.Context) ([]model.Coupon, error) {
	var list []model.Coupon
	if err := r.db.WithContext(ctx).Order("id desc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *CouponGormRepository) Create(ctx context.Context, c model.Coupon) (model.Coupon, error) {
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		if isUniqueViolation(err) {
			return model.Coupon{}, repo.ErrDuplicate
		}
		return model.Coupon{}, err
	}
	return c, nil
}

// 条件付きUPDATEで同時利用でも上限を超えない
func (r *CouponGormRepository) ClaimUse(ctx context.Context, couponID int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Coupon{}).
		Where("id = ? AND (usage_limit = 0 OR used_count < usage_limit)", couponID).
		UpdateColumn("used_count", gorm.Expr("used_count + ?", 1))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
