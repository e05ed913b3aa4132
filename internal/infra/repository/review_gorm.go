package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type ReviewGormRepository struct {
	db *gorm.DB
}

func NewReviewGormRepository(db *gorm.DB) *ReviewGormRepository {
	return &ReviewGormRepository{db: db}
}

func (r *ReviewGormRepository) ListByProduct(ctx context.Context, productID int64) ([]model.Review, error) {
	var list []model.Review
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("product_id = ?", productID).
		Order("created_at desc").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *ReviewGormRepository) FindByID(ctx context.Context, id int64) (model.Review, error) {
	var rv model.Review
	err := r.db.WithContext(ctx).First(&rv, id).Error
	if isNotFound(err) {
		return model.Review{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Review{}, err
	}
	return rv, nil
}

func (r *ReviewGormRepository) Exists(ctx context.Context, productID, userID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Review{}).
		Where("product_id = ? AND user_id = ?", productID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ReviewGormRepository) Create(ctx context.Context, rv model.Review) (model.Review, error) {
	if err := r.db.WithContext(ctx).Omit("User").Create(&rv).Error; err != nil {
		if isUniqueViolation(err) {
			return model.Review{}, repo.ErrDuplicate
		}
		return model.Review{}, err
	}
	return rv, nil
}

func (r *ReviewGormRepository) Update(ctx context.Context, rv model.Review) error {
	res := r.db.WithContext(ctx).Model(&model.Review{}).
		Where("id = ?", rv.ID).
		Select("rating", "comment").
		Updates(&rv)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *ReviewGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Review{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 星ごとの件数から平均を出す
func (r *ReviewGormRepository) Summary(ctx context.Context, productID int64) (repo.RatingSummary, error) {
	var rows []struct {
		Rating int
		Cnt    int64
	}
	err := r.db.WithContext(ctx).Model(&model.Review{}).
		Select("rating, COUNT(*) AS cnt").
		Where("product_id = ?", productID).
		Group("rating").
		Scan(&rows).Error
	if err != nil {
		return repo.RatingSummary{}, err
	}

	out := repo.RatingSummary{Stars: map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	var sum int64
	for _, row := range rows {
		out.Stars[row.Rating] = row.Cnt
		out.Total += row.Cnt
		sum += int64(row.Rating) * row.Cnt
	}
	if out.Total > 0 {
		out.Average = float64(sum) / float64(out.Total)
	}
	return out, nil
}
