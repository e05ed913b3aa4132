package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type WishlistGormRepository struct {
	db *gorm.DB
}

func NewWishlistGormRepository(db *gorm.DB) *WishlistGormRepository {
	return &WishlistGormRepository{db: db}
}

func (r *WishlistGormRepository) ListByUser(ctx context.Context, userID int64) ([]model.WishlistItem, error) {
	var list []model.WishlistItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *WishlistGormRepository) FindByID(ctx context.Context, id int64) (model.WishlistItem, error) {
	var w model.WishlistItem
	err := r.db.WithContext(ctx).First(&w, id).Error
	if isNotFound(err) {
		return model.WishlistItem{}, repo.ErrNotFound
	}
	if err != nil {
		return model.WishlistItem{}, err
	}
	return w, nil
}

func (r *WishlistGormRepository) Find(ctx context.Context, userID, productID int64) (model.WishlistItem, error) {
	var w model.WishlistItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&w).Error
	if isNotFound(err) {
		return model.WishlistItem{}, repo.ErrNotFound
	}
	if err != nil {
		return model.WishlistItem{}, err
	}
	return w, nil
}

func (r *WishlistGormRepository) Add(ctx context.Context, userID, productID int64) (model.WishlistItem, bool, error) {
	w := model.WishlistItem{}
	res := r.db.WithContext(ctx).
		Where(model.WishlistItem{UserID: userID, ProductID: productID}).
		FirstOrCreate(&w)
	if res.Error != nil {
		//同時に追加された場合
		if isUniqueViolation(res.Error) {
			existing, err := r.Find(ctx, userID, productID)
			return existing, false, err
		}
		return model.WishlistItem{}, false, res.Error
	}
	return w, res.RowsAffected > 0, nil
}

func (r *WishlistGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.WishlistItem{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *WishlistGormRepository) ProductIDsByUser(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&model.WishlistItem{}).
		Where("user_id = ?", userID).
		Pluck("product_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
