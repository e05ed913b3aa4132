package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 評価の集計
type RatingSummary struct {
	Average float64
	Total   int64
	// 1〜5の件数
	Stars map[int]int64
}

type ReviewRepository interface {
	ListByProduct(ctx context.Context, productID int64) ([]model.Review, error)
	FindByID(ctx context.Context, id int64) (model.Review, error)
	Exists(ctx context.Context, productID, userID int64) (bool, error)
	// 重複はErrDuplicate
	Create(ctx context.Context, r model.Review) (model.Review, error)
	Update(ctx context.Context, r model.Review) error
	Delete(ctx context.Context, id int64) error
	Summary(ctx context.Context, productID int64) (RatingSummary, error)
}

type WishlistRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]model.WishlistItem, error)
	FindByID(ctx context.Context, id int64) (model.WishlistItem, error)
	Find(ctx context.Context, userID, productID int64) (model.WishlistItem, error)
	// 既にあればcreated=false
	Add(ctx context.Context, userID, productID int64) (item model.WishlistItem, created bool, err error)
	Delete(ctx context.Context, id int64) error
	ProductIDsByUser(ctx context.Context, userID int64) ([]int64, error)
}
