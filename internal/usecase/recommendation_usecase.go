package usecase

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

const (
	popularLimit = 10
	similarLimit = 10
	forYouLimit  = 20
)

type RecommendationUsecase struct {
	products   repo.ProductRepository
	orderItems repo.OrderItemRepository
	wishlist   repo.WishlistRepository
}

func NewRecommendationUsecase(products repo.ProductRepository, orderItems repo.OrderItemRepository, wishlist repo.WishlistRepository) *RecommendationUsecase {
	return &RecommendationUsecase{products: products, orderItems: orderItems, wishlist: wishlist}
}

// 販売数量の多い順
func (u *RecommendationUsecase) Popular(ctx context.Context) ([]model.Product, error) {
	list, err := u.products.Popular(ctx, popularLimit)
	if err != nil {
		return nil, errDB
	}
	return list, nil
}

func (u *RecommendationUsecase) Similar(ctx context.Context, productID int64) ([]model.Product, error) {
	if productID <= 0 {
		return nil, badRequest("invalid product id")
	}
	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, notFound("Product not found")
	}
	if err != nil {
		return nil, errDB
	}

	list, err := u.products.Similar(ctx, p, similarLimit)
	if err != nil {
		return nil, errDB
	}
	return list, nil
}

// ForYou は注文・お気に入りのカテゴリから未購入の商品を選ぶ。
// 手がかりが無ければ人気商品。
func (u *RecommendationUsecase) ForYou(ctx context.Context, userID int64) ([]model.Product, error) {
	if userID <= 0 {
		return nil, errUnauthorized
	}

	ordered, err := u.orderItems.ProductIDsByUser(ctx, userID)
	if err != nil {
		return nil, errDB
	}
	wished, err := u.wishlist.ProductIDsByUser(ctx, userID)
	if err != nil {
		return nil, errDB
	}

	seen := append(append([]int64{}, ordered...), wished...)
	if len(seen) > 0 {
		products, err := u.products.FindByIDs(ctx, seen)
		if err != nil {
			return nil, errDB
		}

		cats := make([]int64, 0, len(products))
		known := make(map[int64]bool, len(products))
		for _, p := range products {
			if !known[p.CategoryID] {
				known[p.CategoryID] = true
				cats = append(cats, p.CategoryID)
			}
		}

		if len(cats) > 0 {
			list, err := u.products.ByCategoriesExcluding(ctx, cats, seen, forYouLimit)
			if err != nil {
				return nil, errDB
			}
			if len(list) > 0 {
				return list, nil
			}
		}
	}

	list, err := u.products.Popular(ctx, forYouLimit)
	if err != nil {
		return nil, errDB
	}
	return list, nil
}
