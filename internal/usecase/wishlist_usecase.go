package usecase

import (
	"context"
	"errors"
	"slices"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/session"
)

type WishlistUsecase struct {
	wishlist repo.WishlistRepository
	products repo.ProductRepository
}

func NewWishlistUsecase(wishlist repo.WishlistRepository, products repo.ProductRepository) *WishlistUsecase {
	return &WishlistUsecase{wishlist: wishlist, products: products}
}

type ToggleResult struct {
	ProductID  int64 `json:"product_id"`
	InWishlist bool  `json:"in_wishlist"`
}

func (u *WishlistUsecase) List(ctx context.Context, userID int64) ([]model.WishlistItem, error) {
	if userID <= 0 {
		return nil, errUnauthorized
	}
	list, err := u.wishlist.ListByUser(ctx, userID)
	if err != nil {
		return nil, errDB
	}
	return list, nil
}

func (u *WishlistUsecase) product(ctx context.Context, productID int64) error {
	if productID <= 0 {
		return badRequest("invalid product_id")
	}
	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return notFound("Product not found")
	}
	if err != nil {
		return errDB
	}
	if !p.Available {
		return notFound("Product not found")
	}
	return nil
}

// Add は既にあればcreated=false
func (u *WishlistUsecase) Add(ctx context.Context, userID, productID int64) (model.WishlistItem, bool, error) {
	if userID <= 0 {
		return model.WishlistItem{}, false, errUnauthorized
	}
	if err := u.product(ctx, productID); err != nil {
		return model.WishlistItem{}, false, err
	}

	item, created, err := u.wishlist.Add(ctx, userID, productID)
	if err != nil {
		return model.WishlistItem{}, false, errDB
	}
	return item, created, nil
}

func (u *WishlistUsecase) Remove(ctx context.Context, userID, itemID int64) error {
	if userID <= 0 {
		return errUnauthorized
	}
	if itemID <= 0 {
		return badRequest("invalid id")
	}

	item, err := u.wishlist.FindByID(ctx, itemID)
	if errors.Is(err, repo.ErrNotFound) {
		return notFound("Not found")
	}
	if err != nil {
		return errDB
	}
	//他人のものは存在しない扱い
	if item.UserID != userID {
		return notFound("Not found")
	}

	if err := u.wishlist.Delete(ctx, itemID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return notFound("Not found")
		}
		return errDB
	}
	return nil
}

func (u *WishlistUsecase) Check(ctx context.Context, userID, productID int64) (bool, error) {
	if userID <= 0 {
		return false, errUnauthorized
	}
	if productID <= 0 {
		return false, badRequest("invalid product_id")
	}

	_, err := u.wishlist.Find(ctx, userID, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errDB
	}
	return true, nil
}

// Toggle はログイン中ならDB、未ログインならセッションで切り替える
func (u *WishlistUsecase) Toggle(ctx context.Context, userID int64, sess *session.Session, productID int64) (ToggleResult, error) {
	if err := u.product(ctx, productID); err != nil {
		return ToggleResult{}, err
	}

	if userID <= 0 {
		if sess == nil {
			return ToggleResult{}, badRequest("session required")
		}
		added := sess.ToggleWishlist(productID)
		return ToggleResult{ProductID: productID, InWishlist: added}, nil
	}

	item, err := u.wishlist.Find(ctx, userID, productID)
	switch {
	case err == nil:
		if err := u.wishlist.Delete(ctx, item.ID); err != nil && !errors.Is(err, repo.ErrNotFound) {
			return ToggleResult{}, errDB
		}
		return ToggleResult{ProductID: productID, InWishlist: false}, nil
	case errors.Is(err, repo.ErrNotFound):
		if _, _, err := u.wishlist.Add(ctx, userID, productID); err != nil {
			return ToggleResult{}, errDB
		}
		return ToggleResult{ProductID: productID, InWishlist: true}, nil
	default:
		return ToggleResult{}, errDB
	}
}

// MergeSession は未ログイン時のお気に入りをアカウントへ移す
func (u *WishlistUsecase) MergeSession(ctx context.Context, userID int64, sess *session.Session) error {
	if userID <= 0 || sess == nil || len(sess.Wishlist()) == 0 {
		return nil
	}
	ids := slices.Clone(sess.Wishlist())
	for _, id := range ids {
		if _, _, err := u.wishlist.Add(ctx, userID, id); err != nil {
			return errDB
		}
		sess.ToggleWishlist(id)
	}
	return nil
}
