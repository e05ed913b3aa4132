package usecase

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain/cart"
	"storefront/internal/domain/coupon"
	repo "storefront/internal/repository"
	"storefront/internal/session"

	"github.com/shopspring/decimal"
)

type CartUsecase struct {
	products repo.ProductRepository
	coupons  repo.CouponRepository
	now      func() time.Time
}

func NewCartUsecase(products repo.ProductRepository, coupons repo.CouponRepository) *CartUsecase {
	return &CartUsecase{products: products, coupons: coupons, now: time.Now}
}

// 画面表示用のカート
type CartView struct {
	Items      []cart.Item     `json:"items"`
	Count      int64           `json:"count"`
	TotalPrice decimal.Decimal `json:"total_price"`

	//適用中クーポンの試算（無効になっていればnil）
	Coupon *coupon.Result `json:"coupon"`
}

func (u *CartUsecase) cartOf(sess *session.Session) *cart.Cart {
	return cart.New(sess, u.products)
}

func (u *CartUsecase) View(ctx context.Context, sess *session.Session) (CartView, error) {
	if sess == nil {
		return CartView{}, badRequest("session required")
	}
	c := u.cartOf(sess)

	items, err := c.Items(ctx)
	if err != nil {
		return CartView{}, errDB
	}

	view := CartView{
		Items:      items,
		Count:      c.Len(),
		TotalPrice: c.TotalPrice(),
	}

	if code := sess.CouponCode(); code != "" {
		res, err := previewCoupon(ctx, u.coupons, code, c.Lines(), u.now())
		if err == nil {
			view.Coupon = &res
		}
	}
	return view, nil
}

// AddItem は数量を足す（overrideなら置き換え）
func (u *CartUsecase) AddItem(ctx context.Context, sess *session.Session, productID int64, rawQuantity string, override bool) (CartView, error) {
	if sess == nil {
		return CartView{}, badRequest("session required")
	}
	if productID <= 0 {
		return CartView{}, badRequest("invalid product_id")
	}

	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartView{}, notFound("Product not found")
	}
	if err != nil {
		return CartView{}, errDB
	}
	if !p.Available {
		return CartView{}, notFound("Product not found")
	}

	u.cartOf(sess).Add(p, cart.ParseQuantity(rawQuantity), override)
	return u.View(ctx, sess)
}

func (u *CartUsecase) RemoveItem(ctx context.Context, sess *session.Session, productID int64) (CartView, error) {
	if sess == nil {
		return CartView{}, badRequest("session required")
	}
	if productID <= 0 {
		return CartView{}, badRequest("invalid product_id")
	}

	u.cartOf(sess).Remove(productID)
	return u.View(ctx, sess)
}

// Clear はクーポンも外す
func (u *CartUsecase) Clear(ctx context.Context, sess *session.Session) error {
	if sess == nil {
		return badRequest("session required")
	}
	u.cartOf(sess).Clear()
	if sess.CouponCode() != "" {
		sess.SetCouponCode("")
	}
	return nil
}
