package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

type CouponRepository interface {
	// codeは正規化済みで渡す
	FindByCode(ctx context.Context, code string) (model.Coupon, error)
	ListActive(ctx context.Context, now time.Time) ([]model.Coupon, error)
	ListAll(ctx context.Context) ([]model.Coupon, error)
	Create(ctx context.Context, c model.Coupon) (model.Coupon, error)

	// 上限内のときだけused_countを+1する。上限到達ならfalse。
	ClaimUse(ctx context.Context, couponID int64) (bool, error)
}
