// Package coupon はカートに対するクーポン割引を計算する。副作用は持たない。
package coupon

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain/cart"
	"storefront/internal/domain/model"
	"storefront/internal/domain/money"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCoupon           = errors.New("invalid coupon")
	ErrCouponExpiredOrInactive = errors.New("coupon expired or inactive")
	ErrEmptyCart               = errors.New("cart is empty")
	ErrBelowMinimumOrder       = errors.New("below minimum order amount")
)

// BelowMinimumError は最低注文金額を持つ。errors.Is(err, ErrBelowMinimumOrder) で判定できる。
type BelowMinimumError struct {
	Minimum decimal.Decimal
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("minimum order amount is %s", e.Minimum.StringFixed(2))
}

func (e *BelowMinimumError) Is(target error) bool {
	return target == ErrBelowMinimumOrder
}

type Result struct {
	Code        string          `json:"code"`
	Discount    decimal.Decimal `json:"discount"`
	TotalBefore decimal.Decimal `json:"total_before"`
	TotalAfter  decimal.Decimal `json:"total_after"`
}

// NormalizeCode は前後の空白を除いて大文字にする
func NormalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// IsValid は有効フラグ・期間・利用上限を見る
func IsValid(c model.Coupon, now time.Time) bool {
	if !c.Active {
		return false
	}
	if now.Before(c.ValidFrom) || now.After(c.ValidTo) {
		return false
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return false
	}
	return true
}

// Evaluate はクーポンをカートに当てた結果を返す。
// cはコードで引いた結果、見つからなければnil。
func Evaluate(c *model.Coupon, lines []cart.Entry, now time.Time) (Result, error) {
	if c == nil {
		return Result{}, ErrInvalidCoupon
	}
	if !IsValid(*c, now) {
		return Result{}, ErrCouponExpiredOrInactive
	}
	if len(lines) == 0 {
		return Result{}, ErrEmptyCart
	}

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}

	if total.LessThan(c.MinOrderAmount) {
		return Result{}, &BelowMinimumError{Minimum: c.MinOrderAmount}
	}

	discount := Discount(*c, total)

	return Result{
		Code:        c.Code,
		Discount:    discount,
		TotalBefore: total,
		TotalAfter:  total.Sub(discount),
	}, nil
}

// Discount は割引額を [0, total] に収めて返す
func Discount(c model.Coupon, total decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch c.DiscountType {
	case model.DiscountPercent:
		d = total.Mul(c.DiscountValue).Div(decimal.NewFromInt(100))
	default:
		d = c.DiscountValue
	}
	return money.Clamp(money.Round2(d), decimal.Zero, total)
}
