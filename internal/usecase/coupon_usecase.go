package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/cart"
	"storefront/internal/domain/coupon"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/session"

	"github.com/shopspring/decimal"
)

type CouponUsecase struct {
	coupons   repo.CouponRepository
	products  repo.ProductRepository
	auditRepo repo.AuditLogRepository
	now       func() time.Time
}

func NewCouponUsecase(coupons repo.CouponRepository, products repo.ProductRepository, auditRepo repo.AuditLogRepository) *CouponUsecase {
	return &CouponUsecase{coupons: coupons, products: products, auditRepo: auditRepo, now: time.Now}
}

// コードで引いて評価する。used_countは変えない。
func previewCoupon(ctx context.Context, coupons repo.CouponRepository, rawCode string, lines []cart.Entry, now time.Time) (coupon.Result, error) {
	code := coupon.NormalizeCode(rawCode)

	//空コードは存在しないコードと同じ扱い
	var found *model.Coupon
	if code != "" {
		c, err := coupons.FindByCode(ctx, code)
		switch {
		case err == nil:
			found = &c
		case errors.Is(err, repo.ErrNotFound):
		default:
			return coupon.Result{}, errDB
		}
	}

	res, err := coupon.Evaluate(found, lines, now)
	if err != nil {
		return coupon.Result{}, couponHTTPError(err)
	}
	return res, nil
}

func couponHTTPError(err error) error {
	switch {
	case errors.Is(err, coupon.ErrInvalidCoupon):
		return badRequest("Invalid coupon")
	case errors.Is(err, coupon.ErrCouponExpiredOrInactive):
		return badRequest("Coupon expired or inactive")
	case errors.Is(err, coupon.ErrEmptyCart):
		return badRequest("Cart is empty")
	case errors.Is(err, coupon.ErrBelowMinimumOrder):
		return badRequest(err.Error())
	}
	return errDB
}

// Apply は試算してコードをセッションに覚える
func (u *CouponUsecase) Apply(ctx context.Context, sess *session.Session, code string) (coupon.Result, error) {
	if sess == nil {
		return coupon.Result{}, badRequest("session required")
	}
	c := cart.New(sess, u.products)

	res, err := previewCoupon(ctx, u.coupons, code, c.Lines(), u.now())
	if err != nil {
		return coupon.Result{}, err
	}
	sess.SetCouponCode(res.Code)
	return res, nil
}

func (u *CouponUsecase) Remove(sess *session.Session) error {
	if sess == nil {
		return badRequest("session required")
	}
	sess.SetCouponCode("")
	return nil
}

func (u *CouponUsecase) ListActive(ctx context.Context) ([]model.Coupon, error) {
	list, err := u.coupons.ListActive(ctx, u.now())
	if err != nil {
		return nil, errDB
	}
	return list, nil
}

type AdminCouponInput struct {
	Code           string
	DiscountType   string
	DiscountValue  decimal.Decimal
	MinOrderAmount decimal.Decimal
	ValidFrom      time.Time
	ValidTo        time.Time
	Active         bool
	UsageLimit     int64
}

func (u *CouponUsecase) AdminCreate(ctx context.Context, adminUserID int64, in AdminCouponInput) (model.Coupon, error) {
	if adminUserID <= 0 {
		return model.Coupon{}, errUnauthorized
	}

	code := coupon.NormalizeCode(in.Code)
	if code == "" || len(code) > 50 {
		return model.Coupon{}, badRequest("invalid code")
	}

	dt := model.DiscountType(strings.ToLower(strings.TrimSpace(in.DiscountType)))
	switch dt {
	case model.DiscountFlat:
	case model.DiscountPercent:
		if in.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
			return model.Coupon{}, badRequest("percent must be <= 100")
		}
	default:
		return model.Coupon{}, badRequest("invalid discount_type")
	}
	if !in.DiscountValue.IsPositive() {
		return model.Coupon{}, badRequest("discount_value must be > 0")
	}
	if in.MinOrderAmount.IsNegative() {
		return model.Coupon{}, badRequest("min_order_amount must be >= 0")
	}
	if in.ValidFrom.IsZero() || in.ValidTo.IsZero() || !in.ValidTo.After(in.ValidFrom) {
		return model.Coupon{}, badRequest("invalid validity window")
	}
	if in.UsageLimit < 0 {
		return model.Coupon{}, badRequest("usage_limit must be >= 0")
	}

	created, err := u.coupons.Create(ctx, model.Coupon{
		Code:           code,
		DiscountType:   dt,
		DiscountValue:  in.DiscountValue.Round(2),
		MinOrderAmount: in.MinOrderAmount.Round(2),
		ValidFrom:      in.ValidFrom,
		ValidTo:        in.ValidTo,
		Active:         in.Active,
		UsageLimit:     in.UsageLimit,
	})
	if errors.Is(err, repo.ErrDuplicate) {
		return model.Coupon{}, NewHTTPError(http.StatusConflict, "coupon code already exists")
	}
	if err != nil {
		return model.Coupon{}, errDB
	}

	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  adminUserID,
		Action:       model.AuditActionCreateCoupon,
		ResourceType: model.AuditResourceCoupon,
		ResourceID:   created.ID,
		AfterJSON:    toJSON(created),
		CreatedAt:    u.now(),
	}); err != nil {
		return model.Coupon{}, errDB
	}
	return created, nil
}

func (u *CouponUsecase) AdminList(ctx context.Context) ([]model.Coupon, error) {
	list, err := u.coupons.ListAll(ctx)
	if err != nil {
		return nil, errDB
	}
	return list, nil
}
