package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/cart"
	"storefront/internal/domain/coupon"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/session"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OrderUsecase struct {
	tx        repo.TransactionManager
	orders    repo.OrderRepository
	addresses repo.AddressRepository
	users     repo.UserRepository
	log       *zap.Logger
	now       func() time.Time
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	addresses repo.AddressRepository,
	users repo.UserRepository,
	log *zap.Logger,
) *OrderUsecase {
	return &OrderUsecase{
		tx:        tx,
		orders:    orders,
		addresses: addresses,
		users:     users,
		log:       log,
		now:       time.Now,
	}
}

type PlaceOrderItemInput struct {
	ProductID int64
	Quantity  int64
}

// POST /ordersの入力。Itemsが空ならセッションのカートから作る。
type PlaceOrderInput struct {
	Items      []PlaceOrderItemInput
	AddressID  int64
	FirstName  string
	LastName   string
	Address    string
	City       string
	PostalCode string
	CouponCode string
}

type OrderItemOutput struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	Cost      decimal.Decimal `json:"cost"`
}

type OrderOutput struct {
	ID                  int64             `json:"id"`
	UserID              int64             `json:"user_id"`
	TrackingNumber      string            `json:"tracking_number"`
	Status              string            `json:"status"`
	Paid                bool              `json:"paid"`
	FirstName           string            `json:"first_name"`
	LastName            string            `json:"last_name"`
	Email               string            `json:"email"`
	Address             string            `json:"address"`
	PostalCode          string            `json:"postal_code"`
	City                string            `json:"city"`
	Discount            decimal.Decimal   `json:"discount"`
	TotalBeforeDiscount decimal.Decimal   `json:"total_before_discount"`
	TotalCost           decimal.Decimal   `json:"total_cost"`
	CreatedAt           time.Time         `json:"created_at"`
	Items               []OrderItemOutput `json:"items"`
}

type OrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

type shippingInfo struct {
	firstName, lastName, address, city, postalCode string
}

// PlaceOrder は在庫減算・クーポン消費・注文作成を1トランザクションで行う。
// カートが元なら、commit後にカートとクーポンをセッションから消す。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, sess *session.Session, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, errUnauthorized
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return OrderOutput{}, errDB
	}
	if user == nil {
		return OrderOutput{}, errUnauthorized
	}

	//注文の元（明示指定 or カート）
	fromCart := len(in.Items) == 0
	var lines []cart.Entry
	if fromCart {
		if sess != nil {
			lines = cart.Normalize(sess.CartLines())
		}
		if len(lines) == 0 {
			return OrderOutput{}, badRequest("Cart is empty")
		}
	} else {
		raw := make([]cart.Entry, 0, len(in.Items))
		for _, it := range in.Items {
			if it.ProductID <= 0 {
				return OrderOutput{}, badRequest("invalid product_id")
			}
			if it.Quantity <= 0 {
				return OrderOutput{}, badRequest("invalid quantity")
			}
			raw = append(raw, cart.Entry{ProductID: it.ProductID, Quantity: it.Quantity})
		}
		lines = cart.Normalize(raw)
	}

	ship, err := u.resolveShipping(ctx, userID, in)
	if err != nil {
		return OrderOutput{}, err
	}

	//明示指定が優先、無ければカート注文のときだけセッションで適用中のもの
	code := coupon.NormalizeCode(in.CouponCode)
	explicitCoupon := code != ""
	if !explicitCoupon && fromCart && sess != nil {
		code = coupon.NormalizeCode(sess.CouponCode())
	}

	var created model.Order
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		items := make([]model.OrderItem, 0, len(lines))
		priced := make([]cart.Entry, 0, len(lines))

		for _, l := range lines {
			p, err := r.Products().FindByID(ctx, l.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return notFound("Product not found")
			}
			if err != nil {
				return errDB
			}
			if !p.Available {
				return badRequest(fmt.Sprintf("Product unavailable: %s", p.Name))
			}

			//カート由来なら追加時の価格、それ以外は現在価格
			price := p.Price
			if fromCart {
				price = l.UnitPrice
			}

			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, p.ID, l.Quantity)
			if err != nil {
				return errDB
			}
			if !ok {
				return badRequest("out of stock")
			}
			if err := r.Products().IncrementSalesCount(ctx, p.ID, l.Quantity); err != nil {
				return errDB
			}

			items = append(items, model.OrderItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				Price:       price,
				Quantity:    l.Quantity,
			})
			priced = append(priced, cart.Entry{ProductID: p.ID, Quantity: l.Quantity, UnitPrice: price})
		}

		order := model.Order{
			UserID:     userID,
			FirstName:  ship.firstName,
			LastName:   ship.lastName,
			Email:      user.Email,
			Address:    ship.address,
			PostalCode: ship.postalCode,
			City:       ship.city,
			Status:     model.OrderStatusPlaced,
			Discount:   decimal.Zero,
		}

		if code != "" {
			couponID, discount, err := u.claimCoupon(ctx, r, code, priced, explicitCoupon)
			if err != nil {
				return err
			}
			if couponID > 0 {
				order.CouponID = &couponID
				order.Discount = discount
			}
		}

		o, err := r.Orders().Create(ctx, order)
		if err != nil {
			return errDB
		}

		if err := r.OrderItems().CreateBulk(ctx, o.ID, items); err != nil {
			return errDB
		}

		//在庫の減算履歴
		orderID := o.ID
		for _, it := range items {
			if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
				ProductID: it.ProductID,
				OrderID:   &orderID,
				Kind:      model.AdjustmentCheckout,
				Delta:     -it.Quantity,
			}); err != nil {
				return errDB
			}
		}

		o.Items = items
		created = o
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	if sess != nil && fromCart {
		cart.New(sess, nil).Clear()
		if sess.CouponCode() != "" {
			sess.SetCouponCode("")
		}
	}

	u.log.Info("order placed",
		zap.Int64("order_id", created.ID),
		zap.Int64("user_id", userID),
		zap.String("tracking_number", created.TrackingNumber),
	)
	return toOrderOutput(created), nil
}

// claimCoupon はクーポンを評価して1回分消費する。
// セッション由来のクーポンが使えなくなっていた場合は割引なしで続行する。
func (u *OrderUsecase) claimCoupon(ctx context.Context, r repo.TxRepos, code string, lines []cart.Entry, explicit bool) (int64, decimal.Decimal, error) {
	var found *model.Coupon
	c, err := r.Coupons().FindByCode(ctx, code)
	switch {
	case err == nil:
		found = &c
	case errors.Is(err, repo.ErrNotFound):
	default:
		return 0, decimal.Zero, errDB
	}

	res, err := coupon.Evaluate(found, lines, u.now())
	if err != nil {
		if explicit {
			return 0, decimal.Zero, couponHTTPError(err)
		}
		u.log.Info("session coupon dropped at checkout", zap.String("code", code), zap.Error(err))
		return 0, decimal.Zero, nil
	}

	ok, err := r.Coupons().ClaimUse(ctx, found.ID)
	if err != nil {
		return 0, decimal.Zero, errDB
	}
	if !ok {
		return 0, decimal.Zero, badRequest("Coupon usage limit reached")
	}
	return found.ID, res.Discount, nil
}

func (u *OrderUsecase) resolveShipping(ctx context.Context, userID int64, in PlaceOrderInput) (shippingInfo, error) {
	if in.AddressID > 0 {
		//address_idの存在確認＋所有チェック
		addr, err := u.addresses.FindByID(ctx, in.AddressID)
		if errors.Is(err, repo.ErrNotFound) {
			return shippingInfo{}, notFound("not found")
		}
		if err != nil {
			return shippingInfo{}, errDB
		}
		if addr.UserID != userID {
			return shippingInfo{}, NewHTTPError(http.StatusForbidden, "forbidden")
		}
		return shippingInfo{
			firstName:  addr.FirstName,
			lastName:   addr.LastName,
			address:    addr.Line,
			city:       addr.City,
			postalCode: addr.PostalCode,
		}, nil
	}

	s := shippingInfo{
		firstName:  strings.TrimSpace(in.FirstName),
		lastName:   strings.TrimSpace(in.LastName),
		address:    strings.TrimSpace(in.Address),
		city:       strings.TrimSpace(in.City),
		postalCode: strings.TrimSpace(in.PostalCode),
	}
	if s.firstName == "" || s.lastName == "" {
		return shippingInfo{}, badRequest("first_name and last_name required")
	}
	if s.address == "" || s.city == "" || s.postalCode == "" {
		return shippingInfo{}, badRequest("address, city and postal_code required")
	}
	if len(s.firstName) > 50 || len(s.lastName) > 50 || len(s.address) > 250 || len(s.city) > 100 || len(s.postalCode) > 20 {
		return shippingInfo{}, badRequest("field too long")
	}
	return s, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page, limit int) (OrderListOutput, error) {
	if userID <= 0 {
		return OrderListOutput{}, errUnauthorized
	}
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = 20
	}
	if page < 1 {
		return OrderListOutput{}, badRequest("invalid page")
	}
	if limit < 1 || limit > 100 {
		return OrderListOutput{}, badRequest("invalid limit")
	}

	orders, total, err := u.orders.ListByUserID(ctx, userID, page, limit)
	if err != nil {
		return OrderListOutput{}, errDB
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		outs = append(outs, toOrderOutput(o))
	}
	return OrderListOutput{Items: outs, Total: total, Page: page, Limit: limit}, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, errUnauthorized
	}
	if orderID <= 0 {
		return OrderOutput{}, badRequest("invalid id")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	return ownOrder(userID, o, err)
}

func (u *OrderUsecase) TrackMyOrder(ctx context.Context, userID int64, trackingNumber string) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, errUnauthorized
	}
	tn := strings.ToUpper(strings.TrimSpace(trackingNumber))
	if tn == "" {
		return OrderOutput{}, badRequest("invalid tracking number")
	}

	o, err := u.orders.FindByTrackingNumber(ctx, tn)
	return ownOrder(userID, o, err)
}

func ownOrder(userID int64, o model.Order, findErr error) (OrderOutput, error) {
	if errors.Is(findErr, repo.ErrNotFound) {
		return OrderOutput{}, notFound("not found")
	}
	if findErr != nil {
		return OrderOutput{}, errDB
	}
	if o.UserID != userID {
		//他人の注文は「存在しない扱い」にする
		return OrderOutput{}, notFound("not found")
	}
	return toOrderOutput(o), nil
}

func toOrderOutput(o model.Order) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(o.Items))
	for _, it := range o.Items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductName,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Cost:      it.Cost(),
		})
	}

	return OrderOutput{
		ID:                  o.ID,
		UserID:              o.UserID,
		TrackingNumber:      o.TrackingNumber,
		Status:              string(o.Status),
		Paid:                o.Paid,
		FirstName:           o.FirstName,
		LastName:            o.LastName,
		Email:               o.Email,
		Address:             o.Address,
		PostalCode:          o.PostalCode,
		City:                o.City,
		Discount:            o.Discount,
		TotalBeforeDiscount: o.TotalBeforeDiscount(),
		TotalCost:           o.TotalCost(),
		CreatedAt:           o.CreatedAt,
		Items:               outItems,
	}
}
