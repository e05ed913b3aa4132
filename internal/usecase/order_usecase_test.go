package usecase

import (
	"context"
	"net/http"
	"testing"
	"time"

	"storefront/internal/domain/cart"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/session"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type orderFixture struct {
	uc        *OrderUsecase
	tx        *txManagerMock
	products  *productRepoMock
	inventory *inventoryRepoMock
	orders    *orderRepoMock
	items     *orderItemRepoMock
	coupons   *couponRepoMock
	addresses *addressRepoMock
	users     *userRepoMock
}

var orderNow = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

func newOrderFixture() *orderFixture {
	f := &orderFixture{
		products:  new(productRepoMock),
		inventory: new(inventoryRepoMock),
		orders:    new(orderRepoMock),
		items:     new(orderItemRepoMock),
		coupons:   new(couponRepoMock),
		addresses: new(addressRepoMock),
		users:     new(userRepoMock),
	}
	f.tx = &txManagerMock{repos: &txReposMock{
		orders:     f.orders,
		orderItems: f.items,
		inventory:  f.inventory,
		products:   f.products,
		coupons:    f.coupons,
	}}
	f.uc = NewOrderUsecase(f.tx, f.orders, f.addresses, f.users, zap.NewNop())
	f.uc.now = func() time.Time { return orderNow }

	f.users.On("FindByID", mock.Anything, int64(1)).Return(&model.User{ID: 1, Email: "buyer@test.com"}, nil)
	return f
}

func inlineShipping() PlaceOrderInput {
	return PlaceOrderInput{
		FirstName:  "Taro",
		LastName:   "Yamada",
		Address:    "1-2-3 Shibuya",
		City:       "Tokyo",
		PostalCode: "150-0002",
	}
}

func cartSession(lines ...cart.Entry) *session.Session {
	return session.New("sess", session.Data{Cart: lines}, false)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// 在庫減算 → 注文作成 → 明細 → 在庫履歴 の順で1Tx
func (f *orderFixture) expectPurchase(productID int64, name string, qty int64) {
	f.inventory.On("DecreaseStockIfEnough", mock.Anything, productID, qty).Return(true, nil).Once()
	f.products.On("IncrementSalesCount", mock.Anything, productID, qty).Return(nil).Once()
	f.inventory.On("CreateAdjustment", mock.Anything, mock.MatchedBy(func(a model.InventoryAdjustment) bool {
		return a.ProductID == productID && a.Delta == -qty && a.Kind == model.AdjustmentCheckout && a.OrderID != nil && *a.OrderID == 100
	})).Return(nil).Once()
}

func TestPlaceOrder_FromCart_UsesSnapshotPriceAndClearsCart(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	//カート追加時は50、現在は80
	f.products.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10, Name: "Phone", Price: dec("80"), Available: true}, nil)
	f.expectPurchase(10, "Phone", 2)

	f.orders.On("Create", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		return o.UserID == 1 && o.Email == "buyer@test.com" && o.Status == model.OrderStatusPlaced && o.CouponID == nil
	})).Return(model.Order{ID: 100, UserID: 1, TrackingNumber: "PSABCDEFGH", Status: model.OrderStatusPlaced}, nil)
	f.items.On("CreateBulk", mock.Anything, int64(100), mock.MatchedBy(func(items []model.OrderItem) bool {
		return len(items) == 1 && items[0].Price.Equal(dec("50")) && items[0].Quantity == 2
	})).Return(nil)

	sess := cartSession(cart.Entry{ProductID: 10, Quantity: 2, UnitPrice: dec("50")})

	out, err := f.uc.PlaceOrder(ctx, 1, sess, inlineShipping())
	require.NoError(t, err)

	assert.Equal(t, int64(100), out.ID)
	assert.Equal(t, "PSABCDEFGH", out.TrackingNumber)
	assert.True(t, dec("100").Equal(out.TotalCost))
	assert.Empty(t, sess.CartLines())
	assert.Equal(t, 1, f.tx.calls)

	f.inventory.AssertExpectations(t)
	f.orders.AssertExpectations(t)
	f.items.AssertExpectations(t)
}

func TestPlaceOrder_ExplicitItems_UseCurrentPrice(t *testing.T) {
	f := newOrderFixture()

	f.products.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10, Name: "Phone", Price: dec("80"), Available: true}, nil)
	f.expectPurchase(10, "Phone", 1)
	f.orders.On("Create", mock.Anything, mock.Anything).Return(model.Order{ID: 100, UserID: 1}, nil)
	f.items.On("CreateBulk", mock.Anything, int64(100), mock.MatchedBy(func(items []model.OrderItem) bool {
		return items[0].Price.Equal(dec("80"))
	})).Return(nil)

	in := inlineShipping()
	in.Items = []PlaceOrderItemInput{{ProductID: 10, Quantity: 1}}

	//セッションのカートはそのまま
	sess := cartSession(cart.Entry{ProductID: 99, Quantity: 1, UnitPrice: dec("5")})

	_, err := f.uc.PlaceOrder(context.Background(), 1, sess, in)
	require.NoError(t, err)
	assert.Len(t, sess.CartLines(), 1)
}

func TestPlaceOrder_ExplicitItems_IgnoreSessionCoupon(t *testing.T) {
	f := newOrderFixture()

	f.products.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10, Name: "Phone", Price: dec("80"), Available: true}, nil)
	f.expectPurchase(10, "Phone", 1)
	f.orders.On("Create", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		return o.CouponID == nil && o.Discount.IsZero()
	})).Return(model.Order{ID: 100, UserID: 1}, nil)
	f.items.On("CreateBulk", mock.Anything, int64(100), mock.Anything).Return(nil)

	in := inlineShipping()
	in.Items = []PlaceOrderItemInput{{ProductID: 10, Quantity: 1}}

	//カートに適用中のクーポンは使わず、消さない
	sess := session.New("sess", session.Data{
		Cart:       []cart.Entry{{ProductID: 99, Quantity: 1, UnitPrice: dec("5")}},
		CouponCode: "SAVE10",
	}, false)

	out, err := f.uc.PlaceOrder(context.Background(), 1, sess, in)
	require.NoError(t, err)

	assert.True(t, out.Discount.IsZero())
	assert.Equal(t, "SAVE10", sess.CouponCode())
	assert.Len(t, sess.CartLines(), 1)
	f.coupons.AssertNotCalled(t, "FindByCode", mock.Anything, mock.Anything)
	f.coupons.AssertNotCalled(t, "ClaimUse", mock.Anything, mock.Anything)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	f := newOrderFixture()

	_, err := f.uc.PlaceOrder(context.Background(), 1, cartSession(), inlineShipping())

	assertHTTPError(t, err, http.StatusBadRequest, "Cart is empty")
	assert.Equal(t, 0, f.tx.calls)
}

func TestPlaceOrder_OutOfStock_NoOrderCreated(t *testing.T) {
	f := newOrderFixture()

	f.products.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10, Name: "Phone", Price: dec("80"), Available: true}, nil)
	f.inventory.On("DecreaseStockIfEnough", mock.Anything, int64(10), int64(5)).Return(false, nil)

	sess := cartSession(cart.Entry{ProductID: 10, Quantity: 5, UnitPrice: dec("80")})

	_, err := f.uc.PlaceOrder(context.Background(), 1, sess, inlineShipping())

	assertHTTPError(t, err, http.StatusBadRequest, "out of stock")
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	//失敗時はカートを残す
	assert.Len(t, sess.CartLines(), 1)
}

func TestPlaceOrder_UnavailableProduct(t *testing.T) {
	f := newOrderFixture()

	f.products.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10, Name: "Old Phone", Available: false}, nil)

	sess := cartSession(cart.Entry{ProductID: 10, Quantity: 1, UnitPrice: dec("80")})
	_, err := f.uc.PlaceOrder(context.Background(), 1, sess, inlineShipping())

	assertHTTPError(t, err, http.StatusBadRequest, "Product unavailable: Old Phone")
	f.inventory.AssertNotCalled(t, "DecreaseStockIfEnough", mock.Anything, mock.Anything, mock.Anything)
}

func TestPlaceOrder_ExplicitCoupon_ClaimsUseAndDiscounts(t *testing.T) {
	f := newOrderFixture()

	f.products.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10, Name: "Cable", Price: dec("50"), Available: true}, nil)
	f.expectPurchase(10, "Cable", 2)

	f.coupons.On("FindByCode", mock.Anything, "SAVE10").Return(model.Coupon{
		ID:            7,
		Code:          "SAVE10",
		DiscountType:  model.DiscountPercent,
		DiscountValue: dec("10"),
		ValidFrom:     orderNow.Add(-time.Hour),
		ValidTo:       orderNow.Add(time.Hour),
		Active:        true,
	}, nil)
	f.coupons.On("ClaimUse", mock.Anything, int64(7)).Return(true, nil)

	f.orders.On("Create", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		return o.CouponID != nil && *o.CouponID == 7 && o.Discount.Equal(dec("10"))
	})).Return(model.Order{ID: 100, UserID: 1, Discount: dec("10")}, nil)
	f.items.On("CreateBulk", mock.Anything, int64(100), mock.Anything).Return(nil)

	in := inlineShipping()
	in.CouponCode = " save10 "
	sess := cartSession(cart.Entry{ProductID: 10, Quantity: 2, UnitPrice: dec("50")})

	out, err := f.uc.PlaceOrder(context.Background(), 1, sess, in)
	require.NoError(t, err)

	assert.True(t, dec("100").Equal(out.TotalBeforeDiscount))
	assert.True(t, dec("90").Equal(out.TotalCost))
	f.coupons.AssertExpectations(t)
}

func TestPlaceOrder_CouponUsageLimitReached(t *testing.T) {
	f := newOrderFixture()

	f.products.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10, Name: "Cable", Price: dec("50"), Available: true}, nil)
	f.inventory.On("DecreaseStockIfEnough", mock.Anything, int64(10), int64(1)).Return(true, nil)
	f.products.On("IncrementSalesCount", mock.Anything, int64(10), int64(1)).Return(nil)
	f.coupons.On("FindByCode", mock.Anything, "LAST1").Return(model.Coupon{
		ID:            8,
		Code:          "LAST1",
		DiscountType:  model.DiscountFlat,
		DiscountValue: dec("5"),
		ValidFrom:     orderNow.Add(-time.Hour),
		ValidTo:       orderNow.Add(time.Hour),
		Active:        true,
		UsageLimit:    1,
	}, nil)
	//同時に使われて上限に達した
	f.coupons.On("ClaimUse", mock.Anything, int64(8)).Return(false, nil)

	in := inlineShipping()
	in.CouponCode = "LAST1"
	sess := cartSession(cart.Entry{ProductID: 10, Quantity: 1, UnitPrice: dec("50")})

	_, err := f.uc.PlaceOrder(context.Background(), 1, sess, in)

	assertHTTPError(t, err, http.StatusBadRequest, "Coupon usage limit reached")
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPlaceOrder_StaleSessionCouponIsDropped(t *testing.T) {
	f := newOrderFixture()

	f.products.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10, Name: "Cable", Price: dec("50"), Available: true}, nil)
	f.expectPurchase(10, "Cable", 1)
	f.coupons.On("FindByCode", mock.Anything, "OLD").Return(model.Coupon{}, repo.ErrNotFound)
	f.orders.On("Create", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		return o.CouponID == nil && o.Discount.IsZero()
	})).Return(model.Order{ID: 100, UserID: 1}, nil)
	f.items.On("CreateBulk", mock.Anything, int64(100), mock.Anything).Return(nil)

	sess := session.New("sess", session.Data{
		Cart:       []cart.Entry{{ProductID: 10, Quantity: 1, UnitPrice: dec("50")}},
		CouponCode: "OLD",
	}, false)

	_, err := f.uc.PlaceOrder(context.Background(), 1, sess, inlineShipping())
	require.NoError(t, err)

	assert.Equal(t, "", sess.CouponCode())
	f.coupons.AssertNotCalled(t, "ClaimUse", mock.Anything, mock.Anything)
}

func TestPlaceOrder_AddressOfAnotherUser(t *testing.T) {
	f := newOrderFixture()
	f.addresses.On("FindByID", mock.Anything, int64(3)).Return(model.Address{ID: 3, UserID: 2}, nil)

	sess := cartSession(cart.Entry{ProductID: 10, Quantity: 1, UnitPrice: dec("50")})
	_, err := f.uc.PlaceOrder(context.Background(), 1, sess, PlaceOrderInput{AddressID: 3})

	assertHTTPError(t, err, http.StatusForbidden, "forbidden")
	assert.Equal(t, 0, f.tx.calls)
}

func TestPlaceOrder_MissingShippingFields(t *testing.T) {
	f := newOrderFixture()

	sess := cartSession(cart.Entry{ProductID: 10, Quantity: 1, UnitPrice: dec("50")})
	_, err := f.uc.PlaceOrder(context.Background(), 1, sess, PlaceOrderInput{FirstName: "Taro", LastName: "Yamada"})

	assertHTTPError(t, err, http.StatusBadRequest, "address, city and postal_code required")
}

func TestGetMyOrderDetail_OtherUsersOrderIsNotFound(t *testing.T) {
	f := newOrderFixture()
	f.orders.On("FindByID", mock.Anything, int64(55)).Return(model.Order{ID: 55, UserID: 2}, nil)

	_, err := f.uc.GetMyOrderDetail(context.Background(), 1, 55)

	assertHTTPError(t, err, http.StatusNotFound, "not found")
}

func TestTrackMyOrder_NormalizesTrackingNumber(t *testing.T) {
	f := newOrderFixture()
	f.orders.On("FindByTrackingNumber", mock.Anything, "PSABCDEFGH").Return(model.Order{ID: 9, UserID: 1, TrackingNumber: "PSABCDEFGH"}, nil)

	out, err := f.uc.TrackMyOrder(context.Background(), 1, " psabcdefgh ")
	require.NoError(t, err)
	assert.Equal(t, int64(9), out.ID)
}

func TestListMyOrders_Validation(t *testing.T) {
	f := newOrderFixture()

	_, err := f.uc.ListMyOrders(context.Background(), 1, 1, 101)
	assertHTTPError(t, err, http.StatusBadRequest, "invalid limit")

	f.orders.On("ListByUserID", mock.Anything, int64(1), 1, 20).Return([]model.Order{{ID: 1, UserID: 1}}, int64(1), nil)
	out, err := f.uc.ListMyOrders(context.Background(), 1, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)
	assert.Equal(t, 20, out.Limit)
}
