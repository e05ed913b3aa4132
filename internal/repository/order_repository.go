package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	Paid   *bool
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	// Itemsも一緒に読む
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	FindByTrackingNumber(ctx context.Context, trackingNumber string) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)

	// 作成後のID・追跡番号が埋まったOrderを返す
	Create(ctx context.Context, order model.Order) (model.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
	// 何度呼んでもよい
	MarkPaid(ctx context.Context, orderID int64) error
}

type OrderItemRepository interface {
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
	// ユーザーが注文したことのある商品ID
	ProductIDsByUser(ctx context.Context, userID int64) ([]int64, error)
}
