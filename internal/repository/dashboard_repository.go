package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

type CustomerSpend struct {
	UserID     int64           `json:"user_id"`
	Email      string          `json:"email"`
	OrderCount int64           `json:"order_count"`
	TotalSpent decimal.Decimal `json:"total_spent"`
}

type ProductSales struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

type DailySales struct {
	Day     time.Time       `json:"day"`
	Orders  int64           `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

type MonthlyCount struct {
	Month time.Time `json:"month"`
	Count int64     `json:"count"`
}

type MonthlySales struct {
	Month   time.Time       `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
}

// 管理画面の集計（売上は割引後・支払済みのみ）
type DashboardRepository interface {
	CountOrders(ctx context.Context, since *time.Time) (int64, error)
	CountOrdersByPaid(ctx context.Context, paid bool) (int64, error)
	PaidRevenue(ctx context.Context, since *time.Time) (decimal.Decimal, error)
	// 注文1回の顧客数 / 2回以上の顧客数
	CustomerSplit(ctx context.Context) (newCustomers int64, returning int64, err error)
	MonthlyNewCustomers(ctx context.Context) ([]MonthlyCount, error)
	TopCustomers(ctx context.Context, limit int) ([]CustomerSpend, error)
	TopProducts(ctx context.Context, limit int) ([]ProductSales, error)
	DailyPaidSales(ctx context.Context, since time.Time) ([]DailySales, error)
	MonthlyPaidSales(ctx context.Context) ([]MonthlySales, error)
	ProductRevenue(ctx context.Context, limit int) ([]ProductSales, error)
	RecentOrders(ctx context.Context, limit int) ([]model.Order, error)
	LowStock(ctx context.Context, threshold int64) ([]model.Product, error)

	// エクスポート用
	AllOrdersWithItems(ctx context.Context) ([]model.Order, error)
}
