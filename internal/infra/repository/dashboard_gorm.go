package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 管理画面の集計クエリ（postgres前提）
type DashboardGormRepository struct {
	db *gorm.DB
}

func NewDashboardGormRepository(db *gorm.DB) *DashboardGormRepository {
	return &DashboardGormRepository{db: db}
}

// 注文ごとの割引後合計
func (r *DashboardGormRepository) orderTotals(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table("orders").
		Select("orders.id, orders.user_id, orders.paid, orders.created_at, SUM(order_items.price * order_items.quantity) - orders.discount AS total").
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Group("orders.id")
}

func (r *DashboardGormRepository) CountOrders(ctx context.Context, since *time.Time) (int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{})
	if since != nil {
		q = q.Where("created_at >= ?", *since)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}

func (r *DashboardGormRepository) CountOrdersByPaid(ctx context.Context, paid bool) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).Where("paid = ?", paid).Count(&n).Error
	return n, err
}

func (r *DashboardGormRepository) PaidRevenue(ctx context.Context, since *time.Time) (decimal.Decimal, error) {
	q := r.db.WithContext(ctx).Table("(?) AS t", r.orderTotals(ctx)).Where("t.paid = ?", true)
	if since != nil {
		q = q.Where("t.created_at >= ?", *since)
	}

	var total decimal.Decimal
	if err := q.Select("COALESCE(SUM(t.total), 0)").Row().Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (r *DashboardGormRepository) CustomerSplit(ctx context.Context) (int64, int64, error) {
	perUser := r.db.WithContext(ctx).Model(&model.Order{}).
		Select("user_id, COUNT(*) AS cnt").
		Group("user_id")

	var newCustomers, returning int64
	err := r.db.WithContext(ctx).Table("(?) AS t", perUser).
		Select("COUNT(*) FILTER (WHERE t.cnt = 1), COUNT(*) FILTER (WHERE t.cnt > 1)").
		Row().
		Scan(&newCustomers, &returning)
	if err != nil {
		return 0, 0, err
	}
	return newCustomers, returning, nil
}

func (r *DashboardGormRepository) MonthlyNewCustomers(ctx context.Context) ([]repo.MonthlyCount, error) {
	var rows []repo.MonthlyCount
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Select("date_trunc('month', created_at) AS month, COUNT(*) AS count").
		Where("role = ?", model.RoleCustomer).
		Group("month").
		Order("month").
		Scan(&rows).Error
	return rows, err
}

func (r *DashboardGormRepository) TopCustomers(ctx context.Context, limit int) ([]repo.CustomerSpend, error) {
	var rows []repo.CustomerSpend
	err := r.db.WithContext(ctx).Table("(?) AS t", r.orderTotals(ctx)).
		Select("t.user_id, users.email, COUNT(*) AS order_count, COALESCE(SUM(t.total), 0) AS total_spent").
		Joins("JOIN users ON users.id = t.user_id").
		Group("t.user_id, users.email").
		Order("order_count desc").
		Order("total_spent desc").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *DashboardGormRepository) productSales(ctx context.Context, orderBy string, limit int) ([]repo.ProductSales, error) {
	var rows []repo.ProductSales
	err := r.db.WithContext(ctx).Model(&model.OrderItem{}).
		Select("product_id, MAX(product_name) AS product_name, SUM(quantity) AS quantity, SUM(price * quantity) AS revenue").
		Group("product_id").
		Order(orderBy).
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *DashboardGormRepository) TopProducts(ctx context.Context, limit int) ([]repo.ProductSales, error) {
	return r.productSales(ctx, "quantity desc", limit)
}

func (r *DashboardGormRepository) ProductRevenue(ctx context.Context, limit int) ([]repo.ProductSales, error) {
	return r.productSales(ctx, "revenue desc", limit)
}

func (r *DashboardGormRepository) DailyPaidSales(ctx context.Context, since time.Time) ([]repo.DailySales, error) {
	var rows []repo.DailySales
	err := r.db.WithContext(ctx).Table("(?) AS t", r.orderTotals(ctx)).
		Select("date_trunc('day', t.created_at) AS day, COUNT(*) AS orders, COALESCE(SUM(t.total), 0) AS revenue").
		Where("t.paid = ? AND t.created_at >= ?", true, since).
		Group("day").
		Order("day").
		Scan(&rows).Error
	return rows, err
}

func (r *DashboardGormRepository) MonthlyPaidSales(ctx context.Context) ([]repo.MonthlySales, error) {
	var rows []repo.MonthlySales
	err := r.db.WithContext(ctx).Table("(?) AS t", r.orderTotals(ctx)).
		Select("date_trunc('month', t.created_at) AS month, COALESCE(SUM(t.total), 0) AS revenue").
		Where("t.paid = ?", true).
		Group("month").
		Order("month").
		Scan(&rows).Error
	return rows, err
}

func (r *DashboardGormRepository) RecentOrders(ctx context.Context, limit int) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at desc").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

func (r *DashboardGormRepository) LowStock(ctx context.Context, threshold int64) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("stock <= ?", threshold).
		Order("stock asc").
		Order("id asc").
		Find(&products).Error
	return products, err
}

func (r *DashboardGormRepository) AllOrdersWithItems(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_items.id asc")
		}).
		Order("id asc").
		Find(&orders).Error
	return orders, err
}
