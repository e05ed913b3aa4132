package usecase

import (
	"context"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	lowStockThreshold  = 5
	dashboardTopN      = 5
	productRevenueTopN = 10
	recentOrdersN      = 10
	dailySalesDays     = 7
)

type DashboardUsecase struct {
	stats repo.DashboardRepository
	log   *zap.Logger
	now   func() time.Time
}

func NewDashboardUsecase(stats repo.DashboardRepository, log *zap.Logger) *DashboardUsecase {
	return &DashboardUsecase{stats: stats, log: log, now: time.Now}
}

type Dashboard struct {
	TotalOrders   int64           `json:"total_orders"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	OrdersToday   int64           `json:"orders_today"`
	RevenueToday  decimal.Decimal `json:"revenue_today"`
	PaidOrders    int64           `json:"paid_orders"`
	UnpaidOrders  int64           `json:"unpaid_orders"`
	NewCustomers  int64           `json:"new_customers"`
	ReturningCust int64           `json:"returning_customers"`

	MonthlyNewCustomers []repo.MonthlyCount  `json:"monthly_new_customers"`
	TopCustomers        []repo.CustomerSpend `json:"top_customers"`
	TopProducts         []repo.ProductSales  `json:"top_products"`
	Last7Days           []repo.DailySales    `json:"last_7_days"`
	MonthlySales        []repo.MonthlySales  `json:"monthly_sales"`
	ProductRevenue      []repo.ProductSales  `json:"product_revenue"`
	RecentOrders        []OrderOutput        `json:"recent_orders"`
	LowStock            []model.Product      `json:"low_stock"`
}

// Get は各集計を並行に取る
func (u *DashboardUsecase) Get(ctx context.Context) (Dashboard, error) {
	now := u.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekAgo := today.AddDate(0, 0, -(dailySalesDays - 1))

	var (
		d      Dashboard
		recent []model.Order
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.TotalOrders, err = u.stats.CountOrders(gctx, nil)
		return err
	})
	g.Go(func() (err error) {
		d.TotalRevenue, err = u.stats.PaidRevenue(gctx, nil)
		return err
	})
	g.Go(func() (err error) {
		d.OrdersToday, err = u.stats.CountOrders(gctx, &today)
		return err
	})
	g.Go(func() (err error) {
		d.RevenueToday, err = u.stats.PaidRevenue(gctx, &today)
		return err
	})
	g.Go(func() (err error) {
		d.PaidOrders, err = u.stats.CountOrdersByPaid(gctx, true)
		return err
	})
	g.Go(func() (err error) {
		d.UnpaidOrders, err = u.stats.CountOrdersByPaid(gctx, false)
		return err
	})
	g.Go(func() (err error) {
		d.NewCustomers, d.ReturningCust, err = u.stats.CustomerSplit(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.MonthlyNewCustomers, err = u.stats.MonthlyNewCustomers(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.TopCustomers, err = u.stats.TopCustomers(gctx, dashboardTopN)
		return err
	})
	g.Go(func() (err error) {
		d.TopProducts, err = u.stats.TopProducts(gctx, dashboardTopN)
		return err
	})
	g.Go(func() (err error) {
		d.Last7Days, err = u.stats.DailyPaidSales(gctx, weekAgo)
		return err
	})
	g.Go(func() (err error) {
		d.MonthlySales, err = u.stats.MonthlyPaidSales(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.ProductRevenue, err = u.stats.ProductRevenue(gctx, productRevenueTopN)
		return err
	})
	g.Go(func() (err error) {
		recent, err = u.stats.RecentOrders(gctx, recentOrdersN)
		return err
	})
	g.Go(func() (err error) {
		d.LowStock, err = u.stats.LowStock(gctx, lowStockThreshold)
		return err
	})

	if err := g.Wait(); err != nil {
		u.log.Error("dashboard query failed", zap.Error(err))
		return Dashboard{}, errDB
	}

	d.RecentOrders = make([]OrderOutput, 0, len(recent))
	for _, o := range recent {
		d.RecentOrders = append(d.RecentOrders, toOrderOutput(o))
	}
	return d, nil
}
