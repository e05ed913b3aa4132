package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"testing"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type dashboardRepoMock struct{ mock.Mock }

func (m *dashboardRepoMock) CountOrders(ctx context.Context, since *time.Time) (int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *dashboardRepoMock) CountOrdersByPaid(ctx context.Context, paid bool) (int64, error) {
	args := m.Called(ctx, paid)
	return args.Get(0).(int64), args.Error(1)
}

func (m *dashboardRepoMock) PaidRevenue(ctx context.Context, since *time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *dashboardRepoMock) CustomerSplit(ctx context.Context) (int64, int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *dashboardRepoMock) MonthlyNewCustomers(ctx context.Context) ([]repo.MonthlyCount, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]repo.MonthlyCount)
	return out, args.Error(1)
}

func (m *dashboardRepoMock) TopCustomers(ctx context.Context, limit int) ([]repo.CustomerSpend, error) {
	args := m.Called(ctx, limit)
	out, _ := args.Get(0).([]repo.CustomerSpend)
	return out, args.Error(1)
}

func (m *dashboardRepoMock) TopProducts(ctx context.Context, limit int) ([]repo.ProductSales, error) {
	args := m.Called(ctx, limit)
	out, _ := args.Get(0).([]repo.ProductSales)
	return out, args.Error(1)
}

func (m *dashboardRepoMock) DailyPaidSales(ctx context.Context, since time.Time) ([]repo.DailySales, error) {
	args := m.Called(ctx, since)
	out, _ := args.Get(0).([]repo.DailySales)
	return out, args.Error(1)
}

func (m *dashboardRepoMock) MonthlyPaidSales(ctx context.Context) ([]repo.MonthlySales, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]repo.MonthlySales)
	return out, args.Error(1)
}

func (m *dashboardRepoMock) ProductRevenue(ctx context.Context, limit int) ([]repo.ProductSales, error) {
	args := m.Called(ctx, limit)
	out, _ := args.Get(0).([]repo.ProductSales)
	return out, args.Error(1)
}

func (m *dashboardRepoMock) RecentOrders(ctx context.Context, limit int) ([]model.Order, error) {
	args := m.Called(ctx, limit)
	out, _ := args.Get(0).([]model.Order)
	return out, args.Error(1)
}

func (m *dashboardRepoMock) LowStock(ctx context.Context, threshold int64) ([]model.Product, error) {
	args := m.Called(ctx, threshold)
	out, _ := args.Get(0).([]model.Product)
	return out, args.Error(1)
}

func (m *dashboardRepoMock) AllOrdersWithItems(ctx context.Context) ([]model.Order, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]model.Order)
	return out, args.Error(1)
}

var _ repo.DashboardRepository = (*dashboardRepoMock)(nil)

var dashNow = time.Date(2026, 5, 10, 15, 30, 0, 0, time.UTC)

// since=nil は全期間、それ以外は今日0時から
func sinceToday(since *time.Time) bool {
	return since != nil && since.Equal(time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC))
}

func stubDashboard(stats *dashboardRepoMock) {
	stats.On("CountOrders", mock.Anything, (*time.Time)(nil)).Return(int64(40), nil)
	stats.On("CountOrders", mock.Anything, mock.MatchedBy(sinceToday)).Return(int64(3), nil)
	stats.On("PaidRevenue", mock.Anything, (*time.Time)(nil)).Return(dec("1200.50"), nil)
	stats.On("PaidRevenue", mock.Anything, mock.MatchedBy(sinceToday)).Return(dec("90"), nil)
	stats.On("CountOrdersByPaid", mock.Anything, true).Return(int64(30), nil)
	stats.On("CountOrdersByPaid", mock.Anything, false).Return(int64(10), nil)
	stats.On("CustomerSplit", mock.Anything).Return(int64(12), int64(8), nil)
	stats.On("MonthlyNewCustomers", mock.Anything).Return([]repo.MonthlyCount{}, nil)
	stats.On("TopCustomers", mock.Anything, 5).Return([]repo.CustomerSpend{{UserID: 1}}, nil)
	stats.On("TopProducts", mock.Anything, 5).Return([]repo.ProductSales{{ProductID: 2}}, nil)
	//今日を含む7日分
	stats.On("DailyPaidSales", mock.Anything, time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)).Return([]repo.DailySales{}, nil)
	stats.On("MonthlyPaidSales", mock.Anything).Return([]repo.MonthlySales{}, nil)
	stats.On("ProductRevenue", mock.Anything, 10).Return([]repo.ProductSales{}, nil)
	stats.On("LowStock", mock.Anything, int64(5)).Return([]model.Product{{ID: 4, Stock: 2}}, nil)
}

func TestDashboardGet(t *testing.T) {
	stats := new(dashboardRepoMock)
	stubDashboard(stats)
	stats.On("RecentOrders", mock.Anything, 10).Return([]model.Order{{
		ID:       7,
		Discount: dec("5"),
		Items:    []model.OrderItem{{ProductID: 2, Price: dec("25"), Quantity: 2}},
	}}, nil)

	uc := NewDashboardUsecase(stats, zap.NewNop())
	uc.now = func() time.Time { return dashNow }

	d, err := uc.Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(40), d.TotalOrders)
	assert.Equal(t, int64(3), d.OrdersToday)
	assert.True(t, dec("1200.50").Equal(d.TotalRevenue))
	assert.True(t, dec("90").Equal(d.RevenueToday))
	assert.Equal(t, int64(30), d.PaidOrders)
	assert.Equal(t, int64(10), d.UnpaidOrders)
	assert.Equal(t, int64(12), d.NewCustomers)
	assert.Equal(t, int64(8), d.ReturningCust)
	require.Len(t, d.RecentOrders, 1)
	assert.True(t, dec("45").Equal(d.RecentOrders[0].TotalCost))
	assert.Len(t, d.LowStock, 1)
	stats.AssertExpectations(t)
}

func TestDashboardGet_QueryFailure(t *testing.T) {
	stats := new(dashboardRepoMock)
	stubDashboard(stats)
	stats.On("RecentOrders", mock.Anything, 10).Return(nil, errors.New("timeout"))

	uc := NewDashboardUsecase(stats, zap.NewNop())
	uc.now = func() time.Time { return dashNow }

	_, err := uc.Get(context.Background())

	assertHTTPError(t, err, http.StatusInternalServerError, "db error")
}

// =====================
// Export
// =====================

func exportOrders() []model.Order {
	return []model.Order{{
		ID:        1,
		Email:     "asha@test.com",
		Paid:      true,
		Discount:  dec("10"),
		CreatedAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		Items: []model.OrderItem{
			{ProductName: "Phone", Price: dec("50"), Quantity: 2},
			{ProductName: "Case", Price: dec("9.5"), Quantity: 1},
		},
	}}
}

func TestExportOrdersCSV(t *testing.T) {
	stats := new(dashboardRepoMock)
	stats.On("AllOrdersWithItems", mock.Anything).Return(exportOrders(), nil)

	var buf bytes.Buffer
	require.NoError(t, NewExportUsecase(stats, zap.NewNop()).OrdersCSV(context.Background(), &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"ID", "Customer Email", "Total Cost", "Paid", "Created"},
		{"1", "asha@test.com", "99.50", "true", "2026-05-01T12:00:00Z"},
	}, rows)
}

func TestExportOrderItemsCSV(t *testing.T) {
	stats := new(dashboardRepoMock)
	stats.On("AllOrdersWithItems", mock.Anything).Return(exportOrders(), nil)

	var buf bytes.Buffer
	require.NoError(t, NewExportUsecase(stats, zap.NewNop()).OrderItemsCSV(context.Background(), &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Order ID", "Product", "Price", "Quantity", "Subtotal"},
		{"1", "Phone", "50.00", "2", "100.00"},
		{"1", "Case", "9.50", "1", "9.50"},
	}, rows)
}

func TestExportOrdersXLSX(t *testing.T) {
	stats := new(dashboardRepoMock)
	stats.On("AllOrdersWithItems", mock.Anything).Return(exportOrders(), nil)

	var buf bytes.Buffer
	require.NoError(t, NewExportUsecase(stats, zap.NewNop()).OrdersXLSX(context.Background(), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Orders")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, orderExportHeader, rows[0])
	assert.Equal(t, "99.50", rows[1][2])
}

func TestExport_QueryFailure(t *testing.T) {
	stats := new(dashboardRepoMock)
	stats.On("AllOrdersWithItems", mock.Anything).Return(nil, errors.New("timeout"))

	var buf bytes.Buffer
	err := NewExportUsecase(stats, zap.NewNop()).OrderItemsXLSX(context.Background(), &buf)

	assertHTTPError(t, err, http.StatusInternalServerError, "db error")
	assert.Zero(t, buf.Len())
}
