//go:build integration

package repository

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/infra/db"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// go test -tags=integration ./internal/infra/repository/...
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "storefront_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pg.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	host, err := pg.Host(ctx)
	require.NoError(t, err)
	port, err := pg.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=testuser password=testpass dbname=storefront_test sslmode=disable", host, port.Port())
	gdb, err := db.Connect(dsn, false)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	return gdb
}

func seedProduct(t *testing.T, gdb *gorm.DB, stock int64) model.Product {
	t.Helper()
	ctx := context.Background()

	cat, err := NewCategoryGormRepository(gdb).Create(ctx, model.Category{Name: "Phones", Slug: "phones"})
	require.NoError(t, err)

	p, err := NewProductGormRepository(gdb).Create(ctx, model.Product{
		CategoryID: cat.ID,
		Name:       "Pixel",
		Slug:       "pixel",
		Price:      decimal.RequireFromString("499.99"),
		Stock:      stock,
		Available:  true,
	})
	require.NoError(t, err)
	return p
}

func TestIntegration_DecreaseStockNeverOversells(t *testing.T) {
	gdb := setupTestDB(t)
	p := seedProduct(t, gdb, 5)
	inv := NewInventoryGormRepository(gdb)

	var won atomic.Int64
	var g errgroup.Group
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			ok, err := inv.DecreaseStockIfEnough(context.Background(), p.ID, 1)
			if ok {
				won.Add(1)
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(5), won.Load())

	got, err := NewProductGormRepository(gdb).FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Stock)
}

func TestIntegration_CouponClaimRespectsLimit(t *testing.T) {
	gdb := setupTestDB(t)
	coupons := NewCouponGormRepository(gdb)
	ctx := context.Background()

	c, err := coupons.Create(ctx, model.Coupon{
		Code:          "SAVE10",
		DiscountType:  model.DiscountPercent,
		DiscountValue: decimal.NewFromInt(10),
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidTo:       time.Now().Add(time.Hour),
		Active:        true,
		UsageLimit:    2,
	})
	require.NoError(t, err)

	_, err = coupons.Create(ctx, model.Coupon{
		Code:          "SAVE10",
		DiscountType:  model.DiscountFlat,
		DiscountValue: decimal.NewFromInt(1),
		ValidFrom:     time.Now(),
		ValidTo:       time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, repo.ErrDuplicate)

	for i, want := range []bool{true, true, false} {
		ok, err := coupons.ClaimUse(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, want, ok, "claim #%d", i+1)
	}

	got, err := coupons.FindByCode(ctx, "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.UsedCount)
}

func TestIntegration_OrderTxRollsBack(t *testing.T) {
	gdb := setupTestDB(t)
	p := seedProduct(t, gdb, 1)
	ctx := context.Background()

	users := NewUserGormRepository(gdb)
	u := &model.User{Email: "asha@test.com", PasswordHash: "x", Role: model.RoleCustomer, IsActive: true}
	require.NoError(t, users.Create(ctx, u))
	assert.ErrorIs(t, users.Create(ctx, &model.User{Email: "asha@test.com", PasswordHash: "y"}), repo.ErrDuplicate)

	tx := NewTxManagerGorm(gdb)
	boom := fmt.Errorf("out of stock")

	err := tx.WithinTx(ctx, func(r repo.TxRepos) error {
		ok, err := r.Inventory().DecreaseStockIfEnough(ctx, p.ID, 1)
		require.NoError(t, err)
		require.True(t, ok)

		_, err = r.Orders().Create(ctx, model.Order{
			UserID:     u.ID,
			FirstName:  "Asha",
			LastName:   "Rao",
			Email:      u.Email,
			Address:    "12 MG Road",
			PostalCode: "560001",
			City:       "Bengaluru",
		})
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	//在庫も注文も戻っている
	got, err := NewProductGormRepository(gdb).FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Stock)

	list, total, err := NewOrderGormRepository(gdb).ListByUserID(ctx, u.ID, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, int64(0), total)
}

func TestIntegration_CreateKeepsFalseFlags(t *testing.T) {
	gdb := setupTestDB(t)
	ctx := context.Background()

	cat, err := NewCategoryGormRepository(gdb).Create(ctx, model.Category{Name: "Audio", Slug: "audio"})
	require.NoError(t, err)

	products := NewProductGormRepository(gdb)
	hidden, err := products.Create(ctx, model.Product{
		CategoryID: cat.ID,
		Name:       "Draft Headphones",
		Slug:       "draft-headphones",
		Price:      decimal.RequireFromString("59.00"),
		Stock:      3,
		Available:  false,
	})
	require.NoError(t, err)

	got, err := products.FindByID(ctx, hidden.ID)
	require.NoError(t, err)
	assert.False(t, got.Available)

	list, total, err := products.ListPublic(ctx, repo.ProductListQuery{Page: 1, PageSize: 12})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, int64(0), total)

	coupons := NewCouponGormRepository(gdb)
	_, err = coupons.Create(ctx, model.Coupon{
		Code:          "PAUSED",
		DiscountType:  model.DiscountFlat,
		DiscountValue: decimal.NewFromInt(5),
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidTo:       time.Now().Add(time.Hour),
		Active:        false,
	})
	require.NoError(t, err)

	c, err := coupons.FindByCode(ctx, "PAUSED")
	require.NoError(t, err)
	assert.False(t, c.Active)

	active, err := coupons.ListActive(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestIntegration_SimilarExcludesSelfAndHidden(t *testing.T) {
	gdb := setupTestDB(t)
	ctx := context.Background()
	base := seedProduct(t, gdb, 5)
	products := NewProductGormRepository(gdb)

	for i, available := range []bool{true, true, false} {
		_, err := products.Create(ctx, model.Product{
			CategoryID: base.CategoryID,
			Name:       fmt.Sprintf("Pixel %d", i),
			Slug:       fmt.Sprintf("pixel-%d", i),
			Price:      decimal.RequireFromString("299.00"),
			Stock:      1,
			Available:  available,
		})
		require.NoError(t, err)
	}

	list, err := products.Similar(ctx, base, 10)
	require.NoError(t, err)

	require.Len(t, list, 2)
	for _, p := range list {
		assert.NotEqual(t, base.ID, p.ID)
		assert.True(t, p.Available)
	}
}
