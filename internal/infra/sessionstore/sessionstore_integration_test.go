//go:build integration

package sessionstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"storefront/internal/domain/cart"
	"storefront/internal/infra/db"
	repo "storefront/internal/repository"
	"storefront/internal/session"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// go test -tags=integration ./internal/infra/sessionstore/...
func startContainer(t *testing.T, req testcontainers.ContainerRequest, port string) (string, string) {
	t.Helper()
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := c.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	host, err := c.Host(ctx)
	require.NoError(t, err)
	mapped, err := c.MappedPort(ctx, port)
	require.NoError(t, err)
	return host, mapped.Port()
}

func newRedisStore(t *testing.T) *RedisStore {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}, "6379")

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port)})
	t.Cleanup(func() { _ = client.Close() })

	s := NewRedisStoreWithClient(client)
	require.NoError(t, s.Ping(context.Background()))
	return s
}

func newGormStore(t *testing.T) *GormStore {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "sessions_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}, "5432")

	dsn := fmt.Sprintf("host=%s port=%s user=testuser password=testpass dbname=sessions_test sslmode=disable", host, port)
	gdb, err := db.Connect(dsn, false)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	return NewGormStore(gdb)
}

func sampleData() session.Data {
	return session.Data{
		Cart:           []cart.Entry{{ProductID: 3, Quantity: 2, UnitPrice: decimal.RequireFromString("49.90")}},
		CouponCode:     "SAVE10",
		RecentlyViewed: []int64{3, 1},
		Wishlist:       []int64{7},
	}
}

func assertSameData(t *testing.T, want, got session.Data) {
	t.Helper()
	require.Len(t, got.Cart, len(want.Cart))
	for i := range want.Cart {
		assert.Equal(t, want.Cart[i].ProductID, got.Cart[i].ProductID)
		assert.Equal(t, want.Cart[i].Quantity, got.Cart[i].Quantity)
		assert.True(t, want.Cart[i].UnitPrice.Equal(got.Cart[i].UnitPrice))
	}
	assert.Equal(t, want.CouponCode, got.CouponCode)
	assert.Equal(t, want.RecentlyViewed, got.RecentlyViewed)
	assert.Equal(t, want.Wishlist, got.Wishlist)
}

// 保存・読込・上書き・削除
func roundTrip(t *testing.T, store repo.SessionStore) {
	ctx := context.Background()

	_, err := store.Load(ctx, "missing")
	assert.ErrorIs(t, err, repo.ErrNotFound)

	require.NoError(t, store.Save(ctx, "k1", sampleData(), time.Hour))
	got, err := store.Load(ctx, "k1")
	require.NoError(t, err)
	assertSameData(t, sampleData(), got)

	//同じキーは上書き
	require.NoError(t, store.Save(ctx, "k1", session.Data{Wishlist: []int64{9}}, time.Hour))
	got, err = store.Load(ctx, "k1")
	require.NoError(t, err)
	assert.Empty(t, got.Cart)
	assert.Equal(t, []int64{9}, got.Wishlist)

	require.NoError(t, store.Delete(ctx, "k1"))
	_, err = store.Load(ctx, "k1")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestIntegration_RedisStore_RoundTrip(t *testing.T) {
	roundTrip(t, newRedisStore(t))
}

func TestIntegration_RedisStore_Expires(t *testing.T) {
	s := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "short", sampleData(), time.Second))
	time.Sleep(1500 * time.Millisecond)

	_, err := s.Load(ctx, "short")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestIntegration_GormStore_RoundTrip(t *testing.T) {
	roundTrip(t, newGormStore(t))
}

func TestIntegration_GormStore_ExpiredAndPurge(t *testing.T) {
	s := newGormStore(t)
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, s.Save(ctx, "old", sampleData(), time.Minute))
	require.NoError(t, s.Save(ctx, "fresh", sampleData(), 2*time.Hour))

	//1時間後
	s.now = func() time.Time { return base.Add(time.Hour) }

	_, err := s.Load(ctx, "old")
	assert.ErrorIs(t, err, repo.ErrNotFound)

	n, err := s.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := s.Load(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", got.CouponCode)
}
