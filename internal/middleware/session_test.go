package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/cart"
	repo "storefront/internal/repository"
	"storefront/internal/session"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memStore struct {
	mu    sync.Mutex
	data  map[string]session.Data
	saves int
	err   error
}

func newMemStore() *memStore {
	return &memStore{data: map[string]session.Data{}}
}

func (s *memStore) Load(ctx context.Context, key string) (session.Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return session.Data{}, s.err
	}
	d, ok := s.data[key]
	if !ok {
		return session.Data{}, repo.ErrNotFound
	}
	return d, nil
}

func (s *memStore) Save(ctx context.Context, key string, data session.Data, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.data[key] = data
	return nil
}

func (s *memStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

var _ repo.SessionStore = (*memStore)(nil)

func sessionCfg() config.Config {
	return config.Config{SessionCookieName: "sessionid", SessionTTL: time.Hour, GoEnv: "dev"}
}

func newSessionEcho(store *memStore) *echo.Echo {
	e := echo.New()
	e.Use(Session(store, sessionCfg(), zap.NewNop()))

	e.GET("/read", func(c echo.Context) error {
		s := GetSession(c)
		return c.JSON(http.StatusOK, map[string]int{"lines": len(s.CartLines())})
	})
	e.POST("/write", func(c echo.Context) error {
		s := GetSession(c)
		s.SetCartLines(append(s.CartLines(), cart.Entry{ProductID: 1, Quantity: 1}))
		return c.JSON(http.StatusOK, map[string]int{"lines": len(s.CartLines())})
	})
	e.POST("/write-nocontent", func(c echo.Context) error {
		GetSession(c).SetCouponCode("SAVE10")
		return nil
	})
	return e
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "sessionid" {
			return ck
		}
	}
	return nil
}

func TestSession_ReadOnlyRequestDoesNotSave(t *testing.T) {
	store := newMemStore()
	e := newSessionEcho(store)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/read", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, store.saves)
	assert.Nil(t, sessionCookie(rec))
}

func TestSession_WriteSavesAndSetsCookie(t *testing.T) {
	store := newMemStore()
	e := newSessionEcho(store)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/write", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	ck := sessionCookie(rec)
	require.NotNil(t, ck)
	assert.True(t, ck.HttpOnly)
	assert.Equal(t, 3600, ck.MaxAge)
	assert.Equal(t, 1, store.saves)

	//同じCookieで続けて読む
	req := httptest.NewRequest(http.MethodPost, "/write", nil)
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: ck.Value})
	rec2 := httptest.NewRecorder()
	e.ServeHTTP(rec2, req)

	assert.JSONEq(t, `{"lines":2}`, rec2.Body.String())
	assert.Len(t, store.data[ck.Value].Cart, 2)
}

func TestSession_SavedWhenHandlerWritesNothing(t *testing.T) {
	store := newMemStore()
	e := newSessionEcho(store)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/write-nocontent", nil))

	assert.Equal(t, 1, store.saves)
	for _, d := range store.data {
		assert.Equal(t, "SAVE10", d.CouponCode)
	}
}

func TestSession_UnknownCookieGetsNewKey(t *testing.T) {
	store := newMemStore()
	e := newSessionEcho(store)

	req := httptest.NewRequest(http.MethodPost, "/write", nil)
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: "forged-key"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	ck := sessionCookie(rec)
	require.NotNil(t, ck)
	assert.NotEqual(t, "forged-key", ck.Value)
	_, exists := store.data["forged-key"]
	assert.False(t, exists)
}

func TestSession_StoreErrorStartsFreshSession(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("redis down")
	e := newSessionEcho(store)

	req := httptest.NewRequest(http.MethodGet, "/read", nil)
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: "k"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"lines":0}`, rec.Body.String())
}
