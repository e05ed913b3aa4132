package repository

import (
	"context"
	"time"

	"storefront/internal/session"
)

// セッションの保存先（redis / db）。存在しないキーはErrNotFound。
type SessionStore interface {
	Load(ctx context.Context, key string) (session.Data, error)
	Save(ctx context.Context, key string, data session.Data, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
