package repository

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain/model"
)

type DeviceTokenRepository interface {
	// (user, token)で上書き保存
	Upsert(ctx context.Context, t model.DeviceToken) (model.DeviceToken, error)
	ListByUser(ctx context.Context, userID int64) ([]model.DeviceToken, error)
	ListAll(ctx context.Context) ([]model.DeviceToken, error)
}

// PushMessage は端末へ送る通知
type PushMessage struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// 送信の設定が無い
var ErrPushDisabled = errors.New("push notifications are not configured")

// プッシュ通知の送信（FCMなど）
type PushSender interface {
	Send(ctx context.Context, msg PushMessage) (messageID string, err error)
}

// 送信結果の記録
type DeliveryLog struct {
	UserID    int64     `bson:"user_id"`
	Token     string    `bson:"token"`
	Title     string    `bson:"title"`
	Body      string    `bson:"body"`
	MessageID string    `bson:"message_id,omitempty"`
	Error     string    `bson:"error,omitempty"`
	Broadcast bool      `bson:"broadcast"`
	CreatedAt time.Time `bson:"created_at"`
}

type DeliveryLogRepository interface {
	Insert(ctx context.Context, log DeliveryLog) error
	ListByUser(ctx context.Context, userID int64, limit int64) ([]DeliveryLog, error)
}
