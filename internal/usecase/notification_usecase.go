package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

const defaultDeliveryLogLimit = 50

type NotificationUsecase struct {
	tokens repo.DeviceTokenRepository
	sender repo.PushSender
	logs   repo.DeliveryLogRepository
	log    *zap.Logger
}

func NewNotificationUsecase(
	tokens repo.DeviceTokenRepository,
	sender repo.PushSender,
	logs repo.DeliveryLogRepository,
	log *zap.Logger,
) *NotificationUsecase {
	return &NotificationUsecase{tokens: tokens, sender: sender, logs: logs, log: log}
}

type SendResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// RegisterToken は端末トークンを登録（同じトークンなら上書き）
func (u *NotificationUsecase) RegisterToken(ctx context.Context, userID int64, token string, deviceType string) (model.DeviceToken, error) {
	if userID <= 0 {
		return model.DeviceToken{}, errUnauthorized
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return model.DeviceToken{}, badRequest("Token required")
	}
	if len(token) > 512 {
		return model.DeviceToken{}, badRequest("Token too long")
	}

	dt := model.DeviceType(strings.ToLower(strings.TrimSpace(deviceType)))
	switch dt {
	case "":
		dt = model.DeviceAndroid
	case model.DeviceAndroid, model.DeviceIOS:
	default:
		return model.DeviceToken{}, badRequest("invalid device_type")
	}

	saved, err := u.tokens.Upsert(ctx, model.DeviceToken{UserID: userID, Token: token, DeviceType: dt})
	if err != nil {
		return model.DeviceToken{}, errDB
	}
	return saved, nil
}

func validateMessage(title, body string) error {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(body) == "" {
		return badRequest("title and body required")
	}
	return nil
}

func (u *NotificationUsecase) SendToUser(ctx context.Context, userID int64, title, body string) (SendResult, error) {
	if userID <= 0 {
		return SendResult{}, badRequest("user_id required")
	}
	if err := validateMessage(title, body); err != nil {
		return SendResult{}, err
	}

	tokens, err := u.tokens.ListByUser(ctx, userID)
	if err != nil {
		return SendResult{}, errDB
	}
	if len(tokens) == 0 {
		return SendResult{}, notFound("User has no device tokens")
	}
	return u.fanOut(ctx, tokens, title, body, false)
}

func (u *NotificationUsecase) Broadcast(ctx context.Context, title, body string) (SendResult, error) {
	if err := validateMessage(title, body); err != nil {
		return SendResult{}, err
	}

	tokens, err := u.tokens.ListAll(ctx)
	if err != nil {
		return SendResult{}, errDB
	}
	if len(tokens) == 0 {
		return SendResult{}, notFound("No device tokens found")
	}
	return u.fanOut(ctx, tokens, title, body, true)
}

// 1端末の失敗で止めない。結果はすべて記録する。
func (u *NotificationUsecase) fanOut(ctx context.Context, tokens []model.DeviceToken, title, body string, broadcast bool) (SendResult, error) {
	var res SendResult
	for _, t := range tokens {
		msgID, err := u.sender.Send(ctx, repo.PushMessage{Token: t.Token, Title: title, Body: body})
		if errors.Is(err, repo.ErrPushDisabled) {
			return SendResult{}, NewHTTPError(http.StatusServiceUnavailable, "push notifications are not configured")
		}

		entry := repo.DeliveryLog{
			UserID:    t.UserID,
			Token:     t.Token,
			Title:     title,
			Body:      body,
			MessageID: msgID,
			Broadcast: broadcast,
			CreatedAt: time.Now(),
		}
		if err != nil {
			res.Failed++
			entry.Error = err.Error()
			u.log.Warn("push send failed", zap.Int64("user_id", t.UserID), zap.Int64("token_id", t.ID), zap.Error(err))
		} else {
			res.Sent++
		}

		if err := u.logs.Insert(ctx, entry); err != nil {
			u.log.Error("delivery log insert failed", zap.Error(err))
		}
	}
	return res, nil
}

func (u *NotificationUsecase) DeliveryLogs(ctx context.Context, userID int64, limit int64) ([]repo.DeliveryLog, error) {
	if userID <= 0 {
		return nil, badRequest("invalid user_id")
	}
	if limit <= 0 || limit > 500 {
		limit = defaultDeliveryLogLimit
	}
	logs, err := u.logs.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "log store error")
	}
	return logs, nil
}
