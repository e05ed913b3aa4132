package push

import (
	"context"
	"fmt"

	repo "storefront/internal/repository"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// 認証情報が無く送信できない
var ErrDisabled = repo.ErrPushDisabled

// FCMSender は Firebase Cloud Messaging で1端末ずつ送る
type FCMSender struct {
	client *messaging.Client
}

func NewFCMSender(ctx context.Context, credentialsFile string) (*FCMSender, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase messaging: %w", err)
	}
	return &FCMSender{client: client}, nil
}

func (s *FCMSender) Send(ctx context.Context, msg repo.PushMessage) (string, error) {
	return s.client.Send(ctx, &messaging.Message{
		Token: msg.Token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
	})
}

// DisabledSender はFIREBASE_CREDENTIALS_FILE未設定時に使う
type DisabledSender struct{}

func (DisabledSender) Send(ctx context.Context, msg repo.PushMessage) (string, error) {
	return "", ErrDisabled
}
