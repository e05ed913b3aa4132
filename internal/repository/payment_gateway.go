package repository

import (
	"context"
	"errors"
)

// Webhookの署名検証に失敗した
var ErrInvalidSignature = errors.New("invalid webhook signature")

const (
	EventPaymentSucceeded       = "payment_intent.succeeded"
	EventCheckoutSessionSettled = "checkout.session.completed"
)

type PaymentIntentInput struct {
	OrderID     int64
	AmountMinor int64
	Currency    string
}

type PaymentIntent struct {
	ID           string
	ClientSecret string
}

type CheckoutLine struct {
	Name            string
	UnitAmountMinor int64
	Quantity        int64
}

type CheckoutSessionInput struct {
	OrderID    int64
	Currency   string
	Lines      []CheckoutLine
	SuccessURL string
	CancelURL  string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// WebhookEvent は検証済みのイベント。OrderIDはmetadataが無ければ0。
type WebhookEvent struct {
	ID      string
	Type    string
	OrderID int64
}

// 決済代行（Stripe）
type PaymentGateway interface {
	PublicKey() string
	CreatePaymentIntent(ctx context.Context, in PaymentIntentInput) (PaymentIntent, error)
	CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (CheckoutSession, error)
	// 署名が不正ならErrInvalidSignature
	ParseWebhook(payload []byte, signatureHeader string) (WebhookEvent, error)
}
