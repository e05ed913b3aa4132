package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	repo "storefront/internal/repository"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

const metadataOrderID = "order_id"

type StripeConfig struct {
	SecretKey     string
	PublicKey     string
	WebhookSecret string
}

// StripeGateway は repository.PaymentGateway のStripe実装
type StripeGateway struct {
	api           *client.API
	publicKey     string
	webhookSecret string
}

func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)
	return &StripeGateway{
		api:           api,
		publicKey:     cfg.PublicKey,
		webhookSecret: cfg.WebhookSecret,
	}
}

func (g *StripeGateway) PublicKey() string {
	return g.publicKey
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, in repo.PaymentIntentInput) (repo.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(in.AmountMinor),
		Currency: stripe.String(in.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata(metadataOrderID, strconv.FormatInt(in.OrderID, 10))

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return repo.PaymentIntent{}, fmt.Errorf("stripe payment intent: %w", err)
	}
	return repo.PaymentIntent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, in repo.CheckoutSessionInput) (repo.CheckoutSession, error) {
	lines := make([]*stripe.CheckoutSessionLineItemParams, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(in.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(l.Name),
				},
				UnitAmount: stripe.Int64(l.UnitAmountMinor),
			},
			Quantity: stripe.Int64(l.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lines,
		SuccessURL: stripe.String(in.SuccessURL),
		CancelURL:  stripe.String(in.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata(metadataOrderID, strconv.FormatInt(in.OrderID, 10))

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return repo.CheckoutSession{}, fmt.Errorf("stripe checkout session: %w", err)
	}
	return repo.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// ParseWebhook は署名を検証してorder_idを取り出す
func (g *StripeGateway) ParseWebhook(payload []byte, signatureHeader string) (repo.WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return repo.WebhookEvent{}, fmt.Errorf("%w: %v", repo.ErrInvalidSignature, err)
	}

	out := repo.WebhookEvent{ID: event.ID, Type: string(event.Type)}

	var metadata map[string]string
	switch out.Type {
	case repo.EventPaymentSucceeded:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err == nil {
			metadata = pi.Metadata
		}
	case repo.EventCheckoutSessionSettled:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err == nil {
			metadata = s.Metadata
		}
	}

	// metadataが壊れていても0のまま返す
	if v, ok := metadata[metadataOrderID]; ok {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			out.OrderID = id
		}
	}
	return out, nil
}
