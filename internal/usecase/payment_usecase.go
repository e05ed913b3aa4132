package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/cart"
	"storefront/internal/domain/model"
	"storefront/internal/domain/money"
	repo "storefront/internal/repository"
	"storefront/internal/session"

	"go.uber.org/zap"
)

// Webhookなどユーザー操作でない変更のactor
const systemActorID int64 = 0

type PaymentUsecase struct {
	cfg     config.Config
	orders  repo.OrderRepository
	tx      repo.TransactionManager
	gateway repo.PaymentGateway
	log     *zap.Logger
}

func NewPaymentUsecase(
	cfg config.Config,
	orders repo.OrderRepository,
	tx repo.TransactionManager,
	gateway repo.PaymentGateway,
	log *zap.Logger,
) *PaymentUsecase {
	return &PaymentUsecase{
		cfg:     cfg,
		orders:  orders,
		tx:      tx,
		gateway: gateway,
		log:     log,
	}
}

type PaymentIntentOutput struct {
	OrderID      int64  `json:"order_id"`
	ClientSecret string `json:"client_secret"`
	PublicKey    string `json:"public_key"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

type CheckoutOutput struct {
	OrderID   int64  `json:"order_id"`
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// 本人の未払い注文だけ決済できる
func (u *PaymentUsecase) payableOrder(ctx context.Context, userID, orderID int64) (model.Order, error) {
	if userID <= 0 {
		return model.Order{}, errUnauthorized
	}
	if orderID <= 0 {
		return model.Order{}, badRequest("invalid order_id")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, notFound("Order not found")
	}
	if err != nil {
		return model.Order{}, errDB
	}
	if o.UserID != userID {
		return model.Order{}, notFound("Order not found")
	}
	if o.Paid {
		return model.Order{}, badRequest("Order already paid")
	}
	return o, nil
}

func (u *PaymentUsecase) currency() string {
	return strings.ToLower(u.cfg.Currency)
}

func (u *PaymentUsecase) CreateIntent(ctx context.Context, userID, orderID int64) (PaymentIntentOutput, error) {
	o, err := u.payableOrder(ctx, userID, orderID)
	if err != nil {
		return PaymentIntentOutput{}, err
	}

	amount := money.ToMinorUnits(o.TotalCost())
	if amount <= 0 {
		return PaymentIntentOutput{}, badRequest("Order total must be positive")
	}

	pi, err := u.gateway.CreatePaymentIntent(ctx, repo.PaymentIntentInput{
		OrderID:     o.ID,
		AmountMinor: amount,
		Currency:    u.currency(),
	})
	if err != nil {
		u.log.Error("create payment intent failed", zap.Int64("order_id", o.ID), zap.Error(err))
		return PaymentIntentOutput{}, NewHTTPError(http.StatusBadGateway, "payment provider error")
	}

	return PaymentIntentOutput{
		OrderID:      o.ID,
		ClientSecret: pi.ClientSecret,
		PublicKey:    u.gateway.PublicKey(),
		Amount:       amount,
		Currency:     u.currency(),
	}, nil
}

// CreateCheckout はホスト型の決済ページを作る。
// 割引がある注文は明細ごとの金額と合わないので、合計1行で渡す。
func (u *PaymentUsecase) CreateCheckout(ctx context.Context, userID, orderID int64) (CheckoutOutput, error) {
	o, err := u.payableOrder(ctx, userID, orderID)
	if err != nil {
		return CheckoutOutput{}, err
	}
	if len(o.Items) == 0 {
		return CheckoutOutput{}, badRequest("Order has no items")
	}

	var lines []repo.CheckoutLine
	if o.Discount.IsPositive() {
		total := money.ToMinorUnits(o.TotalCost())
		if total <= 0 {
			return CheckoutOutput{}, badRequest("Order total must be positive")
		}
		lines = []repo.CheckoutLine{{
			Name:            fmt.Sprintf("Order %s", o.TrackingNumber),
			UnitAmountMinor: total,
			Quantity:        1,
		}}
	} else {
		lines = make([]repo.CheckoutLine, 0, len(o.Items))
		for _, it := range o.Items {
			lines = append(lines, repo.CheckoutLine{
				Name:            it.ProductName,
				UnitAmountMinor: money.ToMinorUnits(it.Price),
				Quantity:        it.Quantity,
			})
		}
	}

	base := strings.TrimRight(u.cfg.PublicBaseURL, "/")
	cs, err := u.gateway.CreateCheckoutSession(ctx, repo.CheckoutSessionInput{
		OrderID:    o.ID,
		Currency:   u.currency(),
		Lines:      lines,
		SuccessURL: fmt.Sprintf("%s/payment/success?order_id=%d", base, o.ID),
		CancelURL:  base + "/payment/cancel",
	})
	if err != nil {
		u.log.Error("create checkout session failed", zap.Int64("order_id", o.ID), zap.Error(err))
		return CheckoutOutput{}, NewHTTPError(http.StatusBadGateway, "payment provider error")
	}

	return CheckoutOutput{OrderID: o.ID, SessionID: cs.ID, URL: cs.URL}, nil
}

// ConfirmSuccess は決済後の戻り先。注文を支払い済みにしてカートを空にする。
func (u *PaymentUsecase) ConfirmSuccess(ctx context.Context, userID, orderID int64, sess *session.Session) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, errUnauthorized
	}
	if orderID <= 0 {
		return OrderOutput{}, badRequest("invalid order_id")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && o.UserID != userID) {
		return OrderOutput{}, notFound("Order not found")
	}
	if err != nil {
		return OrderOutput{}, errDB
	}

	if err := u.markPaid(ctx, userID, orderID); err != nil {
		return OrderOutput{}, err
	}
	o.Paid = true

	if sess != nil {
		cart.New(sess, nil).Clear()
	}
	return toOrderOutput(o), nil
}

// HandleWebhook は署名を検証し、支払い完了イベントで注文を支払い済みにする。
// 対象注文が無い場合は200で返す（再送させない）。
func (u *PaymentUsecase) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := u.gateway.ParseWebhook(payload, signature)
	if err != nil {
		u.log.Warn("webhook rejected", zap.Error(err))
		if errors.Is(err, repo.ErrInvalidSignature) {
			return badRequest("invalid signature")
		}
		return badRequest("invalid payload")
	}

	switch ev.Type {
	case repo.EventPaymentSucceeded, repo.EventCheckoutSessionSettled:
	default:
		u.log.Debug("webhook ignored", zap.String("event_id", ev.ID), zap.String("type", ev.Type))
		return nil
	}

	if ev.OrderID <= 0 {
		u.log.Warn("webhook without order_id", zap.String("event_id", ev.ID), zap.String("type", ev.Type))
		return nil
	}

	err = u.markPaid(ctx, systemActorID, ev.OrderID)
	if he, ok := AsHTTPError(err); ok && he.Status == http.StatusNotFound {
		u.log.Warn("webhook for unknown order", zap.String("event_id", ev.ID), zap.Int64("order_id", ev.OrderID))
		return nil
	}
	if err != nil {
		return err
	}

	u.log.Info("order paid", zap.String("event_id", ev.ID), zap.Int64("order_id", ev.OrderID))
	return nil
}

// 支払い済みなら何もしない
func (u *PaymentUsecase) markPaid(ctx context.Context, actor int64, orderID int64) error {
	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return notFound("Order not found")
		}
		if err != nil {
			return errDB
		}
		if o.Paid {
			return nil
		}

		if err := r.Orders().MarkPaid(ctx, orderID); err != nil {
			return errDB
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor,
			Action:       model.AuditActionMarkOrderPaid,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   toJSON(map[string]bool{"paid": false}),
			AfterJSON:    toJSON(map[string]bool{"paid": true}),
			CreatedAt:    time.Now(),
		}); err != nil {
			return errDB
		}
		return nil
	})
}
