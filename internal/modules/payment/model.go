// README: Card (Stripe) and PayPal payment flows for booking orders.
package payment

import (
	"context"
	"errors"

	"github.com/pepemlv/partysavingrental/internal/modules/order"
)

const (
	ProviderStripe = "stripe"
	ProviderPayPal = "paypal"
)

var (
	// ErrPaymentDeclined leaves the order pending with its pricing untouched.
	ErrPaymentDeclined  = errors.New("payment declined")
	ErrInvalidAmount    = errors.New("payment amount must be positive")
	ErrOrderNotPayable  = errors.New("order is not awaiting payment")
	ErrIntentMismatch   = errors.New("payment does not belong to order")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrNotConfigured    = errors.New("payment provider not configured")
)

// OrderLedger is the part of the order service payments drive.
type OrderLedger interface {
	Get(ctx context.Context, id string) (order.Order, error)
	MarkPaid(ctx context.Context, cmd order.MarkPaidCommand) (order.Order, error)
}

type IntentResult struct {
	OrderID      string `json:"order_id"`
	IntentID     string `json:"payment_intent_id"`
	ClientSecret string `json:"client_secret"`
	AmountMinor  int64  `json:"amount"`
	Currency     string `json:"currency"`
}

type PayPalOrder struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	ApproveURL string `json:"approve_url,omitempty"`
}

func payable(o order.Order) error {
	if o.Status != order.StatusPending {
		return ErrOrderNotPayable
	}
	return nil
}
