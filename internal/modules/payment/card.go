package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/pepemlv/partysavingrental/internal/logger"
	"github.com/pepemlv/partysavingrental/internal/modules/order"
	"github.com/pepemlv/partysavingrental/internal/types"
)

const (
	intentStatusSucceeded = "succeeded"
	metadataOrderID       = "orderId"
)

// Intent is the subset of a provider payment intent the flow reads.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	AmountMinor  int64
	Currency     string
	Metadata     map[string]string
}

type CreateIntentParams struct {
	AmountMinor  int64
	Currency     string
	Description  string
	ReceiptEmail string
	OrderID      string
}

// IntentClient creates and reads payment intents.
type IntentClient interface {
	Create(ctx context.Context, p CreateIntentParams) (*Intent, error)
	Get(ctx context.Context, id string) (*Intent, error)
}

// StripeIntents is the Stripe-backed IntentClient.
type StripeIntents struct {
	api *client.API
}

// NewStripeIntents builds a Stripe client whose API calls go through httpClient.
func NewStripeIntents(secretKey string, httpClient *http.Client) *StripeIntents {
	cfg := &stripe.BackendConfig{HTTPClient: httpClient}
	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, cfg),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, cfg),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, cfg),
	}
	return &StripeIntents{api: client.New(secretKey, backends)}
}

func (s *StripeIntents) Create(ctx context.Context, p CreateIntentParams) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(p.AmountMinor),
		Currency:    stripe.String(p.Currency),
		Description: stripe.String(p.Description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if p.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(p.ReceiptEmail)
	}
	params.AddMetadata(metadataOrderID, p.OrderID)
	params.Context = ctx

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return nil, err
	}
	return intentFromStripe(pi), nil
}

func (s *StripeIntents) Get(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := s.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, err
	}
	return intentFromStripe(pi), nil
}

func intentFromStripe(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		AmountMinor:  pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
}

// CardService runs card payments: intent creation, client confirmation and webhooks.
type CardService struct {
	intents       IntentClient
	orders        OrderLedger
	currency      string
	webhookSecret string
}

func NewCardService(intents IntentClient, orders OrderLedger, currency, webhookSecret string) *CardService {
	return &CardService{intents: intents, orders: orders, currency: currency, webhookSecret: webhookSecret}
}

// CreateIntent prices the intent from the stored order total, never from client input.
func (s *CardService) CreateIntent(ctx context.Context, orderID string) (IntentResult, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return IntentResult{}, err
	}
	if err := payable(o); err != nil {
		return IntentResult{}, err
	}
	amount := types.MinorUnits(o.Pricing.Total)
	if amount <= 0 {
		return IntentResult{}, ErrInvalidAmount
	}

	logger.ExternalServiceCall("stripe", "payment_intents.create", "order_id", o.ID, "amount", amount)
	pi, err := s.intents.Create(ctx, CreateIntentParams{
		AmountMinor:  amount,
		Currency:     s.currency,
		Description:  "Party Rental Order #" + o.ID,
		ReceiptEmail: o.Contact.Email,
		OrderID:      o.ID,
	})
	logger.ExternalServiceResult("stripe", "payment_intents.create", err, "order_id", o.ID)
	if err != nil {
		return IntentResult{}, fmt.Errorf("create payment intent: %w", err)
	}
	return IntentResult{
		OrderID:      o.ID,
		IntentID:     pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountMinor:  pi.AmountMinor,
		Currency:     pi.Currency,
	}, nil
}

// Confirm is called after the client-side confirmation. Only a succeeded intent marks
// the order paid; any other status is a decline.
func (s *CardService) Confirm(ctx context.Context, orderID, intentID string) (order.Order, error) {
	pi, err := s.intents.Get(ctx, intentID)
	if err != nil {
		return order.Order{}, fmt.Errorf("retrieve payment intent: %w", err)
	}
	if pi.Metadata[metadataOrderID] != orderID {
		return order.Order{}, ErrIntentMismatch
	}
	if pi.Status != intentStatusSucceeded {
		logger.Warn("card payment not successful", "order_id", orderID, "intent_id", pi.ID, "status", pi.Status)
		return order.Order{}, fmt.Errorf("%w: intent status %s", ErrPaymentDeclined, pi.Status)
	}
	return s.markPaid(ctx, pi)
}

func (s *CardService) markPaid(ctx context.Context, pi *Intent) (order.Order, error) {
	return s.orders.MarkPaid(ctx, order.MarkPaidCommand{
		OrderID:     pi.Metadata[metadataOrderID],
		Provider:    ProviderStripe,
		ProviderRef: pi.ID,
		AmountMinor: pi.AmountMinor,
		Currency:    pi.Currency,
	})
}

type webhookIntent struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata"`
}

// HandleWebhook verifies the signature and applies intent events. Replays of a
// succeeded event are no-ops because MarkPaid is idempotent per intent.
func (s *CardService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.webhookSecret == "" {
		return ErrNotConfigured
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	switch string(event.Type) {
	case "payment_intent.succeeded":
		var wi webhookIntent
		if err := json.Unmarshal(event.Data.Raw, &wi); err != nil {
			return fmt.Errorf("decode payment intent: %w", err)
		}
		if wi.Metadata[metadataOrderID] == "" {
			logger.Warn("payment intent without order id", "intent_id", wi.ID)
			return nil
		}
		_, err := s.markPaid(ctx, &Intent{ID: wi.ID, Status: wi.Status, AmountMinor: wi.Amount, Currency: wi.Currency, Metadata: wi.Metadata})
		return err
	case "payment_intent.payment_failed":
		var wi webhookIntent
		if err := json.Unmarshal(event.Data.Raw, &wi); err != nil {
			return fmt.Errorf("decode payment intent: %w", err)
		}
		logger.Warn("card payment failed", "intent_id", wi.ID, "order_id", wi.Metadata[metadataOrderID])
	default:
		logger.Debug("ignoring stripe event", "type", string(event.Type))
	}
	return nil
}
