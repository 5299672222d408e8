package payment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/pepemlv/partysavingrental/internal/modules/order"
)

const whsec = "whsec_test_secret"

type fakeIntents struct {
	created []CreateIntentParams
	intents map[string]*Intent
	err     error
}

func (f *fakeIntents) Create(_ context.Context, p CreateIntentParams) (*Intent, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, p)
	return &Intent{ID: "pi_1", ClientSecret: "pi_1_secret", Status: "requires_payment_method", AmountMinor: p.AmountMinor, Currency: p.Currency,
		Metadata: map[string]string{"orderId": p.OrderID}}, nil
}

func (f *fakeIntents) Get(_ context.Context, id string) (*Intent, error) {
	pi, ok := f.intents[id]
	if !ok {
		return nil, errors.New("no such payment_intent")
	}
	return pi, nil
}

func TestCreateIntent(t *testing.T) {
	intents := &fakeIntents{}
	svc := NewCardService(intents, newFakeLedger(pendingOrder("o1", 60.3603)), "usd", whsec)

	res, err := svc.CreateIntent(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, "pi_1_secret", res.ClientSecret)
	assert.Equal(t, int64(6036), res.AmountMinor)

	require.Len(t, intents.created, 1)
	assert.Equal(t, "Party Rental Order #o1", intents.created[0].Description)
	assert.Equal(t, "ada@example.com", intents.created[0].ReceiptEmail)
	assert.Equal(t, "o1", intents.created[0].OrderID)
}

func TestCreateIntent_Rejects(t *testing.T) {
	paid := pendingOrder("paid", 10)
	paid.Status = order.StatusPaid
	svc := NewCardService(&fakeIntents{}, newFakeLedger(pendingOrder("zero", 0.004), paid), "usd", whsec)
	ctx := context.Background()

	_, err := svc.CreateIntent(ctx, "zero")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = svc.CreateIntent(ctx, "paid")
	assert.ErrorIs(t, err, ErrOrderNotPayable)
	_, err = svc.CreateIntent(ctx, "missing")
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestConfirm(t *testing.T) {
	intents := &fakeIntents{intents: map[string]*Intent{
		"pi_ok":    {ID: "pi_ok", Status: "succeeded", AmountMinor: 6036, Currency: "usd", Metadata: map[string]string{"orderId": "o1"}},
		"pi_wait":  {ID: "pi_wait", Status: "requires_action", Metadata: map[string]string{"orderId": "o2"}},
		"pi_other": {ID: "pi_other", Status: "succeeded", Metadata: map[string]string{"orderId": "someone-else"}},
	}}
	ledger := newFakeLedger(pendingOrder("o1", 60.36), pendingOrder("o2", 20))
	svc := NewCardService(intents, ledger, "usd", whsec)
	ctx := context.Background()

	o, err := svc.Confirm(ctx, "o1", "pi_ok")
	require.NoError(t, err)
	assert.Equal(t, order.StatusPaid, o.Status)
	assert.Equal(t, "pi_ok", o.Payment.ProviderRef)

	_, err = svc.Confirm(ctx, "o2", "pi_wait")
	assert.ErrorIs(t, err, ErrPaymentDeclined)
	still, _ := ledger.Get(ctx, "o2")
	assert.Equal(t, order.StatusPending, still.Status)
	assert.Equal(t, 20.0, still.Pricing.Total)

	_, err = svc.Confirm(ctx, "o2", "pi_other")
	assert.ErrorIs(t, err, ErrIntentMismatch)
}

func signedEvent(t *testing.T, eventType string, intent map[string]any) ([]byte, string) {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"id":          "evt_1",
		"object":      "event",
		"type":        eventType,
		"api_version": "2020-08-27",
		"data":        map[string]any{"object": intent},
	})
	require.NoError(t, err)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    whsec,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

func TestHandleWebhook_SucceededIsIdempotent(t *testing.T) {
	ledger := newFakeLedger(pendingOrder("o1", 60.36))
	svc := NewCardService(&fakeIntents{}, ledger, "usd", whsec)
	payload, sig := signedEvent(t, "payment_intent.succeeded", map[string]any{
		"id": "pi_9", "object": "payment_intent", "status": "succeeded", "amount": 6036, "currency": "usd",
		"metadata": map[string]string{"orderId": "o1"},
	})

	require.NoError(t, svc.HandleWebhook(context.Background(), payload, sig))
	require.NoError(t, svc.HandleWebhook(context.Background(), payload, sig))
	assert.Len(t, ledger.paid, 1)
	assert.Equal(t, int64(6036), ledger.paid[0].AmountMinor)
}

func TestHandleWebhook_FailedOnlyLogs(t *testing.T) {
	ledger := newFakeLedger(pendingOrder("o1", 60.36))
	svc := NewCardService(&fakeIntents{}, ledger, "usd", whsec)
	payload, sig := signedEvent(t, "payment_intent.payment_failed", map[string]any{
		"id": "pi_9", "object": "payment_intent", "status": "requires_payment_method",
		"metadata": map[string]string{"orderId": "o1"},
	})

	require.NoError(t, svc.HandleWebhook(context.Background(), payload, sig))
	assert.Empty(t, ledger.paid)
}

func TestHandleWebhook_BadSignature(t *testing.T) {
	svc := NewCardService(&fakeIntents{}, newFakeLedger(), "usd", whsec)
	payload, _ := signedEvent(t, "payment_intent.succeeded", map[string]any{"id": "pi_1"})

	err := svc.HandleWebhook(context.Background(), payload, "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	unconfigured := NewCardService(&fakeIntents{}, newFakeLedger(), "usd", "")
	assert.ErrorIs(t, unconfigured.HandleWebhook(context.Background(), payload, "x"), ErrNotConfigured)
}
