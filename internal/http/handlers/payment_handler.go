// README: Card (Stripe) and PayPal payment handlers.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pepemlv/partysavingrental/internal/logger"
	"github.com/pepemlv/partysavingrental/internal/modules/order"
	"github.com/pepemlv/partysavingrental/internal/modules/payment"
)

const maxWebhookBody = 64 << 10

type CardPayments interface {
	CreateIntent(ctx context.Context, orderID string) (payment.IntentResult, error)
	Confirm(ctx context.Context, orderID, intentID string) (order.Order, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type PayPalPayments interface {
	CreateOrder(ctx context.Context, orderID string) (payment.PayPalOrder, error)
	Capture(ctx context.Context, paypalOrderID string) (order.Order, error)
}

// PaymentHandler serves card and PayPal endpoints. Either provider may be nil when
// it is not configured.
type PaymentHandler struct {
	card   CardPayments
	paypal PayPalPayments
}

func NewPaymentHandler(card CardPayments, paypal PayPalPayments) *PaymentHandler {
	return &PaymentHandler{card: card, paypal: paypal}
}

type intentReq struct {
	OrderID string `json:"order_id"`
}

type confirmReq struct {
	OrderID         string `json:"order_id"`
	PaymentIntentID string `json:"payment_intent_id"`
}

type paypalCreateReq struct {
	OrderID string `json:"order_id"`
}

func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	if h.card == nil {
		writeDomainError(c, payment.ErrNotConfigured)
		return
	}
	var req intentReq
	if err := c.ShouldBindJSON(&req); err != nil || !isValidID(req.OrderID) {
		writeError(c, http.StatusBadRequest, "invalid order_id")
		return
	}
	res, err := h.card.CreateIntent(c.Request.Context(), req.OrderID)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, res)
}

func (h *PaymentHandler) ConfirmCard(c *gin.Context) {
	if h.card == nil {
		writeDomainError(c, payment.ErrNotConfigured)
		return
	}
	var req confirmReq
	if err := c.ShouldBindJSON(&req); err != nil || !isValidID(req.OrderID) || !isValidID(req.PaymentIntentID) {
		writeError(c, http.StatusBadRequest, "order_id and payment_intent_id are required")
		return
	}
	o, err := h.card.Confirm(c.Request.Context(), req.OrderID, req.PaymentIntentID)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, o)
}

// Webhook acknowledges events for orders that can no longer be paid so the provider
// stops retrying them.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	if h.card == nil {
		writeDomainError(c, payment.ErrNotConfigured)
		return
	}
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		writeError(c, http.StatusBadRequest, "unreadable body")
		return
	}
	err = h.card.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	switch {
	case err == nil:
	case errors.Is(err, order.ErrInvalidState), errors.Is(err, order.ErrNotFound):
		logger.Warn("webhook for unpayable order", "error", err)
	default:
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"received": true})
}

func (h *PaymentHandler) CreatePayPalOrder(c *gin.Context) {
	if h.paypal == nil {
		writeDomainError(c, payment.ErrNotConfigured)
		return
	}
	var req paypalCreateReq
	if err := c.ShouldBindJSON(&req); err != nil || !isValidID(req.OrderID) {
		writeError(c, http.StatusBadRequest, "invalid order_id")
		return
	}
	pp, err := h.paypal.CreateOrder(c.Request.Context(), req.OrderID)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, pp)
}

func (h *PaymentHandler) CapturePayPalOrder(c *gin.Context) {
	if h.paypal == nil {
		writeDomainError(c, payment.ErrNotConfigured)
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	o, err := h.paypal.Capture(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, o)
}
