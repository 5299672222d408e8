// README: Mobile-money handlers (pay, gateway callback, status lookup).
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pepemlv/partysavingrental/internal/logger"
	"github.com/pepemlv/partysavingrental/internal/modules/mobilepay"
)

type MobilePayments interface {
	Pay(ctx context.Context, req mobilepay.PayRequest) (mobilepay.PayResult, error)
	HandleCallback(ctx context.Context, cb mobilepay.Callback) error
	Status(ctx context.Context, transactionID string) (mobilepay.StatusView, error)
}

type MobileHandler struct {
	mobile MobilePayments
}

func NewMobileHandler(svc MobilePayments) *MobileHandler {
	return &MobileHandler{mobile: svc}
}

func (h *MobileHandler) Pay(c *gin.Context) {
	var req mobilepay.PayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSON(c, http.StatusBadRequest, gin.H{"success": false, "error": "invalid json"})
		return
	}
	res, err := h.mobile.Pay(c.Request.Context(), req)
	if err != nil {
		status, msg := statusFor(err), err.Error()
		if status == http.StatusInternalServerError {
			logger.Error("mobile payment failed", "error", err)
			msg = "internal error"
		}
		writeJSON(c, status, gin.H{"success": false, "error": msg})
		return
	}
	writeJSON(c, http.StatusOK, res)
}

// Callback always answers 200 so the gateway does not retry; the body is "ERROR"
// only when the status could not be recorded.
func (h *MobileHandler) Callback(c *gin.Context) {
	var cb mobilepay.Callback
	if err := c.ShouldBindJSON(&cb); err != nil {
		logger.Warn("unreadable mobile money callback", "error", err)
		c.String(http.StatusOK, "ERROR")
		return
	}
	if err := h.mobile.HandleCallback(c.Request.Context(), cb); err != nil {
		logger.Error("mobile money callback failed", "transaction_id", cb.TransactionID, "error", err)
		c.String(http.StatusOK, "ERROR")
		return
	}
	c.String(http.StatusOK, "OK")
}

func (h *MobileHandler) Status(c *gin.Context) {
	id, ok := pathID(c, "transactionId")
	if !ok {
		return
	}
	v, err := h.mobile.Status(c.Request.Context(), id)
	if err != nil {
		status, msg := statusFor(err), err.Error()
		if status == http.StatusInternalServerError {
			logger.Error("mobile payment lookup failed", "transaction_id", id, "error", err)
			msg = "internal error"
		}
		writeJSON(c, status, gin.H{"success": false, "error": msg})
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"success": true, "payment": v})
}
