// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pepemlv/partysavingrental/internal/logger"
	"github.com/pepemlv/partysavingrental/internal/modules/aiusage"
	"github.com/pepemlv/partysavingrental/internal/modules/booking"
	"github.com/pepemlv/partysavingrental/internal/modules/catalog"
	"github.com/pepemlv/partysavingrental/internal/modules/mobilepay"
	"github.com/pepemlv/partysavingrental/internal/modules/order"
	"github.com/pepemlv/partysavingrental/internal/modules/payment"
	"github.com/pepemlv/partysavingrental/internal/modules/pricing"
	"github.com/pepemlv/partysavingrental/internal/security"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// isValidID accepts the id shapes the services generate: hex, uuid and slugs.
func isValidID(v string) bool {
	if v == "" || len(v) > 64 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || c == '_' {
			continue
		}
		return false
	}
	return true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func pathID(c *gin.Context, name string) (string, bool) {
	id := c.Param(name)
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid "+name)
		return "", false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) int {
	if v := c.Query(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// statusFor maps domain errors to HTTP status codes. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, booking.ErrSessionNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, mobilepay.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrSuperseded),
		errors.Is(err, booking.ErrCheckedOut),
		errors.Is(err, booking.ErrCartChanged),
		errors.Is(err, catalog.ErrAlreadyExists),
		errors.Is(err, order.ErrInvalidState),
		errors.Is(err, order.ErrConflict),
		errors.Is(err, payment.ErrOrderNotPayable):
		return http.StatusConflict
	case errors.Is(err, booking.ErrIncomplete),
		booking.IsValidationError(err),
		errors.Is(err, catalog.ErrInvalid),
		errors.Is(err, order.ErrBadRequest),
		errors.Is(err, pricing.ErrInvalidInput),
		errors.Is(err, payment.ErrInvalidAmount),
		errors.Is(err, payment.ErrIntentMismatch),
		errors.Is(err, payment.ErrInvalidSignature),
		errors.Is(err, mobilepay.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, payment.ErrPaymentDeclined):
		return http.StatusPaymentRequired
	case errors.Is(err, security.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, aiusage.ErrInsufficientTokens):
		return http.StatusTooManyRequests
	case errors.Is(err, mobilepay.ErrGateway):
		return http.StatusBadGateway
	case errors.Is(err, payment.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "path", c.FullPath(), "error", err)
		_ = c.Error(err)
		writeError(c, status, "internal error")
		return
	}
	resp := errorResponse{Error: err.Error()}
	var ve *booking.ValidationError
	if errors.As(err, &ve) {
		resp.Fields = ve.Fields
	}
	writeJSON(c, status, resp)
}
