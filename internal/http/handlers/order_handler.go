// README: Order handlers: customer lookups, receipts and the admin status actions.
package handlers

import (
	"context"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pepemlv/partysavingrental/internal/http/middleware"
	"github.com/pepemlv/partysavingrental/internal/modules/order"
)

const defaultQueriesLimit = 100

// OrderService is the order surface the handlers use.
type OrderService interface {
	Get(ctx context.Context, id string) (order.Order, error)
	ListByCustomer(ctx context.Context, email string) ([]order.Order, error)
	Confirm(ctx context.Context, id string) (order.Order, error)
	Cancel(ctx context.Context, cmd order.CancelCommand) (order.Order, error)
	ListClientQueries(ctx context.Context, limit int) ([]order.AdminView, error)
	ListSales(ctx context.Context, f order.SalesFilter) ([]order.Sale, error)
}

type OrderHandler struct {
	order OrderService
}

func NewOrderHandler(svc OrderService) *OrderHandler {
	return &OrderHandler{order: svc}
}

type cancelReq struct {
	Reason string `json:"reason"`
}

func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	o, err := h.order.Get(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, o)
}

// Receipt serves the PDF receipt once the order is paid.
func (h *OrderHandler) Receipt(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	o, err := h.order.Get(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if o.Status != order.StatusPaid && o.Status != order.StatusConfirmed {
		writeError(c, http.StatusConflict, "order is not paid")
		return
	}
	pdf, err := order.RenderReceipt(o)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="receipt-`+o.ID+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (h *OrderHandler) ListByCustomer(c *gin.Context) {
	email := strings.TrimSpace(c.Param("email"))
	if _, err := mail.ParseAddress(email); err != nil {
		writeError(c, http.StatusBadRequest, "invalid email")
		return
	}
	orders, err := h.order.ListByCustomer(c.Request.Context(), email)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, orders)
}

func (h *OrderHandler) Confirm(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	o, err := h.order.Confirm(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, o)
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req cancelReq
	_ = c.ShouldBindJSON(&req)
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "admin_cancel"
	}
	o, err := h.order.Cancel(c.Request.Context(), order.CancelCommand{
		OrderID:   id,
		ActorType: "admin:" + middleware.CallerUID(c),
		Reason:    reason,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, o)
}

func (h *OrderHandler) ListQueries(c *gin.Context) {
	views, err := h.order.ListClientQueries(c.Request.Context(), queryInt(c, "limit", defaultQueriesLimit))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, views)
}

// ListSales accepts start and end as YYYY-MM-DD (end inclusive) or RFC 3339.
func (h *OrderHandler) ListSales(c *gin.Context) {
	var f order.SalesFilter
	var err error
	if f.Start, err = parseDay(c.Query("start"), false); err != nil {
		writeError(c, http.StatusBadRequest, "invalid start")
		return
	}
	if f.End, err = parseDay(c.Query("end"), true); err != nil {
		writeError(c, http.StatusBadRequest, "invalid end")
		return
	}
	f.Limit = queryInt(c, "limit", 0)
	sales, err := h.order.ListSales(c.Request.Context(), f)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, sales)
}

func parseDay(v string, endOfDay bool) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
