// README: Booking session handlers: cart, contact form, address validation and checkout.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pepemlv/partysavingrental/internal/modules/booking"
	"github.com/pepemlv/partysavingrental/internal/modules/order"
)

const validateTimeout = 20 * time.Second

// BookingService is the booking surface the handlers use.
type BookingService interface {
	Create(ctx context.Context) (booking.View, error)
	Get(id string) (booking.View, error)
	SetItem(id, productID string, quantity int, addonSelected bool) (booking.View, error)
	SetRentalDays(id string, days int) (booking.View, error)
	SetCity(ctx context.Context, id, cityID string) (booking.View, error)
	SetMethod(id string, m booking.Method) (booking.View, error)
	SetCustomer(id string, c booking.Customer, eventDate string) (booking.View, error)
	SetAddress(id string, a booking.Address) (booking.View, error)
	ValidateAddress(ctx context.Context, id string) (booking.View, error)
	Checkout(ctx context.Context, id string) (order.Order, error)
}

type SessionHandler struct {
	booking BookingService
}

func NewSessionHandler(svc BookingService) *SessionHandler {
	return &SessionHandler{booking: svc}
}

type setItemReq struct {
	Quantity      int  `json:"quantity"`
	AddonSelected bool `json:"addon_selected"`
}

type setRentalDaysReq struct {
	RentalDays int `json:"rental_days"`
}

type setCityReq struct {
	CityID string `json:"city_id"`
}

type setMethodReq struct {
	Method booking.Method `json:"delivery_method"`
}

type setCustomerReq struct {
	booking.Customer
	EventDate string `json:"event_date"`
}

func (h *SessionHandler) Create(c *gin.Context) {
	v, err := h.booking.Create(c.Request.Context())
	h.respond(c, http.StatusCreated, v, err)
}

func (h *SessionHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, err := h.booking.Get(id)
	h.respond(c, http.StatusOK, v, err)
}

func (h *SessionHandler) SetItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}
	var req setItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	v, err := h.booking.SetItem(id, productID, req.Quantity, req.AddonSelected)
	h.respond(c, http.StatusOK, v, err)
}

func (h *SessionHandler) SetRentalDays(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req setRentalDaysReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	v, err := h.booking.SetRentalDays(id, req.RentalDays)
	h.respond(c, http.StatusOK, v, err)
}

func (h *SessionHandler) SetCity(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req setCityReq
	if err := c.ShouldBindJSON(&req); err != nil || !isValidID(req.CityID) {
		writeError(c, http.StatusBadRequest, "invalid city_id")
		return
	}
	v, err := h.booking.SetCity(c.Request.Context(), id, req.CityID)
	h.respond(c, http.StatusOK, v, err)
}

func (h *SessionHandler) SetMethod(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req setMethodReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	v, err := h.booking.SetMethod(id, req.Method)
	h.respond(c, http.StatusOK, v, err)
}

func (h *SessionHandler) SetCustomer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req setCustomerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	v, err := h.booking.SetCustomer(id, req.Customer, req.EventDate)
	h.respond(c, http.StatusOK, v, err)
}

func (h *SessionHandler) SetAddress(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req booking.Address
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	v, err := h.booking.SetAddress(id, req)
	h.respond(c, http.StatusOK, v, err)
}

// ValidateAddress answers 409 when a newer validation or edit overtook this one;
// the client should re-read the session.
func (h *SessionHandler) ValidateAddress(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), validateTimeout)
	defer cancel()
	v, err := h.booking.ValidateAddress(ctx, id)
	h.respond(c, http.StatusOK, v, err)
}

func (h *SessionHandler) Checkout(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	o, err := h.booking.Checkout(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, o)
}

func (h *SessionHandler) respond(c *gin.Context, status int, v booking.View, err error) {
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, status, v)
}
