// README: Booking session types: cart lines, contact form, event address and the address validation states.
package booking

import (
	"errors"
	"sort"
	"strings"

	"github.com/pepemlv/partysavingrental/internal/modules/catalog"
	"github.com/pepemlv/partysavingrental/internal/modules/location"
	"github.com/pepemlv/partysavingrental/internal/modules/pricing"
)

type AddressState string

const (
	StateEmpty      AddressState = "empty"
	StateEditing    AddressState = "editing"
	StateValidating AddressState = "validating"
	StateValid      AddressState = "valid"
	StateInvalid    AddressState = "invalid"
)

type Method string

const (
	MethodPickup   Method = "pickup"
	MethodDelivery Method = "delivery"
)

func (m Method) Valid() bool {
	return m == MethodPickup || m == MethodDelivery
}

const (
	dateLayout     = "2006-01-02"
	scheduleWindow = "8:00 AM - 10:00 AM"
)

var (
	ErrSessionNotFound = errors.New("booking session not found")
	// ErrSuperseded is returned by a validation whose result arrived after a newer
	// validation or an address edit was issued. Its result is discarded.
	ErrSuperseded = errors.New("address validation superseded")
	ErrIncomplete = errors.New("booking form incomplete")
	ErrCheckedOut = errors.New("booking already checked out")
	// ErrCartChanged is returned by a checkout whose session was edited while the
	// order was being placed; that order is cancelled.
	ErrCartChanged = errors.New("booking changed during checkout")
)

// ValidationError carries per-field messages. It never leaves the process as a
// network call.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func newValidationError(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// CartItem snapshots the product fields pricing needs when the session is created.
type CartItem struct {
	ProductID     string         `json:"product_id"`
	Name          string         `json:"name"`
	BasePrice     float64        `json:"base_price"`
	Addon         *catalog.Addon `json:"addon,omitempty"`
	Quantity      int            `json:"quantity"`
	AddonSelected bool           `json:"addon_selected"`
}

func (c CartItem) pricingItem() pricing.Item {
	it := pricing.Item{
		ProductID:     c.ProductID,
		Name:          c.Name,
		BasePrice:     c.BasePrice,
		AddonSelected: c.AddonSelected && c.Addon != nil,
		Quantity:      c.Quantity,
	}
	if c.Addon != nil {
		it.AddonName = c.Addon.Name
		it.AddonPrice = c.Addon.Price
	}
	return it
}

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Address struct {
	Street  string `json:"street"`
	State   string `json:"state"`
	Zipcode string `json:"zipcode"`
}

func (a Address) empty() bool {
	return strings.TrimSpace(a.Street) == "" && strings.TrimSpace(a.State) == "" && strings.TrimSpace(a.Zipcode) == ""
}

// Full renders the geocoder query form "street, state zip".
func (a Address) Full() string {
	stateZip := strings.TrimSpace(strings.TrimSpace(a.State) + " " + strings.TrimSpace(a.Zipcode))
	return location.FormatQuery(a.Street, stateZip)
}

type CityRef struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	PickupAddress string  `json:"pickup_address"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
}

func cityRef(c catalog.City) CityRef {
	return CityRef{ID: c.ID, Name: c.Name, PickupAddress: c.PickupAddress, Latitude: c.Latitude, Longitude: c.Longitude}
}

// Suggestion points the customer at a closer pickup city when the delivery fee is high.
type Suggestion struct {
	CityID      string  `json:"city_id"`
	CityName    string  `json:"city_name"`
	Miles       float64 `json:"miles"`
	DeliveryFee float64 `json:"delivery_fee"`
}

type Schedule struct {
	DeliveryDate string `json:"delivery_date"`
	ReturnDate   string `json:"return_date"`
	Window       string `json:"window"`
}

// View is a consistent snapshot of a session, including the derived quote.
type View struct {
	ID            string                    `json:"id"`
	Items         []CartItem                `json:"items"`
	RentalDays    int                       `json:"rental_days"`
	City          CityRef                   `json:"city"`
	Method        Method                    `json:"delivery_method"`
	EventDate     string                    `json:"event_date"`
	Customer      Customer                  `json:"customer"`
	Address       Address                   `json:"address"`
	AddressState  AddressState              `json:"address_state"`
	FieldErrors   map[string]string         `json:"field_errors,omitempty"`
	Message       string                    `json:"message,omitempty"`
	Geocoded      *location.GeocodedAddress `json:"geocoded,omitempty"`
	DistanceMiles float64                   `json:"distance_miles"`
	Quote         pricing.Breakdown         `json:"quote"`
	FeeWarning    bool                      `json:"fee_warning"`
	Suggestion    *Suggestion               `json:"suggestion,omitempty"`
	Schedule      *Schedule                 `json:"schedule,omitempty"`
	FormComplete  bool                      `json:"form_complete"`
	OrderID       string                    `json:"order_id,omitempty"`
}
