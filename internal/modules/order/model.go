// README: Order aggregate, client query records, sales and the status flow.
package order

import (
	"time"

	"github.com/pepemlv/partysavingrental/internal/modules/location"
	"github.com/pepemlv/partysavingrental/internal/modules/pricing"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// AllowedTransitions represents the order state flow as code.
// pending -> paid happens only after the payment provider reports success;
// paid -> confirmed is an admin action.
var AllowedTransitions = map[Status][]Status{
	StatusPending:   {StatusPaid, StatusCancelled},
	StatusPaid:      {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

type Contact struct {
	Name  string `json:"name" firestore:"customerName"`
	Email string `json:"email" firestore:"customerEmail"`
	Phone string `json:"phone" firestore:"customerPhone"`
}

type EventAddress struct {
	Street      string                    `json:"street" firestore:"street"`
	State       string                    `json:"state" firestore:"state"`
	Zipcode     string                    `json:"zipcode" firestore:"zipcode"`
	FullAddress string                    `json:"full_address" firestore:"fullAddress"`
	Validated   *location.GeocodedAddress `json:"validated,omitempty" firestore:"validated"`
}

// Delivery describes how equipment reaches the event. Address is empty for pickup.
type Delivery struct {
	Method        string       `json:"method" firestore:"deliveryMethod"`
	CityID        string       `json:"city_id" firestore:"cityId"`
	CityName      string       `json:"city" firestore:"selectedCity"`
	PickupAddress string       `json:"pickup_address" firestore:"pickupAddress"`
	Address       EventAddress `json:"address" firestore:"address"`
	DistanceMiles float64      `json:"distance_miles" firestore:"distance"`
	EventDate     string       `json:"event_date" firestore:"eventDate"`
	ReturnDate    string       `json:"return_date" firestore:"returnDate"`
	TimeWindow    string       `json:"time_window" firestore:"timeWindow"`
}

type Payment struct {
	Provider    string     `json:"provider,omitempty" firestore:"provider"`
	ProviderRef string     `json:"provider_ref,omitempty" firestore:"providerRef"`
	AmountMinor int64      `json:"amount_minor,omitempty" firestore:"amountMinor"`
	Currency    string     `json:"currency,omitempty" firestore:"currency"`
	PaidAt      *time.Time `json:"paid_at,omitempty" firestore:"paidAt"`
}

// Order is a booking snapshot. Line names and prices are copied at creation and
// never re-read from the catalog.
type Order struct {
	ID            string            `json:"id" firestore:"-"`
	Status        Status            `json:"status" firestore:"status"`
	StatusVersion int               `json:"-" firestore:"statusVersion"`
	Contact       Contact           `json:"contact" firestore:"contact"`
	Delivery      Delivery          `json:"delivery" firestore:"delivery"`
	Pricing       pricing.Breakdown `json:"pricing" firestore:"pricing"`
	Payment       Payment           `json:"payment" firestore:"payment"`
	CancelReason  string            `json:"cancel_reason,omitempty" firestore:"cancelReason"`
	CreatedAt     time.Time         `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time         `json:"updated_at" firestore:"updatedAt"`
}

type Event struct {
	OrderID    string    `firestore:"orderId"`
	FromStatus Status    `firestore:"fromStatus"`
	ToStatus   Status    `firestore:"toStatus"`
	ActorType  string    `firestore:"actorType"`
	Note       string    `firestore:"note"`
	CreatedAt  time.Time `firestore:"createdAt"`
}

// QueryLine is a cart line as recorded on a client query. AddonPrice is the catalog
// addon price even when the addon was not selected.
type QueryLine struct {
	ProductName   string  `json:"product_name" firestore:"productName"`
	Quantity      int     `json:"quantity" firestore:"quantity"`
	BasePrice     float64 `json:"base_price" firestore:"basePrice"`
	AddonSelected bool    `json:"addon_selected" firestore:"addonSelected"`
	AddonName     *string `json:"addon_name" firestore:"addonName"`
	AddonPrice    float64 `json:"addon_price" firestore:"addonPrice"`
}

// ClientQuery is written each time a delivery address validates, before any order exists.
type ClientQuery struct {
	ID             string       `json:"id" firestore:"-"`
	CustomerName   string       `json:"customer_name" firestore:"customerName"`
	CustomerEmail  string       `json:"customer_email" firestore:"customerEmail"`
	CustomerPhone  string       `json:"customer_phone" firestore:"customerPhone"`
	Address        EventAddress `json:"address" firestore:"address"`
	EventDate      string       `json:"event_date" firestore:"eventDate"`
	RentalDays     int          `json:"rental_days" firestore:"rentalDays"`
	DeliveryMethod string       `json:"delivery_method" firestore:"deliveryMethod"`
	SelectedCity   string       `json:"selected_city" firestore:"selectedCity"`
	Distance       float64      `json:"distance" firestore:"distance"`
	DeliveryFee    float64      `json:"delivery_fee" firestore:"deliveryFee"`
	CollectionFee  float64      `json:"collection_fee" firestore:"collectionFee"`
	Cart           []QueryLine  `json:"cart" firestore:"cart"`
	CreatedAt      time.Time    `json:"created_at" firestore:"createdAt"`
}

// AdminView pairs a client query with the totals the admin panel displays.
type AdminView struct {
	ClientQuery
	Admin pricing.AdminTotal `json:"admin"`
}

type Sale struct {
	ID            string    `json:"id" firestore:"-"`
	OrderID       string    `json:"order_id" firestore:"orderId"`
	Amount        float64   `json:"amount" firestore:"amount"`
	Currency      string    `json:"currency" firestore:"currency"`
	Provider      string    `json:"provider" firestore:"provider"`
	ProviderRef   string    `json:"provider_ref" firestore:"providerRef"`
	CustomerEmail string    `json:"customer_email" firestore:"customerEmail"`
	CustomerName  string    `json:"customer_name" firestore:"customerName"`
	CreatedAt     time.Time `json:"created_at" firestore:"createdAt"`
}

// SalesFilter bounds a sales listing. Zero times are open bounds.
type SalesFilter struct {
	Start time.Time
	End   time.Time
	Limit int
}

// Customer is keyed by lower-cased email.
type Customer struct {
	Email       string    `json:"email" firestore:"email"`
	Name        string    `json:"name" firestore:"name"`
	Phone       string    `json:"phone" firestore:"phone"`
	Addresses   []string  `json:"addresses" firestore:"addresses"`
	TotalOrders int       `json:"total_orders" firestore:"totalOrders"`
	LastOrderAt time.Time `json:"last_order_at" firestore:"lastOrderAt"`
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt"`
}
