// README: A single customer's booking session. All mutation happens under the session lock.
package booking

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/pepemlv/partysavingrental/internal/modules/catalog"
	"github.com/pepemlv/partysavingrental/internal/modules/location"
	"github.com/pepemlv/partysavingrental/internal/modules/pricing"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type Session struct {
	mu sync.Mutex

	id         string
	items      []CartItem
	rentalDays int
	city       catalog.City
	method     Method
	eventDate  string
	customer   Customer
	address    Address

	state       AddressState
	generation  uint64
	geocoded    *location.GeocodedAddress
	distance    float64
	fieldErrors map[string]string
	message     string
	suggestion  *Suggestion

	orderID     string
	checkingOut bool
	edits       uint64
	updatedAt   time.Time
}

func newSession(id string, products []catalog.Product, city catalog.City, today time.Time) *Session {
	items := make([]CartItem, len(products))
	for i, p := range products {
		items[i] = CartItem{ProductID: p.ID, Name: p.Name, BasePrice: p.BasePrice, Addon: p.Addon, Quantity: 1}
	}
	return &Session{
		id:         id,
		items:      items,
		rentalDays: 1,
		city:       city,
		method:     MethodPickup,
		eventDate:  today.Format(dateLayout),
		state:      StateEmpty,
		updatedAt:  today,
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) touch(now time.Time) {
	s.updatedAt = now
	s.edits++
	s.orderID = ""
}

// resetValidation discards any geocode result and invalidates in-flight validations.
func (s *Session) resetValidation() {
	s.generation++
	s.geocoded = nil
	s.distance = 0
	s.suggestion = nil
	s.fieldErrors = nil
	s.message = ""
	if s.address.empty() {
		s.state = StateEmpty
	} else {
		s.state = StateEditing
	}
}

func (s *Session) setItem(productID string, quantity int, addonSelected bool, now time.Time) error {
	if quantity < 0 {
		return newValidationError(map[string]string{"quantity": "must not be negative"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ProductID != productID {
			continue
		}
		if addonSelected && s.items[i].Addon == nil {
			return newValidationError(map[string]string{"addon_selected": "product has no addon"})
		}
		s.items[i].Quantity = quantity
		s.items[i].AddonSelected = addonSelected
		s.touch(now)
		return nil
	}
	return fmt.Errorf("%w: product %s", catalog.ErrNotFound, productID)
}

func (s *Session) setRentalDays(days int, now time.Time) error {
	if days < 1 {
		return newValidationError(map[string]string{"rental_days": "must be at least 1"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rentalDays = days
	s.touch(now)
	return nil
}

// setCity changes the pickup city. Distance is measured from the city, so a prior
// validation no longer holds.
func (s *Session) setCity(c catalog.City, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.city.ID == c.ID {
		return
	}
	s.city = c
	s.resetValidation()
	s.touch(now)
}

func (s *Session) setMethod(m Method, now time.Time) error {
	if !m.Valid() {
		return newValidationError(map[string]string{"delivery_method": "must be pickup or delivery"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.method = m
	s.touch(now)
	return nil
}

func (s *Session) setCustomer(c Customer, eventDate string, now time.Time) error {
	if eventDate != "" {
		if _, err := time.Parse(dateLayout, eventDate); err != nil {
			return newValidationError(map[string]string{"event_date": "must be YYYY-MM-DD"})
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customer = Customer{
		Name:  strings.TrimSpace(c.Name),
		Email: strings.TrimSpace(c.Email),
		Phone: strings.TrimSpace(c.Phone),
	}
	if eventDate != "" {
		s.eventDate = eventDate
	}
	s.touch(now)
	return nil
}

// setAddress is the Editing transition: from any state an edit clears the geocode,
// distance and fees.
func (s *Session) setAddress(a Address, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.address = a
	s.resetValidation()
	s.touch(now)
}

// preconditions lists the field errors that keep the session in Editing.
func (s *Session) preconditions() map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(s.address.Street) == "" {
		errs["street"] = "street is required"
	}
	if strings.TrimSpace(s.address.State) == "" {
		errs["state"] = "state is required"
	}
	if strings.TrimSpace(s.address.Zipcode) == "" {
		errs["zipcode"] = "zip code is required"
	}
	if len(digitsOnly(s.customer.Phone)) != 10 {
		errs["phone"] = "phone must have 10 digits"
	}
	if !emailPattern.MatchString(s.customer.Email) {
		errs["email"] = "email is not valid"
	}
	return errs
}

// fees applies only to delivery orders with a validated address.
func (s *Session) fees() (delivery, collection float64) {
	if s.method != MethodDelivery || s.state != StateValid {
		return 0, 0
	}
	return pricing.Fees(true, s.distance)
}

func (s *Session) pricingRequest(taxRate float64) pricing.Request {
	items := make([]pricing.Item, len(s.items))
	for i, it := range s.items {
		items[i] = it.pricingItem()
	}
	d, c := s.fees()
	return pricing.Request{Items: items, RentalDays: s.rentalDays, DeliveryFee: d, CollectionFee: c, TaxRate: taxRate}
}

func (s *Session) formComplete() bool {
	if s.customer.Name == "" || len(digitsOnly(s.customer.Phone)) != 10 ||
		!emailPattern.MatchString(s.customer.Email) || s.eventDate == "" {
		return false
	}
	switch s.method {
	case MethodPickup:
		return true
	case MethodDelivery:
		return s.state == StateValid
	}
	return false
}

func (s *Session) schedule() *Schedule {
	if s.method != MethodDelivery {
		return nil
	}
	event, err := time.Parse(dateLayout, s.eventDate)
	if err != nil {
		return nil
	}
	return &Schedule{
		DeliveryDate: s.eventDate,
		ReturnDate:   event.AddDate(0, 0, s.rentalDays).Format(dateLayout),
		Window:       scheduleWindow,
	}
}

// view must be called with the lock held.
func (s *Session) view(taxRate, feeWarningThreshold float64) View {
	quote, err := pricing.Compute(s.pricingRequest(taxRate))
	if err != nil {
		quote = pricing.Breakdown{RentalDays: s.rentalDays, TaxRate: taxRate}
	}
	v := View{
		ID:            s.id,
		Items:         append([]CartItem(nil), s.items...),
		RentalDays:    s.rentalDays,
		City:          cityRef(s.city),
		Method:        s.method,
		EventDate:     s.eventDate,
		Customer:      s.customer,
		Address:       s.address,
		AddressState:  s.state,
		Message:       s.message,
		Geocoded:      s.geocoded,
		DistanceMiles: s.distance,
		Quote:         quote,
		Schedule:      s.schedule(),
		FormComplete:  s.formComplete(),
		OrderID:       s.orderID,
	}
	if len(s.fieldErrors) > 0 {
		v.FieldErrors = make(map[string]string, len(s.fieldErrors))
		for k, msg := range s.fieldErrors {
			v.FieldErrors[k] = msg
		}
	}
	if s.method == MethodDelivery && quote.DeliveryFee > feeWarningThreshold {
		v.FeeWarning = true
		v.Suggestion = s.suggestion
	}
	return v
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
