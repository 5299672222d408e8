// README: Booking service; drives sessions through editing, address validation and checkout.
package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pepemlv/partysavingrental/internal/logger"
	"github.com/pepemlv/partysavingrental/internal/modules/catalog"
	"github.com/pepemlv/partysavingrental/internal/modules/location"
	"github.com/pepemlv/partysavingrental/internal/modules/order"
	"github.com/pepemlv/partysavingrental/internal/modules/pricing"
	"github.com/pepemlv/partysavingrental/internal/types"
)

const invalidAddressMessage = "We could not find that address. Please check the street, state and zip code."

// Catalog is the read side of the catalog the booking flow needs.
type Catalog interface {
	ListProducts(ctx context.Context) ([]catalog.Product, error)
	ListCities(ctx context.Context) ([]catalog.City, error)
	GetCity(ctx context.Context, id string) (catalog.City, error)
	NearestCity(ctx context.Context, p types.Point) (catalog.City, float64, error)
}

type QueryRecorder interface {
	RecordClientQuery(ctx context.Context, q order.ClientQuery) error
}

type OrderPlacer interface {
	Create(ctx context.Context, cmd order.CreateCommand) (order.Order, error)
	Cancel(ctx context.Context, cmd order.CancelCommand) (order.Order, error)
}

type Options struct {
	TaxRate             float64
	FeeWarningThreshold float64
}

type Service struct {
	sessions *Manager
	catalog  Catalog
	geocoder location.Geocoder
	queries  QueryRecorder
	orders   OrderPlacer
	opts     Options
	now      func() time.Time
}

func NewService(sessions *Manager, cat Catalog, geocoder location.Geocoder, queries QueryRecorder, orders OrderPlacer, opts Options) *Service {
	return &Service{
		sessions: sessions,
		catalog:  cat,
		geocoder: geocoder,
		queries:  queries,
		orders:   orders,
		opts:     opts,
		now:      time.Now,
	}
}

// Create starts a session with every product at quantity 1, the first city by name
// and pickup selected.
func (s *Service) Create(ctx context.Context) (View, error) {
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return View{}, fmt.Errorf("list products: %w", err)
	}
	cities, err := s.catalog.ListCities(ctx)
	if err != nil {
		return View{}, fmt.Errorf("list cities: %w", err)
	}
	var city catalog.City
	if len(cities) > 0 {
		sort.SliceStable(cities, func(i, j int) bool { return cities[i].Name < cities[j].Name })
		city = cities[0]
	}
	sess := newSession(uuid.NewString(), products, city, s.now())
	s.sessions.put(sess)
	return s.snapshot(sess), nil
}

func (s *Service) Get(id string) (View, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return View{}, err
	}
	return s.snapshot(sess), nil
}

func (s *Service) SetItem(id, productID string, quantity int, addonSelected bool) (View, error) {
	return s.update(id, func(sess *Session) error {
		return sess.setItem(productID, quantity, addonSelected, s.now())
	})
}

func (s *Service) SetRentalDays(id string, days int) (View, error) {
	return s.update(id, func(sess *Session) error {
		return sess.setRentalDays(days, s.now())
	})
}

func (s *Service) SetCity(ctx context.Context, id, cityID string) (View, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return View{}, err
	}
	c, err := s.catalog.GetCity(ctx, cityID)
	if err != nil {
		return View{}, err
	}
	sess.setCity(c, s.now())
	return s.snapshot(sess), nil
}

func (s *Service) SetMethod(id string, m Method) (View, error) {
	return s.update(id, func(sess *Session) error {
		return sess.setMethod(m, s.now())
	})
}

func (s *Service) SetCustomer(id string, c Customer, eventDate string) (View, error) {
	return s.update(id, func(sess *Session) error {
		return sess.setCustomer(c, eventDate, s.now())
	})
}

func (s *Service) SetAddress(id string, a Address) (View, error) {
	return s.update(id, func(sess *Session) error {
		sess.setAddress(a, s.now())
		return nil
	})
}

func (s *Service) update(id string, fn func(*Session) error) (View, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return View{}, err
	}
	if err := fn(sess); err != nil {
		return View{}, err
	}
	return s.snapshot(sess), nil
}

func (s *Service) snapshot(sess *Session) View {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.view(s.opts.TaxRate, s.opts.FeeWarningThreshold)
}

type geocodeResult struct {
	event  *location.GeocodedAddress
	pickup *location.GeocodedAddress
	err    error
}

// ValidateAddress runs Editing -> Validating -> Valid|Invalid. Precondition failures
// return a *ValidationError and leave the session in Editing without any geocoder
// call. A geocoder failure is not an error: the session becomes Invalid. If a newer
// validation or an address edit was issued while this one was in flight, its result
// is dropped and ErrSuperseded is returned.
func (s *Service) ValidateAddress(ctx context.Context, id string) (View, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return View{}, err
	}

	sess.mu.Lock()
	if errs := sess.preconditions(); len(errs) > 0 {
		// A failed click is still the newest one; anything in flight is stale.
		sess.generation++
		sess.state = StateEditing
		sess.fieldErrors = errs
		sess.geocoded = nil
		sess.distance = 0
		sess.suggestion = nil
		sess.message = ""
		sess.mu.Unlock()
		return View{}, newValidationError(errs)
	}
	sess.generation++
	gen := sess.generation
	sess.state = StateValidating
	sess.fieldErrors = nil
	sess.message = ""
	eventQuery := sess.address.Full()
	pickupQuery := sess.city.PickupAddress
	cityID := sess.city.ID
	sess.mu.Unlock()

	res := s.geocodePair(ctx, eventQuery, pickupQuery)

	var (
		distance   float64
		suggestion *Suggestion
	)
	valid := res.err == nil && res.event != nil && res.pickup != nil
	if valid {
		distance = location.DistanceBetween(res.pickup.Point(), res.event.Point())
		if fee := pricing.DistanceFee(distance); fee > s.opts.FeeWarningThreshold {
			suggestion = s.suggest(ctx, res.event.Point(), cityID)
		}
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.generation != gen {
		logger.Debug("discarding stale address validation", "session_id", id, "generation", gen)
		return View{}, ErrSuperseded
	}
	sess.updatedAt = s.now()
	if !valid {
		sess.state = StateInvalid
		sess.geocoded = nil
		sess.distance = 0
		sess.suggestion = nil
		sess.message = invalidAddressMessage
		if res.err != nil {
			logger.Warn("address geocoding failed", "session_id", id, "error", res.err)
		}
		return sess.view(s.opts.TaxRate, s.opts.FeeWarningThreshold), nil
	}

	sess.state = StateValid
	sess.geocoded = res.event
	sess.distance = distance
	sess.suggestion = suggestion
	sess.message = ""
	s.recordQuery(sess)
	return sess.view(s.opts.TaxRate, s.opts.FeeWarningThreshold), nil
}

// geocodePair resolves the event and pickup addresses concurrently.
func (s *Service) geocodePair(ctx context.Context, eventQuery, pickupQuery string) geocodeResult {
	var res geocodeResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := s.geocoder.Geocode(gctx, eventQuery)
		res.event = a
		return err
	})
	g.Go(func() error {
		a, err := s.geocoder.Geocode(gctx, pickupQuery)
		res.pickup = a
		return err
	})
	res.err = g.Wait()
	return res
}

func (s *Service) suggest(ctx context.Context, event types.Point, currentCityID string) *Suggestion {
	c, miles, err := s.catalog.NearestCity(ctx, event)
	if err != nil {
		logger.Warn("nearest city lookup failed", "error", err)
		return nil
	}
	if c.ID == currentCityID {
		return nil
	}
	return &Suggestion{
		CityID:      c.ID,
		CityName:    c.Name,
		Miles:       types.Round2(miles),
		DeliveryFee: types.Round2(pricing.DistanceFee(miles)),
	}
}

// recordQuery must be called with the session lock held. The write is fire-and-forget.
func (s *Service) recordQuery(sess *Session) {
	if s.queries == nil {
		return
	}
	d, c := pricing.Fees(sess.method == MethodDelivery, sess.distance)
	q := order.ClientQuery{
		CustomerName:   sess.customer.Name,
		CustomerEmail:  sess.customer.Email,
		CustomerPhone:  sess.customer.Phone,
		Address:        eventAddress(sess),
		EventDate:      sess.eventDate,
		RentalDays:     sess.rentalDays,
		DeliveryMethod: string(sess.method),
		SelectedCity:   sess.city.Name,
		Distance:       sess.distance,
		DeliveryFee:    d,
		CollectionFee:  c,
		Cart:           queryLines(sess.items),
		CreatedAt:      s.now().UTC(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.queries.RecordClientQuery(ctx, q); err != nil {
			logger.Warn("client query record failed", "email", q.CustomerEmail, "error", err)
		}
	}()
}

// Checkout turns a complete form into a pending order priced on the server.
func (s *Service) Checkout(ctx context.Context, id string) (order.Order, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return order.Order{}, err
	}

	sess.mu.Lock()
	if sess.orderID != "" || sess.checkingOut {
		sess.mu.Unlock()
		return order.Order{}, ErrCheckedOut
	}
	if !sess.formComplete() {
		missing := sess.missingFields()
		sess.mu.Unlock()
		return order.Order{}, fmt.Errorf("%w: %w", ErrIncomplete, newValidationError(missing))
	}
	breakdown, err := pricing.Compute(sess.pricingRequest(s.opts.TaxRate))
	if err != nil {
		sess.mu.Unlock()
		return order.Order{}, err
	}
	cmd := order.CreateCommand{
		Contact: order.Contact{Name: sess.customer.Name, Email: sess.customer.Email, Phone: sess.customer.Phone},
		Delivery: order.Delivery{
			Method:        string(sess.method),
			CityID:        sess.city.ID,
			CityName:      sess.city.Name,
			PickupAddress: sess.city.PickupAddress,
			EventDate:     sess.eventDate,
		},
		Pricing: breakdown,
	}
	if sess.method == MethodDelivery {
		cmd.Delivery.Address = eventAddress(sess)
		cmd.Delivery.DistanceMiles = sess.distance
		if sch := sess.schedule(); sch != nil {
			cmd.Delivery.ReturnDate = sch.ReturnDate
			cmd.Delivery.TimeWindow = sch.Window
		}
	}
	sess.checkingOut = true
	edits, gen := sess.edits, sess.generation
	sess.mu.Unlock()

	o, err := s.orders.Create(ctx, cmd)

	sess.mu.Lock()
	sess.checkingOut = false
	if err != nil {
		sess.mu.Unlock()
		return order.Order{}, err
	}
	if sess.edits != edits || sess.generation != gen {
		sess.mu.Unlock()
		s.cancelStale(ctx, id, o.ID)
		return order.Order{}, ErrCartChanged
	}
	sess.orderID = o.ID
	sess.mu.Unlock()
	logger.Info("booking checked out", "session_id", id, "order_id", o.ID, "total", o.Pricing.Total)
	return o, nil
}

// cancelStale withdraws an order whose session was edited while it was being placed.
func (s *Service) cancelStale(ctx context.Context, sessionID, orderID string) {
	_, err := s.orders.Cancel(ctx, order.CancelCommand{OrderID: orderID, ActorType: "system", Reason: "cart_changed"})
	if err != nil {
		logger.Warn("stale checkout cancel failed", "session_id", sessionID, "order_id", orderID, "error", err)
		return
	}
	logger.Info("stale checkout cancelled", "session_id", sessionID, "order_id", orderID)
}

// SweepIdle drops sessions idle past the TTL.
func (s *Service) SweepIdle() int {
	return s.sessions.Sweep(s.now())
}

func (s *Session) missingFields() map[string]string {
	errs := map[string]string{}
	if s.customer.Name == "" {
		errs["name"] = "name is required"
	}
	if len(digitsOnly(s.customer.Phone)) != 10 {
		errs["phone"] = "phone must have 10 digits"
	}
	if !emailPattern.MatchString(s.customer.Email) {
		errs["email"] = "email is not valid"
	}
	if s.eventDate == "" {
		errs["event_date"] = "event date is required"
	}
	if s.method == MethodDelivery && s.state != StateValid {
		errs["address"] = "delivery address must be validated"
	}
	return errs
}

func eventAddress(sess *Session) order.EventAddress {
	return order.EventAddress{
		Street:      strings.TrimSpace(sess.address.Street),
		State:       strings.TrimSpace(sess.address.State),
		Zipcode:     strings.TrimSpace(sess.address.Zipcode),
		FullAddress: sess.address.Full(),
		Validated:   sess.geocoded,
	}
}

func queryLines(items []CartItem) []order.QueryLine {
	out := make([]order.QueryLine, 0, len(items))
	for _, it := range items {
		if it.Quantity == 0 {
			continue
		}
		l := order.QueryLine{
			ProductName:   it.Name,
			Quantity:      it.Quantity,
			BasePrice:     it.BasePrice,
			AddonSelected: it.AddonSelected,
		}
		if it.Addon != nil {
			name := it.Addon.Name
			l.AddonName = &name
			l.AddonPrice = it.Addon.Price
		}
		out = append(out, l)
	}
	return out
}

// IsValidationError reports whether err carries field errors.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
