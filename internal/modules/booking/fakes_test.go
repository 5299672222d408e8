package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pepemlv/partysavingrental/internal/modules/catalog"
	"github.com/pepemlv/partysavingrental/internal/modules/location"
	"github.com/pepemlv/partysavingrental/internal/modules/order"
	"github.com/pepemlv/partysavingrental/internal/types"
)

var (
	charlotte = catalog.City{ID: "charlotte", Name: "Charlotte", State: "NC", PickupAddress: "3244 Bamburgh Court, Charlotte, NC 28216", Latitude: 35.2271, Longitude: -80.8431}
	raleigh   = catalog.City{ID: "raleigh", Name: "Raleigh", State: "NC", PickupAddress: "456 Fayetteville St, Raleigh, NC 27601", Latitude: 35.7796, Longitude: -78.6382}
)

type fakeCatalog struct {
	products []catalog.Product
	cities   []catalog.City
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		products: []catalog.Product{
			{ID: "chair", Name: "Chair", BasePrice: 1.88},
			{ID: "table", Name: "Table", BasePrice: 10, Addon: &catalog.Addon{Name: "Cover", Price: 5}},
		},
		cities: []catalog.City{raleigh, charlotte},
	}
}

func (f *fakeCatalog) ListProducts(context.Context) ([]catalog.Product, error) {
	return append([]catalog.Product(nil), f.products...), nil
}

func (f *fakeCatalog) ListCities(context.Context) ([]catalog.City, error) {
	return append([]catalog.City(nil), f.cities...), nil
}

func (f *fakeCatalog) GetCity(_ context.Context, id string) (catalog.City, error) {
	for _, c := range f.cities {
		if c.ID == id {
			return c, nil
		}
	}
	return catalog.City{}, catalog.ErrNotFound
}

func (f *fakeCatalog) NearestCity(_ context.Context, p types.Point) (catalog.City, float64, error) {
	cities := append([]catalog.City(nil), f.cities...)
	location.SortByDistance(cities, func(c catalog.City) float64 { return location.DistanceBetween(p, c.Point()) })
	return cities[0], location.DistanceBetween(p, cities[0].Point()), nil
}

// fakeGeocoder answers from a fixed table. A query with a gate blocks on its first
// call until the gate is closed.
type fakeGeocoder struct {
	mu      sync.Mutex
	results map[string]*location.GeocodedAddress
	errs    map[string]error
	gates   map[string]chan struct{}
	entered chan string
	calls   int
}

func newFakeGeocoder() *fakeGeocoder {
	return &fakeGeocoder{
		results: map[string]*location.GeocodedAddress{
			charlotte.PickupAddress: {Lat: charlotte.Latitude, Lon: charlotte.Longitude, DisplayName: "Charlotte pickup"},
			raleigh.PickupAddress:   {Lat: raleigh.Latitude, Lon: raleigh.Longitude, DisplayName: "Raleigh pickup"},
		},
		errs:    map[string]error{},
		gates:   map[string]chan struct{}{},
		entered: make(chan string, 8),
	}
}

func (f *fakeGeocoder) set(query string, lat, lon float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[query] = &location.GeocodedAddress{Lat: lat, Lon: lon, DisplayName: query}
}

func (f *fakeGeocoder) gate(query string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[query] = ch
	return ch
}

func (f *fakeGeocoder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeGeocoder) Geocode(ctx context.Context, query string) (*location.GeocodedAddress, error) {
	f.mu.Lock()
	f.calls++
	gate, blocked := f.gates[query]
	delete(f.gates, query)
	res, err := f.results[query], f.errs[query]
	f.mu.Unlock()

	if blocked {
		f.entered <- query
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return res, err
}

type fakeRecorder struct {
	got chan order.ClientQuery
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{got: make(chan order.ClientQuery, 8)}
}

func (f *fakeRecorder) RecordClientQuery(_ context.Context, q order.ClientQuery) error {
	f.got <- q
	return nil
}

// fakeOrders records placed orders. When gate is set, Create signals entered and
// blocks until the gate is closed.
type fakeOrders struct {
	mu        sync.Mutex
	cmds      []order.CreateCommand
	cancelled []order.CancelCommand
	fail      error
	gate      chan struct{}
	entered   chan struct{}
}

func (f *fakeOrders) block() chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	f.entered = make(chan struct{}, 4)
	return f.gate
}

func (f *fakeOrders) Create(ctx context.Context, cmd order.CreateCommand) (order.Order, error) {
	f.mu.Lock()
	gate, entered := f.gate, f.entered
	f.mu.Unlock()
	if gate != nil {
		entered <- struct{}{}
		select {
		case <-gate:
		case <-ctx.Done():
			return order.Order{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return order.Order{}, f.fail
	}
	f.cmds = append(f.cmds, cmd)
	id := fmt.Sprintf("order-%d", len(f.cmds))
	return order.Order{ID: id, Status: order.StatusPending, Contact: cmd.Contact, Delivery: cmd.Delivery, Pricing: cmd.Pricing}, nil
}

func (f *fakeOrders) Cancel(_ context.Context, cmd order.CancelCommand) (order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, cmd)
	return order.Order{ID: cmd.OrderID, Status: order.StatusCancelled, CancelReason: cmd.Reason}, nil
}

func (f *fakeOrders) created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cmds)
}

var errGeocoderDown = errors.New("connection refused")

var testNow = time.Date(2026, 10, 17, 15, 0, 0, 0, time.UTC)
