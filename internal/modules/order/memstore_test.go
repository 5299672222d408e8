package order

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// memStore is an in-memory Repository used by the service tests.
type memStore struct {
	mu        sync.Mutex
	orders    map[string]Order
	events    []Event
	customers map[string]Customer
	queries   []ClientQuery
	sales     []Sale
}

func newMemStore() *memStore {
	return &memStore{orders: map[string]Order{}, customers: map[string]Customer{}}
}

func (m *memStore) Create(_ context.Context, o Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[o.ID]; ok {
		return ErrConflict
	}
	m.orders[o.ID] = o
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (m *memStore) ListByEmail(_ context.Context, email string) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Order
	for _, o := range m.orders {
		if o.Contact.Email == email {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) ListPendingBefore(_ context.Context, cutoff time.Time) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Order
	for _, o := range m.orders {
		if o.Status == StatusPending && o.CreatedAt.Before(cutoff) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id string, from, to Status, version int, mutate func(*Order)) (Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return Order{}, false, ErrNotFound
	}
	if o.Status != from || o.StatusVersion != version {
		return Order{}, false, nil
	}
	if mutate != nil {
		mutate(&o)
	}
	o.Status = to
	o.StatusVersion++
	m.orders[id] = o
	return o, true, nil
}

func (m *memStore) AppendEvent(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *memStore) UpsertCustomer(_ context.Context, c Contact, address string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(c.Email)
	cust, ok := m.customers[key]
	if !ok {
		cust = Customer{Email: key, CreatedAt: at}
	}
	cust.Name, cust.Phone, cust.LastOrderAt = c.Name, c.Phone, at
	cust.TotalOrders++
	if address != "" {
		seen := false
		for _, a := range cust.Addresses {
			seen = seen || a == address
		}
		if !seen {
			cust.Addresses = append(cust.Addresses, address)
		}
	}
	m.customers[key] = cust
	return nil
}

func (m *memStore) AddClientQuery(_ context.Context, q ClientQuery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, q)
	return nil
}

func (m *memStore) ListClientQueries(_ context.Context, limit int) ([]ClientQuery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]ClientQuery(nil), m.queries...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) AddSale(_ context.Context, s Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales = append(m.sales, s)
	return nil
}

func (m *memStore) ListSales(_ context.Context, f SalesFilter) ([]Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Sale
	for _, s := range m.sales {
		if !f.Start.IsZero() && s.CreatedAt.Before(f.Start) {
			continue
		}
		if !f.End.IsZero() && s.CreatedAt.After(f.End) {
			continue
		}
		out = append(out, s)
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memStore) saleCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sales)
}
