// README: Order store backed by Firestore: orders (+events), clientqueries, sales, customers.
package order

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ordersCollection        = "orders"
	eventsCollection        = "events"
	clientQueriesCollection = "clientqueries"
	salesCollection         = "sales"
	customersCollection     = "customers"
)

type Repository interface {
	Create(ctx context.Context, o Order) error
	Get(ctx context.Context, id string) (Order, error)
	ListByEmail(ctx context.Context, email string) ([]Order, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]Order, error)
	// UpdateStatus applies mutate and moves the order from -> to only if the stored
	// status and version still match. ok is false when another writer got there first.
	UpdateStatus(ctx context.Context, id string, from, to Status, version int, mutate func(*Order)) (updated Order, ok bool, err error)
	AppendEvent(ctx context.Context, e Event) error

	UpsertCustomer(ctx context.Context, c Contact, address string, at time.Time) error
	AddClientQuery(ctx context.Context, q ClientQuery) error
	ListClientQueries(ctx context.Context, limit int) ([]ClientQuery, error)
	AddSale(ctx context.Context, s Sale) error
	ListSales(ctx context.Context, f SalesFilter) ([]Sale, error)
}

type Store struct {
	fs *firestore.Client
}

func NewStore(fs *firestore.Client) *Store {
	return &Store{fs: fs}
}

func (s *Store) Create(ctx context.Context, o Order) error {
	_, err := s.fs.Collection(ordersCollection).Doc(o.ID).Create(ctx, o)
	if status.Code(err) == codes.AlreadyExists {
		return ErrConflict
	}
	return err
}

func (s *Store) Get(ctx context.Context, id string) (Order, error) {
	d, err := s.fs.Collection(ordersCollection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	return decodeOrder(d)
}

func (s *Store) ListByEmail(ctx context.Context, email string) ([]Order, error) {
	docs, err := s.fs.Collection(ordersCollection).
		Where("contact.customerEmail", "==", email).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return decodeOrders(docs)
}

func (s *Store) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]Order, error) {
	docs, err := s.fs.Collection(ordersCollection).
		Where("status", "==", string(StatusPending)).
		Where("createdAt", "<", cutoff).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return decodeOrders(docs)
}

func (s *Store) UpdateStatus(ctx context.Context, id string, from, to Status, version int, mutate func(*Order)) (Order, bool, error) {
	ref := s.fs.Collection(ordersCollection).Doc(id)
	var (
		updated Order
		ok      bool
	)
	err := s.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ok = false
		d, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		o, err := decodeOrder(d)
		if err != nil {
			return err
		}
		if o.Status != from || o.StatusVersion != version {
			return nil
		}
		if mutate != nil {
			mutate(&o)
		}
		o.Status = to
		o.StatusVersion++
		o.UpdatedAt = time.Now().UTC()
		if err := tx.Set(ref, o); err != nil {
			return err
		}
		updated, ok = o, true
		return nil
	})
	if err != nil {
		return Order{}, false, err
	}
	return updated, ok, nil
}

func (s *Store) AppendEvent(ctx context.Context, e Event) error {
	_, _, err := s.fs.Collection(ordersCollection).Doc(e.OrderID).Collection(eventsCollection).Add(ctx, e)
	return err
}

func (s *Store) UpsertCustomer(ctx context.Context, c Contact, address string, at time.Time) error {
	ref := s.fs.Collection(customersCollection).Doc(normalizeEmail(c.Email))
	return s.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		_, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			cust := Customer{
				Email:       normalizeEmail(c.Email),
				Name:        c.Name,
				Phone:       c.Phone,
				Addresses:   []string{},
				TotalOrders: 1,
				LastOrderAt: at,
				CreatedAt:   at,
			}
			if address != "" {
				cust.Addresses = append(cust.Addresses, address)
			}
			return tx.Create(ref, cust)
		}
		if err != nil {
			return err
		}
		updates := []firestore.Update{
			{Path: "name", Value: c.Name},
			{Path: "phone", Value: c.Phone},
			{Path: "totalOrders", Value: firestore.Increment(1)},
			{Path: "lastOrderAt", Value: at},
		}
		if address != "" {
			updates = append(updates, firestore.Update{Path: "addresses", Value: firestore.ArrayUnion(address)})
		}
		return tx.Update(ref, updates)
	})
}

func (s *Store) AddClientQuery(ctx context.Context, q ClientQuery) error {
	_, _, err := s.fs.Collection(clientQueriesCollection).Add(ctx, q)
	return err
}

func (s *Store) ListClientQueries(ctx context.Context, limit int) ([]ClientQuery, error) {
	q := s.fs.Collection(clientQueriesCollection).OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	out := make([]ClientQuery, 0, len(docs))
	for _, d := range docs {
		var cq ClientQuery
		if err := d.DataTo(&cq); err != nil {
			return nil, err
		}
		cq.ID = d.Ref.ID
		out = append(out, cq)
	}
	return out, nil
}

func (s *Store) AddSale(ctx context.Context, sale Sale) error {
	_, _, err := s.fs.Collection(salesCollection).Add(ctx, sale)
	return err
}

func (s *Store) ListSales(ctx context.Context, f SalesFilter) ([]Sale, error) {
	q := s.fs.Collection(salesCollection).OrderBy("createdAt", firestore.Desc)
	if !f.Start.IsZero() {
		q = q.Where("createdAt", ">=", f.Start)
	}
	if !f.End.IsZero() {
		q = q.Where("createdAt", "<=", f.End)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	out := make([]Sale, 0, len(docs))
	for _, d := range docs {
		var sale Sale
		if err := d.DataTo(&sale); err != nil {
			return nil, err
		}
		sale.ID = d.Ref.ID
		out = append(out, sale)
	}
	return out, nil
}

func decodeOrder(d *firestore.DocumentSnapshot) (Order, error) {
	var o Order
	if err := d.DataTo(&o); err != nil {
		return Order{}, err
	}
	o.ID = d.Ref.ID
	return o, nil
}

func decodeOrders(docs []*firestore.DocumentSnapshot) ([]Order, error) {
	out := make([]Order, 0, len(docs))
	for _, d := range docs {
		o, err := decodeOrder(d)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

var _ Repository = (*Store)(nil)
