// README: Order service implements state transitions and persistence.
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pepemlv/partysavingrental/internal/logger"
	"github.com/pepemlv/partysavingrental/internal/modules/pricing"
	"github.com/pepemlv/partysavingrental/internal/types"
)

var (
	ErrInvalidState = errors.New("invalid state transition")
	ErrNotFound     = errors.New("order not found")
	ErrConflict     = errors.New("order state conflict")
	ErrBadRequest   = errors.New("bad request")
)

const defaultSalesLimit = 100

// Notifier is told about orders that just became paid.
type Notifier interface {
	OrderPaid(ctx context.Context, o Order) error
}

type Service struct {
	store    Repository
	notifier Notifier
	taxRate  float64
	now      func() time.Time
}

func NewService(store Repository, notifier Notifier, taxRate float64) *Service {
	return &Service{store: store, notifier: notifier, taxRate: taxRate, now: time.Now}
}

type CreateCommand struct {
	Contact  Contact
	Delivery Delivery
	Pricing  pricing.Breakdown
}

type MarkPaidCommand struct {
	OrderID     string
	Provider    string
	ProviderRef string
	AmountMinor int64
	Currency    string
}

type CancelCommand struct {
	OrderID   string
	ActorType string
	Reason    string
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (Order, error) {
	if strings.TrimSpace(cmd.Contact.Name) == "" || strings.TrimSpace(cmd.Contact.Email) == "" ||
		strings.TrimSpace(cmd.Contact.Phone) == "" {
		return Order{}, fmt.Errorf("%w: contact name, email and phone are required", ErrBadRequest)
	}
	if len(cmd.Pricing.Lines) == 0 {
		return Order{}, fmt.Errorf("%w: order has no items", ErrBadRequest)
	}

	cmd.Contact.Email = normalizeEmail(cmd.Contact.Email)
	now := s.now().UTC()
	o := Order{
		ID:        newID(),
		Status:    StatusPending,
		Contact:   cmd.Contact,
		Delivery:  cmd.Delivery,
		Pricing:   cmd.Pricing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, o); err != nil {
		return Order{}, err
	}
	s.appendEvent(ctx, Event{OrderID: o.ID, FromStatus: "", ToStatus: StatusPending, ActorType: "customer", CreatedAt: now})

	if err := s.store.UpsertCustomer(ctx, cmd.Contact, cmd.Delivery.Address.FullAddress, now); err != nil {
		logger.Warn("customer upsert failed", "order_id", o.ID, "error", err)
	}
	return o, nil
}

func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	return s.store.Get(ctx, id)
}

// ListByCustomer returns the customer's orders, newest first.
func (s *Service) ListByCustomer(ctx context.Context, email string) ([]Order, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrBadRequest
	}
	return s.store.ListByEmail(ctx, email)
}

// MarkPaid moves a pending order to paid and records the sale. Repeating it for an
// order already paid by the same provider reference is a no-op.
func (s *Service) MarkPaid(ctx context.Context, cmd MarkPaidCommand) (Order, error) {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return Order{}, err
	}
	if o.Status == StatusPaid && o.Payment.ProviderRef == cmd.ProviderRef {
		return o, nil
	}
	if !CanTransition(o.Status, StatusPaid) {
		return Order{}, ErrInvalidState
	}

	now := s.now().UTC()
	updated, ok, err := s.store.UpdateStatus(ctx, o.ID, o.Status, StatusPaid, o.StatusVersion, func(o *Order) {
		o.Payment = Payment{
			Provider:    cmd.Provider,
			ProviderRef: cmd.ProviderRef,
			AmountMinor: cmd.AmountMinor,
			Currency:    cmd.Currency,
			PaidAt:      &now,
		}
	})
	if err != nil {
		return Order{}, err
	}
	if !ok {
		// Lost to a concurrent MarkPaid for the same payment (card confirm and webhook).
		cur, err := s.store.Get(ctx, o.ID)
		if err == nil && cur.Status == StatusPaid && cur.Payment.ProviderRef == cmd.ProviderRef {
			return cur, nil
		}
		return Order{}, ErrConflict
	}
	s.appendEvent(ctx, Event{OrderID: o.ID, FromStatus: o.Status, ToStatus: StatusPaid, ActorType: "system", Note: cmd.Provider, CreatedAt: now})

	sale := Sale{
		OrderID:       o.ID,
		Amount:        types.Round2(o.Pricing.Total),
		Currency:      cmd.Currency,
		Provider:      cmd.Provider,
		ProviderRef:   cmd.ProviderRef,
		CustomerEmail: o.Contact.Email,
		CustomerName:  o.Contact.Name,
		CreatedAt:     now,
	}
	if err := s.store.AddSale(ctx, sale); err != nil {
		logger.Error("sale record failed", "order_id", o.ID, "error", err)
	}

	if s.notifier != nil {
		go func(o Order) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.notifier.OrderPaid(ctx, o); err != nil {
				logger.Warn("paid order notification failed", "order_id", o.ID, "error", err)
			}
		}(updated)
	}
	return updated, nil
}

// Confirm is the admin acknowledgement of a paid order.
func (s *Service) Confirm(ctx context.Context, id string) (Order, error) {
	return s.transition(ctx, id, StatusConfirmed, "admin", "", nil)
}

func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) (Order, error) {
	return s.transition(ctx, cmd.OrderID, StatusCancelled, cmd.ActorType, cmd.Reason, func(o *Order) {
		o.CancelReason = cmd.Reason
	})
}

func (s *Service) transition(ctx context.Context, id string, to Status, actor, note string, mutate func(*Order)) (Order, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !CanTransition(o.Status, to) {
		return Order{}, ErrInvalidState
	}
	updated, ok, err := s.store.UpdateStatus(ctx, o.ID, o.Status, to, o.StatusVersion, mutate)
	if err != nil {
		return Order{}, err
	}
	if !ok {
		return Order{}, ErrConflict
	}
	s.appendEvent(ctx, Event{OrderID: o.ID, FromStatus: o.Status, ToStatus: to, ActorType: actor, Note: note, CreatedAt: s.now().UTC()})
	return updated, nil
}

// ExpirePending cancels orders still pending after maxAge. It returns how many were cancelled.
func (s *Service) ExpirePending(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := s.now().UTC().Add(-maxAge)
	stale, err := s.store.ListPendingBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, o := range stale {
		_, err := s.Cancel(ctx, CancelCommand{OrderID: o.ID, ActorType: "system", Reason: "payment_timeout"})
		if errors.Is(err, ErrConflict) || errors.Is(err, ErrInvalidState) {
			continue
		}
		if err != nil {
			return n, err
		}
		n++
	}
	if n > 0 {
		logger.Info("expired pending orders", "count", n)
	}
	return n, nil
}

// RecordClientQuery stores a client query snapshot.
func (s *Service) RecordClientQuery(ctx context.Context, q ClientQuery) error {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = s.now().UTC()
	}
	return s.store.AddClientQuery(ctx, q)
}

// ListClientQueries returns queries newest first, each with the admin panel totals.
func (s *Service) ListClientQueries(ctx context.Context, limit int) ([]AdminView, error) {
	qs, err := s.store.ListClientQueries(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]AdminView, len(qs))
	for i, q := range qs {
		lines := make([]pricing.StoredLine, len(q.Cart))
		for j, l := range q.Cart {
			lines[j] = pricing.StoredLine{BasePrice: l.BasePrice, AddonPrice: l.AddonPrice, Quantity: l.Quantity}
		}
		out[i] = AdminView{
			ClientQuery: q,
			Admin:       pricing.RecomputeAdminTotal(lines, q.RentalDays, q.DeliveryFee, q.CollectionFee, s.taxRate),
		}
	}
	return out, nil
}

func (s *Service) ListSales(ctx context.Context, f SalesFilter) ([]Sale, error) {
	if f.Limit <= 0 {
		f.Limit = defaultSalesLimit
	}
	if !f.Start.IsZero() && !f.End.IsZero() && f.End.Before(f.Start) {
		return nil, fmt.Errorf("%w: end before start", ErrBadRequest)
	}
	return s.store.ListSales(ctx, f)
}

func (s *Service) appendEvent(ctx context.Context, e Event) {
	if err := s.store.AppendEvent(ctx, e); err != nil {
		logger.Warn("order event append failed", "order_id", e.OrderID, "error", err)
	}
}

// newID returns a random v4 UUID without dashes.
func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
