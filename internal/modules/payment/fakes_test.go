package payment

import (
	"context"
	"sync"

	"github.com/pepemlv/partysavingrental/internal/modules/order"
)

type fakeLedger struct {
	mu     sync.Mutex
	orders map[string]order.Order
	paid   []order.MarkPaidCommand
}

func newFakeLedger(orders ...order.Order) *fakeLedger {
	l := &fakeLedger{orders: map[string]order.Order{}}
	for _, o := range orders {
		l.orders[o.ID] = o
	}
	return l
}

func (l *fakeLedger) Get(_ context.Context, id string) (order.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.orders[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	return o, nil
}

func (l *fakeLedger) MarkPaid(_ context.Context, cmd order.MarkPaidCommand) (order.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.orders[cmd.OrderID]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	if o.Status == order.StatusPaid && o.Payment.ProviderRef == cmd.ProviderRef {
		return o, nil
	}
	if o.Status != order.StatusPending {
		return order.Order{}, order.ErrInvalidState
	}
	o.Status = order.StatusPaid
	o.Payment = order.Payment{Provider: cmd.Provider, ProviderRef: cmd.ProviderRef, AmountMinor: cmd.AmountMinor, Currency: cmd.Currency}
	l.orders[o.ID] = o
	l.paid = append(l.paid, cmd)
	return o, nil
}

func pendingOrder(id string, total float64) order.Order {
	o := order.Order{ID: id, Status: order.StatusPending, Contact: order.Contact{Name: "Ada", Email: "ada@example.com"}}
	o.Pricing.Total = total
	return o
}
