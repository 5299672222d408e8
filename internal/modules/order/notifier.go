package order

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/pepemlv/partysavingrental/internal/notify"
)

// ReceiptNotifier emails the customer a PDF receipt once an order is paid.
type ReceiptNotifier struct {
	mailer notify.Mailer
}

func NewReceiptNotifier(mailer notify.Mailer) *ReceiptNotifier {
	return &ReceiptNotifier{mailer: mailer}
}

func (n *ReceiptNotifier) OrderPaid(ctx context.Context, o Order) error {
	pdf, err := RenderReceipt(o)
	if err != nil {
		return err
	}
	body := fmt.Sprintf("Hi %s,\n\nThanks for your order. Your payment of $%.2f was received.\n"+
		"Event date: %s (%d day rental, %s).\n\nThe receipt is attached.\n",
		o.Contact.Name, o.Pricing.Total, o.Delivery.EventDate, o.Pricing.RentalDays, o.Delivery.Method)
	return n.mailer.Send(ctx, notify.Message{
		ToEmail:   o.Contact.Email,
		ToName:    o.Contact.Name,
		Subject:   fmt.Sprintf("Party Rental Order #%s", o.ID),
		PlainText: body,
		Attachments: []notify.Attachment{{
			Filename:    fmt.Sprintf("receipt_%s.pdf", o.ID),
			ContentType: "application/pdf",
			Data:        pdf,
		}},
	})
}

type Pusher interface {
	Push(ctx context.Context, title, body string, data map[string]string) error
}

// AdminAlert pushes a paid-order notification to the admin dashboard.
type AdminAlert struct {
	pusher Pusher
}

func NewAdminAlert(p Pusher) *AdminAlert {
	return &AdminAlert{pusher: p}
}

func (a *AdminAlert) OrderPaid(ctx context.Context, o Order) error {
	return a.pusher.Push(ctx,
		"Order paid",
		fmt.Sprintf("%s paid $%.2f for %s (%s)", o.Contact.Name, o.Pricing.Total, o.Delivery.EventDate, o.Delivery.Method),
		map[string]string{
			"type":     "order_paid",
			"order_id": o.ID,
			"total":    strconv.FormatFloat(o.Pricing.Total, 'f', 2, 64),
			"provider": o.Payment.Provider,
		})
}

// Notifiers fans OrderPaid out to every notifier; one failing does not stop the rest.
type Notifiers []Notifier

func (ns Notifiers) OrderPaid(ctx context.Context, o Order) error {
	var errs []error
	for _, n := range ns {
		if err := n.OrderPaid(ctx, o); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
