package order

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePusher struct {
	title string
	data  map[string]string
}

func (c *capturePusher) Push(_ context.Context, title, _ string, data map[string]string) error {
	c.title, c.data = title, data
	return nil
}

type failingNotifier struct{ calls int }

func (f *failingNotifier) OrderPaid(context.Context, Order) error {
	f.calls++
	return errors.New("mail down")
}

func TestNotifiers_FanOut(t *testing.T) {
	o := Order{ID: "o1", Contact: Contact{Name: "Ada"}}
	o.Pricing.Total = 60.3603
	o.Payment.Provider = "stripe"

	failing := &failingNotifier{}
	pusher := &capturePusher{}
	err := Notifiers{failing, NewAdminAlert(pusher)}.OrderPaid(context.Background(), o)

	require.Error(t, err)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, "Order paid", pusher.title)
	assert.Equal(t, "60.36", pusher.data["total"])
	assert.Equal(t, "o1", pusher.data["order_id"])
}
