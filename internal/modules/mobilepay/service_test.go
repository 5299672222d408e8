package mobilepay

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	mu       sync.Mutex
	payments map[string]Payment
	failGet  error
}

func newMemRepo() *memRepo {
	return &memRepo{payments: map[string]Payment{}}
}

func (m *memRepo) Insert(_ context.Context, p Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.TransactionID] = p
	return nil
}

func (m *memRepo) Get(_ context.Context, id string) (Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return Payment{}, m.failGet
	}
	p, ok := m.payments[id]
	if !ok {
		return Payment{}, ErrNotFound
	}
	return p, nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id string, status Status, desc string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return ErrNotFound
	}
	p.Status, p.Description, p.UpdatedAt = status, desc, &at
	m.payments[id] = p
	return nil
}

type stubGateway struct {
	got  GatewayRequest
	resp *GatewayResponse
	err  error
}

func (s *stubGateway) RequestPayment(_ context.Context, req GatewayRequest) (*GatewayResponse, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	r := *s.resp
	r.Reference = req.Reference
	return &r, nil
}

func TestPay(t *testing.T) {
	gw := &stubGateway{resp: &GatewayResponse{Code: "0", Description: "received", TransactionID: "TX1"}}
	repo := newMemRepo()
	svc := NewService(gw, repo)

	res, err := svc.Pay(context.Background(), PayRequest{
		MobileNumber: "097 123 4567",
		Amount:       decimal.NewFromInt(5),
		Currency:     "USD",
		MovieID:      "m42",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "TX1", res.TransactionID)
	assert.Equal(t, "M-PESA", res.Operator)
	assert.Equal(t, gw.got.Reference, res.Reference)

	assert.Equal(t, "243971234567", gw.got.MobileNumber)
	assert.Equal(t, "Payment for movie m42", gw.got.Description)

	stored := repo.payments["TX1"]
	assert.Equal(t, StatusPending, stored.Status)
	assert.Equal(t, "m42", stored.MovieID)
}

func TestPay_Rejects(t *testing.T) {
	svc := NewService(&stubGateway{}, newMemRepo())
	ctx := context.Background()

	cases := []PayRequest{
		{Amount: decimal.NewFromInt(5), Currency: "USD", MovieID: "m"},
		{MobileNumber: "0971234567", Currency: "USD", MovieID: "m"},
		{MobileNumber: "0971234567", Amount: decimal.NewFromInt(-1), Currency: "USD", MovieID: "m"},
		{MobileNumber: "0971234567", Amount: decimal.NewFromInt(5), MovieID: "m"},
		{MobileNumber: "0971234567", Amount: decimal.NewFromInt(5), Currency: "USD"},
		{MobileNumber: "12345", Amount: decimal.NewFromInt(5), Currency: "USD", MovieID: "m"},
	}
	for i, req := range cases {
		_, err := svc.Pay(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidRequest, "case %d", i)
	}
}

func TestPay_GatewayFailure(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(&stubGateway{err: ErrGateway}, repo)
	_, err := svc.Pay(context.Background(), PayRequest{MobileNumber: "0971234567", Amount: decimal.NewFromInt(5), Currency: "USD", MovieID: "m"})
	assert.ErrorIs(t, err, ErrGateway)
	assert.Empty(t, repo.payments)
}

func TestHandleCallback(t *testing.T) {
	repo := newMemRepo()
	repo.payments["TX1"] = Payment{TransactionID: "TX1", Status: StatusPending}
	repo.payments["TX2"] = Payment{TransactionID: "TX2", Status: StatusPending}
	svc := NewService(&stubGateway{}, repo)
	ctx := context.Background()

	require.NoError(t, svc.HandleCallback(ctx, Callback{Code: "0", Description: "done", TransactionID: "TX1"}))
	require.NoError(t, svc.HandleCallback(ctx, Callback{Code: "51", Description: "rejected", TransactionID: "TX2"}))
	require.NoError(t, svc.HandleCallback(ctx, Callback{Code: "0", TransactionID: "unknown"}))

	v, err := svc.Status(ctx, "TX1")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, v.Status)
	assert.Equal(t, "done", v.Description)
	assert.NotNil(t, v.UpdatedAt)

	v, err = svc.Status(ctx, "TX2")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, v.Status)

	_, err = svc.Status(ctx, "unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatus_StoreError(t *testing.T) {
	repo := newMemRepo()
	repo.failGet = errors.New("connection reset")
	_, err := NewService(&stubGateway{}, repo).Status(context.Background(), "TX1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
