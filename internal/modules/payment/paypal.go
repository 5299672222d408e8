package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/pepemlv/partysavingrental/internal/logger"
	"github.com/pepemlv/partysavingrental/internal/modules/order"
	"github.com/pepemlv/partysavingrental/internal/types"
)

const paypalCompleted = "COMPLETED"

type paypalAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type paypalPurchaseUnit struct {
	ReferenceID string       `json:"reference_id"`
	Description string       `json:"description,omitempty"`
	Amount      paypalAmount `json:"amount"`
}

type paypalCreateRequest struct {
	Intent        string               `json:"intent"`
	PurchaseUnits []paypalPurchaseUnit `json:"purchase_units"`
}

type paypalLink struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type paypalCapture struct {
	ID     string       `json:"id"`
	Status string       `json:"status"`
	Amount paypalAmount `json:"amount"`
}

type paypalOrderResponse struct {
	ID            string       `json:"id"`
	Status        string       `json:"status"`
	Links         []paypalLink `json:"links"`
	PurchaseUnits []struct {
		ReferenceID string `json:"reference_id"`
		Payments    struct {
			Captures []paypalCapture `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

// PayPalService creates and captures PayPal checkout orders. Access tokens come from
// the client-credentials grant and are cached by the oauth2 transport.
type PayPalService struct {
	baseURL string
	http    *http.Client
	orders  OrderLedger
}

// NewPayPalService builds the service. base carries the outbound transport for both
// token and API calls.
func NewPayPalService(baseURL, clientID, secret string, base *http.Client, orders OrderLedger) *PayPalService {
	baseURL = strings.TrimRight(baseURL, "/")
	cc := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: secret,
		TokenURL:     baseURL + "/v1/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	ctx := context.Background()
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}
	return &PayPalService{baseURL: baseURL, http: cc.Client(ctx), orders: orders}
}

// CreateOrder opens a CAPTURE order for the stored order total in USD.
func (s *PayPalService) CreateOrder(ctx context.Context, orderID string) (PayPalOrder, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return PayPalOrder{}, err
	}
	if err := payable(o); err != nil {
		return PayPalOrder{}, err
	}
	amount := types.MoneyFromMajor(o.Pricing.Total, types.CurrencyUSD)
	if amount.Amount <= 0 {
		return PayPalOrder{}, ErrInvalidAmount
	}

	req := paypalCreateRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []paypalPurchaseUnit{{
			ReferenceID: o.ID,
			Description: "Party Rental Order #" + o.ID,
			Amount:      paypalAmount{CurrencyCode: amount.Currency, Value: amount.Major()},
		}},
	}
	var resp paypalOrderResponse
	if err := s.post(ctx, "create_order", "/v2/checkout/orders", req, &resp); err != nil {
		return PayPalOrder{}, err
	}
	out := PayPalOrder{ID: resp.ID, Status: resp.Status}
	for _, l := range resp.Links {
		if l.Rel == "approve" {
			out.ApproveURL = l.Href
		}
	}
	return out, nil
}

// Capture captures an approved PayPal order and marks the booking order paid.
func (s *PayPalService) Capture(ctx context.Context, paypalOrderID string) (order.Order, error) {
	var resp paypalOrderResponse
	path := "/v2/checkout/orders/" + url.PathEscape(paypalOrderID) + "/capture"
	if err := s.post(ctx, "capture_order", path, nil, &resp); err != nil {
		return order.Order{}, err
	}
	if resp.Status != paypalCompleted || len(resp.PurchaseUnits) == 0 {
		return order.Order{}, fmt.Errorf("%w: paypal status %s", ErrPaymentDeclined, resp.Status)
	}

	unit := resp.PurchaseUnits[0]
	cmd := order.MarkPaidCommand{
		OrderID:     unit.ReferenceID,
		Provider:    ProviderPayPal,
		ProviderRef: resp.ID,
		Currency:    "usd",
	}
	if len(unit.Payments.Captures) > 0 {
		c := unit.Payments.Captures[0]
		cmd.ProviderRef = c.ID
		if v, err := decimal.NewFromString(c.Amount.Value); err == nil {
			cmd.AmountMinor = v.Shift(2).Round(0).IntPart()
		}
		if c.Amount.CurrencyCode != "" {
			cmd.Currency = strings.ToLower(c.Amount.CurrencyCode)
		}
	}
	return s.orders.MarkPaid(ctx, cmd)
}

func (s *PayPalService) post(ctx context.Context, op, path string, body any, out any) error {
	var r io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	logger.ExternalServiceCall("paypal", op)
	res, err := s.http.Do(req)
	if err != nil {
		logger.ExternalServiceResult("paypal", op, err)
		return fmt.Errorf("paypal %s: %w", op, err)
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return err
	}
	if res.StatusCode >= 300 {
		err := fmt.Errorf("paypal %s: status %d: %s", op, res.StatusCode, strings.TrimSpace(string(raw)))
		logger.ExternalServiceResult("paypal", op, err)
		if res.StatusCode == http.StatusUnprocessableEntity {
			return fmt.Errorf("%w: %w", ErrPaymentDeclined, err)
		}
		return err
	}
	logger.ExternalServiceResult("paypal", op, nil)
	return json.Unmarshal(raw, out)
}
