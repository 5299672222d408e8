// README: KELPAY mobile-money gateway client. Without credentials it answers with mock acknowledgements.
package mobilepay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"

	"github.com/pepemlv/partysavingrental/internal/config"
	"github.com/pepemlv/partysavingrental/internal/logger"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

type GatewayRequest struct {
	MobileNumber string
	Amount       decimal.Decimal
	Currency     string
	Description  string
	Reference    string
}

// GatewayResponse is the gateway's synchronous acknowledgement.
type GatewayResponse struct {
	Code          string `json:"code"`
	Description   string `json:"description"`
	Reference     string `json:"reference"`
	TransactionID string `json:"transactionid"`
}

// Gateway is the opaque remote payment call.
type Gateway interface {
	RequestPayment(ctx context.Context, req GatewayRequest) (*GatewayResponse, error)
}

type kelpayPayload struct {
	MerchantCode string `json:"merchantcode"`
	MobileNumber string `json:"mobilenumber"`
	Reference    string `json:"reference"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	Description  string `json:"description"`
	CallbackURL  string `json:"callbackurl"`
}

type KelpayClient struct {
	cfg     config.KelpayConfig
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*GatewayResponse]
	now     func() time.Time
}

// NewKelpayClient builds the client. httpClient may be nil.
func NewKelpayClient(cfg config.KelpayConfig, httpClient *http.Client) *KelpayClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if httpClient.Timeout == 0 || httpClient.Timeout > timeout {
		c := *httpClient
		c.Timeout = timeout
		httpClient = &c
	}
	if cfg.MerchantCode == "" || cfg.Token == "" {
		logger.Warn("KELPAY credentials not configured, using mock mode")
	}
	return &KelpayClient{
		cfg:  cfg,
		http: httpClient,
		breaker: gobreaker.NewCircuitBreaker[*GatewayResponse](gobreaker.Settings{
			Name:    "kelpay",
			Timeout: time.Minute,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			},
		}),
		now: time.Now,
	}
}

func (k *KelpayClient) MockMode() bool {
	return k.cfg.MerchantCode == "" || k.cfg.Token == ""
}

func (k *KelpayClient) RequestPayment(ctx context.Context, req GatewayRequest) (*GatewayResponse, error) {
	if k.MockMode() {
		return &GatewayResponse{
			Code:          successCode,
			Description:   "Payment request received (MOCK)",
			Reference:     req.Reference,
			TransactionID: fmt.Sprintf("MOCK_TXN_%d_%s", k.now().UnixMilli(), randomSuffix(5)),
		}, nil
	}

	logger.ExternalServiceCall("kelpay", "payment", "reference", req.Reference, "mobile_number", MaskNumber(req.MobileNumber))
	resp, err := k.breaker.Execute(func() (*GatewayResponse, error) {
		return k.post(ctx, req)
	})
	logger.ExternalServiceResult("kelpay", "payment", err, "reference", req.Reference)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGateway, err)
	}
	return resp, nil
}

func (k *KelpayClient) post(ctx context.Context, req GatewayRequest) (*GatewayResponse, error) {
	body, err := json.Marshal(kelpayPayload{
		MerchantCode: k.cfg.MerchantCode,
		MobileNumber: req.MobileNumber,
		Reference:    req.Reference,
		Amount:       req.Amount.String(),
		Currency:     req.Currency,
		Description:  req.Description,
		CallbackURL:  k.cfg.CallbackURL,
	})
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(k.cfg.APIURL, "/")+"/payment.asp", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+k.cfg.Token)
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := k.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("KELPAY API is not responding: %w", err)
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var out GatewayResponse
	decodeErr := json.Unmarshal(raw, &out)
	if res.StatusCode >= 300 {
		desc := out.Description
		if decodeErr != nil || desc == "" {
			desc = res.Status
		}
		return nil, fmt.Errorf("KELPAY API error: %s", desc)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode KELPAY response: %w", decodeErr)
	}
	return &out, nil
}

// NewReference builds the merchant reference PMStreaming_<unix ms>_<5 base36 chars>.
func NewReference(now time.Time) string {
	return "PMStreaming_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + randomSuffix(5)
}

func randomSuffix(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = base36[rand.IntN(len(base36))]
	}
	return string(b)
}
