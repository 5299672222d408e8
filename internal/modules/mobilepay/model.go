package mobilepay

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// successCode is the gateway's code for an accepted or completed payment.
const successCode = "0"

var (
	ErrInvalidRequest = errors.New("invalid mobile payment request")
	ErrNotFound       = errors.New("mobile payment not found")
	ErrGateway        = errors.New("mobile money gateway error")
)

// Payment is one mobile-money payment, keyed by the gateway transaction id.
type Payment struct {
	TransactionID string
	Reference     string
	MovieID       string
	Amount        decimal.Decimal
	Currency      string
	MobileNumber  string
	Operator      string
	Status        Status
	Description   string
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

type PayRequest struct {
	MobileNumber string          `json:"mobileNumber"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Description  string          `json:"description"`
	MovieID      string          `json:"movieId"`
}

type PayResult struct {
	Success       bool   `json:"success"`
	Code          string `json:"code"`
	Description   string `json:"description"`
	Reference     string `json:"reference"`
	TransactionID string `json:"transactionId"`
	Operator      string `json:"operator"`
}

// Callback is the gateway's asynchronous result notification.
type Callback struct {
	Code          string `json:"code"`
	Description   string `json:"description"`
	Reference     string `json:"reference"`
	TransactionID string `json:"transactionid"`
}

// StatusView is the public status lookup response.
type StatusView struct {
	TransactionID string     `json:"transactionId"`
	Reference     string     `json:"reference"`
	Status        Status     `json:"status"`
	Amount        float64    `json:"amount"`
	Currency      string     `json:"currency"`
	Operator      string     `json:"operator"`
	Description   string     `json:"description,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

func (p Payment) View() StatusView {
	return StatusView{
		TransactionID: p.TransactionID,
		Reference:     p.Reference,
		Status:        p.Status,
		Amount:        p.Amount.InexactFloat64(),
		Currency:      p.Currency,
		Operator:      p.Operator,
		Description:   p.Description,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
