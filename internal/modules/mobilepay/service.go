// README: Mobile-money payment flow: request, asynchronous callback and status lookup.
package mobilepay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pepemlv/partysavingrental/internal/logger"
)

type Service struct {
	gateway Gateway
	repo    Repository
	now     func() time.Time
}

func NewService(gateway Gateway, repo Repository) *Service {
	return &Service{gateway: gateway, repo: repo, now: time.Now}
}

func (s *Service) Pay(ctx context.Context, req PayRequest) (PayResult, error) {
	if strings.TrimSpace(req.MobileNumber) == "" || !req.Amount.IsPositive() ||
		strings.TrimSpace(req.Currency) == "" || strings.TrimSpace(req.MovieID) == "" {
		return PayResult{}, fmt.Errorf("%w: missing required fields: mobileNumber, amount, currency, movieId", ErrInvalidRequest)
	}
	if !ValidNumber(req.MobileNumber) {
		return PayResult{}, fmt.Errorf("%w: invalid mobile number format, use DRC format (e.g. 243123456789 or 0123456789)", ErrInvalidRequest)
	}

	number := FormatNumber(req.MobileNumber)
	operator := Operator(req.MobileNumber)
	now := s.now()
	reference := NewReference(now)
	description := req.Description
	if description == "" {
		description = "Payment for movie " + req.MovieID
	}

	logger.Info("processing mobile payment",
		"mobile_number", MaskNumber(number),
		"amount", req.Amount.String(),
		"currency", req.Currency,
		"operator", operator,
		"reference", reference,
	)

	resp, err := s.gateway.RequestPayment(ctx, GatewayRequest{
		MobileNumber: number,
		Amount:       req.Amount,
		Currency:     req.Currency,
		Description:  description,
		Reference:    reference,
	})
	if err != nil {
		return PayResult{}, err
	}

	p := Payment{
		TransactionID: resp.TransactionID,
		Reference:     reference,
		MovieID:       req.MovieID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		MobileNumber:  number,
		Operator:      operator,
		Status:        StatusPending,
		CreatedAt:     now.UTC(),
	}
	if err := s.repo.Insert(ctx, p); err != nil {
		return PayResult{}, fmt.Errorf("store mobile payment: %w", err)
	}

	return PayResult{
		Success:       true,
		Code:          resp.Code,
		Description:   resp.Description,
		Reference:     resp.Reference,
		TransactionID: resp.TransactionID,
		Operator:      operator,
	}, nil
}

// HandleCallback records the final status. An unknown transaction is logged and not
// treated as an error; the caller always acknowledges the gateway.
func (s *Service) HandleCallback(ctx context.Context, cb Callback) error {
	logger.Info("KELPAY callback received", "code", cb.Code, "reference", cb.Reference, "transaction_id", cb.TransactionID)
	status := StatusFailed
	if cb.Code == successCode {
		status = StatusSuccess
	}
	err := s.repo.UpdateStatus(ctx, cb.TransactionID, status, cb.Description, s.now().UTC())
	if errors.Is(err, ErrNotFound) {
		logger.Warn("payment not found for transaction", "transaction_id", cb.TransactionID)
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("mobile payment status updated", "transaction_id", cb.TransactionID, "status", status)
	return nil
}

func (s *Service) Status(ctx context.Context, transactionID string) (StatusView, error) {
	p, err := s.repo.Get(ctx, transactionID)
	if err != nil {
		return StatusView{}, err
	}
	return p.View(), nil
}
