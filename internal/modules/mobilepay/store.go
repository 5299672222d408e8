package mobilepay

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pepemlv/partysavingrental/internal/logger"
)

type Repository interface {
	Insert(ctx context.Context, p Payment) error
	Get(ctx context.Context, transactionID string) (Payment, error)
	// UpdateStatus returns ErrNotFound when no payment has the transaction id.
	UpdateStatus(ctx context.Context, transactionID string, status Status, description string, at time.Time) error
}

// Store persists payments in the mobile_payments table.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Insert(ctx context.Context, p Payment) error {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO mobile_payments
			(transaction_id, reference, movie_id, amount, currency, mobile_number, operator, status, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, p.TransactionID, p.Reference, p.MovieID, p.Amount, p.Currency, p.MobileNumber, p.Operator, string(p.Status), p.Description, p.CreatedAt)
	logger.DatabaseResult("mobile_payments.insert", tag.RowsAffected(), err, "reference", p.Reference)
	return err
}

func (s *Store) Get(ctx context.Context, transactionID string) (Payment, error) {
	var (
		p      Payment
		status string
	)
	err := s.db.QueryRow(ctx, `
		SELECT transaction_id, reference, movie_id, amount, currency, mobile_number, operator, status,
		       description, created_at, updated_at
		FROM mobile_payments WHERE transaction_id = $1
	`, transactionID).Scan(&p.TransactionID, &p.Reference, &p.MovieID, &p.Amount, &p.Currency, &p.MobileNumber,
		&p.Operator, &status, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Payment{}, ErrNotFound
	}
	if err != nil {
		return Payment{}, err
	}
	p.Status = Status(status)
	return p, nil
}

func (s *Store) UpdateStatus(ctx context.Context, transactionID string, status Status, description string, at time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE mobile_payments SET status = $2, description = $3, updated_at = $4
		WHERE transaction_id = $1
	`, transactionID, string(status), description, at)
	logger.DatabaseResult("mobile_payments.update_status", tag.RowsAffected(), err, "transaction_id", transactionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repository = (*Store)(nil)
