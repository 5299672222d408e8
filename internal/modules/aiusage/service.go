package aiusage

import (
	"context"
	"errors"
	"time"
)

// Repository persists per-admin monthly allowances.
type Repository interface {
	UseToken(ctx context.Context, uid, month string) error
	EnsureUser(ctx context.Context, uid, month string) error
	Remaining(ctx context.Context, uid, month string) (int, error)
}

// Service orchestrates AI token-usage logic.
type Service struct {
	store Repository
	now   func() time.Time
}

func NewService(store Repository) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) month() string {
	return s.now().UTC().Format("2006-01")
}

// UseToken deducts one token from the admin's monthly allowance.
// If the row does not exist yet it is initialised and the token is immediately consumed.
// Returns ErrInsufficientTokens when the quota for the current month is exhausted.
func (s *Service) UseToken(ctx context.Context, uid string) error {
	month := s.month()
	err := s.store.UseToken(ctx, uid, month)
	if !errors.Is(err, ErrInsufficientTokens) {
		return err
	}

	// Row may be missing: try to create it, then retry the deduction once.
	if initErr := s.store.EnsureUser(ctx, uid, month); initErr != nil {
		return initErr
	}
	return s.store.UseToken(ctx, uid, month)
}

// Remaining reports the tokens left this month. Unknown admins have the full allowance.
func (s *Service) Remaining(ctx context.Context, uid string) (int, error) {
	return s.store.Remaining(ctx, uid, s.month())
}
