// README: AI-usage module tests (lazy reset and quota boundary logic).
package aiusage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pepemlv/partysavingrental/internal/testutil/pgtest"
)

// TestUseTokenCrossMonthReset verifies that an admin with 0 tokens left from a previous month
// is automatically reset and the request succeeds (leaving 99 tokens).
func TestUseTokenCrossMonthReset(t *testing.T) {
	svc, store := setupTestService(t)
	ctx := context.Background()

	_, err := store.db.Exec(ctx, "INSERT INTO ai_usage VALUES ('user_reset', 0, '2000-01')")
	require.NoError(t, err)

	require.NoError(t, svc.UseToken(ctx, "user_reset"))

	remaining, err := svc.Remaining(ctx, "user_reset")
	require.NoError(t, err)
	assert.Equal(t, DefaultTokens-1, remaining)
}

// TestUseTokenInsufficientCheck verifies that an admin with 0 tokens in the current month is blocked.
func TestUseTokenInsufficientCheck(t *testing.T) {
	svc, store := setupTestService(t)
	ctx := context.Background()

	_, err := store.db.Exec(ctx, "INSERT INTO ai_usage (uid, tokens_remaining, last_reset_month) VALUES ('user_zero', 0, $1)",
		time.Now().UTC().Format("2006-01"))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.UseToken(ctx, "user_zero"), ErrInsufficientTokens)
}

// TestUseTokenNewUser verifies that an admin absent from the table is initialised on first call.
func TestUseTokenNewUser(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	remaining, err := svc.Remaining(ctx, "user_new")
	require.NoError(t, err)
	assert.Equal(t, DefaultTokens, remaining)

	require.NoError(t, svc.UseToken(ctx, "user_new"))

	remaining, err = svc.Remaining(ctx, "user_new")
	require.NoError(t, err)
	assert.Equal(t, DefaultTokens-1, remaining)
}

func setupTestService(t *testing.T) (*Service, *Store) {
	t.Helper()
	store := NewStore(pgtest.New(t))
	return NewService(store), store
}
