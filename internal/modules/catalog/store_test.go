package catalog

import (
	"context"
	"os"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupFirestore connects to the Firestore emulator; tests skip without FIRESTORE_EMULATOR_HOST.
func setupFirestore(t *testing.T) *firestore.Client {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	client, err := firestore.NewClient(context.Background(), "psr-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestStore_CityLifecycle(t *testing.T) {
	store := NewStore(setupFirestore(t))
	ctx := context.Background()
	c := City{ID: "test-durham", Name: "Durham", State: "NC", PickupAddress: "1 Main St", Latitude: 35.99, Longitude: -78.9}
	_ = store.DeleteCity(ctx, c.ID)

	require.NoError(t, store.CreateCity(ctx, c))
	assert.ErrorIs(t, store.CreateCity(ctx, c), ErrAlreadyExists)

	c.PickupAddress = "2 Main St"
	require.NoError(t, store.UpdateCity(ctx, c))
	got, err := store.GetCity(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "2 Main St", got.PickupAddress)

	require.NoError(t, store.DeleteCity(ctx, c.ID))
	_, err = store.GetCity(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.UpdateCity(ctx, c), ErrNotFound)
	assert.ErrorIs(t, store.DeleteCity(ctx, c.ID), ErrNotFound)
}
