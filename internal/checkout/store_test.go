package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/lokapasar/checkout/pkg/errors"
)

func storedSession() *Session {
	return &Session{
		ID:           "sess-1",
		PurchaseCode: "PUR-1",
		AdminFeeIDR:  1000,
		Groups:       BuildStoreGroups(sampleItems()),
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, storedSession()))

	found, err := store.Find(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "PUR-1", found.PurchaseCode)
	require.Len(t, found.Groups, 2)

	// Snapshots are clones; mutating one must not leak into the store.
	found.Groups[0].AddressID = "mutated"
	again, err := store.Find(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, again.Groups[0].AddressID)
}

func TestMemoryStoreFindMissing(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore(time.Hour)
	_, err := store.Find(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore(time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, storedSession()))
	_, err := store.Find(ctx, "sess-1")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = store.Find(ctx, "sess-1")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestMemoryStoreDelete(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, storedSession()))
	require.NoError(t, store.Delete(ctx, "sess-1"))
	_, err := store.Find(ctx, "sess-1")
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	// Deleting an absent session is not an error.
	require.NoError(t, store.Delete(ctx, "sess-1"))
}

func TestMemoryStoreRejectsEmptyID(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore(time.Hour)
	err := store.Save(context.Background(), &Session{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}
