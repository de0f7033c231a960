package blob

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	err := store.Put(ctx, "t1/wi1/report.pdf", "application/pdf", strings.NewReader("content"))
	require.NoError(t, err)

	ok, err := store.Exists(ctx, "t1/wi1/report.pdf")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.Delete(ctx, "t1/wi1/report.pdf"))
	ok, err = store.Exists(ctx, "t1/wi1/report.pdf")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreDeleteAbsentKey(t *testing.T) {
	store := NewMemory()
	assert.NoError(t, store.Delete(context.Background(), "never-stored"))
}

func TestMemoryStoreInjectedDeleteFailure(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	require.NoError(t, store.Put(ctx, "k", "", strings.NewReader("x")))

	boom := errors.New("backend unavailable")
	store.FailDelete = boom

	err := store.Delete(ctx, "k")
	require.ErrorIs(t, err, boom)

	// The object survives a failed delete.
	ok, err := store.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}
