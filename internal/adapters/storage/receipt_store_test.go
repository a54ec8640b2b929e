package storage_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expenseflow/expense_flow_app/internal/adapters/storage"
	"github.com/expenseflow/expense_flow_app/internal/apperrors"
)

func newStore(t *testing.T) *storage.LocalReceiptStore {
	t.Helper()
	store, err := storage.NewLocalReceiptStore(t.TempDir(), slog.Default())
	require.NoError(t, err)
	return store
}

func TestLocalReceiptStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	err := store.Save(ctx, "rep-1/receipt.jpg", strings.NewReader("jpegdata"))
	require.NoError(t, err)

	rc, err := store.Open(ctx, "rep-1/receipt.jpg")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "jpegdata", string(data))
}

func TestLocalReceiptStore_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.Save(ctx, "rep-1/a.pdf", strings.NewReader("x")))
	require.NoError(t, store.Delete(ctx, "rep-1/a.pdf"))
	require.NoError(t, store.Delete(ctx, "rep-1/a.pdf"))

	_, err := store.Open(ctx, "rep-1/a.pdf")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLocalReceiptStore_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	for _, key := range []string{"../outside.txt", "/etc/passwd", "a/../../b", ""} {
		err := store.Save(ctx, key, strings.NewReader("x"))
		assert.ErrorIs(t, err, apperrors.ErrValidation, "key %q", key)
	}
}
