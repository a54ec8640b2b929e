package repositories

import (
	"context"
	"io"
)

// ReceiptStore is the blob store holding receipt attachments. Keys are opaque
// locators chosen by the caller; the store never interprets them beyond
// rejecting path escapes.
type ReceiptStore interface {
	// Save writes a blob under key, overwriting any existing content.
	Save(ctx context.Context, key string, r io.Reader) error

	// Open returns a reader for the blob under key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the blob under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
