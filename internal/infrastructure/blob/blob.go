// Package blob abstracts the external storage holding attachment
// bytes. Rows in the attachments table carry a storage key; the store
// resolves keys to objects. The purge sweeper releases objects before
// erasing rows, best-effort: a stray object is recoverable garbage, a
// dangling row is not.
package blob

import (
	"context"
	"io"
)

// Store is the blob storage surface attachments use.
type Store interface {
	// Put writes an object under key, overwriting any previous version.
	Put(ctx context.Context, key string, contentType string, body io.Reader) error

	// Delete removes the object under key. Deleting an absent key is
	// not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)
}
