package assets

import "context"

// Repository is a content-keyed local store for downloaded image blobs. Its
// lifecycle is independent from the dataset snapshot. Keys are opaque
// namespaced strings (see models.DriveAssetKey / models.NewPendingAssetKey).
//
// Any in-memory handle a caller derived from a blob must be released by the
// caller before the entry is deleted or replaced; the repository does not
// track handles.
type Repository interface {
	// Get returns the blob stored under key, or common.ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores the blob under key, replacing any previous content.
	Put(ctx context.Context, key string, blob []byte) error

	// Delete removes the entry. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an entry is cached under key.
	Exists(ctx context.Context, key string) (bool, error)

	// Rename moves a blob to a new key, replacing any previous content
	// there. Used to promote a pending-upload entry to its server-assigned
	// key during reconciliation.
	Rename(ctx context.Context, oldKey, newKey string) error
}
