// internal/storage/archive/interface.go
package archive

import "context"

// Archive defines the interface for report archive backends.
// Paths are slash-separated and relative to the archive root,
// e.g. "daily/2024-03-04.json" or "monthly/2024-03.txt".
type Archive interface {
	// Store writes a rendered document at the given path,
	// replacing any previous version.
	Store(ctx context.Context, path string, data []byte) error

	// Load retrieves a previously stored document.
	Load(ctx context.Context, path string) ([]byte, error)

	// List returns all paths under the prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists reports whether a document exists at the given path.
	Exists(ctx context.Context, path string) (bool, error)
}
