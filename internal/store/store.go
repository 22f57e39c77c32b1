// Package store persists the configuration document and serialises its updates.
//
// A Store only moves bytes and etags. Manager decodes, migrates and caches the
// document and runs every update as one load-mutate-save under a mutex, using the
// etag as a compare-and-swap so writers outside this process are not overwritten.
package store

import (
	"context"
	"errors"
)

var (
	// ErrConflict is returned when the stored document changed since it was loaded.
	ErrConflict = errors.New("configuration document was changed concurrently")
	// ErrSaveFailed is returned when the document could not be written.
	ErrSaveFailed = errors.New("failed to save configuration document")
)

// Store loads and saves the raw configuration document.
type Store interface {
	// Load returns the stored bytes and their etag. A missing document yields nil and "".
	Load(ctx context.Context) ([]byte, string, error)
	// Save writes raw if the stored etag still equals expectedETag and returns the new etag.
	Save(ctx context.Context, raw []byte, expectedETag string) (string, error)
}
