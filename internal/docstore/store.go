// Package docstore defines the document store contract and the upsert
// discipline every sink writes through.
package docstore

import (
	"context"
	"errors"
)

// Doc is one document as stored: a flat JSON object.
type Doc = map[string]any

// ErrNotFound is returned by Get and Update when no document exists for the id.
var ErrNotFound = errors.New("document not found")

// Store is the abstract document store: documents addressed by (index, id),
// where the id is always a content hash computed by the caller.
type Store interface {
	// Get returns the document or ErrNotFound.
	Get(ctx context.Context, index, id string) (Doc, error)
	// Update merges the partial document into an existing one; ErrNotFound if absent.
	Update(ctx context.Context, index, id string, doc Doc) error
	// Index creates (or fully replaces) the document under the id.
	Index(ctx context.Context, index, id string, doc Doc) error
}
