package docstore

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultPrimaryKey is the document field holding the content hash identity.
const DefaultPrimaryKey = "unique_hash"

// Writer applies the read-merge-write upsert contract on top of a Store.
type Writer struct {
	store      Store
	primaryKey string
	logger     *zap.Logger
	now        func() time.Time
}

// NewWriter creates a Writer. An empty primaryKey falls back to "unique_hash".
func NewWriter(store Store, primaryKey string, logger *zap.Logger) *Writer {
	if primaryKey == "" {
		primaryKey = DefaultPrimaryKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{store: store, primaryKey: primaryKey, logger: logger, now: time.Now}
}

// Upsert writes one record under its content hash identity.
//
// If a document already exists and updateCondition is non-nil, the condition
// fields are compared against the existing document: when every field matches
// its expected value, those fields are restored from the existing document
// into the outgoing payload before the merge, protecting observations a less
// informative refresh would otherwise clobber (e.g. is_active_today=1). Any
// mismatch means the new payload wins outright.
//
// A missing document falls back to create, so the write never surfaces a
// not-found to the caller. The payload is always stamped with a fresh
// last_updated_at before it goes out.
func (w *Writer) Upsert(ctx context.Context, index string, record Doc, updateCondition map[string]any) error {
	id, ok := record[w.primaryKey].(string)
	if !ok || id == "" {
		return fmt.Errorf("record missing %s", w.primaryKey)
	}
	record["last_updated_at"] = w.now().UTC().Format(time.RFC3339)

	existing, err := w.store.Get(ctx, index, id)
	if err != nil {
		if err == ErrNotFound {
			if err := w.store.Index(ctx, index, id, record); err != nil {
				return fmt.Errorf("index %s/%s: %w", index, id, err)
			}
			w.logger.Debug("document created", zap.String("index", index), zap.String("id", id))
			return nil
		}
		return fmt.Errorf("get %s/%s: %w", index, id, err)
	}

	if updateCondition != nil {
		preserve := true
		for field, expected := range updateCondition {
			got, ok := existing[field]
			if !ok || !looselyEqual(got, expected) {
				preserve = false
				break
			}
		}
		if preserve {
			for field := range updateCondition {
				if v, ok := existing[field]; ok {
					record[field] = v
				}
			}
			w.logger.Debug("preserving fields on update",
				zap.String("index", index), zap.String("id", id), zap.Int("fields", len(updateCondition)))
		}
	}

	if err := w.store.Update(ctx, index, id, record); err != nil {
		return fmt.Errorf("update %s/%s: %w", index, id, err)
	}
	w.logger.Debug("document updated", zap.String("index", index), zap.String("id", id))
	return nil
}

// looselyEqual compares condition values across JSON round-trips, where an
// int written earlier comes back as float64.
func looselyEqual(a, b any) bool {
	if a == b {
		return true
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}
