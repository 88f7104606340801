package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores documents in a single JSONB table keyed by (index, id).
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres-backed document store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Get returns the document body or ErrNotFound.
func (p *Postgres) Get(ctx context.Context, index, id string) (Doc, error) {
	const q = `SELECT body FROM documents WHERE index_name = $1 AND doc_id = $2`
	var body []byte
	err := p.pool.QueryRow(ctx, q, index, id).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select document: %w", err)
	}
	var doc Doc
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// Update merges the partial document into the stored body (JSONB ||).
func (p *Postgres) Update(ctx context.Context, index, id string, doc Doc) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	const q = `UPDATE documents SET body = body || $3::jsonb, updated_at = NOW()
		WHERE index_name = $1 AND doc_id = $2`
	tag, err := p.pool.Exec(ctx, q, index, id, body)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Index creates the document, replacing any existing body under the id.
func (p *Postgres) Index(ctx context.Context, index, id string, doc Doc) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	const q = `INSERT INTO documents (index_name, doc_id, body)
		VALUES ($1, $2, $3)
		ON CONFLICT (index_name, doc_id) DO UPDATE SET body = EXCLUDED.body, updated_at = NOW()`
	if _, err := p.pool.Exec(ctx, q, index, id, body); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}
