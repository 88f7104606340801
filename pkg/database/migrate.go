package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// documentsDDL is the whole schema: one JSONB table holds every index, keyed
// by (index_name, doc_id). GIN indexing keeps the leaderboard list queries
// off sequential scans.
const documentsDDL = `
CREATE TABLE IF NOT EXISTS documents (
	index_name TEXT NOT NULL,
	doc_id     TEXT NOT NULL,
	body       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (index_name, doc_id)
);
CREATE INDEX IF NOT EXISTS idx_documents_body ON documents USING GIN (body jsonb_path_ops);
CREATE INDEX IF NOT EXISTS idx_documents_org ON documents (index_name, (body->>'organization_slug'));
`

// Migrate applies the document store schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	if _, err := pool.Exec(ctx, documentsDDL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	logger.Info("document store schema ready")
	return nil
}
