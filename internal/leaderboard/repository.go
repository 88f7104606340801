// Package leaderboard serves the read API over the document store: adoption
// rankings, team hierarchy, seats and usage per organization.
package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/copilot-pulse/backend/config"
	"github.com/copilot-pulse/backend/internal/models"
)

// Repository runs JSONB list queries against the documents table, with a
// short-lived Redis cache in front of the hot leaderboard reads.
type Repository struct {
	pool     *pgxpool.Pool
	cache    *redis.Client
	indexes  config.IndexConfig
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewRepository creates a leaderboard repository. A nil cache disables
// caching.
func NewRepository(pool *pgxpool.Pool, cache *redis.Client, indexes config.IndexConfig, cacheTTLSec int, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{
		pool:     pool,
		cache:    cache,
		indexes:  indexes,
		cacheTTL: time.Duration(cacheTTLSec) * time.Second,
		logger:   logger,
	}
}

// Adoption returns the latest adoption leaderboard for an org: ranked rows
// first, then the others bucket, then unranked users by score.
func (r *Repository) Adoption(ctx context.Context, orgSlug string) ([]map[string]any, error) {
	cacheKey := "leaderboard:adoption:" + orgSlug
	if docs, ok := r.fromCache(ctx, cacheKey); ok {
		return docs, nil
	}

	const q = `
		SELECT body FROM documents
		WHERE index_name = $1 AND body->>'organization_slug' = $2
		  AND body->>'report_end_day' = (
			SELECT MAX(body->>'report_end_day') FROM documents
			WHERE index_name = $1 AND body->>'organization_slug' = $2
		  )
		ORDER BY (body->>'rank')::int ASC NULLS LAST,
		         (body->>'adoption_pct')::float DESC`
	docs, err := r.queryDocs(ctx, q, r.indexes.UserAdoption, orgSlug)
	if err != nil {
		return nil, fmt.Errorf("adoption query: %w", err)
	}
	r.toCache(ctx, cacheKey, docs)
	return docs, nil
}

// Teams returns the org's team hierarchy view from the latest usage day:
// one row per team with position and slug.
func (r *Repository) Teams(ctx context.Context, orgSlug string) ([]map[string]any, error) {
	cacheKey := "leaderboard:teams:" + orgSlug
	if docs, ok := r.fromCache(ctx, cacheKey); ok {
		return docs, nil
	}

	const q = `
		SELECT DISTINCT ON (body->>'team_slug')
		       jsonb_build_object(
		           'team_slug', body->>'team_slug',
		           'position_in_tree', body->>'position_in_tree',
		           'day', body->>'day',
		           'total_active_users', body->'total_active_users'
		       )
		FROM documents
		WHERE index_name = $1 AND body->>'organization_slug' = $2
		ORDER BY body->>'team_slug', body->>'day' DESC`
	docs, err := r.queryDocs(ctx, q, r.indexes.UsageTotal, orgSlug)
	if err != nil {
		return nil, fmt.Errorf("teams query: %w", err)
	}
	r.toCache(ctx, cacheKey, docs)
	return docs, nil
}

// Seats returns the latest day's seat assignments for an org.
func (r *Repository) Seats(ctx context.Context, orgSlug string) ([]map[string]any, error) {
	cacheKey := "leaderboard:seats:" + orgSlug
	if docs, ok := r.fromCache(ctx, cacheKey); ok {
		return docs, nil
	}

	const q = `
		SELECT body FROM documents
		WHERE index_name = $1 AND body->>'organization_slug' = $2
		  AND body->>'day' = (
			SELECT MAX(body->>'day') FROM documents
			WHERE index_name = $1 AND body->>'organization_slug' = $2
		  )
		ORDER BY body->>'assignee_login'`
	docs, err := r.queryDocs(ctx, q, r.indexes.SeatAssignments, orgSlug)
	if err != nil {
		return nil, fmt.Errorf("seats query: %w", err)
	}
	r.toCache(ctx, cacheKey, docs)
	return docs, nil
}

// SeatInfo returns the latest seat settings document for an org.
func (r *Repository) SeatInfo(ctx context.Context, orgSlug string) (map[string]any, error) {
	const q = `
		SELECT body FROM documents
		WHERE index_name = $1 AND body->>'organization_slug' = $2
		ORDER BY body->>'day' DESC
		LIMIT 1`
	docs, err := r.queryDocs(ctx, q, r.indexes.SeatInfo, orgSlug)
	if err != nil {
		return nil, fmt.Errorf("seat info query: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

// Usage returns usage total days for an org, optionally filtered to one team,
// newest first, at most limit rows.
func (r *Repository) Usage(ctx context.Context, orgSlug, teamSlug string, limit int) ([]map[string]any, error) {
	if limit <= 0 || limit > 365 {
		limit = 28
	}
	if teamSlug != "" {
		const q = `
			SELECT body FROM documents
			WHERE index_name = $1 AND body->>'organization_slug' = $2
			  AND body->>'team_slug' = $3
			ORDER BY body->>'day' DESC
			LIMIT $4`
		docs, err := r.queryDocs(ctx, q, r.indexes.UsageTotal, orgSlug, teamSlug, limit)
		if err != nil {
			return nil, fmt.Errorf("usage query: %w", err)
		}
		return docs, nil
	}
	const q = `
		SELECT body FROM documents
		WHERE index_name = $1 AND body->>'organization_slug' = $2
		ORDER BY body->>'day' DESC, body->>'team_slug'
		LIMIT $3`
	docs, err := r.queryDocs(ctx, q, r.indexes.UsageTotal, orgSlug, limit)
	if err != nil {
		return nil, fmt.Errorf("usage query: %w", err)
	}
	return docs, nil
}

// LatestUserMetricRows returns the stored user metric rows for the most
// recent reporting window of an org, decoded back into typed rows. The
// adoption rebuild job feeds on this instead of re-hitting the API.
func (r *Repository) LatestUserMetricRows(ctx context.Context, orgSlug string) ([]models.UserMetricRow, error) {
	const q = `
		SELECT body FROM documents
		WHERE index_name = $1 AND body->>'organization_slug' = $2
		  AND COALESCE(body->>'report_end_day', '') = (
			SELECT COALESCE(MAX(body->>'report_end_day'), '') FROM documents
			WHERE index_name = $1 AND body->>'organization_slug' = $2
		  )
		ORDER BY body->>'user_login', body->>'day'`
	rows, err := r.pool.Query(ctx, q, r.indexes.UserMetrics, orgSlug)
	if err != nil {
		return nil, fmt.Errorf("user metrics query: %w", err)
	}
	defer rows.Close()

	var out []models.UserMetricRow
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var row models.UserMetricRow
		if err := json.Unmarshal(body, &row); err != nil {
			return nil, fmt.Errorf("decode user metric row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *Repository) queryDocs(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []map[string]any
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var doc map[string]any
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *Repository) fromCache(ctx context.Context, key string) ([]map[string]any, bool) {
	if r.cache == nil || r.cacheTTL <= 0 {
		return nil, false
	}
	raw, err := r.cache.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var docs []map[string]any
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, false
	}
	return docs, true
}

func (r *Repository) toCache(ctx context.Context, key string, docs []map[string]any) {
	if r.cache == nil || r.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(docs)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, raw, r.cacheTTL).Err(); err != nil {
		r.logger.Debug("cache set failed", zap.String("key", key), zap.Error(err))
	}
}
