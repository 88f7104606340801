// Package collector runs the per-organization collection cycle: teams,
// seats, metrics, usage conversion, adoption scoring, and the upserts that
// land all of it in the document store.
package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/copilot-pulse/backend/config"
	"github.com/copilot-pulse/backend/internal/adoption"
	"github.com/copilot-pulse/backend/internal/docstore"
	"github.com/copilot-pulse/backend/internal/githubapi"
	"github.com/copilot-pulse/backend/internal/identity"
	"github.com/copilot-pulse/backend/internal/models"
	"github.com/copilot-pulse/backend/internal/seats"
	"github.com/copilot-pulse/backend/internal/snapshot"
	"github.com/copilot-pulse/backend/internal/teams"
	"github.com/copilot-pulse/backend/internal/usage"
)

// MetricsSource is the slice of the GitHub API the cycle consumes;
// *githubapi.Client implements it.
type MetricsSource interface {
	ListTeams(ctx context.Context, org models.OrgRef) ([]models.TeamNode, error)
	BillingSettings(ctx context.Context, org models.OrgRef) (models.BillingSettings, error)
	ListSeats(ctx context.Context, org models.OrgRef) (models.SeatsPage, error)
	OrgMetrics(ctx context.Context, org models.OrgRef) ([]models.MetricsDay, error)
	TeamMetrics(ctx context.Context, org models.OrgRef, teamSlug string) ([]models.MetricsDay, error)
	LatestUserMetrics(ctx context.Context, org models.OrgRef) ([]models.UserMetricRow, error)
}

// Publisher pushes cycle events to the realtime feed; *realtime.RedisPubSub
// implements it.
type Publisher interface {
	PublishOrgEvent(orgSlug, event string, payload []byte) error
}

// Stats counts what one cycle wrote, per index kind.
type Stats struct {
	Teams           int `json:"teams"`
	SeatSettings    int `json:"seat_settings"`
	SeatAssignments int `json:"seat_assignments"`
	UsageTotals     int `json:"usage_totals"`
	Breakdowns      int `json:"breakdowns"`
	ChatBreakdowns  int `json:"chat_breakdowns"`
	UserMetrics     int `json:"user_metrics"`
	AdoptionRows    int `json:"adoption_rows"`
	RecordErrors    int `json:"record_errors"`
}

// Cycle orchestrates one organization's collection run.
type Cycle struct {
	source    MetricsSource
	writer    *docstore.Writer
	indexes   config.IndexConfig
	snap      *snapshot.Writer
	publisher Publisher
	topN      int
	logger    *zap.Logger
	now       func() time.Time
}

// NewCycle creates a collection cycle. publisher and snap may be nil.
func NewCycle(source MetricsSource, writer *docstore.Writer, indexes config.IndexConfig, snap *snapshot.Writer, publisher Publisher, topN int, logger *zap.Logger) *Cycle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cycle{
		source:    source,
		writer:    writer,
		indexes:   indexes,
		snap:      snap,
		publisher: publisher,
		topN:      topN,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes the full cycle for one organization. Per-record write failures
// are counted and skipped; an auth failure or a stage-level API failure aborts
// the run.
func (c *Cycle) Run(ctx context.Context, org models.OrgRef) (Stats, error) {
	var stats Stats
	log := c.logger.With(zap.String("organization_slug", org.Slug), zap.String("slug_type", org.SlugType()))
	log.Info("collection cycle started")
	c.publish(org, "cycle_started", map[string]any{"organization_slug": org.Slug})

	hierarchy, err := c.collectTeams(ctx, org, log, &stats)
	if err != nil {
		return c.fail(org, stats, err)
	}
	if err := c.collectSeats(ctx, org, log, &stats); err != nil {
		return c.fail(org, stats, err)
	}
	if err := c.collectUsage(ctx, org, hierarchy, log, &stats); err != nil {
		return c.fail(org, stats, err)
	}
	if err := c.collectAdoption(ctx, org, log, &stats); err != nil {
		return c.fail(org, stats, err)
	}

	log.Info("collection cycle completed",
		zap.Int("usage_totals", stats.UsageTotals),
		zap.Int("adoption_rows", stats.AdoptionRows),
		zap.Int("record_errors", stats.RecordErrors))
	c.publish(org, "cycle_completed", stats)
	return stats, nil
}

// RebuildAdoption recomputes the leaderboard from rows already in the store.
func (c *Cycle) RebuildAdoption(ctx context.Context, org models.OrgRef, rows []models.UserMetricRow) (Stats, error) {
	var stats Stats
	log := c.logger.With(zap.String("organization_slug", org.Slug))
	if len(rows) == 0 {
		log.Warn("no stored user metrics, nothing to rebuild")
		return stats, nil
	}
	if err := c.writeAdoption(ctx, org, rows, log, &stats); err != nil {
		return c.fail(org, stats, err)
	}
	log.Info("adoption leaderboard rebuilt", zap.Int("adoption_rows", stats.AdoptionRows))
	c.publish(org, "adoption_rebuilt", stats)
	return stats, nil
}

func (c *Cycle) collectTeams(ctx context.Context, org models.OrgRef, log *zap.Logger, stats *Stats) ([]models.TeamNode, error) {
	listed, err := c.source.ListTeams(ctx, org)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	hierarchy, err := teams.BuildHierarchy(listed)
	if err != nil {
		return nil, fmt.Errorf("build hierarchy: %w", err)
	}
	stats.Teams = len(hierarchy)
	c.snap.Dump(ctx, org.Slug, "teams", hierarchy)
	c.publish(org, "teams_collected", map[string]any{"count": len(hierarchy)})
	log.Info("teams collected", zap.Int("count", len(hierarchy)))
	return hierarchy, nil
}

func (c *Cycle) collectSeats(ctx context.Context, org models.OrgRef, log *zap.Logger, stats *Stats) error {
	page, err := c.source.ListSeats(ctx, org)
	if err != nil {
		if errors.Is(err, githubapi.ErrUnauthorized) {
			return fmt.Errorf("list seats: %w", err)
		}
		// Seats are optional for targets without a billing scope.
		log.Warn("seat listing unavailable, skipping seats", zap.Error(err))
		return nil
	}
	now := c.now()
	c.snap.Dump(ctx, org.Slug, "seats", page)

	var settingsDoc map[string]any
	settings, err := c.source.BillingSettings(ctx, org)
	switch {
	case err == nil && len(settings.SeatBreakdown) > 0:
		settingsDoc = seats.FlattenSettings(settings, org.Slug, now)
	case githubapi.IsNotFound(err) || (err == nil && len(settings.SeatBreakdown) == 0):
		settingsDoc = seats.DeriveSettings(page, org.Slug, now)
	default:
		return fmt.Errorf("billing settings: %w", err)
	}
	if err := c.writer.Upsert(ctx, c.indexes.SeatInfo, settingsDoc, nil); err != nil {
		log.Warn("seat settings upsert failed", zap.Error(err))
		stats.RecordErrors++
	} else {
		stats.SeatSettings++
	}

	// A refresh that lost today's activity flag must not clobber it.
	condition := map[string]any{"is_active_today": 1}
	for _, doc := range seats.FlattenAssignments(page, org.Slug, now) {
		if err := c.writer.Upsert(ctx, c.indexes.SeatAssignments, doc, condition); err != nil {
			log.Warn("seat assignment upsert failed", zap.Error(err))
			stats.RecordErrors++
			continue
		}
		stats.SeatAssignments++
	}
	c.publish(org, "seats_collected", map[string]any{"count": stats.SeatAssignments})
	log.Info("seats collected", zap.Int("assignments", stats.SeatAssignments))
	return nil
}

func (c *Cycle) collectUsage(ctx context.Context, org models.OrgRef, hierarchy []models.TeamNode, log *zap.Logger, stats *Stats) error {
	// Org-level metrics land under the org's own slug so dashboards have a
	// rollup row next to the per-team ones.
	orgDays, err := c.source.OrgMetrics(ctx, org)
	if err != nil {
		if errors.Is(err, githubapi.ErrUnauthorized) {
			return fmt.Errorf("org metrics: %w", err)
		}
		log.Warn("org metrics unavailable", zap.Error(err))
	} else {
		c.snap.Dump(ctx, org.Slug, "metrics_org", orgDays)
		c.writeUsage(ctx, usage.ConvertMetrics(orgDays), org, org.Slug, "organization", log, stats)
	}

	for i := range hierarchy {
		team := &hierarchy[i]
		days, err := c.source.TeamMetrics(ctx, org, team.Slug)
		if err != nil {
			if errors.Is(err, githubapi.ErrUnauthorized) {
				return fmt.Errorf("team metrics: %w", err)
			}
			// Teams under the API's active-user floor 404; skip quietly.
			if !githubapi.IsNotFound(err) {
				log.Warn("team metrics failed", zap.String("team_slug", team.Slug), zap.Error(err))
				stats.RecordErrors++
			}
			continue
		}
		if len(days) == 0 {
			continue
		}
		c.snap.Dump(ctx, org.Slug, "metrics_"+team.Slug, days)
		c.writeUsage(ctx, usage.ConvertMetrics(days), org, team.Slug, team.PositionInTree, log, stats)
	}
	c.publish(org, "usage_collected", map[string]any{"totals": stats.UsageTotals})
	log.Info("usage collected",
		zap.Int("totals", stats.UsageTotals),
		zap.Int("breakdowns", stats.Breakdowns),
		zap.Int("chat_breakdowns", stats.ChatBreakdowns))
	return nil
}

func (c *Cycle) writeUsage(ctx context.Context, days []models.UsageDay, org models.OrgRef, teamSlug, position string, log *zap.Logger, stats *Stats) {
	splitter := usage.NewSplitter(days, org.Slug, teamSlug, position)
	for _, doc := range splitter.TotalDocs() {
		if err := c.writer.Upsert(ctx, c.indexes.UsageTotal, doc, nil); err != nil {
			log.Warn("usage total upsert failed", zap.String("team_slug", teamSlug), zap.Error(err))
			stats.RecordErrors++
			continue
		}
		stats.UsageTotals++
	}
	for _, doc := range splitter.BreakdownDocs() {
		if err := c.writer.Upsert(ctx, c.indexes.UsageBreakdown, doc, nil); err != nil {
			stats.RecordErrors++
			continue
		}
		stats.Breakdowns++
	}
	for _, doc := range splitter.BreakdownChatDocs() {
		if err := c.writer.Upsert(ctx, c.indexes.UsageBreakdownChat, doc, nil); err != nil {
			stats.RecordErrors++
			continue
		}
		stats.ChatBreakdowns++
	}
}

func (c *Cycle) collectAdoption(ctx context.Context, org models.OrgRef, log *zap.Logger, stats *Stats) error {
	rows, err := c.source.LatestUserMetrics(ctx, org)
	if err != nil {
		if errors.Is(err, githubapi.ErrUnauthorized) {
			return fmt.Errorf("user metrics: %w", err)
		}
		log.Warn("user metrics report unavailable, skipping adoption", zap.Error(err))
		return nil
	}
	if len(rows) == 0 {
		log.Info("user metrics report empty, skipping adoption")
		return nil
	}
	c.snap.Dump(ctx, org.Slug, "user_metrics", rows)

	for i := range rows {
		rows[i].OrganizationSlug = org.Slug
		doc := rows[i].Doc()
		doc["unique_hash"] = identity.Hash(doc, identity.UserMetricKeys)
		if err := c.writer.Upsert(ctx, c.indexes.UserMetrics, doc, nil); err != nil {
			stats.RecordErrors++
			continue
		}
		stats.UserMetrics++
	}
	return c.writeAdoption(ctx, org, rows, log, stats)
}

func (c *Cycle) writeAdoption(ctx context.Context, org models.OrgRef, rows []models.UserMetricRow, log *zap.Logger, stats *Stats) error {
	summaries := adoption.BuildLeaderboard(rows, org, c.topN)
	c.snap.Dump(ctx, org.Slug, "adoption", summaries)
	for i := range summaries {
		if err := c.writer.Upsert(ctx, c.indexes.UserAdoption, summaries[i].Doc(), nil); err != nil {
			log.Warn("adoption upsert failed", zap.String("user_login", summaries[i].UserLogin), zap.Error(err))
			stats.RecordErrors++
			continue
		}
		stats.AdoptionRows++
	}
	c.publish(org, "adoption_scored", map[string]any{"rows": stats.AdoptionRows})
	return nil
}

func (c *Cycle) fail(org models.OrgRef, stats Stats, err error) (Stats, error) {
	c.publish(org, "cycle_failed", map[string]any{
		"organization_slug": org.Slug,
		"error":             err.Error(),
	})
	return stats, err
}

func (c *Cycle) publish(org models.OrgRef, event string, payload any) {
	if c.publisher == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := c.publisher.PublishOrgEvent(org.Slug, event, data); err != nil {
		c.logger.Debug("event publish failed", zap.String("event", event), zap.Error(err))
	}
}
