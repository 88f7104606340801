package collector

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/copilot-pulse/backend/config"
	"github.com/copilot-pulse/backend/internal/docstore"
	"github.com/copilot-pulse/backend/internal/githubapi"
	"github.com/copilot-pulse/backend/internal/models"
)

var testIndexes = config.IndexConfig{
	SeatInfo:           "seat_info",
	SeatAssignments:    "seat_assignments",
	UsageTotal:         "usage_total",
	UsageBreakdown:     "usage_breakdown",
	UsageBreakdownChat: "usage_breakdown_chat",
	UserMetrics:        "user_metrics",
	UserAdoption:       "user_adoption",
}

// fakeSource serves a two-team org with metrics for one team only.
type fakeSource struct{}

func (fakeSource) ListTeams(_ context.Context, _ models.OrgRef) ([]models.TeamNode, error) {
	return []models.TeamNode{
		{ID: 1, Slug: "platform"},
		{ID: 2, Slug: "backend", Parent: &models.TeamRef{ID: 1, Slug: "platform"}},
	}, nil
}

func (fakeSource) BillingSettings(_ context.Context, _ models.OrgRef) (models.BillingSettings, error) {
	return models.BillingSettings{SeatBreakdown: map[string]int{"total": 2, "active_this_cycle": 2}}, nil
}

func (fakeSource) ListSeats(_ context.Context, _ models.OrgRef) (models.SeatsPage, error) {
	return models.SeatsPage{
		TotalSeats: 2,
		Seats: []models.Seat{
			{Assignee: &models.Actor{Login: "octocat"}, AssigningTeam: &models.TeamRef{ID: 2, Slug: "backend"}},
			{Assignee: &models.Actor{Login: "hubot"}},
		},
	}, nil
}

func metricsDay(suggestions int) models.MetricsDay {
	return models.MetricsDay{
		Date:             "2025-06-01",
		TotalActiveUsers: 5,
		IDECodeCompletions: &models.IDECodeCompletions{
			Editors: []models.CompletionEditor{{
				Name: "vscode",
				Models: []models.CompletionModel{{
					Name: "default",
					Languages: []models.CompletionLanguage{
						{Name: "go", TotalCodeSuggestions: suggestions, TotalCodeAcceptances: suggestions / 2},
					},
				}},
			}},
		},
	}
}

func (fakeSource) OrgMetrics(_ context.Context, _ models.OrgRef) ([]models.MetricsDay, error) {
	return []models.MetricsDay{metricsDay(100)}, nil
}

func (fakeSource) TeamMetrics(_ context.Context, _ models.OrgRef, teamSlug string) ([]models.MetricsDay, error) {
	if teamSlug == "backend" {
		return []models.MetricsDay{metricsDay(40)}, nil
	}
	// Below the API's active-user floor.
	return nil, &githubapi.StatusError{Status: http.StatusNotFound, URL: "/metrics"}
}

func (fakeSource) LatestUserMetrics(_ context.Context, _ models.OrgRef) ([]models.UserMetricRow, error) {
	return []models.UserMetricRow{
		{UserLogin: "octocat", Day: "2025-06-01", ReportStartDay: "2025-05-05", ReportEndDay: "2025-06-01",
			UserInitiatedInteractionCount: 20, CodeGenerationActivityCount: 10, CodeAcceptanceActivityCount: 5},
		{UserLogin: "hubot", Day: "2025-06-01", ReportStartDay: "2025-05-05", ReportEndDay: "2025-06-01",
			UserInitiatedInteractionCount: 4, CodeGenerationActivityCount: 2, CodeAcceptanceActivityCount: 1},
	}, nil
}

// eventRecorder collects published cycle events.
type eventRecorder struct {
	events []string
}

func (r *eventRecorder) PublishOrgEvent(_, event string, _ []byte) error {
	r.events = append(r.events, event)
	return nil
}

func newTestCycle(store *docstore.Memory, rec *eventRecorder) *Cycle {
	writer := docstore.NewWriter(store, "", zap.NewNop())
	// A nil *eventRecorder must become a nil Publisher, not a typed nil the
	// cycle would try to call.
	var pub Publisher
	if rec != nil {
		pub = rec
	}
	return NewCycle(fakeSource{}, writer, testIndexes, nil, pub, 10, zap.NewNop())
}

func TestCycleRunWithoutPublisher(t *testing.T) {
	cycle := newTestCycle(docstore.NewMemory(), nil)
	stats, err := cycle.Run(context.Background(), models.OrgRef{Slug: "acme"})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Teams)
}

func TestCycleRunWritesAllIndexes(t *testing.T) {
	store := docstore.NewMemory()
	rec := &eventRecorder{}
	cycle := newTestCycle(store, rec)

	stats, err := cycle.Run(context.Background(), models.OrgRef{Slug: "acme"})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Teams)
	assert.Equal(t, 1, stats.SeatSettings)
	assert.Equal(t, 2, stats.SeatAssignments)
	// One org-level rollup plus the backend team; platform had no metrics.
	assert.Equal(t, 2, stats.UsageTotals)
	assert.Equal(t, 2, stats.Breakdowns)
	assert.Equal(t, 2, stats.UserMetrics)
	// Two users, both inside top N: no Others bucket.
	assert.Equal(t, 2, stats.AdoptionRows)
	assert.Equal(t, 0, stats.RecordErrors)

	assert.Equal(t, 1, store.Count("seat_info"))
	assert.Equal(t, 2, store.Count("seat_assignments"))
	assert.Equal(t, 2, store.Count("usage_total"))
	assert.Equal(t, 2, store.Count("usage_breakdown"))
	assert.Equal(t, 2, store.Count("user_metrics"))
	assert.Equal(t, 2, store.Count("user_adoption"))

	assert.Contains(t, rec.events, "cycle_started")
	assert.Contains(t, rec.events, "teams_collected")
	assert.Contains(t, rec.events, "adoption_scored")
	assert.Contains(t, rec.events, "cycle_completed")
	assert.NotContains(t, rec.events, "cycle_failed")
}

func TestCycleRerunIsIdempotent(t *testing.T) {
	store := docstore.NewMemory()
	cycle := newTestCycle(store, nil)
	ctx := context.Background()
	org := models.OrgRef{Slug: "acme"}

	_, err := cycle.Run(ctx, org)
	require.NoError(t, err)
	_, err = cycle.Run(ctx, org)
	require.NoError(t, err)

	// Same identities, same document counts.
	assert.Equal(t, 2, store.Count("usage_total"))
	assert.Equal(t, 2, store.Count("usage_breakdown"))
	assert.Equal(t, 2, store.Count("seat_assignments"))
	assert.Equal(t, 2, store.Count("user_adoption"))
}

func TestCycleAdoptionDocsCarryIdentity(t *testing.T) {
	store := docstore.NewMemory()
	cycle := newTestCycle(store, nil)
	_, err := cycle.Run(context.Background(), models.OrgRef{Slug: "acme"})
	require.NoError(t, err)

	for _, doc := range store.All("user_adoption") {
		assert.NotEmpty(t, doc["unique_hash"])
		assert.Equal(t, "acme", doc["organization_slug"])
		assert.NotEmpty(t, doc["last_updated_at"])
	}
}

func TestRebuildAdoptionFromStoredRows(t *testing.T) {
	store := docstore.NewMemory()
	rec := &eventRecorder{}
	cycle := newTestCycle(store, rec)

	rows, err := fakeSource{}.LatestUserMetrics(context.Background(), models.OrgRef{Slug: "acme"})
	require.NoError(t, err)

	stats, err := cycle.RebuildAdoption(context.Background(), models.OrgRef{Slug: "acme"}, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.AdoptionRows)
	assert.Equal(t, 2, store.Count("user_adoption"))
	assert.Contains(t, rec.events, "adoption_rebuilt")
}

func TestRebuildAdoptionEmptyRowsIsNoop(t *testing.T) {
	store := docstore.NewMemory()
	cycle := newTestCycle(store, nil)
	stats, err := cycle.RebuildAdoption(context.Background(), models.OrgRef{Slug: "acme"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.AdoptionRows)
	assert.Equal(t, 0, store.Count("user_adoption"))
}
