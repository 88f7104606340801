package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copilot-pulse/backend/internal/models"
)

func sampleUsageDays() []models.UsageDay {
	return []models.UsageDay{
		{
			Day:                   "2025-06-01",
			TotalSuggestionsCount: 170,
			TotalAcceptancesCount: 55,
			Breakdown: []models.BreakdownEntry{
				{Editor: "vscode", Model: "default", Language: "go", SuggestionsCount: 100},
				{Editor: "vscode", Model: "default", Language: "python", SuggestionsCount: 50},
			},
			BreakdownChat: []models.ChatBreakdownEntry{
				{Editor: "vscode", Model: "default", ChatTurns: 200},
			},
		},
		{
			Day:                   "2025-06-02",
			TotalSuggestionsCount: 80,
		},
	}
}

func TestSplitterTotalDocs(t *testing.T) {
	s := NewSplitter(sampleUsageDays(), "acme", "backend", models.PositionLeaf)
	docs := s.TotalDocs()
	require.Len(t, docs, 2)

	first := docs[0]
	assert.Equal(t, "2025-06-01", first["day"])
	assert.Equal(t, "acme", first["organization_slug"])
	assert.Equal(t, "backend", first["team_slug"])
	assert.Equal(t, models.PositionLeaf, first["position_in_tree"])
	assert.Equal(t, float64(170), first["total_suggestions_count"])
	assert.NotEmpty(t, first["unique_hash"])

	// The total doc carries no breakdown lists.
	assert.NotContains(t, first, "breakdown")
	assert.NotContains(t, first, "breakdown_chat")

	// Distinct days hash to distinct identities.
	assert.NotEqual(t, first["unique_hash"], docs[1]["unique_hash"])
}

func TestSplitterBreakdownDocs(t *testing.T) {
	s := NewSplitter(sampleUsageDays(), "acme", "backend", models.PositionLeaf)
	docs := s.BreakdownDocs()
	require.Len(t, docs, 2)

	for _, doc := range docs {
		assert.Equal(t, "2025-06-01", doc["day"])
		assert.Equal(t, "acme", doc["organization_slug"])
		assert.Equal(t, "backend", doc["team_slug"])
		assert.NotEmpty(t, doc["unique_hash"])
	}
	// Language is part of the identity tuple.
	assert.NotEqual(t, docs[0]["unique_hash"], docs[1]["unique_hash"])
}

func TestSplitterChatBreakdownDocs(t *testing.T) {
	s := NewSplitter(sampleUsageDays(), "acme", "backend", models.PositionLeaf)
	docs := s.BreakdownChatDocs()
	require.Len(t, docs, 1)
	assert.Equal(t, float64(200), docs[0]["chat_turns"])
	assert.Equal(t, "2025-06-01", docs[0]["day"])
	assert.NotEmpty(t, docs[0]["unique_hash"])
}

func TestSplitterHashStableAcrossRuns(t *testing.T) {
	a := NewSplitter(sampleUsageDays(), "acme", "backend", models.PositionLeaf).TotalDocs()
	b := NewSplitter(sampleUsageDays(), "acme", "backend", models.PositionLeaf).TotalDocs()
	require.Len(t, b, len(a))
	for i := range a {
		assert.Equal(t, a[i]["unique_hash"], b[i]["unique_hash"])
	}
}

func TestSplitterTeamChangesIdentity(t *testing.T) {
	days := sampleUsageDays()
	a := NewSplitter(days, "acme", "backend", models.PositionLeaf).TotalDocs()
	b := NewSplitter(days, "acme", "frontend", models.PositionLeaf).TotalDocs()
	assert.NotEqual(t, a[0]["unique_hash"], b[0]["unique_hash"])
}
