package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copilot-pulse/backend/internal/models"
)

func sampleMetricsDay() models.MetricsDay {
	return models.MetricsDay{
		Date:             "2025-06-01",
		TotalActiveUsers: 42,
		IDECodeCompletions: &models.IDECodeCompletions{
			TotalEngagedUsers: 30,
			Editors: []models.CompletionEditor{
				{
					Name: "vscode",
					Models: []models.CompletionModel{
						{
							Name: "default",
							Languages: []models.CompletionLanguage{
								{Name: "go", TotalEngagedUsers: 8, TotalCodeSuggestions: 100, TotalCodeAcceptances: 40, TotalCodeLinesSuggested: 300, TotalCodeLinesAccepted: 120},
								{Name: "python", TotalEngagedUsers: 5, TotalCodeSuggestions: 50, TotalCodeAcceptances: 10, TotalCodeLinesSuggested: 90, TotalCodeLinesAccepted: 20},
							},
						},
					},
				},
				{
					Name: "jetbrains",
					Models: []models.CompletionModel{
						{
							Name: "default",
							Languages: []models.CompletionLanguage{
								{Name: "go", TotalEngagedUsers: 3, TotalCodeSuggestions: 20, TotalCodeAcceptances: 5, TotalCodeLinesSuggested: 60, TotalCodeLinesAccepted: 15},
							},
						},
					},
				},
			},
		},
		IDEChat: &models.IDEChat{
			TotalEngagedUsers: 12,
			Editors: []models.ChatEditor{
				{
					Name: "vscode",
					Models: []models.ChatModel{
						{Name: "default", TotalEngagedUsers: 12, TotalChats: 200, TotalChatCopyEvents: 30, TotalChatInsertionEvents: 15},
					},
				},
			},
		},
		DotcomChat: &models.DotcomChat{
			TotalEngagedUsers: 6,
			Models: []models.DotcomChatModel{
				{Name: "default", TotalChats: 44},
			},
		},
		DotcomPullRequests: &models.DotcomPullRequests{
			TotalEngagedUsers: 4,
			Repositories: []models.DotcomRepo{
				{
					Name:              "acme/api",
					TotalEngagedUsers: 4,
					Models: []models.DotcomPRModel{
						{Name: "default", TotalPRSummariesCreated: 9, TotalEngagedUsers: 4},
					},
				},
			},
		},
	}
}

func TestConvertMetricsTotals(t *testing.T) {
	out := ConvertMetrics([]models.MetricsDay{sampleMetricsDay()})
	require.Len(t, out, 1)
	day := out[0]

	assert.Equal(t, "2025-06-01", day.Day)
	assert.Equal(t, 42, day.TotalActiveUsers)
	assert.Equal(t, 170, day.TotalSuggestionsCount)
	assert.Equal(t, 55, day.TotalAcceptancesCount)
	assert.Equal(t, 450, day.TotalLinesSuggested)
	assert.Equal(t, 155, day.TotalLinesAccepted)

	assert.Equal(t, 12, day.TotalActiveChatUsers)
	assert.Equal(t, 200, day.TotalChatTurns)
	assert.Equal(t, 30, day.TotalChatCopyEvents)
	assert.Equal(t, 15, day.TotalChatInsertionEvents)
	// Chat acceptances are copies plus insertions.
	assert.Equal(t, 45, day.TotalChatAcceptances)

	assert.Equal(t, 6, day.DotcomChatTotalEngagedUsers)
	assert.Equal(t, 44, day.DotcomChatTotalChats)
	assert.Equal(t, 4, day.DotcomPRTotalEngagedUsers)
	assert.Equal(t, 9, day.DotcomPRTotalSummaries)
	require.Len(t, day.DotcomPRBreakdown, 1)
	assert.Equal(t, "acme/api", day.DotcomPRBreakdown[0].Repository)
}

func TestConvertMetricsBreakdownKeysAndOrder(t *testing.T) {
	day := ConvertMetrics([]models.MetricsDay{sampleMetricsDay()})[0]

	require.Len(t, day.Breakdown, 3)
	assert.Equal(t, "vscode", day.Breakdown[0].Editor)
	assert.Equal(t, "go", day.Breakdown[0].Language)
	assert.Equal(t, 100, day.Breakdown[0].SuggestionsCount)
	assert.Equal(t, "python", day.Breakdown[1].Language)
	assert.Equal(t, "jetbrains", day.Breakdown[2].Editor)

	require.Len(t, day.BreakdownChat, 1)
	assert.Equal(t, 45, day.BreakdownChat[0].ChatAcceptances)
}

func TestConvertMetricsAggregatesDuplicateKeys(t *testing.T) {
	day := models.MetricsDay{
		Date: "2025-06-01",
		IDECodeCompletions: &models.IDECodeCompletions{
			Editors: []models.CompletionEditor{
				{
					Name: "vscode",
					Models: []models.CompletionModel{
						{Name: "default", Languages: []models.CompletionLanguage{
							{Name: "go", TotalCodeSuggestions: 10, TotalCodeAcceptances: 4},
						}},
						{Name: "default", Languages: []models.CompletionLanguage{
							{Name: "go", TotalCodeSuggestions: 7, TotalCodeAcceptances: 2},
						}},
					},
				},
			},
		},
	}
	out := convertDay(day)
	require.Len(t, out.Breakdown, 1)
	assert.Equal(t, 17, out.Breakdown[0].SuggestionsCount)
	assert.Equal(t, 6, out.Breakdown[0].AcceptancesCount)
}

func TestConvertMetricsUnknownNames(t *testing.T) {
	day := models.MetricsDay{
		Date: "2025-06-01",
		IDECodeCompletions: &models.IDECodeCompletions{
			Editors: []models.CompletionEditor{
				{Models: []models.CompletionModel{
					{Languages: []models.CompletionLanguage{{TotalCodeSuggestions: 1}}},
				}},
			},
		},
	}
	out := convertDay(day)
	require.Len(t, out.Breakdown, 1)
	assert.Equal(t, "unknown", out.Breakdown[0].Editor)
	assert.Equal(t, "unknown", out.Breakdown[0].Model)
	assert.Equal(t, "unknown", out.Breakdown[0].Language)
}
