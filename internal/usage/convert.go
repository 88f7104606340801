// Package usage reshapes raw Copilot metrics days into the flattened usage
// form and splits them into the documents each index receives.
package usage

import (
	"github.com/copilot-pulse/backend/internal/models"
)

// ConvertMetrics flattens each raw metrics day into its usage view.
func ConvertMetrics(days []models.MetricsDay) []models.UsageDay {
	out := make([]models.UsageDay, 0, len(days))
	for _, day := range days {
		out = append(out, convertDay(day))
	}
	return out
}

type breakdownKey struct {
	editor   string
	model    string
	language string
}

type chatKey struct {
	editor string
	model  string
}

func convertDay(day models.MetricsDay) models.UsageDay {
	usage := models.UsageDay{
		Day:              day.Date,
		TotalActiveUsers: day.TotalActiveUsers,
	}

	// Completion metrics aggregate by (editor, model, language).
	if cc := day.IDECodeCompletions; cc != nil {
		byKey := make(map[breakdownKey]*models.BreakdownEntry)
		var keys []breakdownKey
		for _, editor := range cc.Editors {
			editorName := nameOrUnknown(editor.Name)
			for _, model := range editor.Models {
				modelName := nameOrUnknown(model.Name)
				for _, lang := range model.Languages {
					langName := nameOrUnknown(lang.Name)
					key := breakdownKey{editorName, modelName, langName}
					entry, ok := byKey[key]
					if !ok {
						entry = &models.BreakdownEntry{
							Editor:      editorName,
							Model:       modelName,
							Language:    langName,
							ActiveUsers: lang.TotalEngagedUsers,
						}
						byKey[key] = entry
						keys = append(keys, key)
					}
					entry.SuggestionsCount += lang.TotalCodeSuggestions
					entry.AcceptancesCount += lang.TotalCodeAcceptances
					entry.LinesSuggested += lang.TotalCodeLinesSuggested
					entry.LinesAccepted += lang.TotalCodeLinesAccepted

					usage.TotalSuggestionsCount += lang.TotalCodeSuggestions
					usage.TotalAcceptancesCount += lang.TotalCodeAcceptances
					usage.TotalLinesSuggested += lang.TotalCodeLinesSuggested
					usage.TotalLinesAccepted += lang.TotalCodeLinesAccepted
				}
			}
		}
		for _, key := range keys {
			usage.Breakdown = append(usage.Breakdown, *byKey[key])
		}
	}

	// Chat metrics aggregate by (editor, model).
	if chat := day.IDEChat; chat != nil {
		usage.TotalActiveChatUsers = chat.TotalEngagedUsers
		byKey := make(map[chatKey]*models.ChatBreakdownEntry)
		var keys []chatKey
		for _, editor := range chat.Editors {
			editorName := nameOrUnknown(editor.Name)
			for _, model := range editor.Models {
				modelName := nameOrUnknown(model.Name)
				key := chatKey{editorName, modelName}
				entry, ok := byKey[key]
				if !ok {
					entry = &models.ChatBreakdownEntry{
						Editor:      editorName,
						Model:       modelName,
						ActiveUsers: model.TotalEngagedUsers,
					}
					byKey[key] = entry
					keys = append(keys, key)
				}
				acceptances := model.TotalChatCopyEvents + model.TotalChatInsertionEvents
				entry.ChatTurns += model.TotalChats
				entry.ChatCopyEvents += model.TotalChatCopyEvents
				entry.ChatInsertionEvents += model.TotalChatInsertionEvents
				entry.ChatAcceptances += acceptances

				usage.TotalChatTurns += model.TotalChats
				usage.TotalChatCopyEvents += model.TotalChatCopyEvents
				usage.TotalChatInsertionEvents += model.TotalChatInsertionEvents
				usage.TotalChatAcceptances += acceptances
			}
		}
		for _, key := range keys {
			usage.BreakdownChat = append(usage.BreakdownChat, *byKey[key])
		}
	}

	if dc := day.DotcomChat; dc != nil {
		usage.DotcomChatTotalEngagedUsers = dc.TotalEngagedUsers
		for _, model := range dc.Models {
			usage.DotcomChatTotalChats += model.TotalChats
			m := model
			m.Name = nameOrUnknown(model.Name)
			usage.DotcomChatBreakdown = append(usage.DotcomChatBreakdown, m)
		}
	}

	if pr := day.DotcomPullRequests; pr != nil {
		usage.DotcomPRTotalEngagedUsers = pr.TotalEngagedUsers
		for _, repo := range pr.Repositories {
			repoName := nameOrUnknown(repo.Name)
			for _, model := range repo.Models {
				usage.DotcomPRTotalSummaries += model.TotalPRSummariesCreated
				usage.DotcomPRBreakdown = append(usage.DotcomPRBreakdown, models.DotcomPRRow{
					Repository:              repoName,
					RepoEngagedUsers:        repo.TotalEngagedUsers,
					Model:                   nameOrUnknown(model.Name),
					IsCustomModel:           model.IsCustomModel,
					CustomModelTrainingDate: model.CustomModelTrainingDate,
					TotalPRSummariesCreated: model.TotalPRSummariesCreated,
					ModelEngagedUsers:       model.TotalEngagedUsers,
				})
			}
		}
	}

	return usage
}

func nameOrUnknown(name string) string {
	if name == "" {
		return "unknown"
	}
	return name
}
