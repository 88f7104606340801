package models

// UsageDay is the flattened usage view of one metrics day, the shape every
// downstream splitter and sink consumes.
type UsageDay struct {
	Day string `json:"day"`

	TotalSuggestionsCount int `json:"total_suggestions_count"`
	TotalAcceptancesCount int `json:"total_acceptances_count"`
	TotalLinesSuggested   int `json:"total_lines_suggested"`
	TotalLinesAccepted    int `json:"total_lines_accepted"`
	TotalActiveUsers      int `json:"total_active_users"`

	TotalChatAcceptances     int `json:"total_chat_acceptances"`
	TotalChatTurns           int `json:"total_chat_turns"`
	TotalActiveChatUsers     int `json:"total_active_chat_users"`
	TotalChatCopyEvents      int `json:"total_chat_copy_events"`
	TotalChatInsertionEvents int `json:"total_chat_insertion_events"`

	Breakdown     []BreakdownEntry     `json:"breakdown,omitempty"`
	BreakdownChat []ChatBreakdownEntry `json:"breakdown_chat,omitempty"`

	DotcomChatTotalEngagedUsers int               `json:"dotcom_chat_total_engaged_users"`
	DotcomChatTotalChats        int               `json:"dotcom_chat_total_chats"`
	DotcomChatBreakdown         []DotcomChatModel `json:"dotcom_chat_breakdown,omitempty"`
	DotcomPRTotalEngagedUsers   int               `json:"dotcom_pr_total_engaged_users"`
	DotcomPRTotalSummaries      int               `json:"dotcom_pr_total_summaries"`
	DotcomPRBreakdown           []DotcomPRRow     `json:"dotcom_pr_breakdown,omitempty"`
}

// BreakdownEntry is a per-(editor, model, language) slice of a day's completion totals.
type BreakdownEntry struct {
	Editor           string `json:"editor"`
	Model            string `json:"model"`
	Language         string `json:"language"`
	SuggestionsCount int    `json:"suggestions_count"`
	AcceptancesCount int    `json:"acceptances_count"`
	LinesSuggested   int    `json:"lines_suggested"`
	LinesAccepted    int    `json:"lines_accepted"`
	ActiveUsers      int    `json:"active_users"`
}

// ChatBreakdownEntry is a per-(editor, model) slice of a day's chat totals.
type ChatBreakdownEntry struct {
	Editor              string `json:"editor"`
	Model               string `json:"model"`
	ChatTurns           int    `json:"chat_turns"`
	ChatCopyEvents      int    `json:"chat_copy_events"`
	ChatInsertionEvents int    `json:"chat_insertion_events"`
	ChatAcceptances     int    `json:"chat_acceptances"`
	ActiveUsers         int    `json:"active_users"`
}

// DotcomPRRow is one repository/model slice of a day's PR summary totals.
type DotcomPRRow struct {
	Repository              string `json:"repository"`
	RepoEngagedUsers        int    `json:"repo_engaged_users"`
	Model                   string `json:"model"`
	IsCustomModel           bool   `json:"is_custom_model"`
	CustomModelTrainingDate string `json:"custom_model_training_date,omitempty"`
	TotalPRSummariesCreated int    `json:"total_pr_summaries_created"`
	ModelEngagedUsers       int    `json:"model_engaged_users"`
}
