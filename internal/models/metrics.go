package models

// Types mirroring the Copilot metrics API payload (one element per day).

// MetricsDay is one day of raw Copilot metrics for an org or team.
type MetricsDay struct {
	Date                string              `json:"date"`
	TotalActiveUsers    int                 `json:"total_active_users"`
	TotalEngagedUsers   int                 `json:"total_engaged_users"`
	IDECodeCompletions  *IDECodeCompletions `json:"copilot_ide_code_completions,omitempty"`
	IDEChat             *IDEChat            `json:"copilot_ide_chat,omitempty"`
	DotcomChat          *DotcomChat         `json:"copilot_dotcom_chat,omitempty"`
	DotcomPullRequests  *DotcomPullRequests `json:"copilot_dotcom_pull_requests,omitempty"`
}

// IDECodeCompletions groups completion metrics by editor.
type IDECodeCompletions struct {
	TotalEngagedUsers int                `json:"total_engaged_users"`
	Editors           []CompletionEditor `json:"editors,omitempty"`
}

// CompletionEditor is one editor's completion metrics.
type CompletionEditor struct {
	Name              string            `json:"name"`
	TotalEngagedUsers int               `json:"total_engaged_users"`
	Models            []CompletionModel `json:"models,omitempty"`
}

// CompletionModel is one model's completion metrics within an editor.
type CompletionModel struct {
	Name              string               `json:"name"`
	TotalEngagedUsers int                  `json:"total_engaged_users"`
	Languages         []CompletionLanguage `json:"languages,omitempty"`
}

// CompletionLanguage is per-language completion counters.
type CompletionLanguage struct {
	Name                    string `json:"name"`
	TotalEngagedUsers       int    `json:"total_engaged_users"`
	TotalCodeSuggestions    int    `json:"total_code_suggestions"`
	TotalCodeAcceptances    int    `json:"total_code_acceptances"`
	TotalCodeLinesSuggested int    `json:"total_code_lines_suggested"`
	TotalCodeLinesAccepted  int    `json:"total_code_lines_accepted"`
}

// IDEChat groups IDE chat metrics by editor.
type IDEChat struct {
	TotalEngagedUsers int          `json:"total_engaged_users"`
	Editors           []ChatEditor `json:"editors,omitempty"`
}

// ChatEditor is one editor's chat metrics.
type ChatEditor struct {
	Name              string      `json:"name"`
	TotalEngagedUsers int         `json:"total_engaged_users"`
	Models            []ChatModel `json:"models,omitempty"`
}

// ChatModel is one model's chat counters within an editor.
type ChatModel struct {
	Name                     string `json:"name"`
	TotalEngagedUsers        int    `json:"total_engaged_users"`
	TotalChats               int    `json:"total_chats"`
	TotalChatCopyEvents      int    `json:"total_chat_copy_events"`
	TotalChatInsertionEvents int    `json:"total_chat_insertion_events"`
}

// DotcomChat holds github.com chat metrics.
type DotcomChat struct {
	TotalEngagedUsers int               `json:"total_engaged_users"`
	Models            []DotcomChatModel `json:"models,omitempty"`
}

// DotcomChatModel is one model's github.com chat counters.
type DotcomChatModel struct {
	Name                    string `json:"name"`
	IsCustomModel           bool   `json:"is_custom_model"`
	CustomModelTrainingDate string `json:"custom_model_training_date,omitempty"`
	TotalEngagedUsers       int    `json:"total_engaged_users"`
	TotalChats              int    `json:"total_chats"`
}

// DotcomPullRequests holds github.com pull request metrics.
type DotcomPullRequests struct {
	TotalEngagedUsers int          `json:"total_engaged_users"`
	Repositories      []DotcomRepo `json:"repositories,omitempty"`
}

// DotcomRepo is one repository's PR summary metrics.
type DotcomRepo struct {
	Name              string          `json:"name"`
	TotalEngagedUsers int             `json:"total_engaged_users"`
	Models            []DotcomPRModel `json:"models,omitempty"`
}

// DotcomPRModel is one model's PR summary counters within a repository.
type DotcomPRModel struct {
	Name                    string `json:"name"`
	IsCustomModel           bool   `json:"is_custom_model"`
	CustomModelTrainingDate string `json:"custom_model_training_date,omitempty"`
	TotalEngagedUsers       int    `json:"total_engaged_users"`
	TotalPRSummariesCreated int    `json:"total_pr_summaries_created"`
}
