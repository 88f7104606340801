package models

// BillingSettings is the Copilot billing response for an organization.
type BillingSettings struct {
	SeatBreakdown         map[string]int `json:"seat_breakdown,omitempty"`
	SeatManagementSetting string         `json:"seat_management_setting,omitempty"`
	PublicCodeSuggestions string         `json:"public_code_suggestions,omitempty"`
	IDEChat               string         `json:"ide_chat,omitempty"`
	CLI                   string         `json:"cli,omitempty"`
	PlanType              string         `json:"plan_type,omitempty"`
}

// Actor is the assignee sub-object of a seat.
type Actor struct {
	Login   string `json:"login"`
	HTMLURL string `json:"html_url,omitempty"`
}

// Seat is one Copilot seat assignment as returned by the billing seats API.
type Seat struct {
	CreatedAt               string   `json:"created_at,omitempty"`
	UpdatedAt               string   `json:"updated_at,omitempty"`
	LastActivityAt          string   `json:"last_activity_at,omitempty"`
	LastActivityEditor      string   `json:"last_activity_editor,omitempty"`
	PendingCancellationDate string   `json:"pending_cancellation_date,omitempty"`
	PlanType                string   `json:"plan_type,omitempty"`
	Assignee                *Actor   `json:"assignee,omitempty"`
	AssigningTeam           *TeamRef `json:"assigning_team,omitempty"`
}

// SeatsPage is one page of the seats listing.
type SeatsPage struct {
	TotalSeats int    `json:"total_seats"`
	Seats      []Seat `json:"seats"`
}
