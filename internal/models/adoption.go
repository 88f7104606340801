package models

// Bucket types for adoption leaderboard rows.
const (
	BucketUser   = "user"
	BucketOthers = "others"
)

// UserAdoptionSummary is one adoption leaderboard row: either a single user or
// the aggregate "Others" bucket for everyone outside the top N.
type UserAdoptionSummary struct {
	UserLogin        string `json:"user_login"`
	OrganizationSlug string `json:"organization_slug"`
	SlugType         string `json:"slug_type,omitempty"`

	EventsLogged                int `json:"events_logged"`
	Volume                      int `json:"volume"`
	CodeGenerationActivityCount int `json:"code_generation_activity_count"`
	CodeAcceptanceActivityCount int `json:"code_acceptance_activity_count"`
	LocAddedSum                 int `json:"loc_added_sum"`
	LocSuggestedToAddSum        int `json:"loc_suggested_to_add_sum"`
	AgentUsage                  int `json:"agent_usage"`
	ChatUsage                   int `json:"chat_usage"`
	ActiveDays                  int `json:"active_days"`

	AverageLocAdded    float64 `json:"average_loc_added"`
	InteractionsPerDay float64 `json:"interactions_per_day"`
	AcceptanceRate     float64 `json:"acceptance_rate"`
	FeatureBreadth     float64 `json:"feature_breadth"`

	ConsistencyBonus float64 `json:"consistency_bonus"`
	AdoptionScore    float64 `json:"adoption_score"`
	AdoptionPct      float64 `json:"adoption_pct"`
	Rank             *int    `json:"rank"`
	IsTop10          bool    `json:"is_top10"`

	ReportStartDay string `json:"report_start_day,omitempty"`
	ReportEndDay   string `json:"report_end_day,omitempty"`
	Day            string `json:"day"`
	BucketType     string `json:"bucket_type"`
	OthersCount    int    `json:"others_count,omitempty"`

	UniqueHash string `json:"unique_hash"`
}

// Doc returns the flat document form written to the store.
func (s *UserAdoptionSummary) Doc() map[string]any {
	doc := map[string]any{
		"user_login":                     s.UserLogin,
		"organization_slug":              s.OrganizationSlug,
		"events_logged":                  s.EventsLogged,
		"volume":                         s.Volume,
		"code_generation_activity_count": s.CodeGenerationActivityCount,
		"code_acceptance_activity_count": s.CodeAcceptanceActivityCount,
		"loc_added_sum":                  s.LocAddedSum,
		"loc_suggested_to_add_sum":       s.LocSuggestedToAddSum,
		"agent_usage":                    s.AgentUsage,
		"chat_usage":                     s.ChatUsage,
		"active_days":                    s.ActiveDays,
		"average_loc_added":              s.AverageLocAdded,
		"interactions_per_day":           s.InteractionsPerDay,
		"acceptance_rate":                s.AcceptanceRate,
		"feature_breadth":                s.FeatureBreadth,
		"consistency_bonus":              s.ConsistencyBonus,
		"adoption_score":                 s.AdoptionScore,
		"adoption_pct":                   s.AdoptionPct,
		"is_top10":                       s.IsTop10,
		"day":                            s.Day,
		"bucket_type":                    s.BucketType,
		"unique_hash":                    s.UniqueHash,
	}
	if s.SlugType != "" {
		doc["slug_type"] = s.SlugType
	}
	if s.Rank != nil {
		doc["rank"] = *s.Rank
	} else {
		doc["rank"] = nil
	}
	if s.ReportStartDay != "" {
		doc["report_start_day"] = s.ReportStartDay
	}
	if s.ReportEndDay != "" {
		doc["report_end_day"] = s.ReportEndDay
	}
	if s.BucketType == BucketOthers {
		doc["others_count"] = s.OthersCount
	}
	return doc
}
