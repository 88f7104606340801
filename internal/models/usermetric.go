package models

import (
	"encoding/json"
	"math"
)

// UserMetricRow is one per-user, per-day record from the user metrics report.
// Fields the scoring engine branches on are typed; everything else the report
// carries rides along in Extra so no upstream field is lost on re-index.
type UserMetricRow struct {
	UserLogin        string `json:"user_login"`
	Day              string `json:"day"`
	OrganizationSlug string `json:"organization_slug,omitempty"`
	ReportStartDay   string `json:"report_start_day,omitempty"`
	ReportEndDay     string `json:"report_end_day,omitempty"`

	UserInitiatedInteractionCount int  `json:"user_initiated_interaction_count"`
	CodeGenerationActivityCount   int  `json:"code_generation_activity_count"`
	CodeAcceptanceActivityCount   int  `json:"code_acceptance_activity_count"`
	LocAddedSum                   int  `json:"loc_added_sum"`
	LocSuggestedToAddSum          int  `json:"loc_suggested_to_add_sum"`
	UsedAgent                     bool `json:"used_agent"`
	UsedChat                      bool `json:"used_chat"`

	Extra map[string]any `json:"-"`
}

var userMetricKnownKeys = []string{
	"user_login", "day", "organization_slug", "report_start_day", "report_end_day",
	"user_initiated_interaction_count", "code_generation_activity_count",
	"code_acceptance_activity_count", "loc_added_sum", "loc_suggested_to_add_sum",
	"used_agent", "used_chat",
}

// UnmarshalJSON fills the typed fields with loose coercion (the report mixes
// numbers and booleans across versions) and keeps unknown fields in Extra.
func (r *UserMetricRow) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.UserLogin = asString(raw["user_login"])
	r.Day = asString(raw["day"])
	r.OrganizationSlug = asString(raw["organization_slug"])
	r.ReportStartDay = asString(raw["report_start_day"])
	r.ReportEndDay = asString(raw["report_end_day"])
	r.UserInitiatedInteractionCount = asInt(raw["user_initiated_interaction_count"])
	r.CodeGenerationActivityCount = asInt(raw["code_generation_activity_count"])
	r.CodeAcceptanceActivityCount = asInt(raw["code_acceptance_activity_count"])
	r.LocAddedSum = asInt(raw["loc_added_sum"])
	r.LocSuggestedToAddSum = asInt(raw["loc_suggested_to_add_sum"])
	r.UsedAgent = asBool(raw["used_agent"])
	r.UsedChat = asBool(raw["used_chat"])

	for _, k := range userMetricKnownKeys {
		delete(raw, k)
	}
	if len(raw) > 0 {
		r.Extra = raw
	}
	return nil
}

// Doc returns the flat document form written to the store, Extra included.
func (r *UserMetricRow) Doc() map[string]any {
	doc := make(map[string]any, len(r.Extra)+12)
	for k, v := range r.Extra {
		doc[k] = v
	}
	doc["user_login"] = r.UserLogin
	doc["day"] = r.Day
	if r.OrganizationSlug != "" {
		doc["organization_slug"] = r.OrganizationSlug
	}
	if r.ReportStartDay != "" {
		doc["report_start_day"] = r.ReportStartDay
	}
	if r.ReportEndDay != "" {
		doc["report_end_day"] = r.ReportEndDay
	}
	doc["user_initiated_interaction_count"] = r.UserInitiatedInteractionCount
	doc["code_generation_activity_count"] = r.CodeGenerationActivityCount
	doc["code_acceptance_activity_count"] = r.CodeAcceptanceActivityCount
	doc["loc_added_sum"] = r.LocAddedSum
	doc["loc_suggested_to_add_sum"] = r.LocSuggestedToAddSum
	doc["used_agent"] = r.UsedAgent
	doc["used_chat"] = r.UsedChat
	return doc
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return int(n)
	case int:
		return n
	case bool:
		if n {
			return 1
		}
	}
	return 0
}

func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	case string:
		return b == "true" || b == "1"
	}
	return false
}
