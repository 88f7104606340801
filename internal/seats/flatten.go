// Package seats flattens Copilot billing settings and seat assignments into
// store documents.
package seats

import (
	"time"

	"github.com/copilot-pulse/backend/internal/identity"
	"github.com/copilot-pulse/backend/internal/models"
)

const dayFormat = "2006-01-02"

// FlattenSettings turns an organization's billing settings into one seat-info
// document for the given day. Every seat_breakdown counter is lifted to a
// top-level seat_<name> field.
func FlattenSettings(settings models.BillingSettings, orgSlug string, now time.Time) map[string]any {
	doc := map[string]any{
		"organization_slug": orgSlug,
		"day":               now.UTC().Format(dayFormat),
	}
	for name, count := range settings.SeatBreakdown {
		doc["seat_"+name] = count
	}
	if settings.SeatManagementSetting != "" {
		doc["seat_management_setting"] = settings.SeatManagementSetting
	}
	if settings.PublicCodeSuggestions != "" {
		doc["public_code_suggestions"] = settings.PublicCodeSuggestions
	}
	if settings.IDEChat != "" {
		doc["ide_chat"] = settings.IDEChat
	}
	if settings.CLI != "" {
		doc["cli"] = settings.CLI
	}
	if settings.PlanType != "" {
		doc["plan_type"] = settings.PlanType
	}
	doc["unique_hash"] = identity.Hash(doc, identity.SeatSettingsKeys)
	return doc
}

// DeriveSettings reconstructs the seat-info counters from the seat list for
// enterprises whose billing endpoint does not expose a seat_breakdown. The
// cycle boundary is the first day of the current month.
func DeriveSettings(page models.SeatsPage, orgSlug string, now time.Time) map[string]any {
	now = now.UTC()
	cycleStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var added, pendingCancellation, active int
	for _, seat := range page.Seats {
		if created, ok := parseSeatTime(seat.CreatedAt); ok && !created.Before(cycleStart) {
			added++
		}
		if seat.PendingCancellationDate != "" {
			pendingCancellation++
		}
		if activity, ok := parseSeatTime(seat.LastActivityAt); ok && !activity.Before(cycleStart) {
			active++
		}
	}

	total := page.TotalSeats
	if total == 0 {
		total = len(page.Seats)
	}
	doc := map[string]any{
		"organization_slug":              orgSlug,
		"day":                            now.Format(dayFormat),
		"seat_total":                     total,
		"seat_added_this_cycle":          added,
		"seat_pending_cancellation":      pendingCancellation,
		"seat_active_this_cycle":         active,
		"seat_inactive_this_cycle":       total - active,
		"seat_pending_invitation":        0,
		"seat_management_setting_source": "derived_from_seats",
	}
	doc["unique_hash"] = identity.Hash(doc, identity.SeatSettingsKeys)
	return doc
}

// FlattenAssignments turns the seat list into one document per assignee for
// the given day. Seats without an assigning team fall under "no-team".
func FlattenAssignments(page models.SeatsPage, orgSlug string, now time.Time) []map[string]any {
	now = now.UTC()
	today := now.Format(dayFormat)

	docs := make([]map[string]any, 0, len(page.Seats))
	for _, seat := range page.Seats {
		doc := map[string]any{
			"organization_slug": orgSlug,
			"day":               today,
			"total_seats":       page.TotalSeats,
			"team_slug":         "no-team",
			"is_active_today":   0,
		}
		if seat.Assignee != nil {
			doc["assignee_login"] = seat.Assignee.Login
			if seat.Assignee.HTMLURL != "" {
				doc["assignee_html_url"] = seat.Assignee.HTMLURL
			}
		}
		if seat.AssigningTeam != nil && seat.AssigningTeam.Slug != "" {
			doc["team_slug"] = seat.AssigningTeam.Slug
			if seat.AssigningTeam.HTMLURL != "" {
				doc["team_html_url"] = seat.AssigningTeam.HTMLURL
			}
		}
		if seat.CreatedAt != "" {
			doc["created_at"] = seat.CreatedAt
		}
		if seat.UpdatedAt != "" {
			doc["updated_at"] = seat.UpdatedAt
		}
		if seat.PendingCancellationDate != "" {
			doc["pending_cancellation_date"] = seat.PendingCancellationDate
		}
		if seat.PlanType != "" {
			doc["plan_type"] = seat.PlanType
		}
		if seat.LastActivityEditor != "" {
			doc["last_activity_editor"] = seat.LastActivityEditor
		}
		if activity, ok := parseSeatTime(seat.LastActivityAt); ok {
			doc["last_activity_at"] = seat.LastActivityAt
			doc["days_since_last_activity"] = int(now.Sub(activity).Hours() / 24)
			if activity.UTC().Format(dayFormat) == today {
				doc["is_active_today"] = 1
			}
		}
		doc["unique_hash"] = identity.Hash(doc, identity.SeatAssignmentKeys)
		docs = append(docs, doc)
	}
	return docs
}

func parseSeatTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-07:00", dayFormat} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
