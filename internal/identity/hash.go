// Package identity computes the content hash that serves as document identity
// for every record written to the store.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Key property tuples per entity kind. The tuple is what defines two records
// as duplicates of the same logical fact.
var (
	SeatSettingsKeys   = []string{"organization_slug", "day"}
	SeatAssignmentKeys = []string{"organization_slug", "assignee_login", "day"}
	UsageTotalKeys     = []string{"organization_slug", "team_slug", "day"}
	BreakdownKeys      = []string{"organization_slug", "team_slug", "day", "language", "editor", "model"}
	BreakdownChatKeys  = []string{"organization_slug", "team_slug", "day", "editor", "model"}
	UserMetricKeys     = []string{"organization_slug", "user_login", "day"}
	AdoptionKeys       = []string{"organization_slug", "user_login", "report_start_day", "report_end_day", "bucket_type"}
)

// Hash returns the hex SHA-256 of the record's key property values joined
// with "-". Absent or nil keys contribute an empty string, so the hash is
// stable under presence or absence of unrelated fields. Distinct records that
// are both missing a key property can collide; callers accept that tradeoff.
func Hash(record map[string]any, keyProperties []string) string {
	parts := make([]string, 0, len(keyProperties))
	for _, key := range keyProperties {
		parts = append(parts, stringify(record[key]))
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "-")))
	return hex.EncodeToString(sum[:])
}

// stringify renders a key property value deterministically. Integral floats
// print without a decimal point so JSON round-trips do not change identity.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
