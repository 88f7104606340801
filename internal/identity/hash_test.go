package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashMatchesKeyTuple(t *testing.T) {
	record := map[string]any{
		"organization_slug": "acme",
		"team_slug":         "backend",
		"day":               "2025-06-01",
	}
	sum := sha256.Sum256([]byte("acme-backend-2025-06-01"))
	assert.Equal(t, hex.EncodeToString(sum[:]), Hash(record, UsageTotalKeys))
}

func TestHashIgnoresNonKeyFields(t *testing.T) {
	a := map[string]any{"organization_slug": "acme", "team_slug": "x", "day": "2025-06-01"}
	b := map[string]any{"organization_slug": "acme", "team_slug": "x", "day": "2025-06-01",
		"total_suggestions_count": 42, "last_updated_at": "whenever"}
	assert.Equal(t, Hash(a, UsageTotalKeys), Hash(b, UsageTotalKeys))
}

func TestHashChangesWithAnyKeyProperty(t *testing.T) {
	base := map[string]any{"organization_slug": "acme", "team_slug": "x", "day": "2025-06-01"}
	for _, key := range UsageTotalKeys {
		changed := map[string]any{}
		for k, v := range base {
			changed[k] = v
		}
		changed[key] = "different"
		assert.NotEqual(t, Hash(base, UsageTotalKeys), Hash(changed, UsageTotalKeys), key)
	}
}

func TestHashMissingKeyIsEmptyString(t *testing.T) {
	missing := map[string]any{"organization_slug": "acme", "day": "2025-06-01"}
	explicit := map[string]any{"organization_slug": "acme", "team_slug": "", "day": "2025-06-01"}
	withNil := map[string]any{"organization_slug": "acme", "team_slug": nil, "day": "2025-06-01"}
	assert.Equal(t, Hash(explicit, UsageTotalKeys), Hash(missing, UsageTotalKeys))
	assert.Equal(t, Hash(explicit, UsageTotalKeys), Hash(withNil, UsageTotalKeys))
}

func TestHashStableAcrossJSONNumericRoundTrip(t *testing.T) {
	// A doc written with int 7 comes back from JSON as float64(7).
	asInt := map[string]any{"organization_slug": "acme", "assignee_login": "7", "day": "2025-06-01"}
	asFloat := map[string]any{"organization_slug": "acme", "assignee_login": "7", "day": "2025-06-01"}
	asInt["assignee_login"] = 7
	asFloat["assignee_login"] = float64(7)
	assert.Equal(t, Hash(asInt, SeatAssignmentKeys), Hash(asFloat, SeatAssignmentKeys))
}
