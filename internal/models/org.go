package models

import "strings"

// StandalonePrefix marks an organization slug as a standalone Copilot
// enterprise rather than an organization inside a GHEC enterprise.
const StandalonePrefix = "standalone:"

// OrgRef identifies one collection target.
type OrgRef struct {
	Slug       string
	Standalone bool
}

// ParseOrgSlug resolves a configured slug, stripping the standalone prefix.
func ParseOrgSlug(raw string) OrgRef {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, StandalonePrefix) {
		return OrgRef{Slug: strings.TrimPrefix(raw, StandalonePrefix), Standalone: true}
	}
	return OrgRef{Slug: raw}
}

// SlugType returns the label used in logs and documents.
func (o OrgRef) SlugType() string {
	if o.Standalone {
		return "Standalone"
	}
	return "Organization"
}

// APIType returns the REST path segment for this target.
func (o OrgRef) APIType() string {
	if o.Standalone {
		return "enterprises"
	}
	return "orgs"
}
