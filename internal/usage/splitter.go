package usage

import (
	"encoding/json"

	"github.com/copilot-pulse/backend/internal/identity"
	"github.com/copilot-pulse/backend/internal/models"
)

// Splitter fans one team's usage days out into the per-index document lists.
// The additional properties (organization slug, team slug, position in tree)
// are injected into every emitted document before hashing, since they are
// part of each document's identity tuple.
type Splitter struct {
	days  []models.UsageDay
	extra map[string]any
}

// NewSplitter creates a splitter over one team's usage days.
func NewSplitter(days []models.UsageDay, organizationSlug, teamSlug, positionInTree string) *Splitter {
	return &Splitter{
		days: days,
		extra: map[string]any{
			"organization_slug": organizationSlug,
			"team_slug":         teamSlug,
			"position_in_tree":  positionInTree,
		},
	}
}

// TotalDocs returns one document per day with the breakdown lists stripped.
func (s *Splitter) TotalDocs() []map[string]any {
	docs := make([]map[string]any, 0, len(s.days))
	for _, day := range s.days {
		flat := day
		flat.Breakdown = nil
		flat.BreakdownChat = nil
		doc := structToDoc(flat)
		s.inject(doc)
		doc["unique_hash"] = identity.Hash(doc, identity.UsageTotalKeys)
		docs = append(docs, doc)
	}
	return docs
}

// BreakdownDocs returns one document per (day, editor, model, language) slice.
func (s *Splitter) BreakdownDocs() []map[string]any {
	var docs []map[string]any
	for _, day := range s.days {
		for _, entry := range day.Breakdown {
			doc := structToDoc(entry)
			doc["day"] = day.Day
			s.inject(doc)
			doc["unique_hash"] = identity.Hash(doc, identity.BreakdownKeys)
			docs = append(docs, doc)
		}
	}
	return docs
}

// BreakdownChatDocs returns one document per (day, editor, model) chat slice.
func (s *Splitter) BreakdownChatDocs() []map[string]any {
	var docs []map[string]any
	for _, day := range s.days {
		for _, entry := range day.BreakdownChat {
			doc := structToDoc(entry)
			doc["day"] = day.Day
			s.inject(doc)
			doc["unique_hash"] = identity.Hash(doc, identity.BreakdownChatKeys)
			docs = append(docs, doc)
		}
	}
	return docs
}

func (s *Splitter) inject(doc map[string]any) {
	for k, v := range s.extra {
		doc[k] = v
	}
}

// structToDoc flattens a struct through its JSON form.
func structToDoc(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return map[string]any{}
	}
	return doc
}
