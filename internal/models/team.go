package models

// Position of a team node within its organization's hierarchy.
const (
	PositionRoot  = "root_team"
	PositionTrunk = "trunk_team"
	PositionLeaf  = "leaf_team"
)

// TeamRef is a lightweight reference to another team (parent pointer).
type TeamRef struct {
	ID      int64  `json:"id"`
	Slug    string `json:"slug,omitempty"`
	HTMLURL string `json:"html_url,omitempty"`
}

// TeamNode is one team as returned by the teams API, annotated by the
// hierarchy builder with children, position and full path.
type TeamNode struct {
	ID          int64    `json:"id"`
	Slug        string   `json:"slug"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	HTMLURL     string   `json:"html_url,omitempty"`
	Parent      *TeamRef `json:"parent,omitempty"`

	Children       []int64 `json:"children,omitempty"`
	PositionInTree string  `json:"position_in_tree,omitempty"`
	FullPathSlug   string  `json:"fullpath_slug,omitempty"`
}
