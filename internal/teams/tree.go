// Package teams turns the flat team listing into a positioned hierarchy.
package teams

import (
	"errors"
	"fmt"
	"strings"

	"github.com/copilot-pulse/backend/internal/models"
)

// ErrCycleDetected is returned when a parent chain exceeds the node count,
// which can only happen on malformed cyclic input.
var ErrCycleDetected = errors.New("cycle detected in team hierarchy")

// BuildHierarchy annotates every node with its children, its position in the
// tree and its full slash-separated path. The input order is preserved.
//
// A parent reference to an id that is not in the set is treated as no parent:
// the node becomes a local root for path purposes. Position is assigned
// leaf-before-root, so a childless node that nobody references is a leaf, not
// a root; that makes a singleton isolated team render as a leaf team.
func BuildHierarchy(nodes []models.TeamNode) ([]models.TeamNode, error) {
	out := make([]models.TeamNode, len(nodes))
	copy(out, nodes)

	index := make(map[int64]*models.TeamNode, len(out))
	for i := range out {
		out[i].Children = nil
		index[out[i].ID] = &out[i]
	}

	childIDs := make(map[int64]struct{}, len(out))
	for i := range out {
		node := &out[i]
		if node.Parent == nil {
			continue
		}
		parent, ok := index[node.Parent.ID]
		if !ok {
			continue
		}
		childIDs[node.ID] = struct{}{}
		parent.Children = append(parent.Children, node.ID)
	}

	for i := range out {
		node := &out[i]
		_, isChild := childIDs[node.ID]
		switch {
		case len(node.Children) == 0:
			node.PositionInTree = models.PositionLeaf
		case !isChild:
			node.PositionInTree = models.PositionRoot
		default:
			node.PositionInTree = models.PositionTrunk
		}
	}

	for i := range out {
		path, err := fullPath(&out[i], index, len(out))
		if err != nil {
			return nil, fmt.Errorf("team %q: %w", out[i].Slug, err)
		}
		out[i].FullPathSlug = path
	}
	return out, nil
}

// fullPath walks parent references up to the root, bounded to the node count
// so malformed cyclic input fails loudly instead of looping.
func fullPath(node *models.TeamNode, index map[int64]*models.TeamNode, bound int) (string, error) {
	slugs := []string{node.Slug}
	current := node
	for hops := 0; current.Parent != nil; hops++ {
		if hops >= bound {
			return "", ErrCycleDetected
		}
		parent, ok := index[current.Parent.ID]
		if !ok {
			break
		}
		slugs = append(slugs, parent.Slug)
		current = parent
	}
	for i, j := 0, len(slugs)-1; i < j; i, j = i+1, j-1 {
		slugs[i], slugs[j] = slugs[j], slugs[i]
	}
	return strings.Join(slugs, "/"), nil
}
