package teams

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copilot-pulse/backend/internal/models"
)

func node(id int64, slug string, parentID int64) models.TeamNode {
	n := models.TeamNode{ID: id, Slug: slug}
	if parentID != 0 {
		n.Parent = &models.TeamRef{ID: parentID}
	}
	return n
}

func TestBuildHierarchyPositions(t *testing.T) {
	// platform -> backend -> api, platform -> frontend
	input := []models.TeamNode{
		node(1, "platform", 0),
		node(2, "backend", 1),
		node(3, "api", 2),
		node(4, "frontend", 1),
	}
	out, err := BuildHierarchy(input)
	require.NoError(t, err)
	require.Len(t, out, 4)

	bySlug := make(map[string]models.TeamNode)
	for _, n := range out {
		bySlug[n.Slug] = n
	}
	assert.Equal(t, models.PositionRoot, bySlug["platform"].PositionInTree)
	assert.Equal(t, models.PositionTrunk, bySlug["backend"].PositionInTree)
	assert.Equal(t, models.PositionLeaf, bySlug["api"].PositionInTree)
	assert.Equal(t, models.PositionLeaf, bySlug["frontend"].PositionInTree)

	assert.Equal(t, "platform", bySlug["platform"].FullPathSlug)
	assert.Equal(t, "platform/backend", bySlug["backend"].FullPathSlug)
	assert.Equal(t, "platform/backend/api", bySlug["api"].FullPathSlug)
	assert.Equal(t, "platform/frontend", bySlug["frontend"].FullPathSlug)
}

func TestBuildHierarchyInputOrderIndependent(t *testing.T) {
	a := []models.TeamNode{node(1, "root", 0), node(2, "mid", 1), node(3, "leaf", 2)}
	b := []models.TeamNode{node(3, "leaf", 2), node(1, "root", 0), node(2, "mid", 1)}

	outA, err := BuildHierarchy(a)
	require.NoError(t, err)
	outB, err := BuildHierarchy(b)
	require.NoError(t, err)

	posA := make(map[string]string)
	for _, n := range outA {
		posA[n.Slug] = n.PositionInTree
	}
	for _, n := range outB {
		assert.Equal(t, posA[n.Slug], n.PositionInTree, n.Slug)
	}
}

func TestBuildHierarchySingletonIsLeaf(t *testing.T) {
	// An isolated team has no children and no parent: leaf wins over root.
	out, err := BuildHierarchy([]models.TeamNode{node(7, "solo", 0)})
	require.NoError(t, err)
	assert.Equal(t, models.PositionLeaf, out[0].PositionInTree)
	assert.Equal(t, "solo", out[0].FullPathSlug)
}

func TestBuildHierarchyMissingParentIsLocalRoot(t *testing.T) {
	// Parent id 99 is not in the listing; the node acts as its own root.
	out, err := BuildHierarchy([]models.TeamNode{
		node(1, "orphan", 99),
		node(2, "child", 1),
	})
	require.NoError(t, err)

	bySlug := make(map[string]models.TeamNode)
	for _, n := range out {
		bySlug[n.Slug] = n
	}
	assert.Equal(t, models.PositionRoot, bySlug["orphan"].PositionInTree)
	assert.Equal(t, "orphan", bySlug["orphan"].FullPathSlug)
	assert.Equal(t, "orphan/child", bySlug["child"].FullPathSlug)
}

func TestBuildHierarchyCycleFailsLoudly(t *testing.T) {
	_, err := BuildHierarchy([]models.TeamNode{
		node(1, "a", 2),
		node(2, "b", 1),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCycleDetected)
}

func TestBuildHierarchyDoesNotMutateInput(t *testing.T) {
	input := []models.TeamNode{node(1, "root", 0), node(2, "leaf", 1)}
	_, err := BuildHierarchy(input)
	require.NoError(t, err)
	assert.Empty(t, input[0].PositionInTree)
	assert.Nil(t, input[0].Children)
}
