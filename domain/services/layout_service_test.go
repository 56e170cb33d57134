package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conceptgraph-backend/domain/core/aggregates"
	"conceptgraph-backend/domain/core/entities"
	infralex "conceptgraph-backend/infrastructure/lexicon"
)

func buildGraph(t *testing.T) *aggregates.ConceptGraph {
	t.Helper()
	lex, err := infralex.NewStatic([]infralex.Entry{
		{
			Sense:        "entity.n.01",
			PartOfSpeech: "n",
			Synonyms:     []string{"entity"},
			HypernymPath: []string{"entity.n.01"},
		},
		{
			Sense:        "animal.n.01",
			PartOfSpeech: "n",
			Synonyms:     []string{"animal"},
			HypernymPath: []string{"entity.n.01", "animal.n.01"},
		},
		{
			Sense:        "dog.n.01",
			PartOfSpeech: "n",
			Synonyms:     []string{"dog"},
			HypernymPath: []string{"entity.n.01", "animal.n.01", "dog.n.01"},
		},
		{
			Sense:        "cat.n.01",
			PartOfSpeech: "n",
			Synonyms:     []string{"cat"},
			HypernymPath: []string{"entity.n.01", "animal.n.01", "cat.n.01"},
		},
	})
	require.NoError(t, err)

	g, err := aggregates.NewConceptGraph(lex)
	require.NoError(t, err)

	root, err := entities.ConceptFromLabel(lex, "entity")
	require.NoError(t, err)
	require.NoError(t, g.AddNode(root))

	// entity -> animal -> {dog, cat}, attached one concept at a time.
	parents := map[string]string{"animal": "entity", "dog": "animal", "cat": "animal"}
	for _, label := range []string{"animal", "dog", "cat"} {
		parent, ok := g.FindByLabel(parents[label])
		require.True(t, ok)
		c, err := entities.ConceptFromLabel(lex, label)
		require.NoError(t, err)
		require.NoError(t, g.AddNodeUnder(c, parent))
	}
	return g
}

func TestLayoutCompute(t *testing.T) {
	svc := NewLayoutService()
	g := buildGraph(t)

	placements, err := svc.Compute(g)
	require.NoError(t, err)
	require.Len(t, placements, 4)

	byLabel := make(map[string]Placement, len(placements))
	for _, p := range placements {
		byLabel[p.DisplayLabel] = p
	}

	root := byLabel["entity.n.01"]
	assert.Equal(t, 0, root.Depth)
	assert.Equal(t, 0.0, root.X)
	assert.Equal(t, 0.0, root.Y)

	animal := byLabel["animal.n.01"]
	assert.Equal(t, 1, animal.Depth)
	assert.Equal(t, -1.0, animal.Y)

	// dog and cat share the depth-2 band, centered around x=0 and ordered
	// by structural id.
	dog := byLabel["dog.n.01"]
	cat := byLabel["cat.n.01"]
	assert.Equal(t, 2, dog.Depth)
	assert.Equal(t, 2, cat.Depth)
	assert.Equal(t, -0.5, dog.X)
	assert.Equal(t, 0.5, cat.X)
	assert.Equal(t, -2.0, dog.Y)
	assert.Equal(t, -2.0, cat.Y)

	// Bands are emitted top down.
	assert.Equal(t, "entity.n.01", placements[0].DisplayLabel)
	assert.Equal(t, "animal.n.01", placements[1].DisplayLabel)
}

func TestLayoutComputeSpacing(t *testing.T) {
	svc := &LayoutService{SpacingX: 2.0, SpacingY: 3.0}
	g := buildGraph(t)

	placements, err := svc.Compute(g)
	require.NoError(t, err)

	byLabel := make(map[string]Placement, len(placements))
	for _, p := range placements {
		byLabel[p.DisplayLabel] = p
	}
	assert.Equal(t, -1.0, byLabel["dog.n.01"].X)
	assert.Equal(t, 1.0, byLabel["cat.n.01"].X)
	assert.Equal(t, -6.0, byLabel["dog.n.01"].Y)
	assert.Equal(t, -3.0, byLabel["animal.n.01"].Y)
}

func TestLayoutComputeNilGraph(t *testing.T) {
	svc := NewLayoutService()
	_, err := svc.Compute(nil)
	require.Error(t, err)
}

func TestLayoutComputeEmptyGraph(t *testing.T) {
	lex, err := infralex.NewStatic([]infralex.Entry{
		{
			Sense:        "entity.n.01",
			PartOfSpeech: "n",
			Synonyms:     []string{"entity"},
			HypernymPath: []string{"entity.n.01"},
		},
	})
	require.NoError(t, err)
	g, err := aggregates.NewConceptGraph(lex)
	require.NoError(t, err)

	svc := NewLayoutService()
	placements, err := svc.Compute(g)
	require.NoError(t, err)
	assert.Empty(t, placements)
}
