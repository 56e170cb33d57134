package aggregates

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conceptgraph-backend/domain/core/entities"
	domainlex "conceptgraph-backend/domain/lexicon"
	infralex "conceptgraph-backend/infrastructure/lexicon"
	pkgerrors "conceptgraph-backend/pkg/errors"
)

func testLexicon(t *testing.T) domainlex.Lexicon {
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
			Synonyms:     []string{"animal", "beast", "creature"},
			HypernymPath: []string{"entity.n.01", "animal.n.01"},
		},
		{
			Sense:        "dog.n.01",
			PartOfSpeech: "n",
			Synonyms:     []string{"dog", "domestic dog"},
			HypernymPath: []string{"entity.n.01", "animal.n.01", "dog.n.01"},
		},
		{
			Sense:        "cat.n.01",
			PartOfSpeech: "n",
			Synonyms:     []string{"cat", "true cat"},
			HypernymPath: []string{"entity.n.01", "animal.n.01", "cat.n.01"},
		},
		{
			Sense:        "bank.n.01",
			PartOfSpeech: "n",
			Synonyms:     []string{"bank"},
			HypernymPath: []string{"entity.n.01", "bank.n.01"},
		},
		{
			Sense:        "bank.n.02",
			PartOfSpeech: "n",
			Synonyms:     []string{"bank", "depository financial institution"},
			HypernymPath: []string{"entity.n.01", "bank.n.02"},
		},
		// A mutually hypernymic pair; only an inconsistent oracle can
		// produce one, and only the graph's reachability check stops it
		// from becoming a cycle.
		{
			Sense:        "north.n.01",
			PartOfSpeech: "n",
			Synonyms:     []string{"north"},
			HypernymPath: []string{"south.n.01", "north.n.01"},
		},
		{
			Sense:        "south.n.01",
			PartOfSpeech: "n",
			Synonyms:     []string{"south"},
			HypernymPath: []string{"north.n.01", "south.n.01"},
		},
	})
	require.NoError(t, err)
	return lex
}

func newGraph(t *testing.T) (*ConceptGraph, domainlex.Lexicon) {
	t.Helper()
	lex := testLexicon(t)
	g, err := NewConceptGraph(lex)
	require.NoError(t, err)
	return g, lex
}

func addConcept(t *testing.T, g *ConceptGraph, lex domainlex.Lexicon, label string) *entities.Concept {
	t.Helper()
	c, err := entities.ConceptFromLabel(lex, label)
	require.NoError(t, err)
	require.NoError(t, g.AddNode(c))
	return c
}

func addEdge(t *testing.T, g *ConceptGraph, source, target *entities.Concept) *entities.Relation {
	t.Helper()
	r, err := entities.NewRelation(source, target, "")
	require.NoError(t, err)
	require.NoError(t, g.AddEdge(r))
	return r
}

func TestAddNode(t *testing.T) {
	t.Run("assigns sequential structural ids", func(t *testing.T) {
		g, lex := newGraph(t)

		entity := addConcept(t, g, lex, "entity")
		animal := addConcept(t, g, lex, "animal")

		assert.EqualValues(t, 1, entity.ID())
		assert.EqualValues(t, 2, animal.ID())
		assert.Equal(t, 2, g.NodeCount())
	})

	t.Run("rejects nil", func(t *testing.T) {
		g, _ := newGraph(t)
		err := g.AddNode(nil)
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeInvalidArgument, pkgerrors.CodeOf(err))
	})

	t.Run("rejects an already admitted concept", func(t *testing.T) {
		g, lex := newGraph(t)
		entity := addConcept(t, g, lex, "entity")

		err := g.AddNode(entity)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsConflict(err))
		assert.Equal(t, 1, g.NodeCount())
	})

	t.Run("rejects a duplicate label", func(t *testing.T) {
		g, lex := newGraph(t)

		first, err := entities.NewConcept(lex, []string{"bank"}, "bank.n.01")
		require.NoError(t, err)
		require.NoError(t, g.AddNode(first))

		// A distinct sense carrying an already claimed label.
		second, err := entities.NewConcept(lex, []string{"bank"}, "bank.n.02")
		require.NoError(t, err)

		err = g.AddNode(second)
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeDuplicateLabel, pkgerrors.CodeOf(err))
		assert.Equal(t, 1, g.NodeCount())
		assert.False(t, second.ID().IsAssigned())
	})

	t.Run("rejects a duplicate sense", func(t *testing.T) {
		g, lex := newGraph(t)
		addConcept(t, g, lex, "dog")

		dup, err := entities.NewConcept(lex, []string{"domestic dog"}, "dog.n.01")
		require.NoError(t, err)

		err = g.AddNode(dup)
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeDuplicateSense, pkgerrors.CodeOf(err))
		assert.Equal(t, 1, g.NodeCount())
		assert.False(t, g.ContainsLabel("domestic dog"))
	})
}

func TestAddEdge(t *testing.T) {
	t.Run("builds a generalization chain", func(t *testing.T) {
		g, lex := newGraph(t)
		entity := addConcept(t, g, lex, "entity")
		animal := addConcept(t, g, lex, "animal")
		addEdge(t, g, entity, animal)
		dog := addConcept(t, g, lex, "dog")
		addEdge(t, g, animal, dog)

		assert.Equal(t, 2, g.EdgeCount())
		assert.True(t, entity.Equals(g.Root()))
		require.NoError(t, g.Validate())
	})

	t.Run("rejects endpoints outside the graph", func(t *testing.T) {
		g, lex := newGraph(t)
		entity := addConcept(t, g, lex, "entity")

		detached, err := entities.ConceptFromLabel(lex, "animal")
		require.NoError(t, err)

		r, err := entities.NewRelation(entity, detached, "")
		require.NoError(t, err)
		err = g.AddEdge(r)
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeNodeNotFound, pkgerrors.CodeOf(err))
	})

	t.Run("rejects a non-hypernym source", func(t *testing.T) {
		g, lex := newGraph(t)
		animal := addConcept(t, g, lex, "animal")
		dog := addConcept(t, g, lex, "dog")

		r, err := entities.NewRelation(dog, animal, "")
		require.NoError(t, err)
		err = g.AddEdge(r)
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeNotAHypernym, pkgerrors.CodeOf(err))
		assert.Equal(t, 0, g.EdgeCount())
	})

	t.Run("rejects a transitively redundant edge", func(t *testing.T) {
		g, lex := newGraph(t)
		entity := addConcept(t, g, lex, "entity")
		animal := addConcept(t, g, lex, "animal")
		addEdge(t, g, entity, animal)
		dog := addConcept(t, g, lex, "dog")
		addEdge(t, g, animal, dog)

		r, err := entities.NewRelation(entity, dog, "")
		require.NoError(t, err)
		err = g.AddEdge(r)
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeRedundantEdge, pkgerrors.CodeOf(err))
		assert.Equal(t, 2, g.EdgeCount())
	})

	t.Run("rejects a duplicate edge as redundant", func(t *testing.T) {
		g, lex := newGraph(t)
		entity := addConcept(t, g, lex, "entity")
		animal := addConcept(t, g, lex, "animal")
		addEdge(t, g, entity, animal)

		r, err := entities.NewRelation(entity, animal, "")
		require.NoError(t, err)
		err = g.AddEdge(r)
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeRedundantEdge, pkgerrors.CodeOf(err))
	})

	t.Run("rejects a back edge as a cycle", func(t *testing.T) {
		g, lex := newGraph(t)
		north := addConcept(t, g, lex, "north")
		south := addConcept(t, g, lex, "south")
		addEdge(t, g, north, south)

		r, err := entities.NewRelation(south, north, "")
		require.NoError(t, err)
		err = g.AddEdge(r)
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeCycleDetected, pkgerrors.CodeOf(err))
		assert.Equal(t, 1, g.EdgeCount())
		require.NoError(t, g.Validate())
	})

	t.Run("rejects an edge that leaves two roots", func(t *testing.T) {
		g, lex := newGraph(t)
		animal := addConcept(t, g, lex, "animal")
		dog := addConcept(t, g, lex, "dog")
		addEdge(t, g, animal, dog)

		entity := addConcept(t, g, lex, "entity")
		cat := addConcept(t, g, lex, "cat")

		r, err := entities.NewRelation(entity, cat, "")
		require.NoError(t, err)
		err = g.AddEdge(r)
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeMultipleRoots, pkgerrors.CodeOf(err))

		// The provisional insert must be rolled back.
		assert.Equal(t, 1, g.EdgeCount())
		assert.False(t, g.ContainsRelation(r))
		require.NoError(t, g.Validate())
	})
}

func TestAddDescriptorAsNewNode(t *testing.T) {
	t.Run("admits and attaches in one operation", func(t *testing.T) {
		g, lex := newGraph(t)
		entity := addConcept(t, g, lex, "entity")
		animal := addConcept(t, g, lex, "animal")
		addEdge(t, g, entity, animal)

		cat, err := g.AddDescriptorAsNewNode("cat", animal)
		require.NoError(t, err)
		assert.True(t, g.ContainsConcept(cat))
		assert.Equal(t, 3, g.NodeCount())
		assert.Equal(t, 2, g.EdgeCount())
	})

	t.Run("rejects an unknown parent", func(t *testing.T) {
		g, lex := newGraph(t)
		detached, err := entities.ConceptFromLabel(lex, "animal")
		require.NoError(t, err)

		_, err = g.AddDescriptorAsNewNode("cat", detached)
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeNodeNotFound, pkgerrors.CodeOf(err))
	})

	t.Run("propagates ambiguity", func(t *testing.T) {
		g, lex := newGraph(t)
		entity := addConcept(t, g, lex, "entity")

		_, err := g.AddDescriptorAsNewNode("bank", entity)
		require.Error(t, err)

		var ambiguous *domainlex.AmbiguousLabelError
		require.True(t, errors.As(err, &ambiguous))
		assert.Len(t, ambiguous.Candidates, 2)
		assert.Equal(t, 1, g.NodeCount())
	})

	t.Run("rolls back the node when the edge is rejected", func(t *testing.T) {
		g, lex := newGraph(t)
		entity := addConcept(t, g, lex, "entity")
		animal := addConcept(t, g, lex, "animal")
		addEdge(t, g, entity, animal)
		cat := addConcept(t, g, lex, "cat")
		addEdge(t, g, animal, cat)

		// dog's hypernym path does not include cat, so the attaching edge
		// fails after the node was admitted.
		_, err := g.AddDescriptorAsNewNode("dog", cat)
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeNotAHypernym, pkgerrors.CodeOf(err))
		assert.Equal(t, 3, g.NodeCount())
		assert.False(t, g.ContainsLabel("dog"))
		require.NoError(t, g.Validate())
	})
}

func TestAddNodeUnder(t *testing.T) {
	t.Run("admits and attaches beneath the parent", func(t *testing.T) {
		g, lex := newGraph(t)
		entity := addConcept(t, g, lex, "entity")

		animal, err := entities.ConceptFromLabel(lex, "animal")
		require.NoError(t, err)
		require.NoError(t, g.AddNodeUnder(animal, entity))
		assert.True(t, g.ContainsConcept(animal))
		assert.Equal(t, 1, g.EdgeCount())
	})

	t.Run("rejects an unknown parent", func(t *testing.T) {
		g, lex := newGraph(t)
		detached, err := entities.ConceptFromLabel(lex, "entity")
		require.NoError(t, err)
		animal, err := entities.ConceptFromLabel(lex, "animal")
		require.NoError(t, err)

		err = g.AddNodeUnder(animal, detached)
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeNodeNotFound, pkgerrors.CodeOf(err))
	})

	t.Run("rolled back concept can be admitted again", func(t *testing.T) {
		g, lex := newGraph(t)
		entity := addConcept(t, g, lex, "entity")
		dog, err := entities.ConceptFromLabel(lex, "dog")
		require.NoError(t, err)
		require.NoError(t, g.AddNodeUnder(dog, entity))

		animal, err := entities.ConceptFromLabel(lex, "animal")
		require.NoError(t, err)

		// dog is not on animal's hypernym path, so the attaching edge fails
		// after the node was admitted.
		err = g.AddNodeUnder(animal, dog)
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeNotAHypernym, pkgerrors.CodeOf(err))
		assert.False(t, animal.ID().IsAssigned())
		assert.False(t, g.ContainsLabel("animal"))

		// The rollback detached the concept fully; a later admission under a
		// valid parent succeeds and the id sequence stays dense.
		require.NoError(t, g.AddNodeUnder(animal, entity))
		assert.EqualValues(t, 3, animal.ID())
		assert.True(t, g.ContainsConcept(animal))
		require.NoError(t, g.Validate())
	})
}

func TestAddDescriptorToNode(t *testing.T) {
	t.Run("appends a synonym and updates the index", func(t *testing.T) {
		g, lex := newGraph(t)
		animal := addConcept(t, g, lex, "animal")

		require.NoError(t, g.AddDescriptorToNode("beast", animal))
		assert.True(t, g.ContainsLabel("beast"))
		found, ok := g.FindByLabel("beast")
		require.True(t, ok)
		assert.Same(t, animal, found)
		require.NoError(t, g.Validate())
	})

	t.Run("is idempotent for a label the node already carries", func(t *testing.T) {
		g, lex := newGraph(t)
		animal := addConcept(t, g, lex, "animal")

		require.NoError(t, g.AddDescriptorToNode("animal", animal))
		assert.Equal(t, []string{"animal"}, animal.Labels())
	})

	t.Run("rejects a label owned by another node", func(t *testing.T) {
		g, lex := newGraph(t)
		animal := addConcept(t, g, lex, "animal")
		addConcept(t, g, lex, "dog")

		err := g.AddDescriptorToNode("dog", animal)
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeDuplicateLabel, pkgerrors.CodeOf(err))
		assert.Equal(t, []string{"animal"}, animal.Labels())
	})

	t.Run("rejects a non-synonym", func(t *testing.T) {
		g, lex := newGraph(t)
		animal := addConcept(t, g, lex, "animal")

		err := g.AddDescriptorToNode("entity", animal)
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeNotSynonymous, pkgerrors.CodeOf(err))
		assert.False(t, g.ContainsLabel("entity"))
	})
}

func TestContains(t *testing.T) {
	g, lex := newGraph(t)
	entity := addConcept(t, g, lex, "entity")
	animal := addConcept(t, g, lex, "animal")
	relation := addEdge(t, g, entity, animal)

	t.Run("label string", func(t *testing.T) {
		assert.True(t, g.Contains("animal"))
		assert.False(t, g.Contains("dog"))
	})

	t.Run("sense syntax string", func(t *testing.T) {
		assert.True(t, g.Contains("animal.n.01"))
		assert.False(t, g.Contains("dog.n.01"))
	})

	t.Run("sense value", func(t *testing.T) {
		assert.True(t, g.Contains(domainlex.Sense("entity.n.01")))
	})

	t.Run("concept by value", func(t *testing.T) {
		copyOf, err := entities.ConceptFromLabel(lex, "animal")
		require.NoError(t, err)
		assert.True(t, g.Contains(copyOf))

		// Adding a synonym changes the member's label set, so the stale
		// copy no longer matches by value.
		require.NoError(t, g.AddDescriptorToNode("beast", animal))
		assert.False(t, g.Contains(copyOf))
	})

	t.Run("relation by value", func(t *testing.T) {
		assert.True(t, g.Contains(relation))

		labeled, err := entities.NewRelation(entity, animal, "hypernymy")
		require.NoError(t, err)
		assert.False(t, g.Contains(labeled), "label participates in equality")
	})

	t.Run("unsupported type", func(t *testing.T) {
		assert.False(t, g.Contains(42))
		assert.False(t, g.Contains(nil))
	})
}

func TestLayeredDepths(t *testing.T) {
	g, lex := newGraph(t)
	entity := addConcept(t, g, lex, "entity")
	animal := addConcept(t, g, lex, "animal")
	addEdge(t, g, entity, animal)
	dog := addConcept(t, g, lex, "dog")
	addEdge(t, g, animal, dog)
	bank, err := entities.NewConcept(lex, []string{"bank"}, "bank.n.01")
	require.NoError(t, err)
	require.NoError(t, g.AddNode(bank))
	addEdge(t, g, entity, bank)

	depths, err := g.LayeredDepths()
	require.NoError(t, err)
	assert.Equal(t, 0, depths[entity])
	assert.Equal(t, 1, depths[animal])
	assert.Equal(t, 2, depths[dog])
	assert.Equal(t, 1, depths[bank])
}

func TestConceptsAndRelationsOrdering(t *testing.T) {
	g, lex := newGraph(t)
	entity := addConcept(t, g, lex, "entity")
	animal := addConcept(t, g, lex, "animal")
	addEdge(t, g, entity, animal)
	cat := addConcept(t, g, lex, "cat")
	addEdge(t, g, animal, cat)
	dog := addConcept(t, g, lex, "dog")
	addEdge(t, g, animal, dog)

	concepts := g.Concepts()
	require.Len(t, concepts, 4)
	assert.Same(t, entity, concepts[0])
	assert.Same(t, animal, concepts[1])
	assert.Same(t, cat, concepts[2])
	assert.Same(t, dog, concepts[3])

	// Relations are ordered by endpoint ids, independent of the adjacency
	// structure's iteration order.
	relations := g.Relations()
	require.Len(t, relations, 3)
	assert.Same(t, entity, relations[0].Source())
	assert.Same(t, animal, relations[0].Target())
	assert.Same(t, cat, relations[1].Target())
	assert.Same(t, dog, relations[2].Target())
}

func TestRootAndEmptyGraph(t *testing.T) {
	g, lex := newGraph(t)
	assert.Nil(t, g.Root())
	assert.Equal(t, 0, g.NodeCount())
	require.NoError(t, g.Validate())

	entity := addConcept(t, g, lex, "entity")
	assert.True(t, entity.Equals(g.Root()))
}
