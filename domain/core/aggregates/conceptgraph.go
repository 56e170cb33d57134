package aggregates

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"

	"conceptgraph-backend/domain/core/entities"
	"conceptgraph-backend/domain/core/valueobjects"
	"conceptgraph-backend/domain/lexicon"
	pkgerrors "conceptgraph-backend/pkg/errors"
)

// GraphID represents a unique graph identifier
type GraphID string

// NewGraphID creates a new random GraphID
func NewGraphID() GraphID {
	return GraphID(uuid.New().String())
}

// String returns the string representation
func (id GraphID) String() string {
	return string(id)
}

// ConceptGraph is the aggregate root for the concept taxonomy. It owns every
// concept and relation reachable through it and keeps the backing adjacency
// structure consistent with them on every mutation.
//
// Four invariants hold continuously:
//  1. the backing structure is acyclic,
//  2. once any relation exists, exactly one node with incident edges has
//     zero incoming edges; concepts may remain unconnected,
//  3. it is its own transitive reduction,
//  4. no two concepts share a label or a canonical sense.
//
// Every public mutator validates fully before committing: a rejected
// operation leaves the graph byte-for-byte unchanged. The aggregate is not
// safe for concurrent mutation; callers serialize access externally.
type ConceptGraph struct {
	id  GraphID
	lex lexicon.Lexicon

	nodes map[valueobjects.ConceptID]*entities.Concept
	edges map[string]*entities.Relation

	// label and sense indexes back invariant 4 and mirror the per-concept
	// label sets, so the adjacency structure's view never drifts from the
	// concepts themselves.
	labels map[string]valueobjects.ConceptID
	senses map[lexicon.Sense]valueobjects.ConceptID

	dag    *simple.DirectedGraph
	nextID int64
}

// NewConceptGraph creates an empty graph bound to a lexicon oracle.
func NewConceptGraph(lex lexicon.Lexicon) (*ConceptGraph, error) {
	if lex == nil {
		return nil, pkgerrors.NewValidationError(pkgerrors.CodeInvalidArgument, "lexicon is required")
	}
	return &ConceptGraph{
		id:     NewGraphID(),
		lex:    lex,
		nodes:  make(map[valueobjects.ConceptID]*entities.Concept),
		edges:  make(map[string]*entities.Relation),
		labels: make(map[string]valueobjects.ConceptID),
		senses: make(map[lexicon.Sense]valueobjects.ConceptID),
		dag:    simple.NewDirectedGraph(),
	}, nil
}

// ID returns the graph's unique identifier
func (g *ConceptGraph) ID() GraphID {
	return g.id
}

// Lexicon returns the oracle the graph validates against
func (g *ConceptGraph) Lexicon() lexicon.Lexicon {
	return g.lex
}

// NodeCount returns the number of concepts in the graph
func (g *ConceptGraph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of relations in the graph
func (g *ConceptGraph) EdgeCount() int {
	return len(g.edges)
}

// AddNode admits a concept into the graph. Every label of the concept and its
// canonical sense must be globally unique across the graph; on success the
// concept receives its structural id and a vertex in the backing structure.
func (g *ConceptGraph) AddNode(concept *entities.Concept) error {
	if concept == nil {
		return pkgerrors.NewValidationError(pkgerrors.CodeInvalidArgument, "concept cannot be nil")
	}
	if concept.ID().IsAssigned() {
		return pkgerrors.NewConflictError(
			pkgerrors.CodeInvalidArgument, "concept already admitted to a graph")
	}

	for _, label := range concept.Labels() {
		if _, exists := g.labels[label]; exists {
			return pkgerrors.NewConflictError(
				pkgerrors.CodeDuplicateLabel, fmt.Sprintf("label %q already in graph", label))
		}
	}
	if _, exists := g.senses[concept.CanonicalSense()]; exists {
		return pkgerrors.NewConflictError(
			pkgerrors.CodeDuplicateSense,
			fmt.Sprintf("sense %s already in graph", concept.CanonicalSense()))
	}

	g.nextID++
	id := valueobjects.ConceptID(g.nextID)
	if err := concept.AssignID(id); err != nil {
		g.nextID--
		return err
	}

	g.nodes[id] = concept
	for _, label := range concept.Labels() {
		g.labels[label] = id
	}
	g.senses[concept.CanonicalSense()] = id
	g.dag.AddNode(simple.Node(id.Int64()))

	return nil
}

// AddEdge admits a relation into the graph. The validation sequence
// short-circuits on the first failure and commits nothing until every check
// has passed:
//
//  1. both endpoints are members of the graph,
//  2. the source sense lies on the lexicon's hypernym path of the target
//     sense, so the edge denotes a genuine generalization,
//  3. neither endpoint already reaches the other, which preserves both
//     acyclicity and the transitive reduction,
//  4. a provisional insert keeps the zero-in-degree set at one node,
//     rolled back otherwise.
func (g *ConceptGraph) AddEdge(relation *entities.Relation) error {
	if relation == nil {
		return pkgerrors.NewValidationError(pkgerrors.CodeInvalidArgument, "relation cannot be nil")
	}

	source, ok := g.member(relation.Source())
	if !ok {
		return pkgerrors.NewNotFoundError(
			pkgerrors.CodeNodeNotFound, fmt.Sprintf("source %s not in graph", relation.Source()))
	}
	target, ok := g.member(relation.Target())
	if !ok {
		return pkgerrors.NewNotFoundError(
			pkgerrors.CodeNodeNotFound, fmt.Sprintf("target %s not in graph", relation.Target()))
	}

	path, err := g.lex.HypernymPath(target.CanonicalSense())
	if err != nil {
		return pkgerrors.Wrap(err, "hypernym path lookup failed")
	}
	onPath := false
	for _, s := range path {
		if s == source.CanonicalSense() {
			onPath = true
			break
		}
	}
	if !onPath {
		return pkgerrors.NewValidationError(
			pkgerrors.CodeNotAHypernym,
			fmt.Sprintf("%s is not a hypernym of %s", source.CanonicalSense(), target.CanonicalSense()))
	}

	if g.reaches(source.ID(), target.ID()) {
		return pkgerrors.NewConflictError(
			pkgerrors.CodeRedundantEdge,
			fmt.Sprintf("graph already contains a path from %s to %s", source, target))
	}
	if g.reaches(target.ID(), source.ID()) {
		return pkgerrors.NewConflictError(
			pkgerrors.CodeCycleDetected,
			fmt.Sprintf("edge %s -> %s would create a cycle", source, target))
	}

	// Provisional insert; the root count is only observable once the edge is
	// in the backing structure.
	g.dag.SetEdge(simple.Edge{
		F: simple.Node(source.ID().Int64()),
		T: simple.Node(target.ID().Int64()),
	})
	if roots := g.rootIDs(); len(roots) > 1 {
		g.dag.RemoveEdge(source.ID().Int64(), target.ID().Int64())
		return pkgerrors.NewConflictError(
			pkgerrors.CodeMultipleRoots,
			fmt.Sprintf("edge %s -> %s would leave %d roots", source, target, len(roots)))
	}

	committed, err := entities.NewRelation(source, target, relation.Label())
	if err != nil {
		g.dag.RemoveEdge(source.ID().Int64(), target.ID().Int64())
		return err
	}
	g.edges[edgeKey(source.ID(), target.ID())] = committed

	return nil
}

// AddDescriptorAsNewNode resolves a label to its unique sense, admits the
// resulting concept and attaches it as a childless child of parent. If the
// edge is rejected the freshly admitted node is removed again, so no
// partially attached state survives.
func (g *ConceptGraph) AddDescriptorAsNewNode(label string, parent *entities.Concept) (*entities.Concept, error) {
	parentMember, ok := g.member(parent)
	if !ok {
		return nil, pkgerrors.NewNotFoundError(
			pkgerrors.CodeNodeNotFound, fmt.Sprintf("parent %s not in graph", parent))
	}

	concept, err := entities.ConceptFromLabel(g.lex, label)
	if err != nil {
		return nil, err
	}
	if err := g.AddNode(concept); err != nil {
		return nil, err
	}

	relation, err := entities.NewRelation(parentMember, concept, "")
	if err != nil {
		g.removeNode(concept)
		return nil, err
	}
	if err := g.AddEdge(relation); err != nil {
		g.removeNode(concept)
		return nil, err
	}

	return concept, nil
}

// AddNodeUnder admits a pre-built concept and attaches it beneath parent in
// one operation. If the edge is rejected the node admission is rolled back.
func (g *ConceptGraph) AddNodeUnder(concept *entities.Concept, parent *entities.Concept) error {
	parentMember, ok := g.member(parent)
	if !ok {
		return pkgerrors.NewNotFoundError(
			pkgerrors.CodeNodeNotFound, fmt.Sprintf("parent %s not in graph", parent))
	}

	if err := g.AddNode(concept); err != nil {
		return err
	}

	relation, err := entities.NewRelation(parentMember, concept, "")
	if err != nil {
		g.removeNode(concept)
		return err
	}
	if err := g.AddEdge(relation); err != nil {
		g.removeNode(concept)
		return err
	}

	return nil
}

// AddDescriptorToNode appends a new synonym to a concept that is already a
// member of the graph and keeps the graph's label index in sync with the
// concept's own label set.
func (g *ConceptGraph) AddDescriptorToNode(label string, target *entities.Concept) error {
	member, ok := g.member(target)
	if !ok {
		return pkgerrors.NewNotFoundError(
			pkgerrors.CodeNodeNotFound, fmt.Sprintf("target %s not in graph", target))
	}
	if owner, exists := g.labels[label]; exists {
		if owner == member.ID() {
			return nil
		}
		return pkgerrors.NewConflictError(
			pkgerrors.CodeDuplicateLabel, fmt.Sprintf("label %q already in graph", label))
	}

	if err := member.AddLabel(g.lex, label); err != nil {
		return err
	}
	g.labels[label] = member.ID()

	return nil
}

// Contains is the polymorphic membership test. Strings with sense syntax are
// tested against canonical senses and other strings against labels; concepts
// and relations are tested by full value equality cross-checked against the
// backing structure.
func (g *ConceptGraph) Contains(value any) bool {
	switch v := value.(type) {
	case string:
		if lexicon.LooksLikeSense(v) {
			return g.ContainsSense(lexicon.Sense(v))
		}
		return g.ContainsLabel(v)
	case lexicon.Sense:
		return g.ContainsSense(v)
	case *entities.Concept:
		return g.ContainsConcept(v)
	case *entities.Relation:
		return g.ContainsRelation(v)
	default:
		return false
	}
}

// ContainsLabel reports whether any concept in the graph carries the label
func (g *ConceptGraph) ContainsLabel(label string) bool {
	_, exists := g.labels[label]
	return exists
}

// ContainsSense reports whether any concept is anchored to the sense
func (g *ConceptGraph) ContainsSense(sense lexicon.Sense) bool {
	_, exists := g.senses[sense]
	return exists
}

// ContainsConcept tests concept membership by value equality and presence of
// the member's vertex in the backing structure.
func (g *ConceptGraph) ContainsConcept(concept *entities.Concept) bool {
	member, ok := g.member(concept)
	if !ok {
		return false
	}
	return g.dag.Node(member.ID().Int64()) != nil
}

// ContainsRelation tests relation membership by full value equality and
// presence of the corresponding edge in the backing structure.
func (g *ConceptGraph) ContainsRelation(relation *entities.Relation) bool {
	if relation == nil {
		return false
	}
	source, ok := g.member(relation.Source())
	if !ok {
		return false
	}
	target, ok := g.member(relation.Target())
	if !ok {
		return false
	}
	stored, exists := g.edges[edgeKey(source.ID(), target.ID())]
	if !exists || !stored.Equals(relation) {
		return false
	}
	return g.dag.HasEdgeFromTo(source.ID().Int64(), target.ID().Int64())
}

// FindByLabel returns the member concept carrying the label
func (g *ConceptGraph) FindByLabel(label string) (*entities.Concept, bool) {
	id, exists := g.labels[label]
	if !exists {
		return nil, false
	}
	return g.nodes[id], true
}

// FindBySense returns the member concept anchored to the sense
func (g *ConceptGraph) FindBySense(sense lexicon.Sense) (*entities.Concept, bool) {
	id, exists := g.senses[sense]
	if !exists {
		return nil, false
	}
	return g.nodes[id], true
}

// Root returns the single zero-in-degree concept, nil while the graph is
// empty.
func (g *ConceptGraph) Root() *entities.Concept {
	roots := g.rootIDs()
	if len(roots) != 1 {
		return nil
	}
	return g.nodes[roots[0]]
}

// Concepts returns all member concepts ordered by structural id
func (g *ConceptGraph) Concepts() []*entities.Concept {
	concepts := make([]*entities.Concept, 0, len(g.nodes))
	for id := valueobjects.ConceptID(1); id <= valueobjects.ConceptID(g.nextID); id++ {
		if c, ok := g.nodes[id]; ok {
			concepts = append(concepts, c)
		}
	}
	return concepts
}

// Relations returns all member relations ordered by endpoint ids
func (g *ConceptGraph) Relations() []*entities.Relation {
	relations := make([]*entities.Relation, 0, len(g.edges))
	for _, source := range g.Concepts() {
		it := g.dag.From(source.ID().Int64())
		targets := make([]int64, 0, it.Len())
		for it.Next() {
			targets = append(targets, it.Node().ID())
		}
		sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })
		for _, t := range targets {
			if r, ok := g.edges[edgeKey(source.ID(), valueobjects.ConceptID(t))]; ok {
				relations = append(relations, r)
			}
		}
	}
	return relations
}

// LayeredDepths computes the topological generation of every concept: the
// root sits at depth 0 and every other concept at the length of the longest
// path from the root. Pure query, no mutation.
func (g *ConceptGraph) LayeredDepths() (map[*entities.Concept]int, error) {
	order, err := topo.SortStabilized(g.dag, nil)
	if err != nil {
		// Unreachable while the acyclicity invariant holds.
		return nil, pkgerrors.NewInternalError("backing structure is not a DAG", err)
	}

	depthByID := make(map[int64]int, len(order))
	for _, n := range order {
		depth := 0
		preds := g.dag.To(n.ID())
		for preds.Next() {
			if d := depthByID[preds.Node().ID()] + 1; d > depth {
				depth = d
			}
		}
		depthByID[n.ID()] = depth
	}

	depths := make(map[*entities.Concept]int, len(depthByID))
	for id, concept := range g.nodes {
		depths[concept] = depthByID[id.Int64()]
	}
	return depths, nil
}

// Validate audits the aggregate invariants; it is used by tests and the
// offline tooling, never by the mutation path, which maintains the
// invariants incrementally.
func (g *ConceptGraph) Validate() error {
	if g.dag.Nodes().Len() != len(g.nodes) {
		return pkgerrors.NewInternalError("node count mismatch with backing structure", nil)
	}
	if g.dag.Edges().Len() != len(g.edges) {
		return pkgerrors.NewInternalError("edge count mismatch with backing structure", nil)
	}
	if _, err := topo.Sort(g.dag); err != nil {
		return pkgerrors.NewInternalError("backing structure contains a cycle", err)
	}
	// Isolated vertices are admitted-but-unconnected concepts; only vertices
	// with incident edges participate in the root audit.
	if len(g.edges) > 0 {
		connected := 0
		for _, id := range g.rootIDs() {
			if g.dag.From(id.Int64()).Len() > 0 {
				connected++
			}
		}
		if connected != 1 {
			return pkgerrors.NewInternalError("graph does not have exactly one root", nil)
		}
	}
	for label, id := range g.labels {
		concept, ok := g.nodes[id]
		if !ok || !concept.HasLabel(label) {
			return pkgerrors.NewInternalError(fmt.Sprintf("label index entry %q is stale", label), nil)
		}
	}
	for sense, id := range g.senses {
		concept, ok := g.nodes[id]
		if !ok || concept.CanonicalSense() != sense {
			return pkgerrors.NewInternalError(fmt.Sprintf("sense index entry %s is stale", sense), nil)
		}
	}
	return nil
}

// member resolves a concept value to the admitted instance, matching by
// canonical sense then by full value equality.
func (g *ConceptGraph) member(concept *entities.Concept) (*entities.Concept, bool) {
	if concept == nil {
		return nil, false
	}
	id, exists := g.senses[concept.CanonicalSense()]
	if !exists {
		return nil, false
	}
	admitted := g.nodes[id]
	if !admitted.Equals(concept) {
		return nil, false
	}
	return admitted, true
}

// reaches reports whether to is a descendant of from in the backing
// structure.
func (g *ConceptGraph) reaches(from, to valueobjects.ConceptID) bool {
	if from == to {
		return true
	}
	bfs := traverse.BreadthFirst{}
	found := bfs.Walk(g.dag, g.dag.Node(from.Int64()), func(n graph.Node, _ int) bool {
		return n.ID() == to.Int64()
	})
	return found != nil
}

// rootIDs returns every zero-in-degree vertex.
func (g *ConceptGraph) rootIDs() []valueobjects.ConceptID {
	var roots []valueobjects.ConceptID
	it := g.dag.Nodes()
	for it.Next() {
		n := it.Node()
		if g.dag.To(n.ID()).Len() == 0 {
			roots = append(roots, valueobjects.ConceptID(n.ID()))
		}
	}
	return roots
}

// removeNode reverses an AddNode during composite-operation rollback. It is
// only valid for a freshly admitted node without incident edges. The concept
// is returned to the detached state so a later admission can succeed.
func (g *ConceptGraph) removeNode(concept *entities.Concept) {
	id := concept.ID()
	if !id.IsAssigned() {
		return
	}
	for _, label := range concept.Labels() {
		if g.labels[label] == id {
			delete(g.labels, label)
		}
	}
	if g.senses[concept.CanonicalSense()] == id {
		delete(g.senses, concept.CanonicalSense())
	}
	delete(g.nodes, id)
	g.dag.RemoveNode(id.Int64())
	concept.ClearID()
	if id.Int64() == g.nextID {
		g.nextID--
	}
}

func edgeKey(source, target valueobjects.ConceptID) string {
	return source.String() + "->" + target.String()
}
