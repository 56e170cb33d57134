// Package persistence implements the serialized graph document collaborator:
// a node-link JSON codec plus a file-backed store. Deserialization replays
// every node and edge through the aggregate's own mutation protocol, so a
// document that violates a graph invariant is rejected rather than loaded.
package persistence

import (
	"encoding/json"
	"fmt"

	"conceptgraph-backend/domain/core/aggregates"
	"conceptgraph-backend/domain/core/entities"
	"conceptgraph-backend/domain/lexicon"
	pkgerrors "conceptgraph-backend/pkg/errors"
)

// NodeRecord is one concept entry of a graph document.
type NodeRecord struct {
	ID             int64    `json:"id"`
	Labels         []string `json:"labels"`
	CanonicalSense string   `json:"canonicalSense"`
}

// EdgeRecord is one relation entry, referencing node ids.
type EdgeRecord struct {
	Source int64  `json:"source"`
	Target int64  `json:"target"`
	Label  string `json:"label,omitempty"`
}

// Document is the node-link JSON shape of a concept graph. Node ids are only
// meaningful within one document; round-tripping preserves the graph up to
// isomorphism, not the numeric ids.
type Document struct {
	Nodes []NodeRecord `json:"nodes"`
	Edges []EdgeRecord `json:"edges"`
}

// UnmarshalJSON accepts both "edges" and the node-link "links" key for the
// edge list.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw struct {
		Nodes []NodeRecord `json:"nodes"`
		Edges []EdgeRecord `json:"edges"`
		Links []EdgeRecord `json:"links"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Nodes = raw.Nodes
	d.Edges = raw.Edges
	if len(d.Edges) == 0 {
		d.Edges = raw.Links
	}
	return nil
}

// Encode captures a graph as a document. Nodes and edges are emitted in
// structural-id order, so encoding the same graph twice yields identical
// documents.
func Encode(graph *aggregates.ConceptGraph) (*Document, error) {
	if graph == nil {
		return nil, pkgerrors.NewValidationError(pkgerrors.CodeInvalidArgument, "graph cannot be nil")
	}

	doc := &Document{
		Nodes: make([]NodeRecord, 0, graph.NodeCount()),
		Edges: make([]EdgeRecord, 0, graph.EdgeCount()),
	}
	for _, c := range graph.Concepts() {
		doc.Nodes = append(doc.Nodes, NodeRecord{
			ID:             c.ID().Int64(),
			Labels:         c.Labels(),
			CanonicalSense: c.CanonicalSense().String(),
		})
	}
	for _, r := range graph.Relations() {
		doc.Edges = append(doc.Edges, EdgeRecord{
			Source: r.Source().ID().Int64(),
			Target: r.Target().ID().Int64(),
			Label:  r.Label(),
		})
	}
	return doc, nil
}

// Decode rebuilds a graph from a document against the given lexicon. Nodes
// with incident edges are admitted in generation order, each immediately
// followed by its incoming edges, so the single-root invariant holds at every
// committed step of the replay. Unconnected nodes are admitted after the edge
// replay, which is the only order live mutations can produce them in anyway:
// once a second zero-in-degree vertex exists no further edge is accepted.
// Structural ids are re-assigned.
func Decode(doc *Document, lex lexicon.Lexicon) (*aggregates.ConceptGraph, error) {
	if doc == nil {
		return nil, pkgerrors.NewValidationError(pkgerrors.CodeInvalidArgument, "document cannot be nil")
	}

	graph, err := aggregates.NewConceptGraph(lex)
	if err != nil {
		return nil, err
	}
	if len(doc.Nodes) == 0 {
		if len(doc.Edges) > 0 {
			return nil, pkgerrors.NewValidationError(
				pkgerrors.CodeInvalidArgument, "document has edges but no nodes")
		}
		return graph, nil
	}

	records := make(map[int64]NodeRecord, len(doc.Nodes))
	for _, n := range doc.Nodes {
		if _, dup := records[n.ID]; dup {
			return nil, pkgerrors.NewValidationError(
				pkgerrors.CodeInvalidArgument, fmt.Sprintf("duplicate node id %d in document", n.ID))
		}
		records[n.ID] = n
	}

	incoming := make(map[int64][]EdgeRecord, len(records))
	outgoing := make(map[int64][]EdgeRecord, len(records))
	indegree := make(map[int64]int, len(records))
	for _, e := range doc.Edges {
		if _, ok := records[e.Source]; !ok {
			return nil, pkgerrors.NewValidationError(
				pkgerrors.CodeInvalidArgument, fmt.Sprintf("edge references unknown node id %d", e.Source))
		}
		if _, ok := records[e.Target]; !ok {
			return nil, pkgerrors.NewValidationError(
				pkgerrors.CodeInvalidArgument, fmt.Sprintf("edge references unknown node id %d", e.Target))
		}
		incoming[e.Target] = append(incoming[e.Target], e)
		outgoing[e.Source] = append(outgoing[e.Source], e)
		indegree[e.Target]++
	}

	var queue []int64
	var unconnected []int64
	edged := 0
	for _, n := range doc.Nodes {
		if indegree[n.ID] == 0 && len(outgoing[n.ID]) == 0 {
			unconnected = append(unconnected, n.ID)
			continue
		}
		edged++
		if indegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}
	if len(doc.Edges) > 0 {
		if len(queue) == 0 {
			return nil, pkgerrors.NewConflictError(
				pkgerrors.CodeCycleDetected, "document edges form a cycle")
		}
		if len(queue) > 1 {
			return nil, pkgerrors.NewConflictError(
				pkgerrors.CodeMultipleRoots,
				fmt.Sprintf("document has %d connected roots", len(queue)))
		}
	}

	// Kahn's algorithm over the edged component, admitting each node followed
	// by its incoming edges.
	concepts := make(map[int64]*entities.Concept, len(records))
	remaining := make(map[int64]int, len(records))
	for id := range records {
		remaining[id] = indegree[id]
	}

	admitted := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		record := records[id]

		concept, err := entities.NewConcept(lex, record.Labels, record.CanonicalSense)
		if err != nil {
			return nil, pkgerrors.Wrap(err, fmt.Sprintf("document node %d", id))
		}
		if err := graph.AddNode(concept); err != nil {
			return nil, pkgerrors.Wrap(err, fmt.Sprintf("document node %d", id))
		}
		concepts[id] = concept

		for _, e := range incoming[id] {
			relation, err := entities.NewRelation(concepts[e.Source], concept, e.Label)
			if err != nil {
				return nil, pkgerrors.Wrap(err, fmt.Sprintf("document edge %d -> %d", e.Source, e.Target))
			}
			if err := graph.AddEdge(relation); err != nil {
				return nil, pkgerrors.Wrap(err, fmt.Sprintf("document edge %d -> %d", e.Source, e.Target))
			}
		}
		admitted++

		for _, e := range outgoing[id] {
			remaining[e.Target]--
			if remaining[e.Target] == 0 {
				queue = append(queue, e.Target)
			}
		}
	}

	if admitted != edged {
		return nil, pkgerrors.NewConflictError(
			pkgerrors.CodeCycleDetected, "document edges form a cycle")
	}

	for _, id := range unconnected {
		record := records[id]
		concept, err := entities.NewConcept(lex, record.Labels, record.CanonicalSense)
		if err != nil {
			return nil, pkgerrors.Wrap(err, fmt.Sprintf("document node %d", id))
		}
		if err := graph.AddNode(concept); err != nil {
			return nil, pkgerrors.Wrap(err, fmt.Sprintf("document node %d", id))
		}
	}

	return graph, nil
}
