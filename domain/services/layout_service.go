package services

import (
	"sort"

	"conceptgraph-backend/domain/core/aggregates"
	"conceptgraph-backend/domain/core/valueobjects"
	pkgerrors "conceptgraph-backend/pkg/errors"
)

// Placement is one concept positioned by the layered layout. The display
// label is the concept's canonical sense, matching what rendering clients
// show next to each node.
type Placement struct {
	DisplayLabel string                 `json:"displayLabel"`
	Labels       []string               `json:"labels"`
	Depth        int                    `json:"depth"`
	X            float64                `json:"x"`
	Y            float64                `json:"y"`
	position     valueobjects.Position  `json:"-"`
	id           valueobjects.ConceptID `json:"-"`
}

// Position returns the placement as a position value object
func (p Placement) Position() valueobjects.Position {
	return p.position
}

// LayoutService turns a graph's topological generations into a multipartite
// layout: one horizontal band per generation, the root band at the top.
// It is a pure computation over LayeredDepths output; the graph is not
// touched.
type LayoutService struct {
	// horizontal and vertical spacing between adjacent nodes and bands
	SpacingX float64
	SpacingY float64
}

// NewLayoutService creates a layout service with default spacing
func NewLayoutService() *LayoutService {
	return &LayoutService{SpacingX: 1.0, SpacingY: 1.0}
}

// Compute places every concept of the graph. Concepts within a band are
// centered around x=0 and ordered by structural id, so the layout is
// deterministic for a given graph.
func (s *LayoutService) Compute(graph *aggregates.ConceptGraph) ([]Placement, error) {
	if graph == nil {
		return nil, pkgerrors.NewValidationError(pkgerrors.CodeInvalidArgument, "graph cannot be nil")
	}

	depths, err := graph.LayeredDepths()
	if err != nil {
		return nil, err
	}

	bands := make(map[int][]Placement)
	for concept, depth := range depths {
		bands[depth] = append(bands[depth], Placement{
			DisplayLabel: concept.CanonicalSense().String(),
			Labels:       concept.Labels(),
			Depth:        depth,
			id:           concept.ID(),
		})
	}

	placements := make([]Placement, 0, len(depths))
	depthsSeen := make([]int, 0, len(bands))
	for depth := range bands {
		depthsSeen = append(depthsSeen, depth)
	}
	sort.Ints(depthsSeen)

	for _, depth := range depthsSeen {
		band := bands[depth]
		sort.Slice(band, func(i, j int) bool { return band[i].id < band[j].id })

		// Center the band: n nodes occupy (n-1)*SpacingX of width.
		offset := -float64(len(band)-1) * s.SpacingX / 2
		for i := range band {
			x := offset + float64(i)*s.SpacingX
			y := -float64(depth) * s.SpacingY
			pos, err := valueobjects.NewPosition(x, y)
			if err != nil {
				return nil, err
			}
			band[i].X = x
			band[i].Y = y
			band[i].position = pos
			placements = append(placements, band[i])
		}
	}

	return placements, nil
}
