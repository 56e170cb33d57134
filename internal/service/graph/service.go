// Package graph contains the application service that fronts the concept
// graph aggregate: it serializes mutations, persists accepted changes and
// records metrics, keeping all of that out of the domain layer.
package graph

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"conceptgraph-backend/domain/core/aggregates"
	"conceptgraph-backend/domain/core/entities"
	"conceptgraph-backend/domain/lexicon"
	"conceptgraph-backend/domain/services"
	"conceptgraph-backend/infrastructure/persistence"
	"conceptgraph-backend/internal/infrastructure/observability"
	pkgerrors "conceptgraph-backend/pkg/errors"
)

// Service coordinates access to a single concept graph. A mutex serializes
// mutations so the aggregate's validate-then-commit protocol never interleaves
// with a reader.
type Service struct {
	mu        sync.Mutex
	graph     *aggregates.ConceptGraph
	lex       lexicon.Lexicon
	store     *persistence.Store
	layout    *services.LayoutService
	collector *observability.Collector
	logger    *zap.Logger
}

// Options configures optional service collaborators.
type Options struct {
	Store     *persistence.Store
	Collector *observability.Collector
	Logger    *zap.Logger
}

// NewService creates a service over an existing graph.
func NewService(graph *aggregates.ConceptGraph, lex lexicon.Lexicon, opts Options) (*Service, error) {
	if graph == nil {
		return nil, pkgerrors.NewValidationError(pkgerrors.CodeInvalidArgument, "graph cannot be nil")
	}
	if lex == nil {
		return nil, pkgerrors.NewValidationError(pkgerrors.CodeInvalidArgument, "lexicon cannot be nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		graph:     graph,
		lex:       lex,
		store:     opts.Store,
		layout:    services.NewLayoutService(),
		collector: opts.Collector,
		logger:    logger,
	}
	s.publishSize()
	return s, nil
}

// CreateConcept admits a new concept built from explicit labels and a sense,
// optionally attached under a parent concept named by one of its labels.
func (s *Service) CreateConcept(labels []string, senseName, parentLabel string) (*entities.Concept, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	concept, err := entities.NewConcept(s.lex, labels, senseName)
	if err != nil {
		s.record("create_concept", err)
		return nil, err
	}

	if parentLabel == "" {
		err = s.graph.AddNode(concept)
	} else {
		parent, ok := s.graph.FindByLabel(parentLabel)
		if !ok {
			err = pkgerrors.NewNotFoundError(
				pkgerrors.CodeNodeNotFound, "no concept carries label "+parentLabel)
		} else {
			err = s.graph.AddNodeUnder(concept, parent)
		}
	}
	if err != nil {
		s.record("create_concept", err)
		return nil, err
	}

	if err := s.persist(); err != nil {
		return nil, err
	}
	s.record("create_concept", nil)
	s.logger.Info("concept created",
		zap.Int64("id", concept.ID().Int64()),
		zap.Strings("labels", concept.Labels()),
		zap.String("sense", concept.CanonicalSense().String()),
	)
	return concept, nil
}

// CreateConceptFromLabel resolves a single label against the lexicon and
// admits the resulting concept, optionally under a parent.
func (s *Service) CreateConceptFromLabel(label, parentLabel string) (*entities.Concept, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var concept *entities.Concept
	var err error
	if parentLabel == "" {
		concept, err = entities.ConceptFromLabel(s.lex, label)
		if err == nil {
			err = s.graph.AddNode(concept)
		}
	} else {
		parent, ok := s.graph.FindByLabel(parentLabel)
		if !ok {
			err = pkgerrors.NewNotFoundError(
				pkgerrors.CodeNodeNotFound, "no concept carries label "+parentLabel)
		} else {
			concept, err = s.graph.AddDescriptorAsNewNode(label, parent)
		}
	}
	if err != nil {
		s.record("create_concept_from_label", err)
		return nil, err
	}

	if err := s.persist(); err != nil {
		return nil, err
	}
	s.record("create_concept_from_label", nil)
	s.logger.Info("concept created from label",
		zap.Int64("id", concept.ID().Int64()),
		zap.String("label", label),
	)
	return concept, nil
}

// AddSynonym appends a synonymous label to the concept currently carrying
// the given label.
func (s *Service) AddSynonym(label, synonym string) (*entities.Concept, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.graph.FindByLabel(label)
	if !ok {
		err := pkgerrors.NewNotFoundError(
			pkgerrors.CodeNodeNotFound, "no concept carries label "+label)
		s.record("add_synonym", err)
		return nil, err
	}

	if err := s.graph.AddDescriptorToNode(synonym, target); err != nil {
		s.record("add_synonym", err)
		return nil, err
	}

	if err := s.persist(); err != nil {
		return nil, err
	}
	s.record("add_synonym", nil)
	return target, nil
}

// CreateRelation admits a generalization edge between two member concepts
// named by their labels.
func (s *Service) CreateRelation(sourceLabel, targetLabel, relationLabel string) (*entities.Relation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	source, ok := s.graph.FindByLabel(sourceLabel)
	if !ok {
		err := pkgerrors.NewNotFoundError(
			pkgerrors.CodeNodeNotFound, "no concept carries label "+sourceLabel)
		s.record("create_relation", err)
		return nil, err
	}
	target, ok := s.graph.FindByLabel(targetLabel)
	if !ok {
		err := pkgerrors.NewNotFoundError(
			pkgerrors.CodeNodeNotFound, "no concept carries label "+targetLabel)
		s.record("create_relation", err)
		return nil, err
	}

	relation, err := entities.NewRelation(source, target, relationLabel)
	if err != nil {
		s.record("create_relation", err)
		return nil, err
	}
	if err := s.graph.AddEdge(relation); err != nil {
		s.record("create_relation", err)
		return nil, err
	}

	if err := s.persist(); err != nil {
		return nil, err
	}
	s.record("create_relation", nil)
	s.logger.Info("relation created",
		zap.Int64("source", source.ID().Int64()),
		zap.Int64("target", target.ID().Int64()),
	)
	return relation, nil
}

// Concepts returns the graph's concepts in admission order.
func (s *Service) Concepts() []*entities.Concept {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.Concepts()
}

// Relations returns the graph's relations in deterministic order.
func (s *Service) Relations() []*entities.Relation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.Relations()
}

// Root returns the graph's root concept, nil when the graph is empty.
func (s *Service) Root() *entities.Concept {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.Root()
}

// LayeredDepths reports each concept's depth below the root.
func (s *Service) LayeredDepths() (map[*entities.Concept]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.LayeredDepths()
}

// Layout computes display placements for every concept.
func (s *Service) Layout() ([]services.Placement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout.Compute(s.graph)
}

// FindByLabel resolves a label to its owning concept.
func (s *Service) FindByLabel(label string) (*entities.Concept, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.FindByLabel(label)
}

// Contains reports membership of a label, sense, concept or relation.
func (s *Service) Contains(value any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.Contains(value)
}

// Validate audits the graph's internal consistency.
func (s *Service) Validate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.Validate()
}

// persist saves the graph when a store is configured. A failed save is an
// internal error surfaced to the caller; the in-memory graph stays committed.
func (s *Service) persist() error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Save(s.graph); err != nil {
		s.logger.Error("graph save failed", zap.Error(err))
		return err
	}
	return nil
}

// record reports one mutation outcome to the collector.
func (s *Service) record(operation string, err error) {
	if s.collector == nil {
		return
	}
	reason := ""
	if err != nil {
		var ambiguous *lexicon.AmbiguousLabelError
		if errors.As(err, &ambiguous) {
			reason = string(pkgerrors.CodeAmbiguousLabel)
		} else {
			reason = string(pkgerrors.CodeOf(err))
		}
	}
	s.collector.RecordMutation(operation, err, reason)
	s.publishSize()
}

func (s *Service) publishSize() {
	if s.collector == nil {
		return
	}
	s.collector.SetGraphSize(s.graph.NodeCount(), s.graph.EdgeCount())
}
