package entities

import (
	"fmt"

	pkgerrors "conceptgraph-backend/pkg/errors"
)

// Relation is a directed generalization edge between two concepts, with an
// optional classification label. It is a pure value type: construction checks
// only the argument shape, while graph membership and hypernym semantics are
// validated by the owning graph on admission.
type Relation struct {
	source *Concept
	target *Concept
	label  string
}

// NewRelation creates a relation between two concepts. The label is optional;
// an empty string means unclassified.
func NewRelation(source, target *Concept, label string) (*Relation, error) {
	if source == nil || target == nil {
		return nil, pkgerrors.NewValidationError(
			pkgerrors.CodeInvalidArgument, "relation endpoints must be concepts")
	}
	if source.Equals(target) {
		return nil, pkgerrors.NewValidationError(
			pkgerrors.CodeInvalidArgument, "relation endpoints must be distinct concepts")
	}
	return &Relation{source: source, target: target, label: label}, nil
}

// Source returns the generalizing endpoint
func (r *Relation) Source() *Concept {
	return r.source
}

// Target returns the specialized endpoint
func (r *Relation) Target() *Concept {
	return r.target
}

// Label returns the classification label, empty if unclassified
func (r *Relation) Label() string {
	return r.label
}

// Equals compares relations by full three-way equality: source, target and
// label all match. Two unlabeled relations are equal only when their
// endpoints are; an absent label never short-circuits the comparison.
func (r *Relation) Equals(other *Relation) bool {
	if other == nil {
		return false
	}
	return r.source.Equals(other.source) &&
		r.target.Equals(other.target) &&
		r.label == other.label
}

// ContainsConcept reports whether the concept is one of the endpoints
func (r *Relation) ContainsConcept(c *Concept) bool {
	return c != nil && (c.Equals(r.source) || c.Equals(r.target))
}

// String returns a display form
func (r *Relation) String() string {
	return fmt.Sprintf("%s --> %s", r.source, r.target)
}
