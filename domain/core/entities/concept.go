package entities

import (
	"fmt"
	"strings"

	"conceptgraph-backend/domain/core/valueobjects"
	"conceptgraph-backend/domain/lexicon"
	pkgerrors "conceptgraph-backend/pkg/errors"
)

// Concept is a set of mutually synonymous labels anchored to one canonical
// sense of the external lexicon. Labels are append-only and keep insertion
// order so serialization stays deterministic.
//
// Equality is value-based (labels as a set, plus the canonical sense) and
// deliberately ignores the structural id; the id is an arena index assigned
// by the owning graph and used only as the adjacency-structure vertex key.
type Concept struct {
	id             valueobjects.ConceptID
	labels         []string
	canonicalSense lexicon.Sense
}

// NewConcept creates a concept from an explicit label set and sense name,
// verifying both against the lexicon. The label slice keeps its order;
// duplicates are rejected.
func NewConcept(lex lexicon.Lexicon, labels []string, senseName string) (*Concept, error) {
	if lex == nil {
		return nil, pkgerrors.NewValidationError(pkgerrors.CodeInvalidArgument, "lexicon is required")
	}
	if len(labels) == 0 {
		return nil, pkgerrors.NewValidationError(pkgerrors.CodeInvalidArgument, "labels cannot be empty")
	}
	seen := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		if strings.TrimSpace(label) == "" {
			return nil, pkgerrors.NewValidationError(pkgerrors.CodeInvalidArgument, "labels cannot contain empty strings")
		}
		if _, dup := seen[label]; dup {
			return nil, pkgerrors.NewValidationError(
				pkgerrors.CodeInvalidArgument, fmt.Sprintf("duplicate label %q", label))
		}
		seen[label] = struct{}{}
	}

	sense, err := resolveNounSense(lex, senseName)
	if err != nil {
		return nil, err
	}

	for _, label := range labels {
		if err := verifySynonym(lex, label, sense); err != nil {
			return nil, err
		}
	}

	return &Concept{
		labels:         append([]string(nil), labels...),
		canonicalSense: sense,
	}, nil
}

// ConceptFromLabel creates a concept from a single label, anchored to the
// label's unique sense. When the label has several senses the failure payload
// enumerates every candidate with its synonym list so the caller can retry
// with NewConcept and an explicit sense name.
func ConceptFromLabel(lex lexicon.Lexicon, label string) (*Concept, error) {
	if lex == nil {
		return nil, pkgerrors.NewValidationError(pkgerrors.CodeInvalidArgument, "lexicon is required")
	}
	if strings.TrimSpace(label) == "" {
		return nil, pkgerrors.NewValidationError(pkgerrors.CodeInvalidArgument, "label cannot be empty")
	}

	senses := lex.SensesOf(label)
	switch len(senses) {
	case 0:
		return nil, pkgerrors.NewNotFoundError(
			pkgerrors.CodeUnknownLabel, fmt.Sprintf("label %q not found in lexicon", label))
	case 1:
		return NewConcept(lex, []string{label}, senses[0].String())
	default:
		return nil, lexicon.NewAmbiguousLabelError(lex, label, senses)
	}
}

// ID returns the structural id assigned by the owning graph, or
// valueobjects.Unassigned for a detached concept.
func (c *Concept) ID() valueobjects.ConceptID {
	return c.id
}

// Labels returns the labels in insertion order
func (c *Concept) Labels() []string {
	return append([]string(nil), c.labels...)
}

// CanonicalSense returns the sense the concept is anchored to
func (c *Concept) CanonicalSense() lexicon.Sense {
	return c.canonicalSense
}

// HasLabel reports whether the concept carries the given label
func (c *Concept) HasLabel(label string) bool {
	for _, l := range c.labels {
		if l == label {
			return true
		}
	}
	return false
}

// AddLabel appends a new verified synonym. Adding a label that is already
// present is a no-op. This is the only mutator on a concept.
func (c *Concept) AddLabel(lex lexicon.Lexicon, label string) error {
	if c.HasLabel(label) {
		return nil
	}
	if strings.TrimSpace(label) == "" {
		return pkgerrors.NewValidationError(pkgerrors.CodeInvalidArgument, "label cannot be empty")
	}
	if err := verifySynonym(lex, label, c.canonicalSense); err != nil {
		return err
	}
	c.labels = append(c.labels, label)
	return nil
}

// Equals compares concepts by value: same label set (order ignored) and same
// canonical sense. The structural id does not participate.
func (c *Concept) Equals(other *Concept) bool {
	if other == nil {
		return false
	}
	if c.canonicalSense != other.canonicalSense {
		return false
	}
	if len(c.labels) != len(other.labels) {
		return false
	}
	for _, l := range c.labels {
		if !other.HasLabel(l) {
			return false
		}
	}
	return true
}

// Contains tests membership of a raw string: strings with sense syntax are
// matched against the canonical sense, anything else against the labels.
func (c *Concept) Contains(raw string) bool {
	if lexicon.LooksLikeSense(raw) {
		return lexicon.Sense(raw) == c.canonicalSense
	}
	return c.HasLabel(raw)
}

// String returns a display form including the structural id
func (c *Concept) String() string {
	return fmt.Sprintf("%s([%s], %s)", c.id, strings.Join(c.labels, ", "), c.canonicalSense)
}

// AssignID stamps the arena index allocated by the owning graph. It is called
// exactly once, on admission; reassigning an admitted concept is a programming
// error.
func (c *Concept) AssignID(id valueobjects.ConceptID) error {
	if c.id.IsAssigned() {
		return pkgerrors.NewConflictError(
			pkgerrors.CodeInvalidArgument, "concept already admitted to a graph")
	}
	c.id = id
	return nil
}

// ClearID returns the concept to the detached state. It is called by the
// owning graph when an admission is rolled back, so the concept can be
// admitted again later.
func (c *Concept) ClearID() {
	c.id = valueobjects.Unassigned
}

// resolveNounSense resolves a sense name and enforces the noun-only rule.
func resolveNounSense(lex lexicon.Lexicon, senseName string) (lexicon.Sense, error) {
	sense, err := lex.SenseOf(senseName)
	if err != nil {
		return "", err
	}
	pos, err := lex.PartOfSpeech(sense)
	if err != nil {
		return "", err
	}
	if pos != lexicon.Noun {
		return "", pkgerrors.NewValidationError(
			pkgerrors.CodeUnknownSense, fmt.Sprintf("%s is not a noun sense", senseName))
	}
	return sense, nil
}

// verifySynonym checks that the lexicon lists the label under the sense.
func verifySynonym(lex lexicon.Lexicon, label string, sense lexicon.Sense) error {
	for _, s := range lex.SensesOf(label) {
		if s == sense {
			return nil
		}
	}
	return pkgerrors.NewValidationError(
		pkgerrors.CodeNotSynonymous, fmt.Sprintf("%q is not a synonym of %s", label, sense))
}
