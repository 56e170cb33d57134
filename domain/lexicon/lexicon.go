// Package lexicon defines the read-only port to the external lexical
// knowledge base. The domain never talks to a concrete lexical resource
// directly; it is handed an implementation of Lexicon at construction time,
// which keeps the graph logic deterministic under test.
package lexicon

import (
	"fmt"
	"strings"

	pkgerrors "conceptgraph-backend/pkg/errors"
)

// Sense is the canonical identifier of a single disambiguated word sense,
// e.g. "dog.n.01". The domain treats it as opaque apart from the dotted
// display syntax used by membership queries.
type Sense string

// String returns the string representation
func (s Sense) String() string {
	return string(s)
}

// LooksLikeSense reports whether a raw string has the dotted three-part
// syntax of a sense identifier ("lemma.pos.nn") rather than a plain label.
func LooksLikeSense(raw string) bool {
	return len(strings.Split(raw, ".")) == 3
}

// PartOfSpeech classifies a sense grammatically.
type PartOfSpeech string

const (
	Noun      PartOfSpeech = "n"
	Verb      PartOfSpeech = "v"
	Adjective PartOfSpeech = "a"
	Adverb    PartOfSpeech = "r"
)

// Lexicon is the oracle consumed by the domain. Implementations must be
// read-only and side-effect free; lookups are treated as cheap synchronous
// calls.
type Lexicon interface {
	// SenseOf resolves a sense identifier to a Sense.
	// Fails with an UNKNOWN_SENSE error if the name is not a valid identifier.
	SenseOf(name string) (Sense, error)

	// SensesOf returns every sense a label belongs to, empty if the label
	// is unknown.
	SensesOf(label string) []Sense

	// SynonymsOf returns the full synonym set of a sense, nil if the sense
	// is unknown.
	SynonymsOf(sense Sense) []string

	// PartOfSpeech returns the grammatical class of a sense.
	PartOfSpeech(sense Sense) (PartOfSpeech, error)

	// HypernymPath returns the generalization chain of a sense, ordered from
	// the root hypernym down to the sense itself.
	HypernymPath(sense Sense) ([]Sense, error)
}

// SenseCandidate is one possible reading of an ambiguous label, enumerated
// so a caller can retry with an explicit sense.
type SenseCandidate struct {
	Sense    Sense    `json:"sense"`
	Synonyms []string `json:"synonyms"`
}

// AmbiguousLabelError reports that a label belongs to more than one sense.
// It carries the full candidate list as the failure payload.
type AmbiguousLabelError struct {
	Label      string           `json:"label"`
	Candidates []SenseCandidate `json:"candidates"`
}

// Error implements the error interface
func (e *AmbiguousLabelError) Error() string {
	names := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		names[i] = fmt.Sprintf("%s: %s", c.Sense, strings.Join(c.Synonyms, ", "))
	}
	return fmt.Sprintf("%s: label %q has multiple senses; retry with one of: %s",
		pkgerrors.CodeAmbiguousLabel, e.Label, strings.Join(names, "; "))
}

// NewAmbiguousLabelError builds the error payload for a label with several
// candidate senses, resolving each candidate's synonym list via the lexicon.
func NewAmbiguousLabelError(lex Lexicon, label string, senses []Sense) error {
	candidates := make([]SenseCandidate, 0, len(senses))
	for _, s := range senses {
		candidate := SenseCandidate{Sense: s}
		if syns := lex.SynonymsOf(s); syns != nil {
			candidate.Synonyms = syns
		}
		candidates = append(candidates, candidate)
	}
	return &AmbiguousLabelError{Label: label, Candidates: candidates}
}
