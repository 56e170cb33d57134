// Package lexicon provides concrete implementations of the domain's lexicon
// port: an in-memory lexicon loaded from a YAML corpus, and a remote client
// for a lexicon service.
package lexicon

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	domainlex "conceptgraph-backend/domain/lexicon"
	pkgerrors "conceptgraph-backend/pkg/errors"
)

// Entry describes one sense of the corpus.
type Entry struct {
	Sense        string   `yaml:"sense"`
	PartOfSpeech string   `yaml:"pos"`
	Synonyms     []string `yaml:"synonyms"`
	// HypernymPath is ordered from the root hypernym down to the sense
	// itself, matching the order the domain expects.
	HypernymPath []string `yaml:"hypernymPath"`
}

// Corpus is the YAML document shape of a lexicon file.
type Corpus struct {
	Senses []Entry `yaml:"senses"`
}

// Static is an immutable in-memory lexicon. It satisfies the domain port and
// is the default oracle for offline use and tests.
type Static struct {
	entries map[domainlex.Sense]Entry
	byLabel map[string][]domainlex.Sense
}

// NewStatic builds a lexicon from corpus entries.
func NewStatic(entries []Entry) (*Static, error) {
	s := &Static{
		entries: make(map[domainlex.Sense]Entry, len(entries)),
		byLabel: make(map[string][]domainlex.Sense),
	}
	for _, e := range entries {
		if e.Sense == "" {
			return nil, pkgerrors.NewValidationError(
				pkgerrors.CodeInvalidArgument, "corpus entry without a sense name")
		}
		sense := domainlex.Sense(e.Sense)
		if _, dup := s.entries[sense]; dup {
			return nil, pkgerrors.NewValidationError(
				pkgerrors.CodeInvalidArgument, fmt.Sprintf("duplicate corpus sense %s", sense))
		}
		s.entries[sense] = e
		for _, syn := range e.Synonyms {
			s.byLabel[syn] = append(s.byLabel[syn], sense)
		}
	}
	return s, nil
}

// NewStaticFromFile loads a YAML corpus from disk.
func NewStaticFromFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "reading lexicon corpus")
	}
	var corpus Corpus
	if err := yaml.Unmarshal(data, &corpus); err != nil {
		return nil, pkgerrors.Wrap(err, "parsing lexicon corpus")
	}
	return NewStatic(corpus.Senses)
}

// SenseOf resolves a sense identifier.
func (s *Static) SenseOf(name string) (domainlex.Sense, error) {
	sense := domainlex.Sense(name)
	if _, ok := s.entries[sense]; !ok {
		return "", pkgerrors.NewNotFoundError(
			pkgerrors.CodeUnknownSense, fmt.Sprintf("%s is not a known sense", name))
	}
	return sense, nil
}

// SensesOf returns every sense listing the label as a synonym.
func (s *Static) SensesOf(label string) []domainlex.Sense {
	senses := s.byLabel[label]
	return append([]domainlex.Sense(nil), senses...)
}

// SynonymsOf returns the synonym set of a sense, nil if unknown.
func (s *Static) SynonymsOf(sense domainlex.Sense) []string {
	e, ok := s.entries[sense]
	if !ok {
		return nil
	}
	return append([]string(nil), e.Synonyms...)
}

// PartOfSpeech returns the grammatical class of a sense.
func (s *Static) PartOfSpeech(sense domainlex.Sense) (domainlex.PartOfSpeech, error) {
	e, ok := s.entries[sense]
	if !ok {
		return "", pkgerrors.NewNotFoundError(
			pkgerrors.CodeUnknownSense, fmt.Sprintf("%s is not a known sense", sense))
	}
	return domainlex.PartOfSpeech(e.PartOfSpeech), nil
}

// HypernymPath returns the generalization chain of a sense, root first.
func (s *Static) HypernymPath(sense domainlex.Sense) ([]domainlex.Sense, error) {
	e, ok := s.entries[sense]
	if !ok {
		return nil, pkgerrors.NewNotFoundError(
			pkgerrors.CodeUnknownSense, fmt.Sprintf("%s is not a known sense", sense))
	}
	path := make([]domainlex.Sense, len(e.HypernymPath))
	for i, name := range e.HypernymPath {
		path[i] = domainlex.Sense(name)
	}
	return path, nil
}
