package lexicon

import (
	domainlex "conceptgraph-backend/domain/lexicon"
	"conceptgraph-backend/internal/infrastructure/observability"
)

// Instrumented decorates a lexicon with lookup counters. It adds no behavior
// of its own and satisfies the same port.
type Instrumented struct {
	inner     domainlex.Lexicon
	collector *observability.Collector
}

// NewInstrumented wraps a lexicon with the given collector.
func NewInstrumented(inner domainlex.Lexicon, collector *observability.Collector) *Instrumented {
	return &Instrumented{inner: inner, collector: collector}
}

func (l *Instrumented) SenseOf(name string) (domainlex.Sense, error) {
	l.collector.LexiconLookups.WithLabelValues("sense_of").Inc()
	return l.inner.SenseOf(name)
}

func (l *Instrumented) SensesOf(label string) []domainlex.Sense {
	l.collector.LexiconLookups.WithLabelValues("senses_of").Inc()
	return l.inner.SensesOf(label)
}

func (l *Instrumented) SynonymsOf(sense domainlex.Sense) []string {
	l.collector.LexiconLookups.WithLabelValues("synonyms_of").Inc()
	return l.inner.SynonymsOf(sense)
}

func (l *Instrumented) PartOfSpeech(sense domainlex.Sense) (domainlex.PartOfSpeech, error) {
	l.collector.LexiconLookups.WithLabelValues("part_of_speech").Inc()
	return l.inner.PartOfSpeech(sense)
}

func (l *Instrumented) HypernymPath(sense domainlex.Sense) ([]domainlex.Sense, error) {
	l.collector.LexiconLookups.WithLabelValues("hypernym_path").Inc()
	return l.inner.HypernymPath(sense)
}
