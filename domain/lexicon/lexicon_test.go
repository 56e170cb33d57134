package lexicon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLooksLikeSense(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"dog.n.01", true},
		{"physical_entity.n.01", true},
		{"dog", false},
		{"domestic dog", false},
		{"a.b.c.d", false},
		{"a.b", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, LooksLikeSense(tt.raw))
		})
	}
}

// synonymOracle is a minimal Lexicon stub for exercising the error payload.
type synonymOracle map[Sense][]string

func (o synonymOracle) SenseOf(name string) (Sense, error)             { return Sense(name), nil }
func (o synonymOracle) SensesOf(label string) []Sense                  { return nil }
func (o synonymOracle) SynonymsOf(sense Sense) []string                { return o[sense] }
func (o synonymOracle) PartOfSpeech(sense Sense) (PartOfSpeech, error) { return Noun, nil }
func (o synonymOracle) HypernymPath(sense Sense) ([]Sense, error)      { return nil, nil }

func TestNewAmbiguousLabelError(t *testing.T) {
	oracle := synonymOracle{
		"bank.n.01": {"bank"},
		"bank.n.02": {"bank", "depository financial institution"},
	}

	err := NewAmbiguousLabelError(oracle, "bank", []Sense{"bank.n.01", "bank.n.02"})
	require.Error(t, err)

	ambiguous, ok := err.(*AmbiguousLabelError)
	require.True(t, ok)
	assert.Equal(t, "bank", ambiguous.Label)
	require.Len(t, ambiguous.Candidates, 2)
	assert.Equal(t, Sense("bank.n.01"), ambiguous.Candidates[0].Sense)
	assert.Equal(t, []string{"bank"}, ambiguous.Candidates[0].Synonyms)
	assert.Equal(t, []string{"bank", "depository financial institution"}, ambiguous.Candidates[1].Synonyms)

	msg := err.Error()
	assert.Contains(t, msg, "bank.n.01")
	assert.Contains(t, msg, "bank.n.02")
	assert.Contains(t, msg, "multiple senses")
}
