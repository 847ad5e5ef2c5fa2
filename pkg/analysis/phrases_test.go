package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhraseMatcherTokenReordering(t *testing.T) {
	matcher := NewPhraseMatcher(testLogger(), testPhrases(t), 55)

	// Token-sort similarity is order-invariant, so the reordered greeting
	// still clears the threshold.
	match := matcher.Match("thank you for calling good morning")
	assert.True(t, match.Greeting)
	assert.Contains(t, match.Categories, CategoryGreetings)
}

func TestPhraseMatcherExactPhrases(t *testing.T) {
	matcher := NewPhraseMatcher(testLogger(), testPhrases(t), 55)

	tests := []struct {
		name     string
		text     string
		category string
	}{
		{"greeting", "good morning thank you for calling", CategoryGreetings},
		{"disclaimer", "this call is recorded for quality purposes", CategoryDisclaims},
		{"closing", "goodbye and have a wonderful day", CategoryClosing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match := matcher.Match(tt.text)
			assert.Contains(t, match.Categories, tt.category)
		})
	}
}

func TestPhraseMatcherRejectsUnrelatedText(t *testing.T) {
	matcher := NewPhraseMatcher(testLogger(), testPhrases(t), 55)

	match := matcher.Match("my router keeps dropping the wifi signal upstairs")
	assert.False(t, match.Greeting)
	assert.False(t, match.Disclaimer)
	assert.False(t, match.Closing)
	assert.Empty(t, match.Categories)
}

func TestPhraseMatcherEmptyText(t *testing.T) {
	matcher := NewPhraseMatcher(testLogger(), testPhrases(t), 55)

	assert.Empty(t, matcher.Match("").Categories)
	assert.Empty(t, matcher.Match("   ").Categories)
}

func TestPhraseMatcherThresholdIsStrict(t *testing.T) {
	// At threshold 100 even the identical phrase fails: the score must be
	// strictly greater, never equal.
	matcher := NewPhraseMatcher(testLogger(), testPhrases(t), 100)

	match := matcher.Match("good morning thank you for calling")
	assert.False(t, match.Greeting)
}
