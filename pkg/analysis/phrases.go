package analysis

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"github.com/sirupsen/logrus"

	"callinsight/pkg/config"
)

// Required-phrase category keys as they appear in conversation records.
const (
	CategoryGreetings = "Greetings"
	CategoryDisclaims = "Disclaimers"
	CategoryClosing   = "Closing_Statements"
)

// PhraseMatch is the result of matching one line against the three
// required-phrase lists. Each category registers at most one hit no matter
// how many reference phrases cleared the threshold.
type PhraseMatch struct {
	Greeting   bool
	Disclaimer bool
	Closing    bool
	Categories []string
}

// PhraseMatcher scores text against the configured required phrases using
// token-sort-ratio similarity, which tolerates word reordering in
// paraphrased standard phrases.
type PhraseMatcher struct {
	logger    *logrus.Logger
	phrases   *config.Phrases
	threshold int
}

// NewPhraseMatcher creates a matcher over the shared phrase configuration.
// A reference phrase counts as matched only when its similarity score is
// strictly greater than the threshold.
func NewPhraseMatcher(logger *logrus.Logger, phrases *config.Phrases, threshold int) *PhraseMatcher {
	return &PhraseMatcher{
		logger:    logger,
		phrases:   phrases,
		threshold: threshold,
	}
}

// Match evaluates text against all three phrase lists.
func (m *PhraseMatcher) Match(text string) PhraseMatch {
	var match PhraseMatch
	if strings.TrimSpace(text) == "" {
		return match
	}

	if m.anyAboveThreshold(text, m.phrases.Greetings) {
		match.Greeting = true
		match.Categories = append(match.Categories, CategoryGreetings)
	}
	if m.anyAboveThreshold(text, m.phrases.Disclaimers) {
		match.Disclaimer = true
		match.Categories = append(match.Categories, CategoryDisclaims)
	}
	if m.anyAboveThreshold(text, m.phrases.ClosingStatements) {
		match.Closing = true
		match.Categories = append(match.Categories, CategoryClosing)
	}

	return match
}

func (m *PhraseMatcher) anyAboveThreshold(text string, references []string) bool {
	for _, ref := range references {
		if fuzzy.TokenSortRatio(text, ref) > m.threshold {
			return true
		}
	}
	return false
}
