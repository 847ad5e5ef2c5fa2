package analysis

import (
	"strings"
)

// Recognized sentiment labels. Anything else is excluded from tallies.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// KnownSentiment reports whether a label is one of the three recognized values.
func KnownSentiment(label string) bool {
	switch label {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// Analyzer labels a single text with a sentiment polarity. The production
// scorer is an external service; this interface is its seam.
type Analyzer interface {
	Analyze(text string) string
}

// LexiconAnalyzer is a weighted-wordlist polarity scorer used when no
// external sentiment service is wired in.
type LexiconAnalyzer struct {
	positive map[string]float64
	negative map[string]float64
}

// NewLexiconAnalyzer creates an analyzer with a small built-in lexicon
// tuned for customer-service calls.
func NewLexiconAnalyzer() *LexiconAnalyzer {
	return &LexiconAnalyzer{
		positive: map[string]float64{
			"great": 0.8, "good": 0.6, "happy": 0.7, "satisfied": 0.6,
			"excellent": 0.9, "thank": 0.5, "thanks": 0.5, "perfect": 0.9,
			"helpful": 0.6, "wonderful": 0.8,
		},
		negative: map[string]float64{
			"bad": 0.7, "angry": 0.8, "upset": 0.7, "terrible": 0.9,
			"cancel": 0.6, "awful": 0.9, "useless": 0.8, "frustrated": 0.7,
			"complaint": 0.6, "wrong": 0.5,
		},
	}
}

// Analyze sums word weights over the case-folded tokens of text and maps
// the net score onto the three labels.
func (a *LexiconAnalyzer) Analyze(text string) string {
	score := 0.0
	for _, token := range strings.Fields(strings.ToLower(text)) {
		token = strings.Trim(token, ".,!?;:'\"()")
		if val, ok := a.positive[token]; ok {
			score += val
		}
		if val, ok := a.negative[token]; ok {
			score -= val
		}
	}

	switch {
	case score > 0:
		return SentimentPositive
	case score < 0:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}
