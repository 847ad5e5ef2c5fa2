package analysis

import (
	"strings"

	"github.com/sirupsen/logrus"

	"callinsight/pkg/config"
)

// ProhibitedDetector flags tokens present in the configured prohibited set.
// It applies to every line regardless of speaker role.
type ProhibitedDetector struct {
	logger  *logrus.Logger
	phrases *config.Phrases
}

// NewProhibitedDetector creates a detector over the shared phrase configuration.
func NewProhibitedDetector(logger *logrus.Logger, phrases *config.Phrases) *ProhibitedDetector {
	return &ProhibitedDetector{logger: logger, phrases: phrases}
}

// Detect tokenizes on whitespace, case-folds, and returns matched tokens in
// order of appearance. Duplicates are preserved.
func (d *ProhibitedDetector) Detect(text string) []string {
	var matched []string
	for _, token := range strings.Fields(text) {
		lowered := strings.ToLower(token)
		if d.phrases.IsProhibited(lowered) {
			matched = append(matched, lowered)
		}
	}
	return matched
}
