package analysis

import (
	"strings"

	"github.com/sirupsen/logrus"

	"callinsight/pkg/config"
)

// pinPatternKey names the one pattern with exclusion logic: a bare 4-digit
// group only counts as an ATM PIN when it is not part of a phone number,
// date, or other configured personal-information match.
const pinPatternKey = "atm_pin"

// SensitiveResult reports the pattern keys that matched a line. Hits counts
// distinct keys, not match occurrences.
type SensitiveResult struct {
	Hits       int      `json:"hits"`
	Categories []string `json:"categories"`
}

// SensitiveDetector scans text against the sensitive and personal pattern
// sets independently and unions the results.
type SensitiveDetector struct {
	logger  *logrus.Logger
	phrases *config.Phrases
}

// NewSensitiveDetector creates a detector over the shared phrase configuration.
func NewSensitiveDetector(logger *logrus.Logger, phrases *config.Phrases) *SensitiveDetector {
	return &SensitiveDetector{logger: logger, phrases: phrases}
}

// Detect returns the matched pattern keys in configuration order, sensitive
// set first.
func (d *SensitiveDetector) Detect(text string) SensitiveResult {
	var result SensitiveResult
	if strings.TrimSpace(text) == "" {
		return result
	}

	for _, p := range d.phrases.Sensitive {
		if d.patternHit(p, text) {
			result.Hits++
			result.Categories = append(result.Categories, p.Key)
		}
	}
	for _, p := range d.phrases.Personal {
		if d.patternHit(p, text) {
			result.Hits++
			result.Categories = append(result.Categories, p.Key)
		}
	}

	return result
}

func (d *SensitiveDetector) patternHit(p config.Pattern, text string) bool {
	if p.Key == pinPatternKey {
		return d.pinHit(p, text)
	}
	return p.Matches(text)
}

// pinHit accepts a PIN candidate only when at least one 4-digit match lies
// outside every personal-information match span, so a date or phone-number
// fragment is not double-counted as a PIN.
func (d *SensitiveDetector) pinHit(pin config.Pattern, text string) bool {
	candidates := pin.Spans(text)
	if len(candidates) == 0 {
		return false
	}

	var personal [][2]int
	for _, p := range d.phrases.Personal {
		personal = append(personal, p.Spans(text)...)
	}

	for _, candidate := range candidates {
		if !containedInAny(candidate, personal) {
			return true
		}
	}
	return false
}

func containedInAny(span [2]int, covers [][2]int) bool {
	for _, cover := range covers {
		if span[0] >= cover[0] && span[1] <= cover[1] {
			return true
		}
	}
	return false
}
