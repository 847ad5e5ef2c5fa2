package config

import (
	"os"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"callinsight/pkg/errors"
)

// Pattern is one named, compiled detection pattern. Patterns are compiled
// with regexp2 so that configurations carrying lookaround constructs (the
// account-password strength pattern does) load unchanged.
type Pattern struct {
	Key string
	re  *regexp2.Regexp
}

// Matches reports whether the pattern matches anywhere in text.
func (p Pattern) Matches(text string) bool {
	ok, err := p.re.MatchString(text)
	return err == nil && ok
}

// Spans returns the [start, end) rune offsets of every match in text.
func (p Pattern) Spans(text string) [][2]int {
	var spans [][2]int
	m, err := p.re.FindStringMatch(text)
	for err == nil && m != nil {
		spans = append(spans, [2]int{m.Index, m.Index + m.Length})
		m, err = p.re.FindNextMatch(m)
	}
	return spans
}

// Phrases is the phrase and pattern configuration shared by all matcher
// invocations. It is loaded once, validated, and never mutated afterwards;
// concurrent reads are safe without synchronization.
type Phrases struct {
	Greetings         []string
	Disclaimers       []string
	ProhibitedPhrases []string
	ClosingStatements []string

	// Sensitive and Personal preserve the configuration document's key
	// order, which fixes the order of reported pattern categories.
	Sensitive []Pattern
	Personal  []Pattern

	prohibitedSet map[string]struct{}
}

// phrasesDocument mirrors the words-configuration YAML layout. The pattern
// sections decode as raw nodes so key order survives.
type phrasesDocument struct {
	Greetings                    []string  `yaml:"Greetings"`
	Disclaimers                  []string  `yaml:"Disclaimers"`
	ProhibitedPhrases            []string  `yaml:"ProhibitedPhrases"`
	ClosingStatements            []string  `yaml:"ClosingStatements"`
	PersonalInformationPatterns  yaml.Node `yaml:"PersonalInformationPatterns"`
	SensitiveInformationPatterns yaml.Node `yaml:"SensitiveInformationPatterns"`
}

// LoadPhrases reads, validates and compiles the phrase configuration.
// Any missing required section or invalid pattern is fatal: nothing that
// depends on the configuration may proceed without it.
func LoadPhrases(logger *logrus.Logger, path string) (*Phrases, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading phrase configuration",
			map[string]interface{}{"path": path})
	}

	return ParsePhrases(logger, data)
}

// ParsePhrases validates and compiles a phrase configuration document.
func ParsePhrases(logger *logrus.Logger, data []byte) (*Phrases, error) {
	var doc phrasesDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewMalformedConfiguration("invalid YAML",
			map[string]interface{}{"cause": err.Error()})
	}

	if doc.Greetings == nil {
		return nil, errors.NewMalformedConfiguration("missing Greetings list")
	}
	if doc.Disclaimers == nil {
		return nil, errors.NewMalformedConfiguration("missing Disclaimers list")
	}
	if doc.ProhibitedPhrases == nil {
		return nil, errors.NewMalformedConfiguration("missing ProhibitedPhrases list")
	}
	if doc.ClosingStatements == nil {
		return nil, errors.NewMalformedConfiguration("missing ClosingStatements list")
	}

	sensitive, err := compilePatterns(&doc.SensitiveInformationPatterns, "SensitiveInformationPatterns")
	if err != nil {
		return nil, err
	}
	personal, err := compilePatterns(&doc.PersonalInformationPatterns, "PersonalInformationPatterns")
	if err != nil {
		return nil, err
	}

	prohibited := make(map[string]struct{}, len(doc.ProhibitedPhrases))
	for _, word := range doc.ProhibitedPhrases {
		prohibited[strings.ToLower(word)] = struct{}{}
	}

	phrases := &Phrases{
		Greetings:         doc.Greetings,
		Disclaimers:       doc.Disclaimers,
		ProhibitedPhrases: doc.ProhibitedPhrases,
		ClosingStatements: doc.ClosingStatements,
		Sensitive:         sensitive,
		Personal:          personal,
		prohibitedSet:     prohibited,
	}

	logger.WithFields(logrus.Fields{
		"greetings":          len(phrases.Greetings),
		"disclaimers":        len(phrases.Disclaimers),
		"closing_statements": len(phrases.ClosingStatements),
		"prohibited":         len(phrases.ProhibitedPhrases),
		"sensitive_patterns": len(phrases.Sensitive),
		"personal_patterns":  len(phrases.Personal),
	}).Info("Phrase configuration loaded")

	return phrases, nil
}

// IsProhibited reports whether a case-folded token is in the prohibited set.
func (p *Phrases) IsProhibited(token string) bool {
	_, ok := p.prohibitedSet[strings.ToLower(token)]
	return ok
}

// compilePatterns walks a YAML mapping node in document order and compiles
// each value into a Pattern.
func compilePatterns(node *yaml.Node, section string) ([]Pattern, error) {
	if node.Kind == 0 || node.Tag == "!!null" {
		return nil, errors.NewMalformedConfiguration("missing pattern section",
			map[string]interface{}{"section": section})
	}
	if node.Kind != yaml.MappingNode {
		return nil, errors.NewMalformedConfiguration("pattern section is not a mapping",
			map[string]interface{}{"section": section})
	}

	patterns := make([]Pattern, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		raw := node.Content[i+1].Value

		re, err := regexp2.Compile(raw, regexp2.None)
		if err != nil {
			return nil, errors.NewMalformedConfiguration("invalid pattern regex",
				map[string]interface{}{"section": section, "key": key, "cause": err.Error()})
		}

		patterns = append(patterns, Pattern{Key: key, re: re})
	}

	if len(patterns) == 0 {
		return nil, errors.NewMalformedConfiguration("empty pattern section",
			map[string]interface{}{"section": section})
	}

	return patterns, nil
}
