package analysis

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"callinsight/pkg/config"
	"callinsight/pkg/transcript"
)

// Role is a conversation-level speaker role.
type Role string

const (
	// RoleHandler is the agent conducting the call.
	RoleHandler Role = "handler"
	// RoleClient is the customer on the call.
	RoleClient Role = "client"
	// RoleNone marks a speaker label outside the configured mapping.
	RoleNone Role = ""
)

// RoleMap is the injected table from diarization speaker labels to roles.
// Labels absent from the table resolve to no role: such lines are still
// scanned for prohibited words and counted in the net sentiment tally, but
// contribute nothing to role-specific checks.
type RoleMap map[string]Role

// NewRoleMap builds the two-role table from the configured labels.
func NewRoleMap(speakers config.SpeakerConfig) RoleMap {
	return RoleMap{
		speakers.HandlerLabel: RoleHandler,
		speakers.ClientLabel:  RoleClient,
	}
}

// Resolve maps a speaker label onto its role.
func (m RoleMap) Resolve(label string) Role {
	return m[label]
}

// ConversationRecord is one finalized, compliance-annotated transcript line.
// Records are immutable once produced and keep the chronological turn order.
type ConversationRecord struct {
	Start                    float64  `json:"start_time"`
	End                      float64  `json:"end_time"`
	Speaker                  string   `json:"speaker"`
	Role                     Role     `json:"role"`
	Text                     string   `json:"text"`
	Sentiment                string   `json:"sentiment"`
	RequiredPhraseCategories []string `json:"req_phrase_cat"`
	PIICategories            []string `json:"pil_category"`
	ProhibitedWords          []string `json:"prohibited_words"`
}

// AttributeSummary aggregates per-role talk statistics and compliance
// counts over the whole conversation.
type AttributeSummary struct {
	HandlerTalkTime      float64 `json:"total_handler_time"`
	ClientTalkTime       float64 `json:"total_client_time"`
	HandlerWords         int     `json:"total_handler_words"`
	ClientWords          int     `json:"total_client_words"`
	TotalGreetings       int     `json:"total_greetings"`
	TotalDisclaimers     int     `json:"total_disclaimers"`
	TotalClosures        int     `json:"total_closures"`
	TotalPII             int     `json:"total_pil"`
	TotalProhibitedWords int     `json:"total_prohibited_words"`
}

// Merge adds another summary into this one. Addition is commutative, so
// partial summaries from parallel workers combine in any order.
func (s *AttributeSummary) Merge(other AttributeSummary) {
	s.HandlerTalkTime += other.HandlerTalkTime
	s.ClientTalkTime += other.ClientTalkTime
	s.HandlerWords += other.HandlerWords
	s.ClientWords += other.ClientWords
	s.TotalGreetings += other.TotalGreetings
	s.TotalDisclaimers += other.TotalDisclaimers
	s.TotalClosures += other.TotalClosures
	s.TotalPII += other.TotalPII
	s.TotalProhibitedWords += other.TotalProhibitedWords
}

// SentimentCounts tallies recognized sentiment labels.
type SentimentCounts struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// Total returns the sum of all tallies.
func (c SentimentCounts) Total() int {
	return c.Positive + c.Neutral + c.Negative
}

// Count returns the tally for one recognized label.
func (c SentimentCounts) Count(label string) int {
	switch label {
	case SentimentPositive:
		return c.Positive
	case SentimentNeutral:
		return c.Neutral
	case SentimentNegative:
		return c.Negative
	}
	return 0
}

func (c *SentimentCounts) bump(label string) {
	switch label {
	case SentimentPositive:
		c.Positive++
	case SentimentNeutral:
		c.Neutral++
	case SentimentNegative:
		c.Negative++
	}
}

// SentimentSummary tallies sentiments overall and per role.
type SentimentSummary struct {
	Net     SentimentCounts `json:"Net"`
	Handler SentimentCounts `json:"Handler"`
	Client  SentimentCounts `json:"Client"`
}

// Speaker returns the tally bucket for one of the three summary keys.
func (s SentimentSummary) Speaker(name string) (SentimentCounts, bool) {
	switch name {
	case "Net":
		return s.Net, true
	case "Handler":
		return s.Handler, true
	case "Client":
		return s.Client, true
	}
	return SentimentCounts{}, false
}

// Structurer converts serialized transcript lines into conversation records
// and running aggregates. Required-phrase checks run only against handler
// lines, sensitive-data checks only against client lines, and prohibited
// words against everything.
type Structurer struct {
	logger     *logrus.Logger
	phrases    *PhraseMatcher
	sensitive  *SensitiveDetector
	prohibited *ProhibitedDetector
	roles      RoleMap
	workers    int
}

// NewStructurer wires the detectors over a shared phrase configuration.
// workers > 1 parallelizes per-line detector work; output is identical to
// the sequential path because accumulation stays in line order.
func NewStructurer(logger *logrus.Logger, phrases *config.Phrases, threshold int, roles RoleMap, workers int) *Structurer {
	if workers < 1 {
		workers = 1
	}
	return &Structurer{
		logger:     logger,
		phrases:    NewPhraseMatcher(logger, phrases, threshold),
		sensitive:  NewSensitiveDetector(logger, phrases),
		prohibited: NewProhibitedDetector(logger, phrases),
		roles:      roles,
		workers:    workers,
	}
}

// Structure processes the serialized lines in order. Malformed lines are
// logged and dropped; the rest of the conversation is still processed.
func (s *Structurer) Structure(lines []string) ([]ConversationRecord, AttributeSummary, SentimentSummary) {
	results := make([]*ConversationRecord, len(lines))

	if s.workers > 1 && len(lines) > 1 {
		s.analyzeParallel(lines, results)
	} else {
		for i, raw := range lines {
			results[i] = s.analyzeLine(raw)
		}
	}

	records := make([]ConversationRecord, 0, len(lines))
	var attrs AttributeSummary
	var sentiments SentimentSummary

	for _, rec := range results {
		if rec == nil {
			continue
		}
		s.accumulate(*rec, &attrs, &sentiments)
		records = append(records, *rec)
	}

	return records, attrs, sentiments
}

// analyzeParallel fans per-line analysis out over a fixed worker pool.
// Results land at their line index, preserving chronological order.
func (s *Structurer) analyzeParallel(lines []string, results []*ConversationRecord) {
	jobs := make(chan int, len(lines))
	var wg sync.WaitGroup

	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = s.analyzeLine(lines[i])
			}
		}()
	}

	for i := range lines {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// analyzeLine parses and classifies one serialized line. Returns nil for a
// malformed line.
func (s *Structurer) analyzeLine(raw string) *ConversationRecord {
	line, err := transcript.ParseLine(raw)
	if err != nil {
		s.logger.WithError(err).WithField("line", raw).Warn("Rejecting malformed transcript line")
		return nil
	}

	role := s.roles.Resolve(line.Speaker)

	rec := &ConversationRecord{
		Start:     line.Interval.Start,
		End:       line.Interval.End,
		Speaker:   line.Speaker,
		Role:      role,
		Text:      line.Text,
		Sentiment: line.Sentiment,
	}

	// Required phrases are a policy check on the handler; PII detection
	// targets what the client discloses.
	if role == RoleHandler {
		rec.RequiredPhraseCategories = s.phrases.Match(line.Text).Categories
	}
	if role == RoleClient {
		rec.PIICategories = s.sensitive.Detect(line.Text).Categories
	}
	rec.ProhibitedWords = s.prohibited.Detect(line.Text)

	return rec
}

func (s *Structurer) accumulate(rec ConversationRecord, attrs *AttributeSummary, sentiments *SentimentSummary) {
	words := len(strings.Fields(rec.Text))
	duration := rec.End - rec.Start

	switch rec.Role {
	case RoleHandler:
		attrs.HandlerTalkTime += duration
		attrs.HandlerWords += words
	case RoleClient:
		attrs.ClientTalkTime += duration
		attrs.ClientWords += words
	}

	for _, category := range rec.RequiredPhraseCategories {
		switch category {
		case CategoryGreetings:
			attrs.TotalGreetings++
		case CategoryDisclaims:
			attrs.TotalDisclaimers++
		case CategoryClosing:
			attrs.TotalClosures++
		}
	}

	attrs.TotalPII += len(rec.PIICategories)
	attrs.TotalProhibitedWords += len(rec.ProhibitedWords)

	if KnownSentiment(rec.Sentiment) {
		sentiments.Net.bump(rec.Sentiment)
		switch rec.Role {
		case RoleHandler:
			sentiments.Handler.bump(rec.Sentiment)
		case RoleClient:
			sentiments.Client.bump(rec.Sentiment)
		}
	}
}
