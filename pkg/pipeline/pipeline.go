package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"callinsight/pkg/analysis"
	"callinsight/pkg/config"
	"callinsight/pkg/metrics"
	"callinsight/pkg/transcript"
)

// RecordListener receives each finalized conversation record as it is
// structured. Listeners must not block for long; they run on the pipeline
// goroutine.
type RecordListener interface {
	OnRecord(callUUID string, record analysis.ConversationRecord)
}

// SummaryListener is implemented by record listeners that also want the
// end-of-call aggregates once a conversation is fully structured.
type SummaryListener interface {
	OnSummary(callUUID string, attrs analysis.AttributeSummary, sentiments analysis.SentimentSummary, recordCount int)
}

// Result is the complete output for one conversation.
type Result struct {
	CallUUID   string                        `json:"call_uuid"`
	Lines      []string                      `json:"lines"`
	Records    []analysis.ConversationRecord `json:"records"`
	Attributes analysis.AttributeSummary     `json:"attributes"`
	Sentiments analysis.SentimentSummary     `json:"sentiments"`
}

// Pipeline runs one conversation through alignment, turn merging, sentiment
// annotation, serialization and structuring in a single pass.
type Pipeline struct {
	logger     *logrus.Logger
	aligner    *transcript.Aligner
	merger     *transcript.Merger
	analyzer   analysis.Analyzer
	structurer *analysis.Structurer

	listenerMutex sync.RWMutex
	listeners     []RecordListener
}

// New wires a pipeline from the application and phrase configuration.
func New(logger *logrus.Logger, cfg *config.Config, phrases *config.Phrases, analyzer analysis.Analyzer) *Pipeline {
	roles := analysis.NewRoleMap(cfg.Speakers)

	return &Pipeline{
		logger:   logger,
		aligner:  transcript.NewAligner(logger),
		merger:   transcript.NewMerger(logger),
		analyzer: analyzer,
		structurer: analysis.NewStructurer(
			logger, phrases, cfg.Analysis.SimilarityThreshold, roles, cfg.Analysis.Workers),
	}
}

// AddListener registers a record listener.
func (p *Pipeline) AddListener(listener RecordListener) {
	p.listenerMutex.Lock()
	defer p.listenerMutex.Unlock()
	p.listeners = append(p.listeners, listener)
}

// Process analyzes one conversation. The segment list and diarization
// source are complete before the call; the pipeline runs to completion in
// one pass with no internal cancellation.
func (p *Pipeline) Process(segments []transcript.Segment, source transcript.SpeakerSource) *Result {
	callUUID := uuid.NewString()
	started := time.Now()

	gaugeActive(1)
	defer gaugeActive(-1)

	fragments := p.aligner.Align(segments, source)
	countAligned(callUUID, len(fragments), len(segments)-len(fragments))

	turns := p.merger.Merge(fragments)
	countTurns(callUUID, len(turns))

	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		lines = append(lines, transcript.RenderLine(transcript.Line{
			Interval:  turn.Interval,
			Speaker:   turn.Speaker,
			Text:      turn.Text,
			Sentiment: p.analyzer.Analyze(turn.Text),
		}))
	}

	records, attrs, sentiments := p.structurer.Structure(lines)
	countStructured(callUUID, len(lines), len(lines)-len(records), records)

	p.notify(callUUID, records, attrs, sentiments)

	observeDuration(time.Since(started))

	p.logger.WithFields(logrus.Fields{
		"call_uuid": callUUID,
		"segments":  len(segments),
		"turns":     len(turns),
		"records":   len(records),
		"duration":  time.Since(started),
	}).Info("Conversation analysis complete")

	return &Result{
		CallUUID:   callUUID,
		Lines:      lines,
		Records:    records,
		Attributes: attrs,
		Sentiments: sentiments,
	}
}

// ProcessLines analyzes an already-serialized transcript, skipping the
// alignment and merge stages. This is the path for reloading stored
// transcripts.
func (p *Pipeline) ProcessLines(lines []string) *Result {
	callUUID := uuid.NewString()
	started := time.Now()

	gaugeActive(1)
	defer gaugeActive(-1)

	records, attrs, sentiments := p.structurer.Structure(lines)
	countStructured(callUUID, len(lines), len(lines)-len(records), records)

	p.notify(callUUID, records, attrs, sentiments)

	observeDuration(time.Since(started))

	return &Result{
		CallUUID:   callUUID,
		Lines:      lines,
		Records:    records,
		Attributes: attrs,
		Sentiments: sentiments,
	}
}

func (p *Pipeline) notify(callUUID string, records []analysis.ConversationRecord, attrs analysis.AttributeSummary, sentiments analysis.SentimentSummary) {
	p.listenerMutex.RLock()
	defer p.listenerMutex.RUnlock()

	for _, listener := range p.listeners {
		for _, record := range records {
			listener.OnRecord(callUUID, record)
		}
		if sl, ok := listener.(SummaryListener); ok {
			sl.OnSummary(callUUID, attrs, sentiments, len(records))
		}
	}
}

// Metric helpers below are safe to call when metrics.Init has not run.

func gaugeActive(delta float64) {
	if metrics.ActiveAnalyses != nil {
		metrics.ActiveAnalyses.Add(delta)
	}
}

func countAligned(callUUID string, aligned, skipped int) {
	if metrics.SegmentsAligned != nil {
		metrics.SegmentsAligned.WithLabelValues(callUUID).Add(float64(aligned))
	}
	if metrics.SegmentsSkipped != nil {
		metrics.SegmentsSkipped.WithLabelValues(callUUID).Add(float64(skipped))
	}
}

func countTurns(callUUID string, turns int) {
	if metrics.TurnsMerged != nil {
		metrics.TurnsMerged.WithLabelValues(callUUID).Add(float64(turns))
	}
}

func countStructured(callUUID string, lines, malformed int, records []analysis.ConversationRecord) {
	if metrics.LinesProcessed != nil {
		metrics.LinesProcessed.WithLabelValues(callUUID).Add(float64(lines))
	}
	if metrics.MalformedLines != nil && malformed > 0 {
		metrics.MalformedLines.WithLabelValues(callUUID).Add(float64(malformed))
	}

	for _, rec := range records {
		if metrics.PhraseHits != nil {
			for _, category := range rec.RequiredPhraseCategories {
				metrics.PhraseHits.WithLabelValues(category).Inc()
			}
		}
		if metrics.PIIHits != nil {
			for _, pattern := range rec.PIICategories {
				metrics.PIIHits.WithLabelValues(pattern).Inc()
			}
		}
		if metrics.ProhibitedWords != nil && len(rec.ProhibitedWords) > 0 {
			metrics.ProhibitedWords.WithLabelValues(callUUID).Add(float64(len(rec.ProhibitedWords)))
		}
	}
}

func observeDuration(elapsed time.Duration) {
	if metrics.PipelineDuration != nil {
		metrics.PipelineDuration.WithLabelValues("ok").Observe(elapsed.Seconds())
	}
}
