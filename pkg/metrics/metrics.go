package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	registry     *prometheus.Registry
	registryOnce sync.Once

	// Alignment metrics
	SegmentsAligned *prometheus.CounterVec
	SegmentsSkipped *prometheus.CounterVec

	// Merge metrics
	TurnsMerged *prometheus.CounterVec

	// Structuring metrics
	LinesProcessed  *prometheus.CounterVec
	MalformedLines  *prometheus.CounterVec
	PhraseHits      *prometheus.CounterVec
	PIIHits         *prometheus.CounterVec
	ProhibitedWords *prometheus.CounterVec

	// Pipeline metrics
	PipelineDuration *prometheus.HistogramVec
	ActiveAnalyses   prometheus.Gauge
)

// Init initializes all metrics and registers them with Prometheus
func Init(logger *logrus.Logger) {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()

		SegmentsAligned = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "callinsight_segments_aligned_total",
				Help: "Total number of ASR segments attributed to a speaker",
			},
			[]string{"call_uuid"},
		)

		SegmentsSkipped = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "callinsight_segments_skipped_total",
				Help: "Total number of ASR segments skipped for lack of diarization overlap",
			},
			[]string{"call_uuid"},
		)

		TurnsMerged = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "callinsight_turns_merged_total",
				Help: "Total number of speaker turns produced by the merger",
			},
			[]string{"call_uuid"},
		)

		LinesProcessed = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "callinsight_lines_processed_total",
				Help: "Total number of serialized transcript lines structured",
			},
			[]string{"call_uuid"},
		)

		MalformedLines = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "callinsight_malformed_lines_total",
				Help: "Total number of serialized transcript lines rejected as malformed",
			},
			[]string{"call_uuid"},
		)

		PhraseHits = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "callinsight_required_phrase_hits_total",
				Help: "Total required-phrase hits by category",
			},
			[]string{"category"},
		)

		PIIHits = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "callinsight_pii_hits_total",
				Help: "Total sensitive-data hits by pattern key",
			},
			[]string{"pattern"},
		)

		ProhibitedWords = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "callinsight_prohibited_words_total",
				Help: "Total prohibited-word hits",
			},
			[]string{"call_uuid"},
		)

		PipelineDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "callinsight_pipeline_duration_seconds",
				Help:    "Wall-clock duration of full conversation analyses",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		)

		ActiveAnalyses = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "callinsight_active_analyses",
				Help: "Number of conversation analyses currently in flight",
			},
		)

		registry.MustRegister(
			SegmentsAligned,
			SegmentsSkipped,
			TurnsMerged,
			LinesProcessed,
			MalformedLines,
			PhraseHits,
			PIIHits,
			ProhibitedWords,
			PipelineDuration,
			ActiveAnalyses,
		)

		logger.Info("Prometheus metrics initialized")
	})
}

// GetRegistry returns the metrics registry, or nil when Init has not run
func GetRegistry() *prometheus.Registry {
	return registry
}

// Handler returns an HTTP handler serving the metrics registry
func Handler() http.Handler {
	if registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		Registry:          registry,
	})
}
