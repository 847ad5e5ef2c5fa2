package pipeline

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callinsight/pkg/analysis"
	"callinsight/pkg/config"
	"callinsight/pkg/diarization"
	"callinsight/pkg/transcript"
)

const testPhrasesYAML = `
Greetings:
  - good morning thank you for calling
Disclaimers:
  - this call is recorded for quality purposes
ProhibitedPhrases:
  - damn
ClosingStatements:
  - goodbye and have a wonderful day
PersonalInformationPatterns:
  phone_number: \d{4}-\d{4}
  date_dd_mm_yyyy: \d{2}-\d{2}-\d{4}
  multi_4_digit_patt: \b\d{4}\b.*\b\d{4}\b
SensitiveInformationPatterns:
  credit_card: \b(?:\d{4}[- ]?){3}\d{4}\b
  atm_pin: \b\d{4}\b
`

// staticAnalyzer labels every turn with a fixed sentiment so assertions
// do not depend on the lexicon.
type staticAnalyzer struct{ label string }

func (a staticAnalyzer) Analyze(string) string { return a.label }

// recordCollector captures listener callbacks.
type recordCollector struct {
	callUUIDs []string
	records   []analysis.ConversationRecord

	summaryAttrs *analysis.AttributeSummary
	summaryCount int
}

func (c *recordCollector) OnRecord(callUUID string, record analysis.ConversationRecord) {
	c.callUUIDs = append(c.callUUIDs, callUUID)
	c.records = append(c.records, record)
}

func (c *recordCollector) OnSummary(callUUID string, attrs analysis.AttributeSummary, sentiments analysis.SentimentSummary, recordCount int) {
	c.summaryAttrs = &attrs
	c.summaryCount = recordCount
}

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	phrases, err := config.ParsePhrases(logger, []byte(testPhrasesYAML))
	require.NoError(t, err)

	cfg := &config.Config{
		Speakers: config.SpeakerConfig{HandlerLabel: "SPEAKER_01", ClientLabel: "SPEAKER_00"},
		Analysis: config.AnalysisConfig{SimilarityThreshold: 55, Workers: 1},
	}

	return New(logger, cfg, phrases, staticAnalyzer{label: "neutral"})
}

func seg(t *testing.T, start, end float64, text string) transcript.Segment {
	t.Helper()
	s, err := transcript.NewSegment(start, end, text)
	require.NoError(t, err)
	return s
}

func testAnnotation(t *testing.T) *diarization.Annotation {
	t.Helper()
	a, err := diarization.New([]diarization.Entry{
		{Interval: transcript.Interval{Start: 0, End: 4}, Speaker: "SPEAKER_01"},
		{Interval: transcript.Interval{Start: 4, End: 8}, Speaker: "SPEAKER_00"},
	})
	require.NoError(t, err)
	return a
}

func TestProcessEndToEnd(t *testing.T) {
	p := testPipeline(t)

	segments := []transcript.Segment{
		seg(t, 0.0, 2.0, "good morning thank"),
		seg(t, 2.0, 4.0, " you for calling."),
		seg(t, 4.0, 8.0, "my pin is 1234."),
	}

	result := p.Process(segments, testAnnotation(t))

	require.NotNil(t, result)
	assert.NotEmpty(t, result.CallUUID)

	// Two same-speaker fragments merge into one handler turn; the client
	// segment stands alone.
	require.Len(t, result.Lines, 2)
	assert.Equal(t, "0.00 4.00 SPEAKER_01 good morning thank you for calling. SENTIMENT:neutral", result.Lines[0])
	assert.Equal(t, "4.00 8.00 SPEAKER_00 my pin is 1234. SENTIMENT:neutral", result.Lines[1])

	require.Len(t, result.Records, 2)
	assert.Equal(t, analysis.RoleHandler, result.Records[0].Role)
	assert.Contains(t, result.Records[0].RequiredPhraseCategories, analysis.CategoryGreetings)
	assert.Equal(t, []string{"atm_pin"}, result.Records[1].PIICategories)

	assert.Equal(t, 1, result.Attributes.TotalGreetings)
	assert.Equal(t, 1, result.Attributes.TotalPII)
	assert.Equal(t, 4.0, result.Attributes.HandlerTalkTime)
	assert.Equal(t, 4.0, result.Attributes.ClientTalkTime)

	assert.Equal(t, 2, result.Sentiments.Net.Neutral)
	assert.Equal(t, 1, result.Sentiments.Handler.Neutral)
	assert.Equal(t, 1, result.Sentiments.Client.Neutral)
}

func TestProcessSkipsUnattributableSegments(t *testing.T) {
	p := testPipeline(t)

	segments := []transcript.Segment{
		seg(t, 0.0, 2.0, "hello."),
		seg(t, 20.0, 22.0, "nobody was diarized here."),
	}

	result := p.Process(segments, testAnnotation(t))

	require.Len(t, result.Lines, 1)
	assert.Contains(t, result.Lines[0], "hello.")
}

func TestProcessNotifiesListeners(t *testing.T) {
	p := testPipeline(t)

	collector := &recordCollector{}
	p.AddListener(collector)

	result := p.Process([]transcript.Segment{
		seg(t, 0.0, 2.0, "hello."),
		seg(t, 4.0, 6.0, "hi."),
	}, testAnnotation(t))

	require.Len(t, collector.records, 2)
	assert.Equal(t, result.Records, collector.records)
	for _, id := range collector.callUUIDs {
		assert.Equal(t, result.CallUUID, id)
	}

	// The summary arrives once, after all records.
	require.NotNil(t, collector.summaryAttrs)
	assert.Equal(t, result.Attributes, *collector.summaryAttrs)
	assert.Equal(t, 2, collector.summaryCount)
}

func TestProcessLines(t *testing.T) {
	p := testPipeline(t)

	result := p.ProcessLines([]string{
		"0.00 4.00 SPEAKER_01 this call is recorded for quality purposes SENTIMENT:neutral",
		"not a transcript line",
	})

	require.Len(t, result.Records, 1)
	assert.Equal(t, 1, result.Attributes.TotalDisclaimers)
	assert.Len(t, result.Lines, 2, "original lines are preserved even when one is rejected")
}

func TestProcessEmptyInput(t *testing.T) {
	p := testPipeline(t)

	result := p.Process(nil, testAnnotation(t))
	assert.Empty(t, result.Lines)
	assert.Empty(t, result.Records)
	assert.Equal(t, analysis.AttributeSummary{}, result.Attributes)
}
