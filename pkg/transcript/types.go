package transcript

import (
	"strings"

	"callinsight/pkg/errors"
)

// Interval is a closed time range within a call recording, in seconds
// from the start of the recording. End is always strictly greater than Start.
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// NewInterval validates and constructs an Interval.
func NewInterval(start, end float64) (Interval, error) {
	if start < 0 || end <= start {
		return Interval{}, errors.NewInvalidInterval(start, end)
	}
	return Interval{Start: start, End: end}, nil
}

// Duration returns the length of the interval in seconds.
func (iv Interval) Duration() float64 {
	return iv.End - iv.Start
}

// Overlap returns the overlapping duration between two intervals,
// or zero when they are disjoint.
func (iv Interval) Overlap(other Interval) float64 {
	start := iv.Start
	if other.Start > start {
		start = other.Start
	}
	end := iv.End
	if other.End < end {
		end = other.End
	}
	if end <= start {
		return 0
	}
	return end - start
}

// Segment is a single time-stamped text fragment produced by the ASR engine.
type Segment struct {
	Interval Interval `json:"interval"`
	Text     string   `json:"text"`
}

// NewSegment validates and constructs a Segment.
func NewSegment(start, end float64, text string) (Segment, error) {
	iv, err := NewInterval(start, end)
	if err != nil {
		return Segment{}, err
	}
	if strings.TrimSpace(text) == "" {
		return Segment{}, errors.Wrap(errors.ErrEmptyText, "segment text is empty")
	}
	return Segment{Interval: iv, Text: text}, nil
}

// Fragment is a Segment with the dominant speaker attached by the aligner.
type Fragment struct {
	Interval Interval `json:"interval"`
	Speaker  string   `json:"speaker"`
	Text     string   `json:"text"`
}

// Turn is a maximal run of consecutive same-speaker fragments merged into
// one utterance. The interval spans from the first fragment's start to the
// last fragment's end.
type Turn struct {
	Interval Interval `json:"interval"`
	Speaker  string   `json:"speaker"`
	Text     string   `json:"text"`
}

// Line is a Turn with a sentiment label attached, as recovered from (or
// rendered into) the serialized transcript format.
type Line struct {
	Interval  Interval `json:"interval"`
	Speaker   string   `json:"speaker"`
	Text      string   `json:"text"`
	Sentiment string   `json:"sentiment"`
}
