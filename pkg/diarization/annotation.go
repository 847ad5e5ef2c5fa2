// Package diarization holds the speaker-diarization annotation consumed by
// the aligner. The annotation itself comes from an external diarization
// engine; this package only answers overlap queries against it.
package diarization

import (
	"sort"

	"callinsight/pkg/errors"
	"callinsight/pkg/transcript"
)

// Entry is one diarized interval with its speaker label.
type Entry struct {
	Interval transcript.Interval `json:"interval"`
	Speaker  string              `json:"speaker"`
}

// Annotation is an immutable speaker track for one recording, ordered by
// interval start time.
type Annotation struct {
	entries []Entry
}

// New validates the entries and builds an Annotation. Entries are copied
// and sorted by start time; callers keep ownership of the input slice.
func New(entries []Entry) (*Annotation, error) {
	track := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if _, err := transcript.NewInterval(e.Interval.Start, e.Interval.End); err != nil {
			return nil, errors.Wrap(err, "invalid diarization entry",
				map[string]interface{}{"speaker": e.Speaker})
		}
		if e.Speaker == "" {
			return nil, errors.NewInvalidInput("diarization entry has no speaker label")
		}
		track = append(track, e)
	}

	sort.SliceStable(track, func(i, j int) bool {
		return track[i].Interval.Start < track[j].Interval.Start
	})

	return &Annotation{entries: track}, nil
}

// Entries returns a copy of the speaker track.
func (a *Annotation) Entries() []Entry {
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// DominantSpeaker returns the label with the largest total overlap duration
// inside the queried interval. When two labels tie exactly, the one whose
// total first reached the maximum in track order wins. Returns false when
// no diarized speech overlaps the interval.
func (a *Annotation) DominantSpeaker(iv transcript.Interval) (string, bool) {
	totals := make(map[string]float64)
	best := ""
	bestOverlap := 0.0

	for _, e := range a.entries {
		overlap := e.Interval.Overlap(iv)
		if overlap <= 0 {
			continue
		}
		totals[e.Speaker] += overlap
		if totals[e.Speaker] > bestOverlap {
			bestOverlap = totals[e.Speaker]
			best = e.Speaker
		}
	}

	if best == "" {
		return "", false
	}
	return best, true
}
