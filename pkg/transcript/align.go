package transcript

import (
	"github.com/sirupsen/logrus"
)

// SpeakerSource answers dominant-speaker queries for a time interval.
// The diarization engine decides what "dominant" means (maximal overlap
// duration) and how ties between speakers are broken.
type SpeakerSource interface {
	// DominantSpeaker returns the speaker label with the most speech inside
	// the interval, or false when no diarized speech overlaps it.
	DominantSpeaker(iv Interval) (string, bool)
}

// Aligner attributes each ASR segment to the speaker that dominates its
// time interval according to the diarization source.
type Aligner struct {
	logger *logrus.Logger
}

// NewAligner creates a new segment-speaker aligner.
func NewAligner(logger *logrus.Logger) *Aligner {
	return &Aligner{logger: logger}
}

// Align queries the diarization source once per segment and returns one
// Fragment per attributable segment, preserving input order. Segments with
// no diarization overlap are skipped, not fatal: one silent gap should not
// discard the rest of the call.
func (a *Aligner) Align(segments []Segment, source SpeakerSource) []Fragment {
	fragments := make([]Fragment, 0, len(segments))

	for _, seg := range segments {
		speaker, ok := source.DominantSpeaker(seg.Interval)
		if !ok {
			a.logger.WithFields(logrus.Fields{
				"start": seg.Interval.Start,
				"end":   seg.Interval.End,
			}).Warn("No diarization overlap for segment, skipping")
			continue
		}

		fragments = append(fragments, Fragment{
			Interval: seg.Interval,
			Speaker:  speaker,
			Text:     seg.Text,
		})
	}

	return fragments
}
