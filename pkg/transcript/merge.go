package transcript

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// sentenceTerminals are the punctuation marks treated as soft sentence
// boundaries within a single speaker's run.
const sentenceTerminals = ".?!"

// Merger fuses aligned fragments into per-speaker turns. A turn closes on a
// speaker change or when a fragment ends with sentence-terminal punctuation,
// so turns never span speakers and long monologues still split on sentences.
type Merger struct {
	logger *logrus.Logger
}

// NewMerger creates a new turn merger.
func NewMerger(logger *logrus.Logger) *Merger {
	return &Merger{logger: logger}
}

// Merge collapses consecutive same-speaker fragments into turns, in order.
// Fragment texts concatenate with no separator, matching how the upstream
// transcripts are rendered.
func (m *Merger) Merge(fragments []Fragment) []Turn {
	turns := make([]Turn, 0, len(fragments))

	var pending []Fragment
	pendingSpeaker := ""

	for _, frag := range fragments {
		switch {
		case pendingSpeaker == "":
			pendingSpeaker = frag.Speaker
			pending = append(pending, frag)

		case frag.Speaker != pendingSpeaker && len(pending) > 0:
			turns = append(turns, flush(pending))
			pending = pending[:0]
			pending = append(pending, frag)
			pendingSpeaker = frag.Speaker

		case endsSentence(frag.Text):
			pending = append(pending, frag)
			turns = append(turns, flush(pending))
			pending = pending[:0]
			pendingSpeaker = ""

		default:
			pending = append(pending, frag)
		}
	}

	if len(pending) > 0 {
		turns = append(turns, flush(pending))
	}

	m.logger.WithFields(logrus.Fields{
		"fragments": len(fragments),
		"turns":     len(turns),
	}).Debug("Merged fragments into speaker turns")

	return turns
}

// flush builds a Turn from the accumulated fragments. The turn spans from
// the first fragment's start to the last fragment's end.
func flush(pending []Fragment) Turn {
	var text strings.Builder
	for _, frag := range pending {
		text.WriteString(frag.Text)
	}

	return Turn{
		Interval: Interval{
			Start: pending[0].Interval.Start,
			End:   pending[len(pending)-1].Interval.End,
		},
		Speaker: pending[0].Speaker,
		Text:    text.String(),
	}
}

func endsSentence(text string) bool {
	if text == "" {
		return false
	}
	return strings.ContainsRune(sentenceTerminals, rune(text[len(text)-1]))
}
