package transcript

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func frag(start, end float64, speaker, text string) Fragment {
	return Fragment{
		Interval: Interval{Start: start, End: end},
		Speaker:  speaker,
		Text:     text,
	}
}

func TestMergeSameSpeakerPunctuationFlush(t *testing.T) {
	merger := NewMerger(testLogger())

	// "there." ends a sentence, so the flush comes from the punctuation
	// rule, not a speaker change.
	turns := merger.Merge([]Fragment{
		frag(0.0, 1.0, "SPEAKER_01", "Hello"),
		frag(1.0, 2.5, "SPEAKER_01", "there."),
	})

	require.Len(t, turns, 1)
	assert.Equal(t, "SPEAKER_01", turns[0].Speaker)
	assert.Equal(t, "Hellothere.", turns[0].Text)
	assert.Equal(t, 0.0, turns[0].Interval.Start)
	assert.Equal(t, 2.5, turns[0].Interval.End)
}

func TestMergeSpeakerChangeFlush(t *testing.T) {
	merger := NewMerger(testLogger())

	turns := merger.Merge([]Fragment{
		frag(0.0, 1.0, "SPEAKER_01", "how can"),
		frag(1.0, 2.0, "SPEAKER_01", " I help"),
		frag(2.0, 3.0, "SPEAKER_00", "I have a problem"),
	})

	require.Len(t, turns, 2)

	assert.Equal(t, "SPEAKER_01", turns[0].Speaker)
	assert.Equal(t, "how can I help", turns[0].Text)
	assert.Equal(t, 0.0, turns[0].Interval.Start)
	assert.Equal(t, 2.0, turns[0].Interval.End)

	assert.Equal(t, "SPEAKER_00", turns[1].Speaker)
	assert.Equal(t, "I have a problem", turns[1].Text)
	assert.Equal(t, 2.0, turns[1].Interval.Start)
	assert.Equal(t, 3.0, turns[1].Interval.End)
}

func TestMergeTurnIntervalsSpanFragments(t *testing.T) {
	merger := NewMerger(testLogger())

	fragments := []Fragment{
		frag(0.0, 1.0, "A", "one"),
		frag(1.0, 2.0, "A", "two"),
		frag(2.0, 3.5, "A", "three"),
		frag(3.5, 5.0, "B", "four"),
	}
	turns := merger.Merge(fragments)

	require.Len(t, turns, 2)
	assert.Equal(t, fragments[0].Interval.Start, turns[0].Interval.Start)
	assert.Equal(t, fragments[2].Interval.End, turns[0].Interval.End)
	assert.Equal(t, fragments[3].Interval.Start, turns[1].Interval.Start)
	assert.Equal(t, fragments[3].Interval.End, turns[1].Interval.End)
}

func TestMergeSentenceSplitsWithinSpeaker(t *testing.T) {
	merger := NewMerger(testLogger())

	// A terminal sentence closes the turn even though the speaker
	// continues; the next fragment starts a fresh turn.
	turns := merger.Merge([]Fragment{
		frag(0.0, 1.0, "A", "First sentence."),
		frag(1.0, 2.0, "A", "Second"),
		frag(2.0, 3.0, "A", " sentence?"),
	})

	require.Len(t, turns, 2)
	assert.Equal(t, "First sentence.", turns[0].Text)
	assert.Equal(t, "Second sentence?", turns[1].Text)
}

func TestMergeTurnsNeverSpanSpeakers(t *testing.T) {
	merger := NewMerger(testLogger())

	fragments := []Fragment{
		frag(0.0, 1.0, "A", "a1"),
		frag(1.0, 2.0, "B", "b1"),
		frag(2.0, 3.0, "B", "b2"),
		frag(3.0, 4.0, "A", "a2"),
		frag(4.0, 5.0, "C", "c1"),
	}
	turns := merger.Merge(fragments)

	require.Len(t, turns, 4)
	for i := 1; i < len(turns); i++ {
		assert.NotEqual(t, turns[i-1].Speaker, turns[i].Speaker,
			"adjacent turns from a speaker-change flush must differ")
	}
}

func TestMergeEmptyInput(t *testing.T) {
	merger := NewMerger(testLogger())
	assert.Empty(t, merger.Merge(nil))
}
