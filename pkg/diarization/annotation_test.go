package diarization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callinsight/pkg/transcript"
)

func entry(start, end float64, speaker string) Entry {
	return Entry{
		Interval: transcript.Interval{Start: start, End: end},
		Speaker:  speaker,
	}
}

func TestNewValidation(t *testing.T) {
	_, err := New([]Entry{entry(2.0, 1.0, "A")})
	assert.Error(t, err, "inverted interval must be rejected")

	_, err = New([]Entry{entry(0.0, 1.0, "")})
	assert.Error(t, err, "missing speaker label must be rejected")

	a, err := New(nil)
	require.NoError(t, err)
	_, ok := a.DominantSpeaker(transcript.Interval{Start: 0, End: 1})
	assert.False(t, ok)
}

func TestDominantSpeakerByOverlap(t *testing.T) {
	a, err := New([]Entry{
		entry(0.0, 4.0, "SPEAKER_01"),
		entry(4.0, 5.0, "SPEAKER_00"),
	})
	require.NoError(t, err)

	// SPEAKER_01 covers 3s of the query window, SPEAKER_00 only 1s.
	speaker, ok := a.DominantSpeaker(transcript.Interval{Start: 1.0, End: 5.0})
	require.True(t, ok)
	assert.Equal(t, "SPEAKER_01", speaker)
}

func TestDominantSpeakerAccumulatesSplitEntries(t *testing.T) {
	// SPEAKER_00 speaks twice for 1s each; SPEAKER_01 once for 1.5s.
	// The split totals win because overlap accumulates per label.
	a, err := New([]Entry{
		entry(0.0, 1.0, "SPEAKER_00"),
		entry(1.0, 2.5, "SPEAKER_01"),
		entry(2.5, 3.5, "SPEAKER_00"),
	})
	require.NoError(t, err)

	speaker, ok := a.DominantSpeaker(transcript.Interval{Start: 0.0, End: 3.5})
	require.True(t, ok)
	assert.Equal(t, "SPEAKER_00", speaker)
}

func TestDominantSpeakerNoOverlap(t *testing.T) {
	a, err := New([]Entry{entry(0.0, 1.0, "SPEAKER_01")})
	require.NoError(t, err)

	_, ok := a.DominantSpeaker(transcript.Interval{Start: 5.0, End: 6.0})
	assert.False(t, ok)
}

func TestDominantSpeakerTieBreaksToEarlierTrackEntry(t *testing.T) {
	a, err := New([]Entry{
		entry(0.0, 1.0, "SPEAKER_01"),
		entry(1.0, 2.0, "SPEAKER_00"),
	})
	require.NoError(t, err)

	// Exactly 1s each; the label that reached the maximum first wins.
	speaker, ok := a.DominantSpeaker(transcript.Interval{Start: 0.0, End: 2.0})
	require.True(t, ok)
	assert.Equal(t, "SPEAKER_01", speaker)
}

func TestEntriesReturnsSortedCopy(t *testing.T) {
	a, err := New([]Entry{
		entry(3.0, 4.0, "B"),
		entry(0.0, 1.0, "A"),
	})
	require.NoError(t, err)

	entries := a.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "A", entries[0].Speaker)

	entries[0].Speaker = "mutated"
	assert.Equal(t, "A", a.Entries()[0].Speaker)
}
