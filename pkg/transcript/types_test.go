package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callinsight/pkg/errors"
)

func TestNewInterval(t *testing.T) {
	tests := []struct {
		name    string
		start   float64
		end     float64
		wantErr bool
	}{
		{"valid", 0.0, 1.5, false},
		{"valid subsecond", 10.25, 10.26, false},
		{"zero length", 3.0, 3.0, true},
		{"end before start", 5.0, 4.0, true},
		{"negative start", -1.0, 2.0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iv, err := NewInterval(tt.start, tt.end)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsErrorType(err, errors.ErrInvalidInterval))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.start, iv.Start)
			assert.Equal(t, tt.end, iv.End)
		})
	}
}

func TestIntervalOverlap(t *testing.T) {
	a := Interval{Start: 0, End: 10}

	assert.Equal(t, 5.0, a.Overlap(Interval{Start: 5, End: 15}))
	assert.Equal(t, 10.0, a.Overlap(Interval{Start: 0, End: 10}))
	assert.Equal(t, 2.0, a.Overlap(Interval{Start: 4, End: 6}))
	assert.Equal(t, 0.0, a.Overlap(Interval{Start: 10, End: 20}), "touching intervals do not overlap")
	assert.Equal(t, 0.0, a.Overlap(Interval{Start: 30, End: 40}))
}

func TestNewSegment(t *testing.T) {
	seg, err := NewSegment(1.0, 2.0, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", seg.Text)

	_, err = NewSegment(1.0, 2.0, "   ")
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrEmptyText))

	_, err = NewSegment(2.0, 1.0, "hello")
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrInvalidInterval))
}
