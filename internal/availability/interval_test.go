package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIntervalInvariant(t *testing.T) {
	iv, err := NewInterval(600, 1260)
	require.NoError(t, err)
	assert.Equal(t, Interval{StartMinutes: 600, EndMinutes: 1260}, iv)
	assert.False(t, iv.Overnight())

	iv, err = NewInterval(1380, 1500)
	require.NoError(t, err)
	assert.True(t, iv.Overnight())

	for _, bad := range [][2]int{{-1, 600}, {1440, 1500}, {600, 600}, {700, 600}, {600, 2881}} {
		_, err := NewInterval(bad[0], bad[1])
		assert.ErrorIs(t, err, ErrInvalidInterval, "interval %v", bad)
	}
}

func TestSplitAtMidnight(t *testing.T) {
	iv := Interval{StartMinutes: 1380, EndMinutes: 1500}
	today, next, overnight := iv.SplitAtMidnight()
	require.True(t, overnight)
	assert.Equal(t, Interval{StartMinutes: 1380, EndMinutes: 1440}, today)
	assert.Equal(t, Interval{StartMinutes: 0, EndMinutes: 60}, next)

	iv = Interval{StartMinutes: 600, EndMinutes: 1260}
	today, _, overnight = iv.SplitAtMidnight()
	assert.False(t, overnight)
	assert.Equal(t, iv, today)
}

func TestMergeIntervalsPreservesGaps(t *testing.T) {
	merged := mergeIntervals([]Interval{
		{StartMinutes: 1020, EndMinutes: 1320},
		{StartMinutes: 120, EndMinutes: 780},
	})
	assert.Equal(t, []Interval{
		{StartMinutes: 120, EndMinutes: 780},
		{StartMinutes: 1020, EndMinutes: 1320},
	}, merged)
}

func TestMergeIntervalsJoinsTouchingAndOverlapping(t *testing.T) {
	merged := mergeIntervals([]Interval{
		{StartMinutes: 120, EndMinutes: 480},
		{StartMinutes: 480, EndMinutes: 600},
		{StartMinutes: 540, EndMinutes: 720},
	})
	assert.Equal(t, []Interval{{StartMinutes: 120, EndMinutes: 720}}, merged)
}

func TestSubtractIntervalsSplitsContainedBlock(t *testing.T) {
	base := []Interval{{StartMinutes: 480, EndMinutes: 1080}}
	blocks := []Interval{{StartMinutes: 720, EndMinutes: 780}}

	result := subtractIntervals(base, blocks)
	assert.Equal(t, []Interval{
		{StartMinutes: 480, EndMinutes: 720},
		{StartMinutes: 780, EndMinutes: 1080},
	}, result)
}

func TestSubtractIntervalsEdges(t *testing.T) {
	base := []Interval{{StartMinutes: 480, EndMinutes: 1080}}

	// Non-overlapping block leaves the base untouched.
	assert.Equal(t, base, subtractIntervals(base, []Interval{{StartMinutes: 1080, EndMinutes: 1140}}))

	// Full cover removes the interval entirely.
	assert.Empty(t, subtractIntervals(base, []Interval{{StartMinutes: 480, EndMinutes: 1080}}))

	// Overlap at the head trims the start.
	assert.Equal(t, []Interval{{StartMinutes: 600, EndMinutes: 1080}},
		subtractIntervals(base, []Interval{{StartMinutes: 400, EndMinutes: 600}}))
}
