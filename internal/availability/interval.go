package availability

import (
	"fmt"
	"sort"
)

// Interval is a half-open availability range [StartMinutes, EndMinutes) in
// minutes from midnight of its calendar date. The end may exceed 1440, up to
// 2880, to represent a span that continues into the following date without
// splitting it; consumers perform the split via SplitAtMidnight.
type Interval struct {
	StartMinutes int `json:"startMinutes"`
	EndMinutes   int `json:"endMinutes"`
}

// NewInterval constructs a checked interval. The invariant is
// 0 <= start < 1440 and start < end <= 2880.
func NewInterval(start, end int) (Interval, error) {
	if start < 0 || start >= minutesPerDay || end <= start || end > 2*minutesPerDay {
		return Interval{}, fmt.Errorf("%w: [%d, %d)", ErrInvalidInterval, start, end)
	}
	return Interval{StartMinutes: start, EndMinutes: end}, nil
}

// Overnight reports whether the interval continues past midnight.
func (iv Interval) Overnight() bool {
	return iv.EndMinutes > minutesPerDay
}

// SplitAtMidnight returns the same-date portion of the interval and, when it
// is overnight, the remainder re-based to the following date. The function
/// is total: for non-overnight intervals it returns the interval unchanged
// and overnight == false.
func (iv Interval) SplitAtMidnight() (today Interval, next Interval, overnight bool) {
	if !iv.Overnight() {
		return iv, Interval{}, false
	}
	today = Interval{StartMinutes: iv.StartMinutes, EndMinutes: minutesPerDay}
	next = Interval{StartMinutes: 0, EndMinutes: iv.EndMinutes - minutesPerDay}
	return today, next, true
}

// MergeRanges unions the given intervals into a sorted, disjoint set,
// joining only intervals that touch or overlap. It is the exported form of
// the merge step used internally by the resolution pipeline, for callers
// that recombine split or spilled intervals.
func MergeRanges(intervals []Interval) []Interval {
	return mergeIntervals(intervals)
}

// mergeIntervals unions the given intervals into a sorted, disjoint set.
// Intervals merge only when they touch or overlap; a genuine gap between two
// intervals is never bridged.
func mergeIntervals(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return nil
	}
	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].StartMinutes != sorted[j].StartMinutes {
			return sorted[i].StartMinutes < sorted[j].StartMinutes
		}
		return sorted[i].EndMinutes < sorted[j].EndMinutes
	})

	merged := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if iv.StartMinutes <= last.EndMinutes {
			if iv.EndMinutes > last.EndMinutes {
				last.EndMinutes = iv.EndMinutes
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// subtractIntervals removes every blocking interval from the base set. A
// block strictly inside a base interval splits it in two.
func subtractIntervals(base, blocks []Interval) []Interval {
	if len(base) == 0 || len(blocks) == 0 {
		return base
	}
	result := base
	for _, block := range blocks {
		next := make([]Interval, 0, len(result)+1)
		for _, iv := range result {
			if block.EndMinutes <= iv.StartMinutes || block.StartMinutes >= iv.EndMinutes {
				next = append(next, iv)
				continue
			}
			if block.StartMinutes > iv.StartMinutes {
				next = append(next, Interval{StartMinutes: iv.StartMinutes, EndMinutes: block.StartMinutes})
			}
			if block.EndMinutes < iv.EndMinutes {
				next = append(next, Interval{StartMinutes: block.EndMinutes, EndMinutes: iv.EndMinutes})
			}
		}
		result = next
	}
	return result
}
