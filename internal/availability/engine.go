package availability

import (
	"fmt"
	"time"

	"github.com/kairos-app/kairos-api/internal/models"
)

// DayAvailability holds the resolved, disjoint availability for one UTC
// calendar date. Ranges are sorted by start; an EndMinutes above 1440 marks
// an overnight continuation into the following date.
type DayAvailability struct {
	Date            string     `json:"date"`
	AvailableRanges []Interval `json:"availableRanges"`
}

// ruleIndex pre-buckets rule intervals by day of week and by specific date
// so resolving N dates over R rules costs O(N + R) instead of O(N*R).
type ruleIndex struct {
	availByDay    [7][]Interval
	blockedByDay  [7][]Interval
	availByDate   map[string][]Interval
	blockedByDate map[string][]Interval
}

// ComputeEffectiveRanges resolves a participant's full rule set into per-date
// availability for every UTC calendar date in [from, to], both inclusive.
// Resolution order per date: union matching available patterns, subtract
// blocked patterns, union available overrides, subtract blocked overrides.
// A later step always outranks an earlier one, so a blocked override removes
// coverage regardless of what any pattern or other override added.
func ComputeEffectiveRanges(rules []models.AvailabilityRule, from, to time.Time) (map[string]DayAvailability, error) {
	from = truncateToDate(from)
	to = truncateToDate(to)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: %s after %s", ErrInvalidWindow, from.Format(dateLayout), to.Format(dateLayout))
	}

	index, err := indexRules(rules)
	if err != nil {
		return nil, err
	}

	result := make(map[string]DayAvailability)
	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		key := date.Format(dateLayout)
		weekday := int(date.Weekday())

		ranges := mergeIntervals(index.availByDay[weekday])
		ranges = subtractIntervals(ranges, mergeIntervals(index.blockedByDay[weekday]))
		if adds := index.availByDate[key]; len(adds) > 0 {
			ranges = mergeIntervals(append(ranges, adds...))
		}
		ranges = subtractIntervals(ranges, mergeIntervals(index.blockedByDate[key]))

		if ranges == nil {
			ranges = []Interval{}
		}
		result[key] = DayAvailability{Date: key, AvailableRanges: ranges}
	}
	return result, nil
}

func indexRules(rules []models.AvailabilityRule) (*ruleIndex, error) {
	index := &ruleIndex{
		availByDate:   make(map[string][]Interval),
		blockedByDate: make(map[string][]Interval),
	}
	for _, rule := range rules {
		iv, err := ruleInterval(rule)
		if err != nil {
			return nil, err
		}
		switch rule.RuleType {
		case models.RuleAvailablePattern, models.RuleBlockedPattern:
			if rule.DayOfWeek == nil || *rule.DayOfWeek < 0 || *rule.DayOfWeek > 6 {
				return nil, fmt.Errorf("%w: pattern rule %s has no valid day of week", ErrInvalidRule, rule.ID)
			}
			if rule.RuleType == models.RuleAvailablePattern {
				index.availByDay[*rule.DayOfWeek] = append(index.availByDay[*rule.DayOfWeek], iv)
			} else {
				index.blockedByDay[*rule.DayOfWeek] = append(index.blockedByDay[*rule.DayOfWeek], iv)
			}
		case models.RuleAvailableOverride, models.RuleBlockedOverride:
			if rule.SpecificDate == nil {
				return nil, fmt.Errorf("%w: override rule %s has no specific date", ErrInvalidRule, rule.ID)
			}
			key := truncateToDate(*rule.SpecificDate).Format(dateLayout)
			if rule.RuleType == models.RuleAvailableOverride {
				index.availByDate[key] = append(index.availByDate[key], iv)
			} else {
				index.blockedByDate[key] = append(index.blockedByDate[key], iv)
			}
		default:
			return nil, fmt.Errorf("%w: unknown rule type %q", ErrInvalidRule, rule.RuleType)
		}
	}
	return index, nil
}

// ruleInterval converts a rule's stored wall-clock bounds to a minute
// interval on the rule's anchor day. An end at or before the start is an
// overnight continuation, extended past 1440 rather than truncated.
func ruleInterval(rule models.AvailabilityRule) (Interval, error) {
	start, err := TimeToMinutes(rule.StartTime)
	if err != nil {
		return Interval{}, err
	}
	end, err := TimeToMinutes(rule.EndTime)
	if err != nil {
		return Interval{}, err
	}
	if end <= start {
		end += minutesPerDay
	}
	return NewInterval(start, end)
}

func truncateToDate(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
