package availability

import (
	"fmt"
	"time"
)

// Pattern is a weekly recurring wall-clock slot anchored to a day of week,
// 0 (Sunday) through 6 (Saturday). An end at or before the start means the
// slot continues past midnight into the next day.
type Pattern struct {
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// referenceSunday anchors weekly conversions to a concrete week. Only the
// day-of-week relationship matters, but pinning one week makes the zone
// offset deterministic: a pattern uses the zone's offset during this week
// (standard time in most northern-hemisphere zones). Wall-clock times that
// fall into a DST gap resolve to the post-transition offset, following
// time.Date normalization.
var referenceSunday = time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)

// ConvertPatternToUTC converts a weekly pattern entered in the given zone
// into its UTC storage form, shifting the day of week when the offset moves
// a boundary across midnight.
func ConvertPatternToUTC(dayOfWeek int, start, end, zone string) (Pattern, error) {
	loc, err := loadZone(zone)
	if err != nil {
		return Pattern{}, err
	}
	return convertPattern(dayOfWeek, start, end, loc, time.UTC)
}

// ConvertPatternFromUTC reconstructs a stored UTC pattern in the given zone.
// It is the structural mirror of ConvertPatternToUTC, including the
// overnight anchor handling, applied in UTC.
func ConvertPatternFromUTC(dayOfWeek int, start, end, zone string) (Pattern, error) {
	loc, err := loadZone(zone)
	if err != nil {
		return Pattern{}, err
	}
	return convertPattern(dayOfWeek, start, end, time.UTC, loc)
}

func convertPattern(dayOfWeek int, start, end string, from, to *time.Location) (Pattern, error) {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return Pattern{}, fmt.Errorf("%w: %d", ErrInvalidDayOfWeek, dayOfWeek)
	}
	startMin, err := TimeToMinutes(start)
	if err != nil {
		return Pattern{}, err
	}
	endMin, err := TimeToMinutes(end)
	if err != nil {
		return Pattern{}, err
	}

	anchor := referenceSunday.AddDate(0, 0, dayOfWeek)
	endAnchor := anchor
	if endMin <= startMin {
		// The slot spans midnight in the source zone, so the end boundary
		// belongs to the following calendar day. Measuring its day shift
		// against the start's anchor would be off by one.
		endAnchor = anchor.AddDate(0, 0, 1)
	}

	newStart, dayShift := convertBoundary(anchor, startMin, from, to)
	newEnd, _ := convertBoundary(endAnchor, endMin, from, to)

	newDay := (dayOfWeek + dayShift) % 7
	if newDay < 0 {
		newDay += 7
	}
	return Pattern{DayOfWeek: newDay, StartTime: newStart, EndTime: newEnd}, nil
}

// convertBoundary expresses anchor date + wall-clock minutes as an instant in
// the source location, converts it to the target location, and reports the
// converted wall-clock time together with the whole-day shift relative to
// the anchor date.
func convertBoundary(anchor time.Time, minutes int, from, to *time.Location) (string, int) {
	year, month, day := anchor.Date()
	instant := time.Date(year, month, day, minutes/60, minutes%60, 0, 0, from).In(to)
	return instant.Format(timeLayout), civilDay(instant) - civilDay(anchor)
}

// civilDay maps a timestamp to the ordinal number of its calendar date in
// its own location, so differences count whole calendar days.
func civilDay(t time.Time) int {
	year, month, day := t.Date()
	return int(time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}
