// Package availability implements the timezone-aware resolution engine that
// turns a participant's recurring weekly patterns and date-specific overrides
// into per-date disjoint availability ranges. Every function in the package
// is pure and safe for concurrent use; malformed input fails fast with a
// typed error rather than degrading to UTC or a guessed value.
package availability

import (
	"errors"
	"fmt"
	"time"
)

const (
	timeLayout = "15:04"
	dateLayout = "2006-01-02"

	minutesPerDay = 24 * 60
)

// Sentinel errors for malformed engine input.
var (
	ErrInvalidTime      = errors.New("availability: time must be HH:MM in 24-hour form")
	ErrInvalidDate      = errors.New("availability: date must be YYYY-MM-DD")
	ErrInvalidDayOfWeek = errors.New("availability: day of week must be 0 (Sunday) through 6 (Saturday)")
	ErrUnknownZone      = errors.New("availability: unknown IANA timezone identifier")
	ErrInvalidInterval  = errors.New("availability: invalid minute interval")
	ErrInvalidRule      = errors.New("availability: invalid rule")
	ErrInvalidWindow    = errors.New("availability: invalid date window")
)

// TimeToMinutes parses a "HH:MM" wall-clock string into minutes from
// midnight, in [0, 1439].
func TimeToMinutes(value string) (int, error) {
	if len(value) != 5 || value[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, value)
	}
	for _, i := range [...]int{0, 1, 3, 4} {
		if value[i] < '0' || value[i] > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTime, value)
		}
	}
	hours := int(value[0]-'0')*10 + int(value[1]-'0')
	mins := int(value[3]-'0')*10 + int(value[4]-'0')
	if hours > 23 || mins > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, value)
	}
	return hours*60 + mins, nil
}

// MinutesToTime formats minutes from midnight as "HH:MM", normalizing any
// integer (negative or beyond a day) into the [0, 1440) domain first.
func MinutesToTime(minutes int) string {
	minutes %= minutesPerDay
	if minutes < 0 {
		minutes += minutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func parseDate(value string) (time.Time, error) {
	date, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return date, nil
}

func loadZone(zone string) (*time.Location, error) {
	if zone == "" {
		return nil, fmt.Errorf("%w: empty identifier", ErrUnknownZone)
	}
	if zone == "UTC" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownZone, zone)
	}
	return loc, nil
}
