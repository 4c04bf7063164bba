package availability

import "time"

// LocalToUTC re-expresses the given wall-clock time and date, interpreted in
// the provided zone, as a UTC time and date. The returned date differs from
// the input when the offset pushes the instant across midnight.
func LocalToUTC(timeStr, dateStr, zone string) (string, string, error) {
	return convertInstant(timeStr, dateStr, zone, false)
}

// UTCToLocal is the inverse of LocalToUTC: it interprets the time and date as
// UTC and re-expresses them in the provided zone.
func UTCToLocal(timeStr, dateStr, zone string) (string, string, error) {
	return convertInstant(timeStr, dateStr, zone, true)
}

func convertInstant(timeStr, dateStr, zone string, fromUTC bool) (string, string, error) {
	minutes, err := TimeToMinutes(timeStr)
	if err != nil {
		return "", "", err
	}
	date, err := parseDate(dateStr)
	if err != nil {
		return "", "", err
	}
	loc, err := loadZone(zone)
	if err != nil {
		return "", "", err
	}

	src, dst := loc, time.UTC
	if fromUTC {
		src, dst = time.UTC, loc
	}

	year, month, day := date.Date()
	instant := time.Date(year, month, day, minutes/60, minutes%60, 0, 0, src).In(dst)
	return instant.Format(timeLayout), instant.Format(dateLayout), nil
}
