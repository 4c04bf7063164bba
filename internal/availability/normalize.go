package availability

import (
	"fmt"

	"github.com/kairos-app/kairos-api/internal/models"
)

// RuleInput is a user-entered rule prior to UTC normalization: wall-clock
// times in the participant's zone, a day of week for patterns or a calendar
// date for overrides.
type RuleInput struct {
	RuleType     models.RuleType   `json:"rule_type"`
	DayOfWeek    *int              `json:"day_of_week,omitempty"`
	SpecificDate *string           `json:"specific_date,omitempty"`
	StartTime    string            `json:"start_time"`
	EndTime      string            `json:"end_time"`
	Reason       *string           `json:"reason,omitempty"`
	Source       models.RuleSource `json:"source,omitempty"`
}

// PrepareRuleForStorage converts user input entered in the given zone into
// the UTC-normalized persistable form. Patterns go through the day-aware
// weekly conversion; overrides through a single instant conversion. The
// original timezone and, for patterns, the original day of week are copied
// from the input before conversion and never re-derived from the UTC form.
func PrepareRuleForStorage(in RuleInput, zone string) (*models.AvailabilityRule, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	rule := &models.AvailabilityRule{
		RuleType:         in.RuleType,
		OriginalTimezone: zone,
		Reason:           in.Reason,
		Source:           in.Source,
	}
	if rule.Source == "" {
		rule.Source = models.RuleSourceManual
	}

	if in.RuleType.IsPattern() {
		pattern, err := ConvertPatternToUTC(*in.DayOfWeek, in.StartTime, in.EndTime, zone)
		if err != nil {
			return nil, err
		}
		day := pattern.DayOfWeek
		original := *in.DayOfWeek
		rule.DayOfWeek = &day
		rule.OriginalDayOfWeek = &original
		rule.StartTime = pattern.StartTime
		rule.EndTime = pattern.EndTime
		return rule, nil
	}

	startMin, err := TimeToMinutes(in.StartTime)
	if err != nil {
		return nil, err
	}
	endMin, err := TimeToMinutes(in.EndTime)
	if err != nil {
		return nil, err
	}

	startTime, startDate, err := LocalToUTC(in.StartTime, *in.SpecificDate, zone)
	if err != nil {
		return nil, err
	}
	endAnchor := *in.SpecificDate
	if endMin <= startMin {
		// Overnight in the entry zone: the end instant is on the next day.
		next, err := parseDate(*in.SpecificDate)
		if err != nil {
			return nil, err
		}
		endAnchor = next.AddDate(0, 0, 1).Format(dateLayout)
	}
	endTime, _, err := LocalToUTC(in.EndTime, endAnchor, zone)
	if err != nil {
		return nil, err
	}

	date, err := parseDate(startDate)
	if err != nil {
		return nil, err
	}
	rule.SpecificDate = &date
	rule.StartTime = startTime
	rule.EndTime = endTime
	return rule, nil
}

// RuleForEditing reconstructs a stored UTC rule in the given display zone so
// it can be presented and edited as the participant would have entered it.
// For patterns edited in their original timezone, the stored original day of
// week is used verbatim instead of the re-derived one: re-deriving through a
// different current zone would not reliably invert the original conversion.
func RuleForEditing(rule models.AvailabilityRule, zone string) (RuleInput, error) {
	out := RuleInput{
		RuleType: rule.RuleType,
		Reason:   rule.Reason,
		Source:   rule.Source,
	}

	if rule.RuleType.IsPattern() {
		if rule.DayOfWeek == nil {
			return RuleInput{}, fmt.Errorf("%w: pattern rule %s has no day of week", ErrInvalidRule, rule.ID)
		}
		pattern, err := ConvertPatternFromUTC(*rule.DayOfWeek, rule.StartTime, rule.EndTime, zone)
		if err != nil {
			return RuleInput{}, err
		}
		day := pattern.DayOfWeek
		if zone == rule.OriginalTimezone && rule.OriginalDayOfWeek != nil {
			day = *rule.OriginalDayOfWeek
		}
		out.DayOfWeek = &day
		out.StartTime = pattern.StartTime
		out.EndTime = pattern.EndTime
		return out, nil
	}

	if rule.SpecificDate == nil {
		return RuleInput{}, fmt.Errorf("%w: override rule %s has no specific date", ErrInvalidRule, rule.ID)
	}
	storedDate := rule.SpecificDate.UTC().Format(dateLayout)

	startMin, err := TimeToMinutes(rule.StartTime)
	if err != nil {
		return RuleInput{}, err
	}
	endMin, err := TimeToMinutes(rule.EndTime)
	if err != nil {
		return RuleInput{}, err
	}

	startTime, startDate, err := UTCToLocal(rule.StartTime, storedDate, zone)
	if err != nil {
		return RuleInput{}, err
	}
	endAnchor := storedDate
	if endMin <= startMin {
		endAnchor = rule.SpecificDate.UTC().AddDate(0, 0, 1).Format(dateLayout)
	}
	endTime, _, err := UTCToLocal(rule.EndTime, endAnchor, zone)
	if err != nil {
		return RuleInput{}, err
	}

	out.SpecificDate = &startDate
	out.StartTime = startTime
	out.EndTime = endTime
	return out, nil
}

func validateInput(in RuleInput) error {
	if !in.RuleType.Valid() {
		return fmt.Errorf("%w: unknown rule type %q", ErrInvalidRule, in.RuleType)
	}
	if in.StartTime == in.EndTime {
		return fmt.Errorf("%w: start and end times must differ", ErrInvalidRule)
	}
	if in.RuleType.IsPattern() {
		if in.DayOfWeek == nil {
			return fmt.Errorf("%w: pattern rules require a day of week", ErrInvalidRule)
		}
		if in.SpecificDate != nil {
			return fmt.Errorf("%w: pattern rules must not carry a specific date", ErrInvalidRule)
		}
		return nil
	}
	if in.SpecificDate == nil {
		return fmt.Errorf("%w: override rules require a specific date", ErrInvalidRule)
	}
	if in.DayOfWeek != nil {
		return fmt.Errorf("%w: override rules must not carry a day of week", ErrInvalidRule)
	}
	return nil
}
