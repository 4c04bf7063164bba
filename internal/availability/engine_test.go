package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kairos-app/kairos-api/internal/models"
)

func patternRule(ruleType models.RuleType, day int, start, end string) models.AvailabilityRule {
	return models.AvailabilityRule{
		ID:               "rule-" + start,
		ParticipantID:    "participant-1",
		RuleType:         ruleType,
		DayOfWeek:        &day,
		StartTime:        start,
		EndTime:          end,
		OriginalTimezone: "UTC",
	}
}

func overrideRule(ruleType models.RuleType, date string, start, end string) models.AvailabilityRule {
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return models.AvailabilityRule{
		ID:               "rule-" + date + "-" + start,
		ParticipantID:    "participant-1",
		RuleType:         ruleType,
		SpecificDate:     &parsed,
		StartTime:        start,
		EndTime:          end,
		OriginalTimezone: "UTC",
	}
}

func utcDate(value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func TestComputeEffectiveRangesConvertedPatterns(t *testing.T) {
	// The stored form of "Monday 02:00-13:00" and "Monday 17:00-22:00"
	// entered in Los Angeles: Monday 10:00-21:00 UTC and Tuesday
	// 01:00-06:00 UTC.
	rules := []models.AvailabilityRule{
		patternRule(models.RuleAvailablePattern, 1, "10:00", "21:00"),
		patternRule(models.RuleAvailablePattern, 2, "01:00", "06:00"),
	}

	result, err := ComputeEffectiveRanges(rules, utcDate("2025-01-06"), utcDate("2025-01-07"))
	require.NoError(t, err)

	monday := result["2025-01-06"]
	require.Len(t, monday.AvailableRanges, 1)
	assert.Equal(t, Interval{StartMinutes: 600, EndMinutes: 1260}, monday.AvailableRanges[0])
	assert.Equal(t, "10:00", MinutesToTime(monday.AvailableRanges[0].StartMinutes))
	assert.Equal(t, "21:00", MinutesToTime(monday.AvailableRanges[0].EndMinutes))

	tuesday := result["2025-01-07"]
	require.Len(t, tuesday.AvailableRanges, 1)
	assert.Equal(t, Interval{StartMinutes: 60, EndMinutes: 360}, tuesday.AvailableRanges[0])
}

func TestComputeEffectiveRangesOvernightContinuity(t *testing.T) {
	// Stored form of "Monday 07:00-09:00" entered in Manila: Sunday
	// 23:00-01:00 UTC. The Sunday interval extends past 1440 instead of
	// truncating or splitting.
	rules := []models.AvailabilityRule{
		patternRule(models.RuleAvailablePattern, 0, "23:00", "01:00"),
	}

	result, err := ComputeEffectiveRanges(rules, utcDate("2025-01-05"), utcDate("2025-01-05"))
	require.NoError(t, err)

	sunday := result["2025-01-05"]
	require.Len(t, sunday.AvailableRanges, 1)
	assert.Equal(t, Interval{StartMinutes: 1380, EndMinutes: 1500}, sunday.AvailableRanges[0])
}

func TestComputeEffectiveRangesNeverBridgesGaps(t *testing.T) {
	rules := []models.AvailabilityRule{
		patternRule(models.RuleAvailablePattern, 1, "02:00", "13:00"),
		patternRule(models.RuleAvailablePattern, 1, "17:00", "22:00"),
	}

	result, err := ComputeEffectiveRanges(rules, utcDate("2025-01-06"), utcDate("2025-01-06"))
	require.NoError(t, err)

	ranges := result["2025-01-06"].AvailableRanges
	require.Len(t, ranges, 2, "disjoint slots must never collapse into one range")
	assert.Equal(t, Interval{StartMinutes: 120, EndMinutes: 780}, ranges[0])
	assert.Equal(t, Interval{StartMinutes: 1020, EndMinutes: 1320}, ranges[1])
}

func TestComputeEffectiveRangesBlockedPatternSplits(t *testing.T) {
	rules := []models.AvailabilityRule{
		patternRule(models.RuleAvailablePattern, 1, "08:00", "18:00"),
		patternRule(models.RuleBlockedPattern, 1, "12:00", "13:00"),
	}

	result, err := ComputeEffectiveRanges(rules, utcDate("2025-01-06"), utcDate("2025-01-06"))
	require.NoError(t, err)

	ranges := result["2025-01-06"].AvailableRanges
	require.Len(t, ranges, 2)
	assert.Equal(t, Interval{StartMinutes: 480, EndMinutes: 720}, ranges[0])
	assert.Equal(t, Interval{StartMinutes: 780, EndMinutes: 1080}, ranges[1])
}

func TestComputeEffectiveRangesBlockedOverrideOutranksEverything(t *testing.T) {
	rules := []models.AvailabilityRule{
		patternRule(models.RuleAvailablePattern, 1, "09:00", "17:00"),
		overrideRule(models.RuleBlockedOverride, "2025-01-06", "09:00", "17:00"),
	}

	result, err := ComputeEffectiveRanges(rules, utcDate("2025-01-06"), utcDate("2025-01-13"))
	require.NoError(t, err)

	assert.Empty(t, result["2025-01-06"].AvailableRanges)

	nextMonday := result["2025-01-13"]
	require.Len(t, nextMonday.AvailableRanges, 1)
	assert.Equal(t, Interval{StartMinutes: 540, EndMinutes: 1020}, nextMonday.AvailableRanges[0])
}

func TestComputeEffectiveRangesBlockedOverrideBeatsAvailableOverride(t *testing.T) {
	rules := []models.AvailabilityRule{
		overrideRule(models.RuleAvailableOverride, "2025-01-06", "10:00", "16:00"),
		overrideRule(models.RuleBlockedOverride, "2025-01-06", "12:00", "14:00"),
	}

	result, err := ComputeEffectiveRanges(rules, utcDate("2025-01-06"), utcDate("2025-01-06"))
	require.NoError(t, err)

	ranges := result["2025-01-06"].AvailableRanges
	require.Len(t, ranges, 2)
	assert.Equal(t, Interval{StartMinutes: 600, EndMinutes: 720}, ranges[0])
	assert.Equal(t, Interval{StartMinutes: 840, EndMinutes: 960}, ranges[1])
}

func TestComputeEffectiveRangesAvailableOverrideAddsWithoutPattern(t *testing.T) {
	rules := []models.AvailabilityRule{
		overrideRule(models.RuleAvailableOverride, "2025-01-08", "10:00", "12:00"),
	}

	result, err := ComputeEffectiveRanges(rules, utcDate("2025-01-06"), utcDate("2025-01-09"))
	require.NoError(t, err)

	assert.Empty(t, result["2025-01-06"].AvailableRanges)
	assert.Empty(t, result["2025-01-07"].AvailableRanges)
	assert.Empty(t, result["2025-01-09"].AvailableRanges)

	wednesday := result["2025-01-08"]
	require.Len(t, wednesday.AvailableRanges, 1)
	assert.Equal(t, Interval{StartMinutes: 600, EndMinutes: 720}, wednesday.AvailableRanges[0])
}

func TestComputeEffectiveRangesEveryDateHasEntry(t *testing.T) {
	result, err := ComputeEffectiveRanges(nil, utcDate("2025-01-06"), utcDate("2025-01-10"))
	require.NoError(t, err)
	require.Len(t, result, 5)
	for _, day := range result {
		assert.NotNil(t, day.AvailableRanges)
		assert.Empty(t, day.AvailableRanges)
	}
}

func TestComputeEffectiveRangesRejectsInvertedWindow(t *testing.T) {
	_, err := ComputeEffectiveRanges(nil, utcDate("2025-01-10"), utcDate("2025-01-06"))
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestComputeEffectiveRangesRejectsMalformedRule(t *testing.T) {
	rules := []models.AvailabilityRule{
		{ID: "broken", RuleType: models.RuleAvailablePattern, StartTime: "09:00", EndTime: "17:00"},
	}
	_, err := ComputeEffectiveRanges(rules, utcDate("2025-01-06"), utcDate("2025-01-06"))
	assert.ErrorIs(t, err, ErrInvalidRule)

	rules = []models.AvailabilityRule{
		{ID: "weird", RuleType: "sometimes_available", StartTime: "09:00", EndTime: "17:00"},
	}
	_, err = ComputeEffectiveRanges(rules, utcDate("2025-01-06"), utcDate("2025-01-06"))
	assert.ErrorIs(t, err, ErrInvalidRule)
}
