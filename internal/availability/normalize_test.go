package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kairos-app/kairos-api/internal/models"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestPrepareRuleForStoragePattern(t *testing.T) {
	rule, err := PrepareRuleForStorage(RuleInput{
		RuleType:  models.RuleAvailablePattern,
		DayOfWeek: intPtr(1),
		StartTime: "17:00",
		EndTime:   "22:00",
	}, "America/Los_Angeles")
	require.NoError(t, err)

	require.NotNil(t, rule.DayOfWeek)
	assert.Equal(t, 2, *rule.DayOfWeek)
	assert.Equal(t, "01:00", rule.StartTime)
	assert.Equal(t, "06:00", rule.EndTime)
	assert.Equal(t, "America/Los_Angeles", rule.OriginalTimezone)
	require.NotNil(t, rule.OriginalDayOfWeek)
	assert.Equal(t, 1, *rule.OriginalDayOfWeek)
	assert.Nil(t, rule.SpecificDate)
	assert.Equal(t, models.RuleSourceManual, rule.Source)
}

func TestPrepareRuleForStorageOverride(t *testing.T) {
	rule, err := PrepareRuleForStorage(RuleInput{
		RuleType:     models.RuleBlockedOverride,
		SpecificDate: strPtr("2025-01-06"),
		StartTime:    "18:00",
		EndTime:      "21:00",
		Reason:       strPtr("family dinner"),
		Source:       models.RuleSourceAssistant,
	}, "America/Los_Angeles")
	require.NoError(t, err)

	require.NotNil(t, rule.SpecificDate)
	assert.Equal(t, "2025-01-07", rule.SpecificDate.Format("2006-01-02"))
	assert.Equal(t, "02:00", rule.StartTime)
	assert.Equal(t, "05:00", rule.EndTime)
	assert.Nil(t, rule.DayOfWeek)
	assert.Nil(t, rule.OriginalDayOfWeek)
	assert.Equal(t, models.RuleSourceAssistant, rule.Source)
	require.NotNil(t, rule.Reason)
	assert.Equal(t, "family dinner", *rule.Reason)
}

func TestPrepareRuleForStorageOvernightOverride(t *testing.T) {
	// 22:00-02:00 in Manila on 2025-01-06: the start maps to 14:00 UTC on
	// the 6th, the end (anchored to the following local day) to 18:00 UTC
	// the same UTC day, so the stored form is a plain four-hour span.
	rule, err := PrepareRuleForStorage(RuleInput{
		RuleType:     models.RuleAvailableOverride,
		SpecificDate: strPtr("2025-01-06"),
		StartTime:    "22:00",
		EndTime:      "02:00",
	}, "Asia/Manila")
	require.NoError(t, err)

	require.NotNil(t, rule.SpecificDate)
	assert.Equal(t, "2025-01-06", rule.SpecificDate.Format("2006-01-02"))
	assert.Equal(t, "14:00", rule.StartTime)
	assert.Equal(t, "18:00", rule.EndTime)
}

func TestPrepareRuleForStorageValidatesShape(t *testing.T) {
	_, err := PrepareRuleForStorage(RuleInput{
		RuleType:  models.RuleAvailablePattern,
		StartTime: "09:00",
		EndTime:   "17:00",
	}, "UTC")
	assert.ErrorIs(t, err, ErrInvalidRule)

	_, err = PrepareRuleForStorage(RuleInput{
		RuleType:     models.RuleAvailablePattern,
		DayOfWeek:    intPtr(1),
		SpecificDate: strPtr("2025-01-06"),
		StartTime:    "09:00",
		EndTime:      "17:00",
	}, "UTC")
	assert.ErrorIs(t, err, ErrInvalidRule)

	_, err = PrepareRuleForStorage(RuleInput{
		RuleType:     models.RuleBlockedOverride,
		SpecificDate: strPtr("2025-01-06"),
		StartTime:    "09:00",
		EndTime:      "09:00",
	}, "UTC")
	assert.ErrorIs(t, err, ErrInvalidRule)

	_, err = PrepareRuleForStorage(RuleInput{
		RuleType:  models.RuleAvailablePattern,
		DayOfWeek: intPtr(1),
		StartTime: "09:00",
		EndTime:   "17:00",
	}, "Nowhere/Special")
	assert.ErrorIs(t, err, ErrUnknownZone)
}

func TestRuleForEditingRoundTripsPattern(t *testing.T) {
	input := RuleInput{
		RuleType:  models.RuleAvailablePattern,
		DayOfWeek: intPtr(1),
		StartTime: "07:00",
		EndTime:   "09:00",
	}
	stored, err := PrepareRuleForStorage(input, "Asia/Manila")
	require.NoError(t, err)

	edit, err := RuleForEditing(*stored, "Asia/Manila")
	require.NoError(t, err)
	require.NotNil(t, edit.DayOfWeek)
	assert.Equal(t, 1, *edit.DayOfWeek)
	assert.Equal(t, "07:00", edit.StartTime)
	assert.Equal(t, "09:00", edit.EndTime)
}

func TestRuleForEditingUsesOriginalDayInOriginalZone(t *testing.T) {
	// The stored original day of week wins over the re-derived one when
	// editing in the zone the rule was created in.
	day := 0
	original := 1
	stored := models.AvailabilityRule{
		ID:                "rule-1",
		RuleType:          models.RuleAvailablePattern,
		DayOfWeek:         &day,
		StartTime:         "23:00",
		EndTime:           "01:00",
		OriginalTimezone:  "Asia/Manila",
		OriginalDayOfWeek: &original,
	}

	edit, err := RuleForEditing(stored, "Asia/Manila")
	require.NoError(t, err)
	require.NotNil(t, edit.DayOfWeek)
	assert.Equal(t, 1, *edit.DayOfWeek)
}

func TestRuleForEditingOverrideInDifferentZone(t *testing.T) {
	input := RuleInput{
		RuleType:     models.RuleBlockedOverride,
		SpecificDate: strPtr("2025-01-06"),
		StartTime:    "18:00",
		EndTime:      "21:00",
	}
	stored, err := PrepareRuleForStorage(input, "America/Los_Angeles")
	require.NoError(t, err)

	// Viewed from Manila (UTC+8), the same block lands on Jan 7, 10:00-13:00.
	edit, err := RuleForEditing(*stored, "Asia/Manila")
	require.NoError(t, err)
	require.NotNil(t, edit.SpecificDate)
	assert.Equal(t, "2025-01-07", *edit.SpecificDate)
	assert.Equal(t, "10:00", edit.StartTime)
	assert.Equal(t, "13:00", edit.EndTime)

	// Round trip back into the original zone.
	back, err := RuleForEditing(*stored, "America/Los_Angeles")
	require.NoError(t, err)
	require.NotNil(t, back.SpecificDate)
	assert.Equal(t, "2025-01-06", *back.SpecificDate)
	assert.Equal(t, "18:00", back.StartTime)
	assert.Equal(t, "21:00", back.EndTime)
}
