package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kairos-app/kairos-api/internal/availability"
	"github.com/kairos-app/kairos-api/internal/models"
	appErrors "github.com/kairos-app/kairos-api/pkg/errors"
)

type mockRuleReader struct {
	rules []models.AvailabilityRule
	err   error
}

func (m *mockRuleReader) List(ctx context.Context, filter models.AvailabilityRuleFilter) ([]models.AvailabilityRule, error) {
	if m.err != nil {
		return nil, m.err
	}
	if filter.ParticipantID == "" && len(filter.ParticipantIDs) == 0 {
		return m.rules, nil
	}
	match := func(id string) bool {
		if filter.ParticipantID != "" {
			return id == filter.ParticipantID
		}
		for _, candidate := range filter.ParticipantIDs {
			if candidate == id {
				return true
			}
		}
		return false
	}
	var out []models.AvailabilityRule
	for _, rule := range m.rules {
		if match(rule.ParticipantID) {
			out = append(out, rule)
		}
	}
	return out, nil
}

func weeklyRule(participantID string, ruleType models.RuleType, day int, start, end string) models.AvailabilityRule {
	return models.AvailabilityRule{
		ID:               participantID + "-" + start,
		ParticipantID:    participantID,
		RuleType:         ruleType,
		DayOfWeek:        &day,
		StartTime:        start,
		EndTime:          end,
		OriginalTimezone: "UTC",
	}
}

func newAvailabilityService(reader *mockRuleReader) *AvailabilityService {
	return NewAvailabilityService(reader, nil, AvailabilityConfig{MaxWindowDays: 62}, zap.NewNop())
}

func TestResolveParticipantBasicWindow(t *testing.T) {
	reader := &mockRuleReader{rules: []models.AvailabilityRule{
		weeklyRule("participant-1", models.RuleAvailablePattern, 1, "10:00", "21:00"),
	}}
	svc := newAvailabilityService(reader)

	result, err := svc.ResolveParticipant(context.Background(), "participant-1", "2025-01-06", "2025-01-07")
	require.NoError(t, err)
	assert.Equal(t, "participant-1", result.ParticipantID)
	require.Len(t, result.Days, 2)

	monday := result.Days["2025-01-06"]
	require.Len(t, monday.AvailableRanges, 1)
	assert.Equal(t, availability.Interval{StartMinutes: 600, EndMinutes: 1260}, monday.AvailableRanges[0])
	assert.Empty(t, result.Days["2025-01-07"].AvailableRanges)
}

func TestResolveParticipantFoldsLeadingOvernightSpill(t *testing.T) {
	// Sunday 23:00-01:00 UTC continues into Monday. A window starting on
	// Monday still sees the spilled hour.
	reader := &mockRuleReader{rules: []models.AvailabilityRule{
		weeklyRule("participant-1", models.RuleAvailablePattern, 0, "23:00", "01:00"),
	}}
	svc := newAvailabilityService(reader)

	result, err := svc.ResolveParticipant(context.Background(), "participant-1", "2025-01-06", "2025-01-06")
	require.NoError(t, err)
	require.Len(t, result.Days, 1)

	monday := result.Days["2025-01-06"]
	require.Len(t, monday.AvailableRanges, 1)
	assert.Equal(t, availability.Interval{StartMinutes: 0, EndMinutes: 60}, monday.AvailableRanges[0])
}

func TestResolveParticipantRejectsOversizedWindow(t *testing.T) {
	svc := NewAvailabilityService(&mockRuleReader{}, nil, AvailabilityConfig{MaxWindowDays: 7}, zap.NewNop())

	_, err := svc.ResolveParticipant(context.Background(), "participant-1", "2025-01-01", "2025-02-01")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrWindowTooLarge.Code, appErrors.FromError(err).Code)
}

func TestResolveParticipantRejectsMalformedDates(t *testing.T) {
	svc := newAvailabilityService(&mockRuleReader{})

	_, err := svc.ResolveParticipant(context.Background(), "participant-1", "01/06/2025", "2025-01-07")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.ResolveParticipant(context.Background(), "participant-1", "2025-01-07", "2025-01-06")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTimeRange.Code, appErrors.FromError(err).Code)
}

func TestResolveGroupCountsOverlap(t *testing.T) {
	reader := &mockRuleReader{rules: []models.AvailabilityRule{
		weeklyRule("participant-1", models.RuleAvailablePattern, 1, "09:00", "12:00"),
		weeklyRule("participant-2", models.RuleAvailablePattern, 1, "10:00", "13:00"),
	}}
	svc := newAvailabilityService(reader)

	group, err := svc.ResolveGroup(context.Background(), []string{"participant-1", "participant-2"}, "2025-01-06", "2025-01-06")
	require.NoError(t, err)
	assert.Equal(t, 2, group.Participants)

	slots := group.Days["2025-01-06"]
	assert.Equal(t, []GroupSlot{
		{StartMinutes: 540, EndMinutes: 600, Count: 1},
		{StartMinutes: 600, EndMinutes: 720, Count: 2},
		{StartMinutes: 720, EndMinutes: 780, Count: 1},
	}, slots)
}

func TestResolveGroupCombinesOvernightSpillWithNextDate(t *testing.T) {
	// One participant is available Monday 23:00-01:00 UTC, the other Tuesday
	// 00:00-01:00. The same physical hour must land under Tuesday for both,
	// so the sweep sees a count of 2.
	reader := &mockRuleReader{rules: []models.AvailabilityRule{
		weeklyRule("participant-1", models.RuleAvailablePattern, 1, "23:00", "01:00"),
		weeklyRule("participant-2", models.RuleAvailablePattern, 2, "00:00", "01:00"),
	}}
	svc := newAvailabilityService(reader)

	group, err := svc.ResolveGroup(context.Background(), []string{"participant-1", "participant-2"}, "2025-01-06", "2025-01-07")
	require.NoError(t, err)

	assert.Equal(t, []GroupSlot{
		{StartMinutes: 1380, EndMinutes: 1440, Count: 1},
	}, group.Days["2025-01-06"])
	assert.Equal(t, []GroupSlot{
		{StartMinutes: 0, EndMinutes: 60, Count: 2},
	}, group.Days["2025-01-07"])
}

func TestResolveGroupDropsSpillPastWindowEnd(t *testing.T) {
	reader := &mockRuleReader{rules: []models.AvailabilityRule{
		weeklyRule("participant-1", models.RuleAvailablePattern, 1, "23:00", "01:00"),
	}}
	svc := newAvailabilityService(reader)

	group, err := svc.ResolveGroup(context.Background(), []string{"participant-1"}, "2025-01-06", "2025-01-06")
	require.NoError(t, err)

	assert.Equal(t, []GroupSlot{
		{StartMinutes: 1380, EndMinutes: 1440, Count: 1},
	}, group.Days["2025-01-06"])
	_, ok := group.Days["2025-01-07"]
	assert.False(t, ok)
}

func TestResolveGroupRequiresParticipants(t *testing.T) {
	svc := newAvailabilityService(&mockRuleReader{})

	_, err := svc.ResolveGroup(context.Background(), nil, "2025-01-06", "2025-01-07")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
