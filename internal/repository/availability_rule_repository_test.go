package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kairos-app/kairos-api/internal/models"
)

func newRuleRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func ruleRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "participant_id", "rule_type", "day_of_week", "specific_date",
		"start_time", "end_time", "original_timezone", "original_day_of_week",
		"reason", "source", "created_at", "updated_at",
	})
}

func TestAvailabilityRuleRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRuleRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRuleRepository(db)

	mock.ExpectExec("INSERT INTO availability_rules").
		WithArgs(sqlmock.AnyArg(), "participant-1", "available_pattern", 2, nil,
			"01:00", "06:00", "America/Los_Angeles", 1, nil, "manual",
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	day := 2
	original := 1
	rule := models.AvailabilityRule{
		ParticipantID:     "participant-1",
		RuleType:          models.RuleAvailablePattern,
		DayOfWeek:         &day,
		StartTime:         "01:00",
		EndTime:           "06:00",
		OriginalTimezone:  "America/Los_Angeles",
		OriginalDayOfWeek: &original,
		Source:            models.RuleSourceManual,
	}
	err := repo.Create(context.Background(), &rule)
	require.NoError(t, err)
	assert.NotEmpty(t, rule.ID)
	assert.False(t, rule.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRuleRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRuleRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRuleRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM availability_rules WHERE id =").
		WithArgs("rule-1").
		WillReturnRows(ruleRows().AddRow(
			"rule-1", "participant-1", "blocked_override", nil, now,
			"02:00", "05:00", "America/Los_Angeles", nil,
			"family dinner", "manual", now, now,
		))

	rule, err := repo.FindByID(context.Background(), "rule-1")
	require.NoError(t, err)
	assert.Equal(t, models.RuleBlockedOverride, rule.RuleType)
	require.NotNil(t, rule.Reason)
	assert.Equal(t, "family dinner", *rule.Reason)
	assert.Nil(t, rule.DayOfWeek)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRuleRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newRuleRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRuleRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM availability_rules WHERE id =").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAvailabilityRuleRepositoryListByParticipants(t *testing.T) {
	db, mock, cleanup := newRuleRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRuleRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM availability_rules WHERE 1=1 AND participant_id IN").
		WithArgs("participant-1", "participant-2").
		WillReturnRows(ruleRows().
			AddRow("rule-1", "participant-1", "available_pattern", 1, nil,
				"10:00", "21:00", "UTC", 1, nil, "manual", now, now).
			AddRow("rule-2", "participant-2", "available_pattern", 2, nil,
				"01:00", "06:00", "America/Los_Angeles", 1, nil, "import", now, now))

	rules, err := repo.List(context.Background(), models.AvailabilityRuleFilter{
		ParticipantIDs: []string{"participant-1", "participant-2"},
	})
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "participant-1", rules[0].ParticipantID)
	assert.Equal(t, models.RuleSourceImport, rules[1].Source)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRuleRepositoryUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newRuleRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRuleRepository(db)

	mock.ExpectExec("UPDATE availability_rules").
		WillReturnResult(sqlmock.NewResult(0, 0))

	day := 1
	err := repo.Update(context.Background(), &models.AvailabilityRule{
		ID:               "missing",
		RuleType:         models.RuleAvailablePattern,
		DayOfWeek:        &day,
		StartTime:        "09:00",
		EndTime:          "17:00",
		OriginalTimezone: "UTC",
		Source:           models.RuleSourceManual,
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAvailabilityRuleRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRuleRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRuleRepository(db)

	mock.ExpectExec("DELETE FROM availability_rules WHERE id =").
		WithArgs("rule-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "rule-1"))

	mock.ExpectExec("DELETE FROM availability_rules WHERE id =").
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "gone"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
