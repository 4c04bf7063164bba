package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kairos-app/kairos-api/internal/models"
)

// AvailabilityRuleRepository persists availability rules in their UTC
// storage form.
type AvailabilityRuleRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRuleRepository constructs the repository.
func NewAvailabilityRuleRepository(db *sqlx.DB) *AvailabilityRuleRepository {
	return &AvailabilityRuleRepository{db: db}
}

const availabilityRuleColumns = `id, participant_id, rule_type, day_of_week, specific_date, start_time, end_time, original_timezone, original_day_of_week, reason, source, created_at, updated_at`

// FindByID returns a rule by identifier.
func (r *AvailabilityRuleRepository) FindByID(ctx context.Context, id string) (*models.AvailabilityRule, error) {
	query := `SELECT ` + availabilityRuleColumns + ` FROM availability_rules WHERE id = $1 LIMIT 1`
	var rule models.AvailabilityRule
	if err := r.db.GetContext(ctx, &rule, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find availability rule by id: %w", err)
	}
	return &rule, nil
}

// List returns rules matching the filter, ordered stably so repeated reads
// resolve the same way.
func (r *AvailabilityRuleRepository) List(ctx context.Context, filter models.AvailabilityRuleFilter) ([]models.AvailabilityRule, error) {
	query := `SELECT ` + availabilityRuleColumns + ` FROM availability_rules WHERE 1=1`
	var args []interface{}

	if filter.ParticipantID != "" {
		args = append(args, filter.ParticipantID)
		query += fmt.Sprintf(" AND participant_id = $%d", len(args))
	}
	if len(filter.ParticipantIDs) > 0 {
		placeholders := make([]string, 0, len(filter.ParticipantIDs))
		for _, id := range filter.ParticipantIDs {
			args = append(args, id)
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		query += " AND participant_id IN (" + strings.Join(placeholders, ", ") + ")"
	}
	if len(filter.RuleTypes) > 0 {
		placeholders := make([]string, 0, len(filter.RuleTypes))
		for _, rt := range filter.RuleTypes {
			args = append(args, rt)
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		query += " AND rule_type IN (" + strings.Join(placeholders, ", ") + ")"
	}

	query += " ORDER BY participant_id, created_at, id"

	var rules []models.AvailabilityRule
	if err := r.db.SelectContext(ctx, &rules, query, args...); err != nil {
		return nil, fmt.Errorf("list availability rules: %w", err)
	}
	return rules, nil
}

// Create inserts a new rule and fills in generated fields.
func (r *AvailabilityRuleRepository) Create(ctx context.Context, rule *models.AvailabilityRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now

	const query = `INSERT INTO availability_rules (` + availabilityRuleColumns + `)
		VALUES (:id, :participant_id, :rule_type, :day_of_week, :specific_date, :start_time, :end_time, :original_timezone, :original_day_of_week, :reason, :source, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("create availability rule: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of a rule.
func (r *AvailabilityRuleRepository) Update(ctx context.Context, rule *models.AvailabilityRule) error {
	rule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE availability_rules
		SET rule_type = :rule_type,
		    day_of_week = :day_of_week,
		    specific_date = :specific_date,
		    start_time = :start_time,
		    end_time = :end_time,
		    original_timezone = :original_timezone,
		    original_day_of_week = :original_day_of_week,
		    reason = :reason,
		    source = :source,
		    updated_at = :updated_at
		WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, rule)
	if err != nil {
		return fmt.Errorf("update availability rule: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a rule permanently.
func (r *AvailabilityRuleRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM availability_rules WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete availability rule: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteByParticipant removes all rules belonging to a participant.
func (r *AvailabilityRuleRepository) DeleteByParticipant(ctx context.Context, participantID string) (int64, error) {
	const query = `DELETE FROM availability_rules WHERE participant_id = $1`
	result, err := r.db.ExecContext(ctx, query, participantID)
	if err != nil {
		return 0, fmt.Errorf("delete availability rules for participant: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete availability rules for participant: %w", err)
	}
	return affected, nil
}
