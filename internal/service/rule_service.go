package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kairos-app/kairos-api/internal/availability"
	"github.com/kairos-app/kairos-api/internal/models"
	appErrors "github.com/kairos-app/kairos-api/pkg/errors"
	"github.com/kairos-app/kairos-api/pkg/jobs"
)

type ruleRepository interface {
	FindByID(ctx context.Context, id string) (*models.AvailabilityRule, error)
	List(ctx context.Context, filter models.AvailabilityRuleFilter) ([]models.AvailabilityRule, error)
	Create(ctx context.Context, rule *models.AvailabilityRule) error
	Update(ctx context.Context, rule *models.AvailabilityRule) error
	Delete(ctx context.Context, id string) error
}

type invalidationQueue interface {
	Enqueue(job jobs.Job) error
}

// JobTypeInvalidateAvailability names the background job that drops cached
// availability windows after a rule write. The payload is the participant ID.
const JobTypeInvalidateAvailability = "invalidate_availability"

// RuleService manages availability rules: normalizing writes into UTC
// storage form and reconstructing reads into a viewing timezone.
type RuleService struct {
	repo      ruleRepository
	queue     invalidationQueue
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRuleService constructs a RuleService.
func NewRuleService(repo ruleRepository, queue invalidationQueue, validate *validator.Validate, logger *zap.Logger) *RuleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &RuleService{repo: repo, queue: queue, validator: validate, logger: logger}
}

// CreateRule normalizes and persists a rule for the participant.
func (s *RuleService) CreateRule(ctx context.Context, participantID string, req models.RuleWriteRequest) (*models.RuleView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rule payload")
	}
	if err := checkTimeGrid(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	rule, err := availability.PrepareRuleForStorage(ruleInputFromRequest(req), req.Timezone)
	if err != nil {
		return nil, mapConversionError(err)
	}
	rule.ParticipantID = participantID

	if err := s.repo.Create(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store rule")
	}

	s.invalidate(participantID)
	return s.view(rule, req.Timezone)
}

// GetRule returns a single owned rule reconstructed in the given zone.
func (s *RuleService) GetRule(ctx context.Context, participantID, ruleID, zone string) (*models.RuleView, error) {
	rule, err := s.ownedRule(ctx, participantID, ruleID)
	if err != nil {
		return nil, err
	}
	return s.view(rule, zone)
}

// ListRules returns all rules for the participant reconstructed in the
// given zone.
func (s *RuleService) ListRules(ctx context.Context, participantID, zone string) ([]models.RuleView, error) {
	rules, err := s.repo.List(ctx, models.AvailabilityRuleFilter{ParticipantID: participantID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rules")
	}

	views := make([]models.RuleView, 0, len(rules))
	for i := range rules {
		view, err := s.view(&rules[i], zone)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

// UpdateRule replaces an owned rule with a re-normalized version of the
// payload. Identity and creation time survive; the stored form is rebuilt
// from scratch so the original timezone always reflects the latest edit.
func (s *RuleService) UpdateRule(ctx context.Context, participantID, ruleID string, req models.RuleWriteRequest) (*models.RuleView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rule payload")
	}
	if err := checkTimeGrid(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	existing, err := s.ownedRule(ctx, participantID, ruleID)
	if err != nil {
		return nil, err
	}

	rule, err := availability.PrepareRuleForStorage(ruleInputFromRequest(req), req.Timezone)
	if err != nil {
		return nil, mapConversionError(err)
	}
	rule.ID = existing.ID
	rule.ParticipantID = existing.ParticipantID
	rule.CreatedAt = existing.CreatedAt

	if err := s.repo.Update(ctx, rule); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update rule")
	}

	s.invalidate(participantID)
	return s.view(rule, req.Timezone)
}

// DeleteRule removes an owned rule.
func (s *RuleService) DeleteRule(ctx context.Context, participantID, ruleID string) error {
	if _, err := s.ownedRule(ctx, participantID, ruleID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, ruleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "rule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete rule")
	}
	s.invalidate(participantID)
	return nil
}

func (s *RuleService) ownedRule(ctx context.Context, participantID, ruleID string) (*models.AvailabilityRule, error) {
	rule, err := s.repo.FindByID(ctx, ruleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rule")
	}
	if rule.ParticipantID != participantID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "rule belongs to another participant")
	}
	return rule, nil
}

func (s *RuleService) view(rule *models.AvailabilityRule, zone string) (*models.RuleView, error) {
	if zone == "" {
		zone = rule.OriginalTimezone
	}
	input, err := availability.RuleForEditing(*rule, zone)
	if err != nil {
		return nil, mapConversionError(err)
	}
	return &models.RuleView{
		ID:            rule.ID,
		ParticipantID: rule.ParticipantID,
		RuleType:      rule.RuleType,
		DayOfWeek:     input.DayOfWeek,
		SpecificDate:  input.SpecificDate,
		StartTime:     input.StartTime,
		EndTime:       input.EndTime,
		Timezone:      zone,
		Reason:        rule.Reason,
		Source:        rule.Source,
		CreatedAt:     rule.CreatedAt,
		UpdatedAt:     rule.UpdatedAt,
	}, nil
}

func (s *RuleService) invalidate(participantID string) {
	if s.queue == nil {
		return
	}
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    JobTypeInvalidateAvailability,
		Payload: participantID,
	})
	if err != nil {
		s.logger.Warn("failed to enqueue availability invalidation",
			zap.String("participant_id", participantID), zap.Error(err))
	}
}

// checkTimeGrid enforces the 30-minute slot grid on rule boundaries. The
// engine itself works at minute precision; the grid is a product constraint.
func checkTimeGrid(times ...string) error {
	for _, value := range times {
		minutes, err := availability.TimeToMinutes(value)
		if err != nil {
			return mapConversionError(err)
		}
		if minutes%30 != 0 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("time %q must fall on a 30-minute boundary", value))
		}
	}
	return nil
}

func ruleInputFromRequest(req models.RuleWriteRequest) availability.RuleInput {
	return availability.RuleInput{
		RuleType:     req.RuleType,
		DayOfWeek:    req.DayOfWeek,
		SpecificDate: req.SpecificDate,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Reason:       req.Reason,
		Source:       req.Source,
	}
}

// mapConversionError turns engine sentinels into typed API errors.
func mapConversionError(err error) *appErrors.Error {
	switch {
	case errors.Is(err, availability.ErrUnknownZone):
		return appErrors.Wrap(err, appErrors.ErrUnknownTimezone.Code, appErrors.ErrUnknownTimezone.Status, "unknown timezone")
	case errors.Is(err, availability.ErrInvalidTime),
		errors.Is(err, availability.ErrInvalidDate),
		errors.Is(err, availability.ErrInvalidDayOfWeek),
		errors.Is(err, availability.ErrInvalidRule):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	case errors.Is(err, availability.ErrInvalidWindow):
		return appErrors.Wrap(err, appErrors.ErrInvalidTimeRange.Code, appErrors.ErrInvalidTimeRange.Status, err.Error())
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "availability conversion failed")
	}
}
