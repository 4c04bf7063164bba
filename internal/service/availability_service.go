package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kairos-app/kairos-api/internal/availability"
	"github.com/kairos-app/kairos-api/internal/models"
	"github.com/kairos-app/kairos-api/internal/repository"
	appErrors "github.com/kairos-app/kairos-api/pkg/errors"
)

type availabilityRuleReader interface {
	List(ctx context.Context, filter models.AvailabilityRuleFilter) ([]models.AvailabilityRule, error)
}

// AvailabilityConfig tunes resolution behaviour.
type AvailabilityConfig struct {
	CacheTTL      time.Duration
	MaxWindowDays int
}

// ParticipantAvailability is the resolved availability of one participant
// over a date window.
type ParticipantAvailability struct {
	ParticipantID string                                  `json:"participant_id"`
	From          string                                  `json:"from"`
	To            string                                  `json:"to"`
	Days          map[string]availability.DayAvailability `json:"days"`
}

// GroupSlot is a span of a single date during which a fixed number of
// participants are available.
type GroupSlot struct {
	StartMinutes int `json:"startMinutes"`
	EndMinutes   int `json:"endMinutes"`
	Count        int `json:"count"`
}

// GroupAvailability aggregates per-date overlap counts across participants.
type GroupAvailability struct {
	From         string                 `json:"from"`
	To           string                 `json:"to"`
	Participants int                    `json:"participants"`
	Days         map[string][]GroupSlot `json:"days"`
}

// AvailabilityService resolves stored rules into effective per-date ranges,
// with redis-backed caching of resolved windows.
type AvailabilityService struct {
	rules  availabilityRuleReader
	cache  *CacheService
	logger *zap.Logger
	cfg    AvailabilityConfig
}

// NewAvailabilityService constructs an AvailabilityService.
func NewAvailabilityService(rules availabilityRuleReader, cache *CacheService, cfg AvailabilityConfig, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxWindowDays <= 0 {
		cfg.MaxWindowDays = 62
	}
	return &AvailabilityService{rules: rules, cache: cache, logger: logger, cfg: cfg}
}

// ResolveParticipant computes the effective availability of a participant
// for every date in [from, to]. The engine run is widened by one day at the
// front so overnight spans anchored to the previous date contribute their
// past-midnight remainder to the window's first date.
func (s *AvailabilityService) ResolveParticipant(ctx context.Context, participantID, fromStr, toStr string) (*ParticipantAvailability, error) {
	from, to, err := s.parseWindow(fromStr, toStr)
	if err != nil {
		return nil, err
	}

	key := repository.AvailabilityKey(participantID, fromStr, toStr)
	if s.cache != nil {
		var cached ParticipantAvailability
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	rules, err := s.rules.List(ctx, models.AvailabilityRuleFilter{ParticipantID: participantID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rules")
	}

	days, err := s.resolveDays(rules, from, to)
	if err != nil {
		return nil, err
	}

	result := &ParticipantAvailability{
		ParticipantID: participantID,
		From:          fromStr,
		To:            toStr,
		Days:          days,
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("failed to cache resolved availability", zap.String("key", key), zap.Error(err))
		}
	}
	return result, nil
}

// ResolveGroup resolves every listed participant over the window and reduces
// the results into per-date overlap counts.
func (s *AvailabilityService) ResolveGroup(ctx context.Context, participantIDs []string, fromStr, toStr string) (*GroupAvailability, error) {
	if len(participantIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one participant id is required")
	}
	from, to, err := s.parseWindow(fromStr, toStr)
	if err != nil {
		return nil, err
	}

	rules, err := s.rules.List(ctx, models.AvailabilityRuleFilter{ParticipantIDs: participantIDs})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rules")
	}

	byParticipant := make(map[string][]models.AvailabilityRule, len(participantIDs))
	for _, rule := range rules {
		byParticipant[rule.ParticipantID] = append(byParticipant[rule.ParticipantID], rule)
	}

	group := &GroupAvailability{
		From:         fromStr,
		To:           toStr,
		Participants: len(participantIDs),
		Days:         make(map[string][]GroupSlot),
	}

	perDate := make(map[string][]availability.Interval)
	for _, id := range participantIDs {
		days, err := s.resolveDays(byParticipant[id], from, to)
		if err != nil {
			return nil, err
		}
		for date, intervals := range splitAcrossMidnight(days, to) {
			perDate[date] = append(perDate[date], intervals...)
		}
	}

	for date, intervals := range perDate {
		group.Days[date] = overlapCounts(intervals)
	}
	return group, nil
}

// resolveDays runs the engine over a window widened by one leading day, then
// folds that day's past-midnight spill into the first requested date.
// Blocked rules anchored to the lead date were already applied before the
// fold; blocks anchored to the first date only affect its own intervals.
func (s *AvailabilityService) resolveDays(rules []models.AvailabilityRule, from, to time.Time) (map[string]availability.DayAvailability, error) {
	lead := from.AddDate(0, 0, -1)
	days, err := availability.ComputeEffectiveRanges(rules, lead, to)
	if err != nil {
		return nil, mapConversionError(err)
	}

	leadKey := lead.Format("2006-01-02")
	firstKey := from.Format("2006-01-02")
	if leadDay, ok := days[leadKey]; ok {
		var spill []availability.Interval
		for _, iv := range leadDay.AvailableRanges {
			if _, next, overnight := iv.SplitAtMidnight(); overnight {
				spill = append(spill, next)
			}
		}
		if len(spill) > 0 {
			firstDay := days[firstKey]
			firstDay.AvailableRanges = availability.MergeRanges(append(firstDay.AvailableRanges, spill...))
			days[firstKey] = firstDay
		}
		delete(days, leadKey)
	}
	return days, nil
}

func (s *AvailabilityService) parseWindow(fromStr, toStr string) (time.Time, time.Time, error) {
	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid from date %q", fromStr))
	}
	to, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid to date %q", toStr))
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrInvalidTimeRange, "to must not precede from")
	}
	if days := int(to.Sub(from).Hours()/24) + 1; days > s.cfg.MaxWindowDays {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrWindowTooLarge,
			fmt.Sprintf("window of %d days exceeds the maximum of %d", days, s.cfg.MaxWindowDays))
	}
	return from, to, nil
}

// splitAcrossMidnight rewrites one participant's resolved days into
// calendar-local intervals: each overnight range is cut at midnight and its
// remainder attributed to the following date when that date still falls
// inside the window. Per-date results are re-merged so a spill and a rule
// anchored to the same morning never count twice for one participant.
func splitAcrossMidnight(days map[string]availability.DayAvailability, to time.Time) map[string][]availability.Interval {
	out := make(map[string][]availability.Interval, len(days))
	for date, day := range days {
		for _, iv := range day.AvailableRanges {
			first, next, overnight := iv.SplitAtMidnight()
			out[date] = append(out[date], first)
			if !overnight {
				continue
			}
			anchor, err := time.Parse("2006-01-02", date)
			if err != nil {
				continue
			}
			following := anchor.AddDate(0, 0, 1)
			if following.After(to) {
				continue
			}
			key := following.Format("2006-01-02")
			out[key] = append(out[key], next)
		}
	}
	for date, intervals := range out {
		out[date] = availability.MergeRanges(intervals)
	}
	return out
}

// overlapCounts reduces a bag of intervals into disjoint slots annotated
// with how many intervals cover each slot. Callers hand it calendar-local
// intervals, so every slot lies within a single date.
func overlapCounts(intervals []availability.Interval) []GroupSlot {
	if len(intervals) == 0 {
		return []GroupSlot{}
	}

	type boundary struct {
		at    int
		delta int
	}
	bounds := make([]boundary, 0, len(intervals)*2)
	for _, iv := range intervals {
		bounds = append(bounds, boundary{at: iv.StartMinutes, delta: 1})
		bounds = append(bounds, boundary{at: iv.EndMinutes, delta: -1})
	}
	sort.Slice(bounds, func(i, j int) bool {
		if bounds[i].at != bounds[j].at {
			return bounds[i].at < bounds[j].at
		}
		return bounds[i].delta < bounds[j].delta
	})

	var slots []GroupSlot
	count := 0
	prev := bounds[0].at
	for _, b := range bounds {
		if b.at > prev && count > 0 {
			if n := len(slots); n > 0 && slots[n-1].EndMinutes == prev && slots[n-1].Count == count {
				slots[n-1].EndMinutes = b.at
			} else {
				slots = append(slots, GroupSlot{StartMinutes: prev, EndMinutes: b.at, Count: count})
			}
		}
		if b.at > prev {
			prev = b.at
		}
		count += b.delta
	}
	if slots == nil {
		slots = []GroupSlot{}
	}
	return slots
}
