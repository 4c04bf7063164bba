package models

import "time"

// RuleType distinguishes recurring weekly patterns from date-specific overrides.
type RuleType string

const (
	RuleAvailablePattern  RuleType = "available_pattern"
	RuleBlockedPattern    RuleType = "blocked_pattern"
	RuleAvailableOverride RuleType = "available_override"
	RuleBlockedOverride   RuleType = "blocked_override"
)

// IsPattern reports whether the rule type is anchored to a day of week.
func (t RuleType) IsPattern() bool {
	return t == RuleAvailablePattern || t == RuleBlockedPattern
}

// IsOverride reports whether the rule type is anchored to a specific date.
func (t RuleType) IsOverride() bool {
	return t == RuleAvailableOverride || t == RuleBlockedOverride
}

// Valid reports whether the rule type is one of the four known values.
func (t RuleType) Valid() bool {
	return t.IsPattern() || t.IsOverride()
}

// RuleSource records the provenance of a rule.
type RuleSource string

const (
	RuleSourceManual    RuleSource = "manual"
	RuleSourceImport    RuleSource = "import"
	RuleSourceAssistant RuleSource = "assistant"
)

// AvailabilityRule is a persisted availability rule in its UTC storage form.
// Start and end times are "HH:MM" wall-clock strings in UTC; an end at or
// before the start signals continuation past UTC midnight relative to the
// rule's anchor day or date. Exactly one of DayOfWeek and SpecificDate is
// set, matching the rule type's class.
type AvailabilityRule struct {
	ID                string     `db:"id" json:"id"`
	ParticipantID     string     `db:"participant_id" json:"participant_id"`
	RuleType          RuleType   `db:"rule_type" json:"rule_type"`
	DayOfWeek         *int       `db:"day_of_week" json:"day_of_week,omitempty"`
	SpecificDate      *time.Time `db:"specific_date" json:"specific_date,omitempty"`
	StartTime         string     `db:"start_time" json:"start_time"`
	EndTime           string     `db:"end_time" json:"end_time"`
	OriginalTimezone  string     `db:"original_timezone" json:"original_timezone"`
	OriginalDayOfWeek *int       `db:"original_day_of_week" json:"original_day_of_week,omitempty"`
	Reason            *string    `db:"reason" json:"reason,omitempty"`
	Source            RuleSource `db:"source" json:"source"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// AvailabilityRuleFilter narrows down rule listings.
type AvailabilityRuleFilter struct {
	ParticipantID  string
	ParticipantIDs []string
	RuleTypes      []RuleType
}

// ExportFormat identifies a rendered export file type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// Valid reports whether the format is supported.
func (f ExportFormat) Valid() bool {
	return f == ExportFormatCSV || f == ExportFormatPDF
}

// RuleWriteRequest is the create/update payload for an availability rule,
// expressed in the caller's local timezone. Pattern rules carry a day of
// week, override rules a specific date.
type RuleWriteRequest struct {
	RuleType     RuleType   `json:"rule_type" validate:"required"`
	DayOfWeek    *int       `json:"day_of_week,omitempty" validate:"omitempty,min=0,max=6"`
	SpecificDate *string    `json:"specific_date,omitempty"`
	StartTime    string     `json:"start_time" validate:"required"`
	EndTime      string     `json:"end_time" validate:"required"`
	Timezone     string     `json:"timezone" validate:"required"`
	Reason       *string    `json:"reason,omitempty"`
	Source       RuleSource `json:"source,omitempty"`
}

// RuleView is a rule reconstructed into a viewing timezone for display and
// editing.
type RuleView struct {
	ID            string     `json:"id"`
	ParticipantID string     `json:"participant_id"`
	RuleType      RuleType   `json:"rule_type"`
	DayOfWeek     *int       `json:"day_of_week,omitempty"`
	SpecificDate  *string    `json:"specific_date,omitempty"`
	StartTime     string     `json:"start_time"`
	EndTime       string     `json:"end_time"`
	Timezone      string     `json:"timezone"`
	Reason        *string    `json:"reason,omitempty"`
	Source        RuleSource `json:"source"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
