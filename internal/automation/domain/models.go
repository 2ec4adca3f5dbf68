// Package domain contains models for creator automation rules and the
// at-most-once firing ledger.
package domain

import (
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Trigger is the closed set of lifecycle occurrences a rule can react to.
// Free-form trigger strings are rejected at construction time so an
// unmatched trigger is an error, never a silent no-op.
type Trigger string

const (
	TriggerNewSubscription Trigger = "NEW_SUBSCRIPTION"
	TriggerInactivity      Trigger = "INACTIVITY"
	TriggerBirthday        Trigger = "BIRTHDAY"
	TriggerTipReceived     Trigger = "TIP_RECEIVED"
	TriggerMilestone       Trigger = "MILESTONE"
)

// ParseTrigger validates a raw trigger value.
func ParseTrigger(raw string) (Trigger, error) {
	switch Trigger(raw) {
	case TriggerNewSubscription, TriggerInactivity, TriggerBirthday, TriggerTipReceived, TriggerMilestone:
		return Trigger(raw), nil
	default:
		return "", ErrInvalidTrigger
	}
}

// RuleStatus is the authoring lifecycle of an automation rule. The engine
// only ever reads it; transitions come from the creator-facing surface.
type RuleStatus string

const (
	RuleStatusDraft    RuleStatus = "DRAFT"
	RuleStatusActive   RuleStatus = "ACTIVE"
	RuleStatusPaused   RuleStatus = "PAUSED"
	RuleStatusArchived RuleStatus = "ARCHIVED"
)

var ruleTransitions = map[RuleStatus][]RuleStatus{
	RuleStatusDraft:    {RuleStatusActive, RuleStatusArchived},
	RuleStatusActive:   {RuleStatusPaused, RuleStatusArchived},
	RuleStatusPaused:   {RuleStatusActive, RuleStatusArchived},
	RuleStatusArchived: {},
}

// CanTransition reports whether from may move to to. ARCHIVED is terminal.
func CanTransition(from, to RuleStatus) bool {
	for _, allowed := range ruleTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AutomationRule maps a trigger, optionally scoped to tiers, onto an opaque
// action payload interpreted by the action executor.
type AutomationRule struct {
	ID        snowflake.ID      `gorm:"primaryKey"`
	CreatorID snowflake.ID      `gorm:"not null;index"`
	Trigger   Trigger           `gorm:"column:trigger_type;type:text;not null;index"`
	TierScope datatypes.JSON    `gorm:"type:jsonb"`
	Action    datatypes.JSONMap `gorm:"type:jsonb;not null"`
	Status    RuleStatus        `gorm:"type:text;not null"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (AutomationRule) TableName() string { return "automation_rules" }

// IsActive reports whether the rule is eligible for matching.
func (r AutomationRule) IsActive() bool { return r.Status == RuleStatusActive }

// ScopeCodes decodes the tier scope. Empty means the rule applies to all tiers.
func (r AutomationRule) ScopeCodes() ([]string, error) {
	if len(r.TierScope) == 0 {
		return nil, nil
	}
	var codes []string
	if err := json.Unmarshal(r.TierScope, &codes); err != nil {
		return nil, err
	}
	return codes, nil
}

// FiredRecord witnesses that a rule produced a dispatch for an event.
// Rows are append-only; the unique (rule_id, event_id) index is the
// at-most-once guarantee.
type FiredRecord struct {
	ID      snowflake.ID `gorm:"primaryKey"`
	RuleID  snowflake.ID `gorm:"not null;uniqueIndex:ux_fired_rule_event,priority:1"`
	EventID string       `gorm:"type:text;not null;uniqueIndex:ux_fired_rule_event,priority:2"`
	FiredAt time.Time    `gorm:"not null"`
}

// TableName sets the database table name.
func (FiredRecord) TableName() string { return "fired_records" }
