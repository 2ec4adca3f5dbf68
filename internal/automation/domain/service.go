package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/fangate/internal/dispatch"
)

type CreateRuleRequest struct {
	CreatorID string         `json:"creator_id"`
	Trigger   string         `json:"trigger"`
	TierScope []string       `json:"tier_scope,omitempty"`
	Action    map[string]any `json:"action"`
}

type TransitionRuleRequest struct {
	CreatorID string `json:"creator_id"`
	RuleID    string `json:"rule_id"`
	Status    string `json:"status"`
}

// Engine matches lifecycle events against creator rules and commits
// at-most-once fired records.
type Engine interface {
	// Handle returns one dispatch request per matching rule that had not
	// already fired for this event. Safe to invoke repeatedly with the
	// same event. When a storage error aborts the event mid-way, the
	// requests for fired records already committed are still returned;
	// callers must dispatch them, since a retry skips those rules.
	Handle(ctx context.Context, event LifecycleEvent) ([]dispatch.Request, error)
}

// RuleService is the creator-facing authoring surface.
type RuleService interface {
	Create(ctx context.Context, req CreateRuleRequest) (AutomationRule, error)
	Transition(ctx context.Context, req TransitionRuleRequest) (AutomationRule, error)
	List(ctx context.Context, creatorID string) ([]AutomationRule, error)
}

var (
	ErrInvalidTrigger    = errors.New("invalid_trigger")
	ErrInvalidEvent      = errors.New("invalid_event")
	ErrInvalidCreator    = errors.New("invalid_creator")
	ErrInvalidRule       = errors.New("invalid_rule")
	ErrInvalidAction     = errors.New("invalid_action")
	ErrInvalidTierScope  = errors.New("invalid_tier_scope")
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrRuleNotFound      = errors.New("rule_not_found")
	ErrAlreadyFired      = errors.New("already_fired")
	ErrLookupTimeout     = errors.New("lookup_timeout")
)
