// Package dispatch coordinates delivery of automation action requests to the
// external action executor.
package dispatch

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Request asks the action executor to perform one rule's action for one
// subscriber. The fired record behind it is already committed, so a request
// is never re-derived from the same event.
type Request struct {
	RuleID       snowflake.ID      `json:"rule_id"`
	EventID      string            `json:"event_id"`
	SubscriberID snowflake.ID      `json:"subscriber_id"`
	CreatorID    snowflake.ID      `json:"creator_id"`
	Action       datatypes.JSONMap `json:"action"`
}

// Dispatcher executes actions. Implementations live outside this core
// (messaging, email, entitlement overrides); failures returned here are
// retried by the Coordinator.
type Dispatcher interface {
	Dispatch(ctx context.Context, req Request) error
}

var ErrQueueFull = errors.New("dispatch_queue_full")
