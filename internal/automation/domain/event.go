package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// LifecycleEvent is a discrete occurrence about a subscriber, delivered
// at-least-once by billing/scheduling/webhook collaborators. ID must be
// globally unique and stable for the same real-world occurrence; it is the
// dedup key.
type LifecycleEvent struct {
	ID             string            `json:"id"`
	Trigger        Trigger           `json:"trigger"`
	SubscriberID   snowflake.ID      `json:"subscriber_id"`
	CreatorID      snowflake.ID      `json:"creator_id"`
	SubscriberTier string            `json:"subscriber_tier,omitempty"`
	OccurredAt     time.Time         `json:"occurred_at"`
	Payload        datatypes.JSONMap `json:"payload,omitempty"`
}

// Validate checks the structural invariants of an incoming event.
func (e LifecycleEvent) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrInvalidEvent
	}
	if _, err := ParseTrigger(string(e.Trigger)); err != nil {
		return err
	}
	if e.SubscriberID == 0 || e.CreatorID == 0 {
		return ErrInvalidEvent
	}
	return nil
}
