package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	automationdomain "github.com/smallbiznis/fangate/internal/automation/domain"
	"github.com/smallbiznis/fangate/internal/dispatch"
	"gorm.io/datatypes"
)

type ingestEventRequest struct {
	ID             string         `json:"id" binding:"required"`
	Trigger        string         `json:"trigger" binding:"required"`
	SubscriberID   string         `json:"subscriber_id" binding:"required"`
	CreatorID      string         `json:"creator_id" binding:"required"`
	SubscriberTier string         `json:"subscriber_tier,omitempty"`
	OccurredAt     *time.Time     `json:"occurred_at,omitempty"`
	Payload        map[string]any `json:"payload,omitempty"`
}

type ingestEventResponse struct {
	EventID    string   `json:"event_id"`
	Dispatched int      `json:"dispatched"`
	RuleIDs    []string `json:"rule_ids,omitempty"`
}

// handleIngestEvent is the at-least-once delivery boundary: collaborators
// may replay the same event id freely, the engine dedups per rule.
func (s *Server) handleIngestEvent(c *gin.Context) {
	var req ingestEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body"})
		return
	}

	subscriberID, err := snowflake.ParseString(strings.TrimSpace(req.SubscriberID))
	if err != nil {
		respondError(c, automationdomain.ErrInvalidEvent)
		return
	}
	creatorID, err := snowflake.ParseString(strings.TrimSpace(req.CreatorID))
	if err != nil {
		respondError(c, automationdomain.ErrInvalidEvent)
		return
	}

	occurredAt := time.Now().UTC()
	if req.OccurredAt != nil {
		occurredAt = req.OccurredAt.UTC()
	}

	event := automationdomain.LifecycleEvent{
		ID:             strings.TrimSpace(req.ID),
		Trigger:        automationdomain.Trigger(req.Trigger),
		SubscriberID:   subscriberID,
		CreatorID:      creatorID,
		SubscriberTier: req.SubscriberTier,
		OccurredAt:     occurredAt,
		Payload:        datatypes.JSONMap(req.Payload),
	}

	requests, handleErr := s.automation.Handle(c.Request.Context(), event)

	// Every returned request has a committed fired record behind it, even
	// when the engine aborted mid-event, and a retry of the event skips
	// those rules. Enqueue before deciding the response so no committed
	// witness is left without a dispatch. Queue-full is tolerated; the
	// executor boundary owns redelivery beyond this process.
	_ = s.coordinator.Enqueue(requests...)

	if handleErr != nil {
		respondError(c, handleErr)
		return
	}

	c.JSON(http.StatusAccepted, ingestEventResponse{
		EventID:    event.ID,
		Dispatched: len(requests),
		RuleIDs:    ruleIDs(requests),
	})
}

func ruleIDs(requests []dispatch.Request) []string {
	out := make([]string, 0, len(requests))
	for _, r := range requests {
		out = append(out, r.RuleID.String())
	}
	return out
}
