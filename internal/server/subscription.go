package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	subscriptiondomain "github.com/smallbiznis/fangate/internal/subscription/domain"
)

type createSubscriptionRequest struct {
	SubscriberID string         `json:"subscriber_id" binding:"required"`
	CreatorID    string         `json:"creator_id" binding:"required"`
	Tier         string         `json:"tier" binding:"required"`
	PeriodDays   int            `json:"period_days,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

type renewSubscriptionRequest struct {
	SubscriberID string `json:"subscriber_id" binding:"required"`
	CreatorID    string `json:"creator_id" binding:"required"`
	PeriodDays   int    `json:"period_days,omitempty"`
}

type cancelSubscriptionRequest struct {
	SubscriberID string `json:"subscriber_id" binding:"required"`
	CreatorID    string `json:"creator_id" binding:"required"`
}

type changeTierRequest struct {
	SubscriberID string `json:"subscriber_id" binding:"required"`
	CreatorID    string `json:"creator_id" binding:"required"`
	NewTier      string `json:"new_tier" binding:"required"`
}

type subscriptionResponse struct {
	ID           string     `json:"id"`
	SubscriberID string     `json:"subscriber_id"`
	CreatorID    string     `json:"creator_id"`
	Tier         string     `json:"tier"`
	Status       string     `json:"status"`
	RenewedAt    time.Time  `json:"renewed_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
}

func (s *Server) handleCreateSubscription(c *gin.Context) {
	var req createSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body"})
		return
	}

	sub, err := s.subscriptionSvc.Create(c.Request.Context(), subscriptiondomain.CreateSubscriptionRequest{
		SubscriberID: req.SubscriberID,
		CreatorID:    req.CreatorID,
		Tier:         req.Tier,
		Period:       periodFromDays(req.PeriodDays),
		Metadata:     req.Metadata,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toSubscriptionResponse(sub))
}

func (s *Server) handleRenewSubscription(c *gin.Context) {
	var req renewSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body"})
		return
	}

	sub, err := s.subscriptionSvc.Renew(c.Request.Context(), subscriptiondomain.RenewSubscriptionRequest{
		SubscriberID: req.SubscriberID,
		CreatorID:    req.CreatorID,
		Period:       periodFromDays(req.PeriodDays),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSubscriptionResponse(sub))
}

func (s *Server) handleCancelSubscription(c *gin.Context) {
	var req cancelSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body"})
		return
	}

	if err := s.subscriptionSvc.Cancel(c.Request.Context(), req.SubscriberID, req.CreatorID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

func (s *Server) handleChangeTier(c *gin.Context) {
	var req changeTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body"})
		return
	}

	sub, err := s.subscriptionSvc.ChangeTier(c.Request.Context(), subscriptiondomain.ChangeTierRequest{
		SubscriberID: req.SubscriberID,
		CreatorID:    req.CreatorID,
		NewTier:      req.NewTier,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSubscriptionResponse(sub))
}

func periodFromDays(days int) time.Duration {
	if days <= 0 {
		return 0
	}
	return time.Duration(days) * 24 * time.Hour
}

func toSubscriptionResponse(sub subscriptiondomain.Subscription) subscriptionResponse {
	return subscriptionResponse{
		ID:           sub.ID.String(),
		SubscriberID: sub.SubscriberID.String(),
		CreatorID:    sub.CreatorID.String(),
		Tier:         sub.Tier,
		Status:       string(sub.Status),
		RenewedAt:    sub.RenewedAt,
		ExpiresAt:    sub.ExpiresAt,
		CancelledAt:  sub.CancelledAt,
	}
}
