package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	automationdomain "github.com/smallbiznis/fangate/internal/automation/domain"
)

type createRuleRequest struct {
	Trigger   string         `json:"trigger" binding:"required"`
	TierScope []string       `json:"tier_scope,omitempty"`
	Action    map[string]any `json:"action" binding:"required"`
}

type transitionRuleRequest struct {
	Status string `json:"status" binding:"required"`
}

type ruleResponse struct {
	ID        string         `json:"id"`
	CreatorID string         `json:"creator_id"`
	Trigger   string         `json:"trigger"`
	TierScope []string       `json:"tier_scope,omitempty"`
	Action    map[string]any `json:"action"`
	Status    string         `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (s *Server) handleCreateRule(c *gin.Context) {
	var req createRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body"})
		return
	}

	rule, err := s.ruleSvc.Create(c.Request.Context(), automationdomain.CreateRuleRequest{
		CreatorID: c.Param("creator_id"),
		Trigger:   req.Trigger,
		TierScope: req.TierScope,
		Action:    req.Action,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toRuleResponse(rule))
}

func (s *Server) handleListRules(c *gin.Context) {
	rules, err := s.ruleSvc.List(c.Request.Context(), c.Param("creator_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]ruleResponse, 0, len(rules))
	for _, rule := range rules {
		out = append(out, toRuleResponse(rule))
	}
	c.JSON(http.StatusOK, gin.H{"rules": out})
}

func (s *Server) handleTransitionRule(c *gin.Context) {
	var req transitionRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body"})
		return
	}

	rule, err := s.ruleSvc.Transition(c.Request.Context(), automationdomain.TransitionRuleRequest{
		CreatorID: c.Param("creator_id"),
		RuleID:    c.Param("rule_id"),
		Status:    req.Status,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toRuleResponse(rule))
}

func toRuleResponse(rule automationdomain.AutomationRule) ruleResponse {
	scope, _ := rule.ScopeCodes()
	return ruleResponse{
		ID:        rule.ID.String(),
		CreatorID: rule.CreatorID.String(),
		Trigger:   string(rule.Trigger),
		TierScope: scope,
		Action:    map[string]any(rule.Action),
		Status:    string(rule.Status),
		CreatedAt: rule.CreatedAt,
		UpdatedAt: rule.UpdatedAt,
	}
}
