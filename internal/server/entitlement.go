package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	contentdomain "github.com/smallbiznis/fangate/internal/content/domain"
	entitlementdomain "github.com/smallbiznis/fangate/internal/entitlement/domain"
)

type entitlementResponse struct {
	Allow  bool   `json:"allow"`
	Reason string `json:"reason"`
}

func (s *Server) handleResolveEntitlement(c *gin.Context) {
	creatorID, err := snowflake.ParseString(strings.TrimSpace(c.Param("creator_id")))
	if err != nil {
		respondError(c, entitlementdomain.ErrInvalidSubscriber)
		return
	}
	contentID, err := snowflake.ParseString(strings.TrimSpace(c.Param("content_id")))
	if err != nil {
		respondError(c, contentdomain.ErrContentNotFound)
		return
	}

	item, err := s.contentRepo.FindByID(c.Request.Context(), s.db, creatorID, contentID)
	if err != nil {
		respondError(c, err)
		return
	}
	if item == nil {
		respondError(c, contentdomain.ErrContentNotFound)
		return
	}

	decision, err := s.entitlementSvc.Resolve(c.Request.Context(), c.Query("subscriber_id"), *item)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entitlementResponse{
		Allow:  decision.Allow,
		Reason: string(decision.Reason),
	})
}
