package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type contentItemResponse struct {
	ID           string     `json:"id"`
	CreatorID    string     `json:"creator_id"`
	RequiredTier *string    `json:"required_tier,omitempty"`
	IsFree       bool       `json:"is_free"`
	Title        string     `json:"title"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
}

func (s *Server) handleListContent(c *gin.Context) {
	creatorID, err := snowflake.ParseString(strings.TrimSpace(c.Param("creator_id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_creator"})
		return
	}

	items, err := s.contentRepo.ListByCreator(c.Request.Context(), s.db, creatorID)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]contentItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, contentItemResponse{
			ID:           item.ID.String(),
			CreatorID:    item.CreatorID.String(),
			RequiredTier: item.RequiredTier,
			IsFree:       item.IsFree,
			Title:        item.Title,
			PublishedAt:  item.PublishedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"content": out})
}
