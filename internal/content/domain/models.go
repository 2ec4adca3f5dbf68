// Package domain contains persistence models for creator-published content.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var ErrContentNotFound = errors.New("content_not_found")

// ContentItem is a creator-published item gated by tier. Authoring and
// rendering live outside this service; the core only reads these rows.
type ContentItem struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	CreatorID    snowflake.ID `gorm:"not null;index"`
	RequiredTier *string      `gorm:"type:text"`
	IsFree       bool         `gorm:"not null;default:false"`
	Title        string       `gorm:"type:text;not null"`
	PublishedAt  *time.Time   `gorm:""`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (ContentItem) TableName() string { return "content_items" }
