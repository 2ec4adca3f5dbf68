package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, creatorID, id snowflake.ID) (*ContentItem, error)
	ListByCreator(ctx context.Context, db *gorm.DB, creatorID snowflake.ID) ([]ContentItem, error)
}
