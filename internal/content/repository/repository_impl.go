package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	contentdomain "github.com/smallbiznis/fangate/internal/content/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() contentdomain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, creatorID, id snowflake.ID) (*contentdomain.ContentItem, error) {
	var item contentdomain.ContentItem
	err := db.WithContext(ctx).Raw(
		`SELECT id, creator_id, required_tier, is_free, title, published_at, created_at, updated_at
		 FROM content_items WHERE creator_id = ? AND id = ?`,
		creatorID,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) ListByCreator(ctx context.Context, db *gorm.DB, creatorID snowflake.ID) ([]contentdomain.ContentItem, error) {
	var items []contentdomain.ContentItem
	err := db.WithContext(ctx).Raw(
		`SELECT id, creator_id, required_tier, is_free, title, published_at, created_at, updated_at
		 FROM content_items WHERE creator_id = ? ORDER BY created_at DESC`,
		creatorID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
