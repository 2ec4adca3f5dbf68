package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	Update(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	FindCurrent(ctx context.Context, db *gorm.DB, subscriberID, creatorID snowflake.ID) (*Subscription, error)
	FindCurrentForUpdate(ctx context.Context, db *gorm.DB, subscriberID, creatorID snowflake.ID) (*Subscription, error)
	ListBySubscriber(ctx context.Context, db *gorm.DB, subscriberID snowflake.ID) ([]Subscription, error)
	MarkLapsedBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) ([]SubscriptionKey, error)
}
