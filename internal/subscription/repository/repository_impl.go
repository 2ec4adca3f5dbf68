package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	subscriptiondomain "github.com/smallbiznis/fangate/internal/subscription/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() subscriptiondomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, subscription *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO subscriptions (
			id, subscriber_id, creator_id, tier, status, renewed_at, expires_at,
			cancelled_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		subscription.ID,
		subscription.SubscriberID,
		subscription.CreatorID,
		subscription.Tier,
		subscription.Status,
		subscription.RenewedAt,
		subscription.ExpiresAt,
		subscription.CancelledAt,
		subscription.CreatedAt,
		subscription.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, subscription *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions
		 SET tier = ?, status = ?, renewed_at = ?, expires_at = ?, cancelled_at = ?, updated_at = ?
		 WHERE id = ?`,
		subscription.Tier,
		subscription.Status,
		subscription.RenewedAt,
		subscription.ExpiresAt,
		subscription.CancelledAt,
		subscription.UpdatedAt,
		subscription.ID,
	).Error
}

func (r *repo) FindCurrent(ctx context.Context, db *gorm.DB, subscriberID, creatorID snowflake.ID) (*subscriptiondomain.Subscription, error) {
	return r.findCurrent(ctx, db, subscriberID, creatorID, "")
}

func (r *repo) FindCurrentForUpdate(ctx context.Context, db *gorm.DB, subscriberID, creatorID snowflake.ID) (*subscriptiondomain.Subscription, error) {
	return r.findCurrent(ctx, db, subscriberID, creatorID, " FOR UPDATE")
}

func (r *repo) findCurrent(ctx context.Context, db *gorm.DB, subscriberID, creatorID snowflake.ID, suffix string) (*subscriptiondomain.Subscription, error) {
	var subscription subscriptiondomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT id, subscriber_id, creator_id, tier, status, renewed_at, expires_at,
		 cancelled_at, created_at, updated_at
		 FROM subscriptions
		 WHERE subscriber_id = ? AND creator_id = ?
		 ORDER BY created_at DESC
		 LIMIT 1`+suffix,
		subscriberID,
		creatorID,
	).Scan(&subscription).Error
	if err != nil {
		return nil, err
	}
	if subscription.ID == 0 {
		return nil, nil
	}
	return &subscription, nil
}

func (r *repo) ListBySubscriber(ctx context.Context, db *gorm.DB, subscriberID snowflake.ID) ([]subscriptiondomain.Subscription, error) {
	var subscriptions []subscriptiondomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT id, subscriber_id, creator_id, tier, status, renewed_at, expires_at,
		 cancelled_at, created_at, updated_at
		 FROM subscriptions WHERE subscriber_id = ? ORDER BY created_at ASC`,
		subscriberID,
	).Scan(&subscriptions).Error
	if err != nil {
		return nil, err
	}
	return subscriptions, nil
}

// MarkLapsedBefore returns the (subscriber, creator) pairs it transitioned
// so the caller can invalidate their entitlement snapshots. Callers run it
// inside a transaction to keep the select and the update consistent.
func (r *repo) MarkLapsedBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) ([]subscriptiondomain.SubscriptionKey, error) {
	var pairs []subscriptiondomain.SubscriptionKey
	err := db.WithContext(ctx).Raw(
		`SELECT subscriber_id, creator_id FROM subscriptions
		 WHERE status = ? AND expires_at <= ?`,
		subscriptiondomain.SubscriptionStatusActive,
		cutoff,
	).Scan(&pairs).Error
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, nil
	}

	err = db.WithContext(ctx).Exec(
		`UPDATE subscriptions
		 SET status = ?, updated_at = ?
		 WHERE status = ? AND expires_at <= ?`,
		subscriptiondomain.SubscriptionStatusLapsed,
		cutoff,
		subscriptiondomain.SubscriptionStatusActive,
		cutoff,
	).Error
	if err != nil {
		return nil, err
	}
	return pairs, nil
}
