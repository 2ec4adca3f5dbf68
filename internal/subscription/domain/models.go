// Package domain contains persistence models for subscriber subscriptions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// SubscriptionStatus represents lifecycle states for a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "ACTIVE"
	SubscriptionStatusLapsed    SubscriptionStatus = "LAPSED"
	SubscriptionStatusCancelled SubscriptionStatus = "CANCELLED"
)

// Subscription captures a subscriber's standing with a single creator.
// At most one row per (subscriber, creator) pair is current; only ACTIVE
// rows participate in entitlement and tier-scoped rule matching.
type Subscription struct {
	ID           snowflake.ID       `gorm:"primaryKey"`
	SubscriberID snowflake.ID       `gorm:"not null;index;uniqueIndex:ux_subscription_pair,priority:1"`
	CreatorID    snowflake.ID       `gorm:"not null;index;uniqueIndex:ux_subscription_pair,priority:2"`
	Tier         string             `gorm:"type:text;not null"`
	Status       SubscriptionStatus `gorm:"type:text;not null"`
	RenewedAt    time.Time          `gorm:"not null"`
	ExpiresAt    time.Time          `gorm:"not null;index"`
	CancelledAt  *time.Time         `gorm:""`
	CreatedAt    time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

// SubscriptionKey identifies a (subscriber, creator) pair.
type SubscriptionKey struct {
	SubscriberID snowflake.ID `gorm:"column:subscriber_id"`
	CreatorID    snowflake.ID `gorm:"column:creator_id"`
}

// IsActive reports whether the subscription currently grants entitlement.
func (s Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive
}
