package domain

import (
	"context"
	"errors"
	"time"
)

type CreateSubscriptionRequest struct {
	SubscriberID string         `json:"subscriber_id"`
	CreatorID    string         `json:"creator_id"`
	Tier         string         `json:"tier"`
	Period       time.Duration  `json:"-"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

type RenewSubscriptionRequest struct {
	SubscriberID string        `json:"subscriber_id"`
	CreatorID    string        `json:"creator_id"`
	Period       time.Duration `json:"-"`
}

type ChangeTierRequest struct {
	SubscriberID string `json:"subscriber_id"`
	CreatorID    string `json:"creator_id"`
	NewTier      string `json:"new_tier"`
}

type CurrentSubscriptionRequest struct {
	SubscriberID string
	CreatorID    string
}

type Service interface {
	Create(ctx context.Context, req CreateSubscriptionRequest) (Subscription, error)
	Renew(ctx context.Context, req RenewSubscriptionRequest) (Subscription, error)
	Cancel(ctx context.Context, subscriberID, creatorID string) error
	ChangeTier(ctx context.Context, req ChangeTierRequest) (Subscription, error)
	Current(ctx context.Context, req CurrentSubscriptionRequest) (Subscription, error)
	ExpireLapsed(ctx context.Context) (int64, error)
}

var (
	ErrInvalidSubscriber    = errors.New("invalid_subscriber")
	ErrInvalidCreator       = errors.New("invalid_creator")
	ErrInvalidTier          = errors.New("invalid_tier")
	ErrInvalidPeriod        = errors.New("invalid_period")
	ErrSubscriptionNotFound = errors.New("subscription_not_found")
	ErrSubscriptionExists   = errors.New("subscription_exists")
	ErrAlreadyCancelled     = errors.New("subscription_already_cancelled")
)
