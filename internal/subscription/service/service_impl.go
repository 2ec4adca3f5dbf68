package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fangate/internal/cache"
	"github.com/smallbiznis/fangate/internal/clock"
	subscriptiondomain "github.com/smallbiznis/fangate/internal/subscription/domain"
	"github.com/smallbiznis/fangate/internal/tier"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultPeriod = 30 * 24 * time.Hour

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID     *snowflake.Node
	clock     clock.Clock
	tiers     *tier.Hierarchy
	repo      subscriptiondomain.Repository
	snapshots cache.EntitlementResolverCache
}

type ServiceParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Tiers     *tier.Hierarchy
	Repo      subscriptiondomain.Repository
	Snapshots cache.EntitlementResolverCache
}

func NewService(p ServiceParam) subscriptiondomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("subscription.service"),

		genID:     p.GenID,
		clock:     p.Clock,
		tiers:     p.Tiers,
		repo:      p.Repo,
		snapshots: p.Snapshots,
	}
}

// Create implements domain.Service. The first successful payment for a
// (subscriber, creator) pair lands here.
func (s *Service) Create(ctx context.Context, req subscriptiondomain.CreateSubscriptionRequest) (subscriptiondomain.Subscription, error) {
	subscriberID, err := s.parseID(req.SubscriberID, subscriptiondomain.ErrInvalidSubscriber)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	creatorID, err := s.parseID(req.CreatorID, subscriptiondomain.ErrInvalidCreator)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	code := tier.Normalize(req.Tier)
	if !s.tiers.Known(code) {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidTier
	}

	period := req.Period
	if period <= 0 {
		period = defaultPeriod
	}

	now := s.clock.Now()
	subscription := subscriptiondomain.Subscription{
		ID:           s.genID.Generate(),
		SubscriberID: subscriberID,
		CreatorID:    creatorID,
		Tier:         code.String(),
		Status:       subscriptiondomain.SubscriptionStatusActive,
		RenewedAt:    now,
		ExpiresAt:    now.Add(period),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindCurrentForUpdate(ctx, tx, subscriberID, creatorID)
		if err != nil {
			return err
		}
		if existing != nil && existing.IsActive() {
			return subscriptiondomain.ErrSubscriptionExists
		}
		if existing != nil {
			// Reactivate the lapsed/cancelled row so the pair stays unique.
			existing.Tier = subscription.Tier
			existing.Status = subscriptiondomain.SubscriptionStatusActive
			existing.RenewedAt = now
			existing.ExpiresAt = now.Add(period)
			existing.CancelledAt = nil
			existing.UpdatedAt = now
			subscription = *existing
			return s.repo.Update(ctx, tx, existing)
		}
		return s.repo.Insert(ctx, tx, &subscription)
	})
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	s.snapshots.InvalidateSubscription(subscriberID.String(), creatorID.String())

	s.log.Info("subscription created",
		zap.String("subscriber_id", subscriberID.String()),
		zap.String("creator_id", creatorID.String()),
		zap.String("tier", subscription.Tier),
	)
	return subscription, nil
}

// Renew implements domain.Service.
func (s *Service) Renew(ctx context.Context, req subscriptiondomain.RenewSubscriptionRequest) (subscriptiondomain.Subscription, error) {
	subscriberID, err := s.parseID(req.SubscriberID, subscriptiondomain.ErrInvalidSubscriber)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	creatorID, err := s.parseID(req.CreatorID, subscriptiondomain.ErrInvalidCreator)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	period := req.Period
	if period <= 0 {
		period = defaultPeriod
	}

	var renewed subscriptiondomain.Subscription
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindCurrentForUpdate(ctx, tx, subscriberID, creatorID)
		if err != nil {
			return err
		}
		if existing == nil {
			return subscriptiondomain.ErrSubscriptionNotFound
		}
		if existing.Status == subscriptiondomain.SubscriptionStatusCancelled {
			return subscriptiondomain.ErrAlreadyCancelled
		}

		now := s.clock.Now()
		existing.Status = subscriptiondomain.SubscriptionStatusActive
		existing.RenewedAt = now
		existing.ExpiresAt = now.Add(period)
		existing.UpdatedAt = now
		renewed = *existing
		return s.repo.Update(ctx, tx, existing)
	})
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	s.snapshots.InvalidateSubscription(subscriberID.String(), creatorID.String())
	return renewed, nil
}

// Cancel implements domain.Service.
func (s *Service) Cancel(ctx context.Context, subscriberIDRaw, creatorIDRaw string) error {
	subscriberID, err := s.parseID(subscriberIDRaw, subscriptiondomain.ErrInvalidSubscriber)
	if err != nil {
		return err
	}
	creatorID, err := s.parseID(creatorIDRaw, subscriptiondomain.ErrInvalidCreator)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindCurrentForUpdate(ctx, tx, subscriberID, creatorID)
		if err != nil {
			return err
		}
		if existing == nil {
			return subscriptiondomain.ErrSubscriptionNotFound
		}
		if existing.Status == subscriptiondomain.SubscriptionStatusCancelled {
			return subscriptiondomain.ErrAlreadyCancelled
		}

		now := s.clock.Now()
		existing.Status = subscriptiondomain.SubscriptionStatusCancelled
		existing.CancelledAt = &now
		existing.UpdatedAt = now
		return s.repo.Update(ctx, tx, existing)
	})
	if err != nil {
		return err
	}
	s.snapshots.InvalidateSubscription(subscriberID.String(), creatorID.String())
	return nil
}

// ChangeTier implements domain.Service.
func (s *Service) ChangeTier(ctx context.Context, req subscriptiondomain.ChangeTierRequest) (subscriptiondomain.Subscription, error) {
	subscriberID, err := s.parseID(req.SubscriberID, subscriptiondomain.ErrInvalidSubscriber)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	creatorID, err := s.parseID(req.CreatorID, subscriptiondomain.ErrInvalidCreator)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	code := tier.Normalize(req.NewTier)
	if !s.tiers.Known(code) {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidTier
	}

	var changed subscriptiondomain.Subscription
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindCurrentForUpdate(ctx, tx, subscriberID, creatorID)
		if err != nil {
			return err
		}
		if existing == nil || !existing.IsActive() {
			return subscriptiondomain.ErrSubscriptionNotFound
		}

		existing.Tier = code.String()
		existing.UpdatedAt = s.clock.Now()
		changed = *existing
		return s.repo.Update(ctx, tx, existing)
	})
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	s.snapshots.InvalidateSubscription(subscriberID.String(), creatorID.String())
	return changed, nil
}

// Current implements domain.Service.
func (s *Service) Current(ctx context.Context, req subscriptiondomain.CurrentSubscriptionRequest) (subscriptiondomain.Subscription, error) {
	subscriberID, err := s.parseID(req.SubscriberID, subscriptiondomain.ErrInvalidSubscriber)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	creatorID, err := s.parseID(req.CreatorID, subscriptiondomain.ErrInvalidCreator)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	item, err := s.repo.FindCurrent(ctx, s.db, subscriberID, creatorID)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	if item == nil {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrSubscriptionNotFound
	}
	return *item, nil
}

// ExpireLapsed soft-expires ACTIVE subscriptions whose expires_at has passed.
func (s *Service) ExpireLapsed(ctx context.Context) (int64, error) {
	var pairs []subscriptiondomain.SubscriptionKey
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		pairs, err = s.repo.MarkLapsedBefore(ctx, tx, s.clock.Now())
		return err
	})
	if err != nil {
		return 0, err
	}
	for _, pair := range pairs {
		s.snapshots.InvalidateSubscription(pair.SubscriberID.String(), pair.CreatorID.String())
	}
	if len(pairs) > 0 {
		s.log.Info("subscriptions lapsed", zap.Int("count", len(pairs)))
	}
	return int64(len(pairs)), nil
}

func (s *Service) parseID(raw string, invalid error) (snowflake.ID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, invalid
	}
	id, err := snowflake.ParseString(trimmed)
	if err != nil {
		return 0, invalid
	}
	return id, nil
}
