package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fangate/internal/cache"
	"github.com/smallbiznis/fangate/internal/config"
	contentdomain "github.com/smallbiznis/fangate/internal/content/domain"
	entitlementdomain "github.com/smallbiznis/fangate/internal/entitlement/domain"
	obsmetrics "github.com/smallbiznis/fangate/internal/observability/metrics"
	subscriptiondomain "github.com/smallbiznis/fangate/internal/subscription/domain"
	"github.com/smallbiznis/fangate/internal/tier"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	tiers         *tier.Hierarchy
	repo          subscriptiondomain.Repository
	snapshots     cache.EntitlementResolverCache
	lookupTimeout time.Duration
}

type ServiceParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Cfg       config.Config
	Tiers     *tier.Hierarchy
	Repo      subscriptiondomain.Repository
	Snapshots cache.EntitlementResolverCache
}

func NewService(p ServiceParam) entitlementdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("entitlement.service"),

		tiers:         p.Tiers,
		repo:          p.Repo,
		snapshots:     p.Snapshots,
		lookupTimeout: p.Cfg.LookupTimeout,
	}
}

// Resolve implements domain.Service. The decision is a pure function of the
// content item and the subscription snapshot; nothing is mutated.
func (s *Service) Resolve(ctx context.Context, subscriberIDRaw string, item contentdomain.ContentItem) (entitlementdomain.Decision, error) {
	if item.IsFree {
		return s.decide(entitlementdomain.Allow(entitlementdomain.ReasonFree)), nil
	}

	subscriberID, err := s.parseSubscriberID(subscriberIDRaw)
	if err != nil {
		return entitlementdomain.Decision{}, err
	}

	subscription, err := s.currentSubscription(ctx, subscriberID, item.CreatorID)
	if err != nil {
		return entitlementdomain.Decision{}, err
	}
	if subscription == nil || !subscription.IsActive() {
		return s.decide(entitlementdomain.Deny(entitlementdomain.ReasonNoActiveSubscription)), nil
	}

	if item.RequiredTier == nil {
		return s.decide(entitlementdomain.Allow(entitlementdomain.ReasonNoTierRequirement)), nil
	}

	ok, err := s.tiers.MeetsOrExceeds(tier.Tier(subscription.Tier), tier.Tier(*item.RequiredTier))
	if err != nil {
		// Unknown tier codes indicate corrupted upstream data, not a deny.
		return entitlementdomain.Decision{}, err
	}
	if !ok {
		return s.decide(entitlementdomain.Deny(entitlementdomain.ReasonInsufficientTier)), nil
	}
	return s.decide(entitlementdomain.Allow(entitlementdomain.ReasonTierMet)), nil
}

func (s *Service) currentSubscription(ctx context.Context, subscriberID, creatorID snowflake.ID) (*subscriptiondomain.Subscription, error) {
	if snapshot, ok := s.snapshots.GetSubscription(subscriberID.String(), creatorID.String()); ok {
		return &snapshot, nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	subscription, err := s.repo.FindCurrent(lookupCtx, s.db, subscriberID, creatorID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, entitlementdomain.ErrLookupTimeout
		}
		return nil, err
	}
	if subscription != nil {
		s.snapshots.SetSubscription(subscriberID.String(), creatorID.String(), *subscription)
	}
	return subscription, nil
}

func (s *Service) decide(d entitlementdomain.Decision) entitlementdomain.Decision {
	obsmetrics.Core().IncDecision(d.Allow, string(d.Reason))
	return d
}

func (s *Service) parseSubscriberID(raw string) (snowflake.ID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, entitlementdomain.ErrInvalidSubscriber
	}
	id, err := snowflake.ParseString(trimmed)
	if err != nil {
		return 0, entitlementdomain.ErrInvalidSubscriber
	}
	return id, nil
}
