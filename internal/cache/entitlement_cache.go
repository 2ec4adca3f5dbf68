package cache

import (
	"strings"
	"time"

	subscriptiondomain "github.com/smallbiznis/fangate/internal/subscription/domain"
)

const defaultSubscriptionTTL = 45 * time.Second

// EntitlementResolverCache stores hot-path subscription snapshots for
// entitlement resolution. Entries are invalidated on subscription writes
// by the surrounding service; staleness is otherwise bounded by the TTL.
type EntitlementResolverCache interface {
	GetSubscription(subscriberID, creatorID string) (subscriptiondomain.Subscription, bool)
	SetSubscription(subscriberID, creatorID string, subscription subscriptiondomain.Subscription)
	InvalidateSubscription(subscriberID, creatorID string)
}

type entitlementResolverCache struct {
	subscriptions Cache[string, subscriptiondomain.Subscription]
	subTTL        time.Duration
}

// NewEntitlementResolverCache returns an in-memory cache tuned for content views.
func NewEntitlementResolverCache(ttl time.Duration) EntitlementResolverCache {
	if ttl <= 0 {
		ttl = defaultSubscriptionTTL
	}
	return &entitlementResolverCache{
		subscriptions: NewTTLCache[string, subscriptiondomain.Subscription](),
		subTTL:        ttl,
	}
}

func (c *entitlementResolverCache) GetSubscription(subscriberID, creatorID string) (subscriptiondomain.Subscription, bool) {
	return c.subscriptions.Get(cacheKey(subscriberID, creatorID))
}

func (c *entitlementResolverCache) SetSubscription(subscriberID, creatorID string, subscription subscriptiondomain.Subscription) {
	if subscription.ID == 0 {
		return
	}
	c.subscriptions.Set(cacheKey(subscriberID, creatorID), subscription, c.subTTL)
}

func (c *entitlementResolverCache) InvalidateSubscription(subscriberID, creatorID string) {
	c.subscriptions.Delete(cacheKey(subscriberID, creatorID))
}

func cacheKey(values ...string) string {
	return strings.Join(values, "|")
}
