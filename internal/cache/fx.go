package cache

import (
	"github.com/smallbiznis/fangate/internal/config"
	"go.uber.org/fx"
)

// Module provides the shared resolver cache. Entitlement reads through it;
// subscription writes invalidate it.
var Module = fx.Provide(func(cfg config.Config) EntitlementResolverCache {
	return NewEntitlementResolverCache(cfg.SubscriptionCacheTTL)
})
