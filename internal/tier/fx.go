package tier

import (
	"github.com/smallbiznis/fangate/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("tier",
	fx.Provide(func(cfg config.Config) (*Hierarchy, error) {
		return NewHierarchy(cfg.TierCodes)
	}),
)
