package dispatch

import (
	"context"

	"github.com/smallbiznis/fangate/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("dispatch",
	fx.Provide(NewLoggingDispatcher),
	fx.Provide(newCoordinator),
	fx.Invoke(registerLifecycle),
)

func newCoordinator(log *zap.Logger, cfg config.Config, dispatcher Dispatcher) *Coordinator {
	return NewCoordinator(log, Config{
		Workers:     cfg.DispatchWorkers,
		QueueSize:   cfg.DispatchQueueSize,
		MaxAttempts: cfg.DispatchMaxAttempts,
		BaseBackoff: cfg.DispatchBaseBackoff,
	}, dispatcher)
}

func registerLifecycle(lc fx.Lifecycle, c *Coordinator) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			c.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return c.Stop(ctx)
		},
	})
}
