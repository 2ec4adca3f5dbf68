// Package scheduler runs periodic maintenance jobs so domain state keeps
// converging without an external trigger.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smallbiznis/fangate/internal/config"
	subscriptiondomain "github.com/smallbiznis/fangate/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	defaultRunInterval = time.Minute
	jobTimeout         = 30 * time.Second
)

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type Params struct {
	fx.In

	Log             *zap.Logger
	Cfg             config.Config
	SubscriptionSvc subscriptiondomain.Service
}

type Scheduler struct {
	log             *zap.Logger
	interval        time.Duration
	subscriptionSvc subscriptiondomain.Service
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.SubscriptionSvc == nil {
		return nil, ErrInvalidConfig
	}
	interval := p.Cfg.SubscriptionSweepInterval
	if interval <= 0 {
		interval = defaultRunInterval
	}
	return &Scheduler{
		log:             p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		interval:        interval,
		subscriptionSvc: p.SubscriptionSvc,
	}, nil
}

// RunOnce executes every maintenance job a single time.
func (s *Scheduler) RunOnce(parent context.Context) error {
	return s.runJob(parent, "lapse_sweep", s.LapseSweepJob)
}

func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, jobTimeout)
	defer cancel()

	err := fn(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.log.Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", jobTimeout),
			zap.Error(err),
		)
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}

// LapseSweepJob soft-expires ACTIVE subscriptions whose period ran out.
func (s *Scheduler) LapseSweepJob(ctx context.Context) error {
	count, err := s.subscriptionSvc.ExpireLapsed(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		s.log.Info("lapse sweep processed", zap.Int64("count", count))
	}
	return nil
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
