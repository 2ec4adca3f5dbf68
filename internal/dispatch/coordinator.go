package dispatch

import (
	"context"
	"sync"
	"time"

	obsmetrics "github.com/smallbiznis/fangate/internal/observability/metrics"
	"go.uber.org/zap"
)

// Coordinator fans dispatch requests out to worker goroutines and retries
// failed deliveries with exponential backoff. Enqueue never blocks the rule
// engine; when the queue is full the request is dropped and counted, since
// the fired record is the durable witness and the executor owns redelivery
// beyond this process.
type Coordinator struct {
	log        *zap.Logger
	cfg        Config
	dispatcher Dispatcher

	queue  chan Request
	wg     sync.WaitGroup
	cancel context.CancelFunc

	startOnce sync.Once
	stopOnce  sync.Once
}

func NewCoordinator(log *zap.Logger, cfg Config, dispatcher Dispatcher) *Coordinator {
	cfg = cfg.withDefaults()
	return &Coordinator{
		log:        log.Named("dispatch.coordinator"),
		cfg:        cfg,
		dispatcher: dispatcher,
		queue:      make(chan Request, cfg.QueueSize),
	}
}

// Start launches the worker pool. Idempotent.
func (c *Coordinator) Start() {
	c.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		c.cancel = cancel
		for i := 0; i < c.cfg.Workers; i++ {
			c.wg.Add(1)
			go c.worker(ctx)
		}
	})
}

// Stop drains in-flight work and stops the workers.
func (c *Coordinator) Stop(ctx context.Context) error {
	var err error
	c.stopOnce.Do(func() {
		close(c.queue)
		done := make(chan struct{})
		go func() {
			c.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			if c.cancel != nil {
				c.cancel()
			}
			<-done
			err = ctx.Err()
		}
	})
	return err
}

// Enqueue hands requests to the worker pool without blocking.
func (c *Coordinator) Enqueue(reqs ...Request) error {
	var firstErr error
	for _, req := range reqs {
		select {
		case c.queue <- req:
		default:
			obsmetrics.Core().IncDispatchDropped()
			c.log.Error("dispatch queue full, dropping request",
				zap.String("rule_id", req.RuleID.String()),
				zap.String("event_id", req.EventID),
			)
			if firstErr == nil {
				firstErr = ErrQueueFull
			}
		}
	}
	return firstErr
}

func (c *Coordinator) worker(ctx context.Context) {
	defer c.wg.Done()
	for req := range c.queue {
		c.deliver(ctx, req)
	}
}

func (c *Coordinator) deliver(ctx context.Context, req Request) {
	log := c.log.With(
		zap.String("rule_id", req.RuleID.String()),
		zap.String("event_id", req.EventID),
		zap.String("subscriber_id", req.SubscriberID.String()),
	)

	backoff := c.cfg.BaseBackoff
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		err := c.dispatcher.Dispatch(ctx, req)
		if err == nil {
			obsmetrics.Core().IncDispatchAttempt(obsmetrics.DispatchOutcomeOK)
			return
		}
		if ctx.Err() != nil {
			log.Warn("dispatch aborted by shutdown", zap.Error(err))
			return
		}

		if attempt == c.cfg.MaxAttempts {
			obsmetrics.Core().IncDispatchAttempt(obsmetrics.DispatchOutcomeFailure)
			obsmetrics.Core().IncDispatchDropped()
			log.Error("dispatch failed, retries exhausted",
				zap.Int("attempts", attempt),
				zap.Error(err),
			)
			return
		}

		obsmetrics.Core().IncDispatchAttempt(obsmetrics.DispatchOutcomeRetry)
		log.Warn("dispatch failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
		backoff *= 2
	}
}
