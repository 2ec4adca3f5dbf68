package dispatch

import (
	"context"

	"go.uber.org/zap"
)

// LoggingDispatcher is the default executor used when no external action
// executor is wired. It records the request and succeeds, which keeps the
// at-most-once accounting observable in standalone deployments.
type LoggingDispatcher struct {
	log *zap.Logger
}

func NewLoggingDispatcher(log *zap.Logger) Dispatcher {
	return &LoggingDispatcher{log: log.Named("dispatch.logging")}
}

func (d *LoggingDispatcher) Dispatch(_ context.Context, req Request) error {
	d.log.Info("action dispatched",
		zap.String("rule_id", req.RuleID.String()),
		zap.String("event_id", req.EventID),
		zap.String("subscriber_id", req.SubscriberID.String()),
		zap.Any("action", map[string]any(req.Action)),
	)
	return nil
}
