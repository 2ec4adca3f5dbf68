package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	automationdomain "github.com/smallbiznis/fangate/internal/automation/domain"
	"github.com/smallbiznis/fangate/internal/clock"
	"github.com/smallbiznis/fangate/internal/config"
	"github.com/smallbiznis/fangate/internal/dispatch"
	obsmetrics "github.com/smallbiznis/fangate/internal/observability/metrics"
	"github.com/smallbiznis/fangate/internal/tier"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Engine struct {
	db  *gorm.DB
	log *zap.Logger

	genID         *snowflake.Node
	clock         clock.Clock
	tiers         *tier.Hierarchy
	rules         automationdomain.RuleRepository
	fired         automationdomain.FiredRecordStore
	lookupTimeout time.Duration
}

type EngineParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Cfg   config.Config
	GenID *snowflake.Node
	Clock clock.Clock
	Tiers *tier.Hierarchy
	Rules automationdomain.RuleRepository
	Fired automationdomain.FiredRecordStore
}

func NewEngine(p EngineParam) automationdomain.Engine {
	return &Engine{
		db:  p.DB,
		log: p.Log.Named("automation.engine"),

		genID:         p.GenID,
		clock:         p.Clock,
		tiers:         p.Tiers,
		rules:         p.Rules,
		fired:         p.Fired,
		lookupTimeout: p.Cfg.LookupTimeout,
	}
}

// Handle implements domain.Engine. Matching is evaluated against the tier
// recorded on the event, never the subscriber's current tier, so replays
// and out-of-order delivery stay deterministic.
func (e *Engine) Handle(ctx context.Context, event automationdomain.LifecycleEvent) ([]dispatch.Request, error) {
	start := time.Now()
	defer func() {
		obsmetrics.Core().ObserveHandleDuration(string(event.Trigger), time.Since(start))
	}()

	if err := event.Validate(); err != nil {
		return nil, err
	}
	if event.SubscriberTier != "" && !e.tiers.Known(tier.Tier(event.SubscriberTier)) {
		return nil, tier.ErrUnknownTier
	}

	rules, err := e.fetchRules(ctx, event)
	if err != nil {
		return nil, err
	}

	log := e.log.With(
		zap.String("event_id", event.ID),
		zap.String("trigger", string(event.Trigger)),
		zap.String("subscriber_id", event.SubscriberID.String()),
		zap.String("creator_id", event.CreatorID.String()),
	)

	requests := make([]dispatch.Request, 0, len(rules))
	for _, rule := range rules {
		matched, err := e.inScope(rule, event)
		if err != nil {
			return nil, err
		}
		if !matched {
			continue
		}
		obsmetrics.Core().IncRuleMatch(string(event.Trigger))

		exists, err := e.fired.Exists(ctx, rule.ID, event.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			obsmetrics.Core().IncDedupSkip(string(event.Trigger))
			continue
		}

		record := automationdomain.FiredRecord{
			ID:      e.genID.Generate(),
			RuleID:  rule.ID,
			EventID: event.ID,
			FiredAt: e.clock.Now(),
		}
		if err := e.fired.Create(ctx, &record); err != nil {
			if errors.Is(err, automationdomain.ErrAlreadyFired) {
				// Lost the race to a concurrent delivery of the same event.
				obsmetrics.Core().IncDedupSkip(string(event.Trigger))
				continue
			}
			// Rules already committed above keep their records; a retry of
			// the whole event skips them as already fired, so the requests
			// accumulated so far must reach the caller with the error.
			return requests, err
		}

		obsmetrics.Core().IncRuleFire(string(event.Trigger))
		log.Info("rule fired", zap.String("rule_id", rule.ID.String()))

		requests = append(requests, dispatch.Request{
			RuleID:       rule.ID,
			EventID:      event.ID,
			SubscriberID: event.SubscriberID,
			CreatorID:    event.CreatorID,
			Action:       rule.Action,
		})
	}

	return requests, nil
}

func (e *Engine) fetchRules(ctx context.Context, event automationdomain.LifecycleEvent) ([]automationdomain.AutomationRule, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, e.lookupTimeout)
	defer cancel()

	rules, err := e.rules.FindActiveByTrigger(lookupCtx, e.db, event.CreatorID, event.Trigger)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, automationdomain.ErrLookupTimeout
		}
		return nil, err
	}
	return rules, nil
}

// inScope reports whether the event's recorded tier satisfies the rule's
// tier scope. An empty scope matches every event, including ones carrying
// no tier at all (e.g. tips from non-subscribers).
func (e *Engine) inScope(rule automationdomain.AutomationRule, event automationdomain.LifecycleEvent) (bool, error) {
	codes, err := rule.ScopeCodes()
	if err != nil {
		return false, err
	}
	if len(codes) == 0 {
		return true, nil
	}
	if event.SubscriberTier == "" {
		return false, nil
	}
	eventTier := tier.Normalize(event.SubscriberTier)
	for _, code := range codes {
		if tier.Normalize(code) == eventTier {
			return true, nil
		}
	}
	return false, nil
}
