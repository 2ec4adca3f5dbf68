package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/bwmarrin/snowflake"
	automationdomain "github.com/smallbiznis/fangate/internal/automation/domain"
	"github.com/smallbiznis/fangate/internal/clock"
	"github.com/smallbiznis/fangate/internal/tier"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RuleService is the creator authoring surface. Rules are born DRAFT and
// walk the DRAFT→ACTIVE→PAUSED/ARCHIVED state machine; the engine itself
// never writes here.
type RuleService struct {
	db  *gorm.DB
	log *zap.Logger

	genID *snowflake.Node
	clock clock.Clock
	tiers *tier.Hierarchy
	repo  automationdomain.RuleRepository
}

type RuleServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Tiers *tier.Hierarchy
	Repo  automationdomain.RuleRepository
}

func NewRuleService(p RuleServiceParam) automationdomain.RuleService {
	return &RuleService{
		db:  p.DB,
		log: p.Log.Named("automation.rules"),

		genID: p.GenID,
		clock: p.Clock,
		tiers: p.Tiers,
		repo:  p.Repo,
	}
}

// Create implements domain.RuleService.
func (s *RuleService) Create(ctx context.Context, req automationdomain.CreateRuleRequest) (automationdomain.AutomationRule, error) {
	creatorID, err := s.parseID(req.CreatorID, automationdomain.ErrInvalidCreator)
	if err != nil {
		return automationdomain.AutomationRule{}, err
	}

	trigger, err := automationdomain.ParseTrigger(req.Trigger)
	if err != nil {
		return automationdomain.AutomationRule{}, err
	}

	if len(req.Action) == 0 {
		return automationdomain.AutomationRule{}, automationdomain.ErrInvalidAction
	}

	scope, err := s.encodeScope(req.TierScope)
	if err != nil {
		return automationdomain.AutomationRule{}, err
	}

	now := s.clock.Now()
	rule := automationdomain.AutomationRule{
		ID:        s.genID.Generate(),
		CreatorID: creatorID,
		Trigger:   trigger,
		TierScope: scope,
		Action:    datatypes.JSONMap(req.Action),
		Status:    automationdomain.RuleStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, &rule); err != nil {
		return automationdomain.AutomationRule{}, err
	}

	s.log.Info("rule created",
		zap.String("rule_id", rule.ID.String()),
		zap.String("creator_id", creatorID.String()),
		zap.String("trigger", string(trigger)),
	)
	return rule, nil
}

// Transition implements domain.RuleService.
func (s *RuleService) Transition(ctx context.Context, req automationdomain.TransitionRuleRequest) (automationdomain.AutomationRule, error) {
	creatorID, err := s.parseID(req.CreatorID, automationdomain.ErrInvalidCreator)
	if err != nil {
		return automationdomain.AutomationRule{}, err
	}
	ruleID, err := s.parseID(req.RuleID, automationdomain.ErrInvalidRule)
	if err != nil {
		return automationdomain.AutomationRule{}, err
	}

	target := automationdomain.RuleStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	switch target {
	case automationdomain.RuleStatusActive, automationdomain.RuleStatusPaused, automationdomain.RuleStatusArchived:
	default:
		return automationdomain.AutomationRule{}, automationdomain.ErrInvalidTransition
	}

	var updated automationdomain.AutomationRule
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rule, err := s.repo.FindByID(ctx, tx, creatorID, ruleID)
		if err != nil {
			return err
		}
		if rule == nil {
			return automationdomain.ErrRuleNotFound
		}
		if !automationdomain.CanTransition(rule.Status, target) {
			return automationdomain.ErrInvalidTransition
		}
		if err := s.repo.UpdateStatus(ctx, tx, creatorID, ruleID, target); err != nil {
			return err
		}
		rule.Status = target
		rule.UpdatedAt = s.clock.Now()
		updated = *rule
		return nil
	})
	if err != nil {
		return automationdomain.AutomationRule{}, err
	}
	return updated, nil
}

// List implements domain.RuleService.
func (s *RuleService) List(ctx context.Context, creatorIDRaw string) ([]automationdomain.AutomationRule, error) {
	creatorID, err := s.parseID(creatorIDRaw, automationdomain.ErrInvalidCreator)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByCreator(ctx, s.db, creatorID)
}

func (s *RuleService) encodeScope(raw []string) (datatypes.JSON, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	codes := make([]string, 0, len(raw))
	for _, code := range raw {
		normalized := tier.Normalize(code)
		if !s.tiers.Known(normalized) {
			return nil, automationdomain.ErrInvalidTierScope
		}
		codes = append(codes, normalized.String())
	}
	encoded, err := json.Marshal(codes)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(encoded), nil
}

func (s *RuleService) parseID(raw string, invalid error) (snowflake.ID, error) {
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
