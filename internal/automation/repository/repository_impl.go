package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	automationdomain "github.com/smallbiznis/fangate/internal/automation/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() automationdomain.RuleRepository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, rule *automationdomain.AutomationRule) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO automation_rules (
			id, creator_id, trigger_type, tier_scope, action, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.ID,
		rule.CreatorID,
		rule.Trigger,
		rule.TierScope,
		rule.Action,
		rule.Status,
		rule.CreatedAt,
		rule.UpdatedAt,
	).Error
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, creatorID, id snowflake.ID, status automationdomain.RuleStatus) error {
	return db.WithContext(ctx).Exec(
		`UPDATE automation_rules SET status = ?, updated_at = ? WHERE creator_id = ? AND id = ?`,
		status,
		time.Now().UTC(),
		creatorID,
		id,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, creatorID, id snowflake.ID) (*automationdomain.AutomationRule, error) {
	var rule automationdomain.AutomationRule
	err := db.WithContext(ctx).Raw(
		`SELECT id, creator_id, trigger_type, tier_scope, action, status, created_at, updated_at
		 FROM automation_rules WHERE creator_id = ? AND id = ?`,
		creatorID,
		id,
	).Scan(&rule).Error
	if err != nil {
		return nil, err
	}
	if rule.ID == 0 {
		return nil, nil
	}
	return &rule, nil
}

func (r *repo) ListByCreator(ctx context.Context, db *gorm.DB, creatorID snowflake.ID) ([]automationdomain.AutomationRule, error) {
	var rules []automationdomain.AutomationRule
	err := db.WithContext(ctx).Raw(
		`SELECT id, creator_id, trigger_type, tier_scope, action, status, created_at, updated_at
		 FROM automation_rules WHERE creator_id = ? ORDER BY created_at ASC`,
		creatorID,
	).Scan(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repo) FindActiveByTrigger(ctx context.Context, db *gorm.DB, creatorID snowflake.ID, trigger automationdomain.Trigger) ([]automationdomain.AutomationRule, error) {
	var rules []automationdomain.AutomationRule
	err := db.WithContext(ctx).Raw(
		`SELECT id, creator_id, trigger_type, tier_scope, action, status, created_at, updated_at
		 FROM automation_rules
		 WHERE creator_id = ? AND trigger_type = ? AND status = ?
		 ORDER BY created_at ASC`,
		creatorID,
		trigger,
		automationdomain.RuleStatusActive,
	).Scan(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}
