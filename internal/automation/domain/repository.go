package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// RuleRepository is the read/write store for automation rules. The engine
// only reads; writes serve the creator authoring surface.
type RuleRepository interface {
	Insert(ctx context.Context, db *gorm.DB, rule *AutomationRule) error
	UpdateStatus(ctx context.Context, db *gorm.DB, creatorID, id snowflake.ID, status RuleStatus) error
	FindByID(ctx context.Context, db *gorm.DB, creatorID, id snowflake.ID) (*AutomationRule, error)
	ListByCreator(ctx context.Context, db *gorm.DB, creatorID snowflake.ID) ([]AutomationRule, error)
	FindActiveByTrigger(ctx context.Context, db *gorm.DB, creatorID snowflake.ID, trigger Trigger) ([]AutomationRule, error)
}

// FiredRecordStore owns the at-most-once witness set. Create must be a
// single atomic check-and-insert: exactly one concurrent caller wins for a
// given (rule, event) pair, every other caller gets ErrAlreadyFired.
type FiredRecordStore interface {
	Create(ctx context.Context, record *FiredRecord) error
	Exists(ctx context.Context, ruleID snowflake.ID, eventID string) (bool, error)
}
