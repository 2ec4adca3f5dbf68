// Package firedstore implements the at-most-once witness set behind the
// automation engine.
package firedstore

import (
	"context"

	"github.com/bwmarrin/snowflake"
	automationdomain "github.com/smallbiznis/fangate/internal/automation/domain"
	"github.com/smallbiznis/fangate/pkg/db"
	"gorm.io/gorm"
)

type gormStore struct {
	db *gorm.DB
}

// NewGormStore returns a store backed by the fired_records table. The
// unique (rule_id, event_id) index makes the insert the compare-and-set:
// there is no read-then-write window.
func NewGormStore(conn *gorm.DB) automationdomain.FiredRecordStore {
	return &gormStore{db: conn}
}

func (s *gormStore) Create(ctx context.Context, record *automationdomain.FiredRecord) error {
	err := s.db.WithContext(ctx).Exec(
		`INSERT INTO fired_records (id, rule_id, event_id, fired_at) VALUES (?, ?, ?, ?)`,
		record.ID,
		record.RuleID,
		record.EventID,
		record.FiredAt,
	).Error
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return automationdomain.ErrAlreadyFired
		}
		return err
	}
	return nil
}

func (s *gormStore) Exists(ctx context.Context, ruleID snowflake.ID, eventID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM fired_records WHERE rule_id = ? AND event_id = ?`,
		ruleID,
		eventID,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
