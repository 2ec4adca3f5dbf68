// Package seed loads a small demo dataset for local evaluation: one
// creator with gated content, one subscribed fan and a pair of
// automation rules ready to fire.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	automationdomain "github.com/smallbiznis/fangate/internal/automation/domain"
	"github.com/smallbiznis/fangate/internal/config"
	contentdomain "github.com/smallbiznis/fangate/internal/content/domain"
	subscriptiondomain "github.com/smallbiznis/fangate/internal/subscription/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	demoCreatorID    snowflake.ID = 7000000001
	demoSubscriberID snowflake.ID = 7000000002
)

// EnsureDemoData is idempotent: rows are keyed on fixed demo IDs so
// repeated startups do not duplicate anything.
func EnsureDemoData(db *gorm.DB, cfg config.Config) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if len(cfg.TierCodes) == 0 {
		return errors.New("seed requires at least one tier code")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	lowest := cfg.TierCodes[0]
	highest := cfg.TierCodes[len(cfg.TierCodes)-1]

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureContentTx(ctx, tx, node, lowest); err != nil {
			return err
		}
		if err := ensureSubscriptionTx(ctx, tx, node, lowest); err != nil {
			return err
		}
		return ensureRulesTx(ctx, tx, node, highest)
	})
}

func ensureContentTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, gateTier string) error {
	var count int64
	if err := tx.WithContext(ctx).
		Model(&contentdomain.ContentItem{}).
		Where("creator_id = ?", demoCreatorID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	items := []contentdomain.ContentItem{
		{
			ID:          node.Generate(),
			CreatorID:   demoCreatorID,
			IsFree:      true,
			Title:       "Welcome post",
			PublishedAt: &now,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:           node.Generate(),
			CreatorID:    demoCreatorID,
			RequiredTier: &gateTier,
			Title:        "Members-only update",
			PublishedAt:  &now,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
	}
	return tx.WithContext(ctx).Create(&items).Error
}

func ensureSubscriptionTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, tier string) error {
	var sub subscriptiondomain.Subscription
	err := tx.WithContext(ctx).
		Where("subscriber_id = ? AND creator_id = ?", demoSubscriberID, demoCreatorID).
		First(&sub).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now().UTC()
	sub = subscriptiondomain.Subscription{
		ID:           node.Generate(),
		SubscriberID: demoSubscriberID,
		CreatorID:    demoCreatorID,
		Tier:         tier,
		Status:       subscriptiondomain.SubscriptionStatusActive,
		RenewedAt:    now,
		ExpiresAt:    now.Add(30 * 24 * time.Hour),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return tx.WithContext(ctx).Create(&sub).Error
}

func ensureRulesTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, topTier string) error {
	var count int64
	if err := tx.WithContext(ctx).
		Model(&automationdomain.AutomationRule{}).
		Where("creator_id = ?", demoCreatorID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	topScope, err := json.Marshal([]string{topTier})
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	rules := []automationdomain.AutomationRule{
		{
			ID:        node.Generate(),
			CreatorID: demoCreatorID,
			Trigger:   automationdomain.TriggerNewSubscription,
			Action: datatypes.JSONMap{
				"type":    "welcome_message",
				"message": "Thanks for subscribing!",
			},
			Status:    automationdomain.RuleStatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:        node.Generate(),
			CreatorID: demoCreatorID,
			Trigger:   automationdomain.TriggerTipReceived,
			TierScope: datatypes.JSON(topScope),
			Action: datatypes.JSONMap{
				"type":    "thank_you_note",
				"message": "You are amazing.",
			},
			Status:    automationdomain.RuleStatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	return tx.WithContext(ctx).Create(&rules).Error
}
