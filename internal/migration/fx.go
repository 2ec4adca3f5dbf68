package migration

import (
	automationdomain "github.com/smallbiznis/fangate/internal/automation/domain"
	"github.com/smallbiznis/fangate/internal/config"
	contentdomain "github.com/smallbiznis/fangate/internal/content/domain"
	"github.com/smallbiznis/fangate/internal/seed"
	subscriptiondomain "github.com/smallbiznis/fangate/internal/subscription/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// The versioned SQL is written for postgres; other dialects are
			// local-only and get the schema straight from the models.
			if err := conn.AutoMigrate(
				&contentdomain.ContentItem{},
				&subscriptiondomain.Subscription{},
				&automationdomain.AutomationRule{},
				&automationdomain.FiredRecord{},
			); err != nil {
				return err
			}
		}

		if cfg.SeedDemoData {
			return seed.EnsureDemoData(conn, cfg)
		}
		return nil
	}),
)
