package firedstore

import (
	automationdomain "github.com/smallbiznis/fangate/internal/automation/domain"
	"github.com/smallbiznis/fangate/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Provide selects the witness store backend from configuration.
func Provide(cfg config.Config, conn *gorm.DB, log *zap.Logger) automationdomain.FiredRecordStore {
	switch cfg.FiredStoreBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		log.Named("automation.firedstore").Info("using redis fired-record store",
			zap.String("addr", cfg.RedisAddr),
		)
		return NewRedisStore(client)
	default:
		return NewGormStore(conn)
	}
}
