package firedstore

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	automationdomain "github.com/smallbiznis/fangate/internal/automation/domain"
)

type redisStore struct {
	client *redis.Client
}

// NewRedisStore returns a store backed by redis SET NX, for fleets that
// share a redis rather than the SQL primary. Keys carry no TTL: the
// witness set is append-only.
func NewRedisStore(client *redis.Client) automationdomain.FiredRecordStore {
	return &redisStore{client: client}
}

func firedKey(ruleID snowflake.ID, eventID string) string {
	return fmt.Sprintf("fired:%s:%s", ruleID.String(), eventID)
}

func (s *redisStore) Create(ctx context.Context, record *automationdomain.FiredRecord) error {
	set, err := s.client.SetNX(ctx, firedKey(record.RuleID, record.EventID), record.FiredAt.Format(time.RFC3339Nano), 0).Result()
	if err != nil {
		return err
	}
	if !set {
		return automationdomain.ErrAlreadyFired
	}
	return nil
}

func (s *redisStore) Exists(ctx context.Context, ruleID snowflake.ID, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, firedKey(ruleID, eventID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
