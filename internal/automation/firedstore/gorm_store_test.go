package firedstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	automationdomain "github.com/smallbiznis/fangate/internal/automation/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupGormStore(t *testing.T) (automationdomain.FiredRecordStore, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	_ = db.Exec("PRAGMA busy_timeout = 5000").Error

	require.NoError(t, db.AutoMigrate(&automationdomain.FiredRecord{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return NewGormStore(db), node
}

func TestGormStoreCreateIsCompareAndSet(t *testing.T) {
	store, node := setupGormStore(t)
	ruleID := node.Generate()

	first := automationdomain.FiredRecord{
		ID:      node.Generate(),
		RuleID:  ruleID,
		EventID: "evt-1",
		FiredAt: time.Now().UTC(),
	}
	require.NoError(t, store.Create(context.Background(), &first))

	second := automationdomain.FiredRecord{
		ID:      node.Generate(),
		RuleID:  ruleID,
		EventID: "evt-1",
		FiredAt: time.Now().UTC(),
	}
	err := store.Create(context.Background(), &second)
	require.ErrorIs(t, err, automationdomain.ErrAlreadyFired)

	// Same rule, different event is a fresh firing.
	third := automationdomain.FiredRecord{
		ID:      node.Generate(),
		RuleID:  ruleID,
		EventID: "evt-2",
		FiredAt: time.Now().UTC(),
	}
	require.NoError(t, store.Create(context.Background(), &third))
}

func TestGormStoreConcurrentSingleWinner(t *testing.T) {
	store, node := setupGormStore(t)
	ruleID := node.Generate()

	var wg sync.WaitGroup
	results := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			record := automationdomain.FiredRecord{
				ID:      node.Generate(),
				RuleID:  ruleID,
				EventID: "evt-race",
				FiredAt: time.Now().UTC(),
			}
			results <- store.Create(context.Background(), &record)
		}()
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, automationdomain.ErrAlreadyFired):
			losses++
		default:
			t.Fatalf("unexpected create error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 19, losses)
}

func TestGormStoreExists(t *testing.T) {
	store, node := setupGormStore(t)
	ruleID := node.Generate()

	exists, err := store.Exists(context.Background(), ruleID, "evt-1")
	require.NoError(t, err)
	assert.False(t, exists)

	record := automationdomain.FiredRecord{
		ID:      node.Generate(),
		RuleID:  ruleID,
		EventID: "evt-1",
		FiredAt: time.Now().UTC(),
	}
	require.NoError(t, store.Create(context.Background(), &record))

	exists, err = store.Exists(context.Background(), ruleID, "evt-1")
	require.NoError(t, err)
	assert.True(t, exists)
}
