package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	automationdomain "github.com/smallbiznis/fangate/internal/automation/domain"
	"github.com/smallbiznis/fangate/internal/automation/firedstore"
	"github.com/smallbiznis/fangate/internal/automation/repository"
	"github.com/smallbiznis/fangate/internal/clock"
	"github.com/smallbiznis/fangate/internal/config"
	"github.com/smallbiznis/fangate/internal/dispatch"
	"github.com/smallbiznis/fangate/internal/tier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func setupEngine(t *testing.T) (automationdomain.Engine, *gorm.DB, *snowflake.Node) {
	t.Helper()
	return setupEngineWithStore(t, nil)
}

func setupEngineWithStore(t *testing.T, wrap func(automationdomain.FiredRecordStore) automationdomain.FiredRecordStore) (automationdomain.Engine, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	_ = db.Exec("PRAGMA busy_timeout = 5000").Error

	require.NoError(t, db.AutoMigrate(
		&automationdomain.AutomationRule{},
		&automationdomain.FiredRecord{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	tiers, err := tier.NewHierarchy([]string{"basic", "premium", "vip"})
	require.NoError(t, err)

	fired := firedstore.NewGormStore(db)
	if wrap != nil {
		fired = wrap(fired)
	}

	engine := NewEngine(EngineParam{
		DB:    db,
		Log:   zap.NewNop(),
		Cfg:   config.Config{LookupTimeout: time.Second},
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
		Tiers: tiers,
		Rules: repository.Provide(),
		Fired: fired,
	})

	return engine, db, node
}

// unstableFiredStore fails the nth Create and delegates everything else.
type unstableFiredStore struct {
	automationdomain.FiredRecordStore

	mu      sync.Mutex
	calls   int
	failOn  int
	failErr error
}

func (s *unstableFiredStore) Create(ctx context.Context, record *automationdomain.FiredRecord) error {
	s.mu.Lock()
	s.calls++
	n := s.calls
	s.mu.Unlock()
	if n == s.failOn {
		return s.failErr
	}
	return s.FiredRecordStore.Create(ctx, record)
}

func insertRule(t *testing.T, db *gorm.DB, node *snowflake.Node, creatorID snowflake.ID, trigger automationdomain.Trigger, scope []string, status automationdomain.RuleStatus) automationdomain.AutomationRule {
	t.Helper()

	var encoded datatypes.JSON
	if len(scope) > 0 {
		raw, err := json.Marshal(scope)
		require.NoError(t, err)
		encoded = datatypes.JSON(raw)
	}

	now := time.Now().UTC()
	rule := automationdomain.AutomationRule{
		ID:        node.Generate(),
		CreatorID: creatorID,
		Trigger:   trigger,
		TierScope: encoded,
		Action:    datatypes.JSONMap{"type": "message"},
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.Create(&rule).Error)
	return rule
}

func newEvent(node *snowflake.Node, creatorID snowflake.ID, trigger automationdomain.Trigger, subscriberTier string) automationdomain.LifecycleEvent {
	return automationdomain.LifecycleEvent{
		ID:             "evt-" + node.Generate().String(),
		Trigger:        trigger,
		SubscriberID:   node.Generate(),
		CreatorID:      creatorID,
		SubscriberTier: subscriberTier,
		OccurredAt:     time.Now().UTC(),
	}
}

func countFired(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&automationdomain.FiredRecord{}).Count(&count).Error)
	return count
}

func TestHandleMatchesTierScope(t *testing.T) {
	engine, db, node := setupEngine(t)
	creatorID := node.Generate()

	unscoped := insertRule(t, db, node, creatorID, automationdomain.TriggerNewSubscription, nil, automationdomain.RuleStatusActive)
	premium := insertRule(t, db, node, creatorID, automationdomain.TriggerNewSubscription, []string{"premium"}, automationdomain.RuleStatusActive)
	insertRule(t, db, node, creatorID, automationdomain.TriggerNewSubscription, []string{"vip"}, automationdomain.RuleStatusActive)

	requests, err := engine.Handle(context.Background(), newEvent(node, creatorID, automationdomain.TriggerNewSubscription, "premium"))
	require.NoError(t, err)
	require.Len(t, requests, 2)

	fired := map[snowflake.ID]bool{}
	for _, req := range requests {
		fired[req.RuleID] = true
	}
	assert.True(t, fired[unscoped.ID])
	assert.True(t, fired[premium.ID])
	assert.EqualValues(t, 2, countFired(t, db))
}

func TestHandleReplayIsIdempotent(t *testing.T) {
	engine, db, node := setupEngine(t)
	creatorID := node.Generate()
	insertRule(t, db, node, creatorID, automationdomain.TriggerTipReceived, nil, automationdomain.RuleStatusActive)

	event := newEvent(node, creatorID, automationdomain.TriggerTipReceived, "")

	first, err := engine.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := engine.Handle(context.Background(), event)
	require.NoError(t, err)
	assert.Empty(t, second)
	assert.EqualValues(t, 1, countFired(t, db))
}

func TestHandleConcurrentDeliveriesFireOnce(t *testing.T) {
	engine, db, node := setupEngine(t)
	creatorID := node.Generate()
	insertRule(t, db, node, creatorID, automationdomain.TriggerMilestone, nil, automationdomain.RuleStatusActive)
	insertRule(t, db, node, creatorID, automationdomain.TriggerMilestone, []string{"vip"}, automationdomain.RuleStatusActive)

	event := newEvent(node, creatorID, automationdomain.TriggerMilestone, "vip")

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total []dispatch.Request
	)
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			requests, err := engine.Handle(context.Background(), event)
			if err != nil {
				errs <- err
				return
			}
			mu.Lock()
			total = append(total, requests...)
			mu.Unlock()
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Len(t, total, 2)
	assert.EqualValues(t, 2, countFired(t, db))
}

func TestHandleStorageErrorKeepsCommittedRequests(t *testing.T) {
	errStorage := errors.New("storage unavailable")
	store := &unstableFiredStore{failOn: 2, failErr: errStorage}
	engine, db, node := setupEngineWithStore(t, func(real automationdomain.FiredRecordStore) automationdomain.FiredRecordStore {
		store.FiredRecordStore = real
		return store
	})

	creatorID := node.Generate()
	first := insertRule(t, db, node, creatorID, automationdomain.TriggerNewSubscription, nil, automationdomain.RuleStatusActive)
	second := insertRule(t, db, node, creatorID, automationdomain.TriggerNewSubscription, nil, automationdomain.RuleStatusActive)

	event := newEvent(node, creatorID, automationdomain.TriggerNewSubscription, "premium")

	// The second insert fails after the first rule's record committed.
	// That committed rule must still come back as a dispatch request,
	// because the retry below skips it as already fired.
	requests, err := engine.Handle(context.Background(), event)
	require.ErrorIs(t, err, errStorage)
	require.Len(t, requests, 1)
	committed := requests[0].RuleID
	assert.EqualValues(t, 1, countFired(t, db))

	retry, err := engine.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Len(t, retry, 1)
	require.NotEqual(t, committed, retry[0].RuleID)

	fired := map[snowflake.ID]bool{committed: true, retry[0].RuleID: true}
	assert.True(t, fired[first.ID])
	assert.True(t, fired[second.ID])
	assert.EqualValues(t, 2, countFired(t, db))
}

func TestHandleUnknownTierFails(t *testing.T) {
	engine, db, node := setupEngine(t)
	creatorID := node.Generate()
	insertRule(t, db, node, creatorID, automationdomain.TriggerBirthday, nil, automationdomain.RuleStatusActive)

	_, err := engine.Handle(context.Background(), newEvent(node, creatorID, automationdomain.TriggerBirthday, "gold"))
	require.ErrorIs(t, err, tier.ErrUnknownTier)
	assert.EqualValues(t, 0, countFired(t, db))
}

func TestHandleEmptyTierMatchesOnlyUnscopedRules(t *testing.T) {
	engine, db, node := setupEngine(t)
	creatorID := node.Generate()

	unscoped := insertRule(t, db, node, creatorID, automationdomain.TriggerTipReceived, nil, automationdomain.RuleStatusActive)
	insertRule(t, db, node, creatorID, automationdomain.TriggerTipReceived, []string{"premium"}, automationdomain.RuleStatusActive)

	requests, err := engine.Handle(context.Background(), newEvent(node, creatorID, automationdomain.TriggerTipReceived, ""))
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, unscoped.ID, requests[0].RuleID)
}

func TestHandleIgnoresInactiveRules(t *testing.T) {
	engine, db, node := setupEngine(t)
	creatorID := node.Generate()

	insertRule(t, db, node, creatorID, automationdomain.TriggerInactivity, nil, automationdomain.RuleStatusDraft)
	insertRule(t, db, node, creatorID, automationdomain.TriggerInactivity, nil, automationdomain.RuleStatusPaused)
	insertRule(t, db, node, creatorID, automationdomain.TriggerInactivity, nil, automationdomain.RuleStatusArchived)
	active := insertRule(t, db, node, creatorID, automationdomain.TriggerInactivity, nil, automationdomain.RuleStatusActive)

	requests, err := engine.Handle(context.Background(), newEvent(node, creatorID, automationdomain.TriggerInactivity, "basic"))
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, active.ID, requests[0].RuleID)
}

func TestHandleRejectsInvalidEvents(t *testing.T) {
	engine, _, node := setupEngine(t)
	creatorID := node.Generate()

	event := newEvent(node, creatorID, automationdomain.TriggerBirthday, "")
	event.ID = "  "
	_, err := engine.Handle(context.Background(), event)
	require.ErrorIs(t, err, automationdomain.ErrInvalidEvent)

	event = newEvent(node, creatorID, "SOMETHING_ELSE", "")
	_, err = engine.Handle(context.Background(), event)
	require.ErrorIs(t, err, automationdomain.ErrInvalidTrigger)
}
