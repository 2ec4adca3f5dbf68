package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fangate/internal/cache"
	"github.com/smallbiznis/fangate/internal/config"
	contentdomain "github.com/smallbiznis/fangate/internal/content/domain"
	entitlementdomain "github.com/smallbiznis/fangate/internal/entitlement/domain"
	subscriptiondomain "github.com/smallbiznis/fangate/internal/subscription/domain"
	"github.com/smallbiznis/fangate/internal/tier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type subscriptionRepoStub struct {
	mu      sync.Mutex
	calls   int
	current *subscriptiondomain.Subscription
	err     error
}

func (s *subscriptionRepoStub) Insert(ctx context.Context, db *gorm.DB, subscription *subscriptiondomain.Subscription) error {
	return s.err
}

func (s *subscriptionRepoStub) Update(ctx context.Context, db *gorm.DB, subscription *subscriptiondomain.Subscription) error {
	return s.err
}

func (s *subscriptionRepoStub) FindCurrent(ctx context.Context, db *gorm.DB, subscriberID, creatorID snowflake.ID) (*subscriptiondomain.Subscription, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.current, s.err
}

func (s *subscriptionRepoStub) FindCurrentForUpdate(ctx context.Context, db *gorm.DB, subscriberID, creatorID snowflake.ID) (*subscriptiondomain.Subscription, error) {
	return s.current, s.err
}

func (s *subscriptionRepoStub) ListBySubscriber(ctx context.Context, db *gorm.DB, subscriberID snowflake.ID) ([]subscriptiondomain.Subscription, error) {
	return nil, s.err
}

func (s *subscriptionRepoStub) MarkLapsedBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) ([]subscriptiondomain.SubscriptionKey, error) {
	return nil, s.err
}

func (s *subscriptionRepoStub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newResolver(t *testing.T, repo subscriptiondomain.Repository, cacheTTL time.Duration) entitlementdomain.Service {
	t.Helper()

	tiers, err := tier.NewHierarchy([]string{"basic", "premium", "vip"})
	require.NoError(t, err)

	return NewService(ServiceParam{
		DB:  nil,
		Log: zap.NewNop(),
		Cfg: config.Config{
			LookupTimeout:        time.Second,
			SubscriptionCacheTTL: cacheTTL,
		},
		Tiers:     tiers,
		Repo:      repo,
		Snapshots: cache.NewEntitlementResolverCache(cacheTTL),
	})
}

func activeSubscription(node *snowflake.Node, tierCode string) *subscriptiondomain.Subscription {
	now := time.Now().UTC()
	return &subscriptiondomain.Subscription{
		ID:           node.Generate(),
		SubscriberID: node.Generate(),
		CreatorID:    node.Generate(),
		Tier:         tierCode,
		Status:       subscriptiondomain.SubscriptionStatusActive,
		RenewedAt:    now,
		ExpiresAt:    now.Add(24 * time.Hour),
	}
}

func gatedItem(node *snowflake.Node, requiredTier string) contentdomain.ContentItem {
	return contentdomain.ContentItem{
		ID:           node.Generate(),
		CreatorID:    node.Generate(),
		RequiredTier: &requiredTier,
		Title:        "gated",
	}
}

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
}

func TestResolveFreeContentAllowsEveryone(t *testing.T) {
	node := mustNode(t)
	repo := &subscriptionRepoStub{}
	svc := newResolver(t, repo, time.Minute)

	item := contentdomain.ContentItem{ID: node.Generate(), CreatorID: node.Generate(), IsFree: true}

	// Free content never touches identity or storage.
	decision, err := svc.Resolve(context.Background(), "", item)
	require.NoError(t, err)
	assert.True(t, decision.Allow)
	assert.Equal(t, entitlementdomain.ReasonFree, decision.Reason)
	assert.Equal(t, 0, repo.Calls())
}

func TestResolveNoActiveSubscriptionDenies(t *testing.T) {
	node := mustNode(t)
	repo := &subscriptionRepoStub{}
	svc := newResolver(t, repo, time.Minute)

	decision, err := svc.Resolve(context.Background(), node.Generate().String(), gatedItem(node, "basic"))
	require.NoError(t, err)
	assert.False(t, decision.Allow)
	assert.Equal(t, entitlementdomain.ReasonNoActiveSubscription, decision.Reason)
}

func TestResolveLapsedSubscriptionDenies(t *testing.T) {
	node := mustNode(t)
	sub := activeSubscription(node, "vip")
	sub.Status = subscriptiondomain.SubscriptionStatusLapsed
	repo := &subscriptionRepoStub{current: sub}
	svc := newResolver(t, repo, time.Minute)

	decision, err := svc.Resolve(context.Background(), node.Generate().String(), gatedItem(node, "basic"))
	require.NoError(t, err)
	assert.False(t, decision.Allow)
	assert.Equal(t, entitlementdomain.ReasonNoActiveSubscription, decision.Reason)
}

func TestResolveNoTierRequirementAllowsAnyActive(t *testing.T) {
	node := mustNode(t)
	repo := &subscriptionRepoStub{current: activeSubscription(node, "basic")}
	svc := newResolver(t, repo, time.Minute)

	item := contentdomain.ContentItem{ID: node.Generate(), CreatorID: node.Generate(), Title: "subs only"}

	decision, err := svc.Resolve(context.Background(), node.Generate().String(), item)
	require.NoError(t, err)
	assert.True(t, decision.Allow)
	assert.Equal(t, entitlementdomain.ReasonNoTierRequirement, decision.Reason)
}

func TestResolveTierComparison(t *testing.T) {
	node := mustNode(t)

	cases := []struct {
		name     string
		subTier  string
		required string
		allow    bool
		reason   entitlementdomain.Reason
	}{
		{"below required", "basic", "premium", false, entitlementdomain.ReasonInsufficientTier},
		{"exactly required", "premium", "premium", true, entitlementdomain.ReasonTierMet},
		{"above required", "vip", "premium", true, entitlementdomain.ReasonTierMet},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &subscriptionRepoStub{current: activeSubscription(node, tc.subTier)}
			svc := newResolver(t, repo, time.Minute)

			decision, err := svc.Resolve(context.Background(), node.Generate().String(), gatedItem(node, tc.required))
			require.NoError(t, err)
			assert.Equal(t, tc.allow, decision.Allow)
			assert.Equal(t, tc.reason, decision.Reason)
		})
	}
}

func TestResolveUnknownTierIsAnError(t *testing.T) {
	node := mustNode(t)
	repo := &subscriptionRepoStub{current: activeSubscription(node, "gold")}
	svc := newResolver(t, repo, time.Minute)

	_, err := svc.Resolve(context.Background(), node.Generate().String(), gatedItem(node, "premium"))
	require.ErrorIs(t, err, tier.ErrUnknownTier)
}

func TestResolveInvalidSubscriber(t *testing.T) {
	node := mustNode(t)
	svc := newResolver(t, &subscriptionRepoStub{}, time.Minute)

	_, err := svc.Resolve(context.Background(), "", gatedItem(node, "basic"))
	require.ErrorIs(t, err, entitlementdomain.ErrInvalidSubscriber)

	_, err = svc.Resolve(context.Background(), "not-an-id", gatedItem(node, "basic"))
	require.ErrorIs(t, err, entitlementdomain.ErrInvalidSubscriber)
}

func TestResolveCachesSubscriptionSnapshot(t *testing.T) {
	node := mustNode(t)
	sub := activeSubscription(node, "premium")
	repo := &subscriptionRepoStub{current: sub}
	svc := newResolver(t, repo, time.Minute)

	subscriberID := sub.SubscriberID.String()
	item := gatedItem(node, "premium")
	item.CreatorID = sub.CreatorID

	for i := 0; i < 3; i++ {
		decision, err := svc.Resolve(context.Background(), subscriberID, item)
		require.NoError(t, err)
		assert.True(t, decision.Allow)
	}
	assert.Equal(t, 1, repo.Calls())
}
