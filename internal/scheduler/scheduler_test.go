package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smallbiznis/fangate/internal/config"
	subscriptiondomain "github.com/smallbiznis/fangate/internal/subscription/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type subscriptionServiceStub struct {
	expireCalls atomic.Int64
	expireErr   error
}

func (s *subscriptionServiceStub) Create(ctx context.Context, req subscriptiondomain.CreateSubscriptionRequest) (subscriptiondomain.Subscription, error) {
	return subscriptiondomain.Subscription{}, nil
}

func (s *subscriptionServiceStub) Renew(ctx context.Context, req subscriptiondomain.RenewSubscriptionRequest) (subscriptiondomain.Subscription, error) {
	return subscriptiondomain.Subscription{}, nil
}

func (s *subscriptionServiceStub) Cancel(ctx context.Context, subscriberID, creatorID string) error {
	return nil
}

func (s *subscriptionServiceStub) ChangeTier(ctx context.Context, req subscriptiondomain.ChangeTierRequest) (subscriptiondomain.Subscription, error) {
	return subscriptiondomain.Subscription{}, nil
}

func (s *subscriptionServiceStub) Current(ctx context.Context, req subscriptiondomain.CurrentSubscriptionRequest) (subscriptiondomain.Subscription, error) {
	return subscriptiondomain.Subscription{}, nil
}

func (s *subscriptionServiceStub) ExpireLapsed(ctx context.Context) (int64, error) {
	s.expireCalls.Add(1)
	if s.expireErr != nil {
		return 0, s.expireErr
	}
	return 1, nil
}

func newScheduler(t *testing.T, stub *subscriptionServiceStub, interval time.Duration) *Scheduler {
	t.Helper()
	sched, err := New(Params{
		Log:             zap.NewNop(),
		Cfg:             config.Config{SubscriptionSweepInterval: interval},
		SubscriptionSvc: stub,
	})
	require.NoError(t, err)
	return sched
}

func TestRunOnceSweepsLapsedSubscriptions(t *testing.T) {
	stub := &subscriptionServiceStub{}
	sched := newScheduler(t, stub, time.Minute)

	require.NoError(t, sched.RunOnce(context.Background()))
	assert.EqualValues(t, 1, stub.expireCalls.Load())
}

func TestRunOnceSurfacesJobErrors(t *testing.T) {
	errDown := errors.New("db down")
	stub := &subscriptionServiceStub{expireErr: errDown}
	sched := newScheduler(t, stub, time.Minute)

	err := sched.RunOnce(context.Background())
	require.ErrorIs(t, err, errDown)
}

func TestRunForeverStopsOnCancel(t *testing.T) {
	stub := &subscriptionServiceStub{}
	sched := newScheduler(t, stub, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.RunForever(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return stub.expireCalls.Load() >= 2
	}, 2*time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
}

func TestNewRejectsMissingDependencies(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop()})
	require.ErrorIs(t, err, ErrInvalidConfig)
}
