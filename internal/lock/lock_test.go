package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bsm/redislock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_TryLock(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	lease, err := l.TryLock(ctx, "tag:1")
	require.NoError(t, err)

	_, err = l.TryLock(ctx, "tag:1")
	require.ErrorIs(t, err, ErrNotObtained)

	other, err := l.TryLock(ctx, "tag:2")
	require.NoError(t, err)
	require.NoError(t, other.Release(ctx))

	require.NoError(t, lease.Release(ctx))
	require.NoError(t, lease.Release(ctx))

	again, err := l.TryLock(ctx, "tag:1")
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestLocal_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLocal().TryLock(ctx, "k")
	require.ErrorIs(t, err, context.Canceled)
}

type fakeLock struct {
	mu         sync.Mutex
	refreshErr error
	releaseErr error
	refreshes  int
	released   bool
}

func (f *fakeLock) Refresh(context.Context, time.Duration, *redislock.Options) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return f.refreshErr
}

func (f *fakeLock) Release(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = true
	return f.releaseErr
}

func (f *fakeLock) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshes
}

type fakeObtainer struct {
	lock    *fakeLock
	err     error
	lastKey string
	lastTTL time.Duration
}

func (f *fakeObtainer) Obtain(_ context.Context, key string, ttl time.Duration, _ *redislock.Options) (heldLock, error) {
	f.lastKey, f.lastTTL = key, ttl
	if f.err != nil {
		return nil, f.err
	}
	return f.lock, nil
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestRedis_TryLockErrors(t *testing.T) {
	f := &fakeObtainer{err: redislock.ErrNotObtained}
	r := &Redis{client: f, prefix: "rostersync:", ttl: time.Minute}

	_, err := r.TryLock(context.Background(), "tag:1")
	require.ErrorIs(t, err, ErrNotObtained)
	assert.Equal(t, "rostersync:tag:1", f.lastKey)
	assert.Equal(t, time.Minute, f.lastTTL)

	f.err = errors.New("connection refused")
	_, err = r.TryLock(context.Background(), "tag:1")
	require.ErrorContains(t, err, "obtain lock tag:1: connection refused")
	assert.NotErrorIs(t, err, ErrNotObtained)
}

func TestRedis_LeaseRefreshesUntilRelease(t *testing.T) {
	fl := &fakeLock{}
	r := &Redis{client: &fakeObtainer{lock: fl}, ttl: time.Second, refreshEvery: 5 * time.Millisecond}

	lease, err := r.TryLock(context.Background(), "tag:1")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return fl.refreshCount() >= 3 }, time.Second, time.Millisecond)
	assert.False(t, isClosed(lease.Lost()))

	require.NoError(t, lease.Release(context.Background()))
	n := fl.refreshCount()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, fl.refreshCount(), "refresh continued after release")
	assert.True(t, fl.released)
}

func TestRedis_LeaseLostWhenRefreshNotObtained(t *testing.T) {
	fl := &fakeLock{refreshErr: redislock.ErrNotObtained}
	r := &Redis{client: &fakeObtainer{lock: fl}, ttl: time.Hour, refreshEvery: 5 * time.Millisecond}

	lease, err := r.TryLock(context.Background(), "tag:1")
	require.NoError(t, err)

	select {
	case <-lease.Lost():
	case <-time.After(time.Second):
		t.Fatal("lease not marked lost")
	}
	assert.Equal(t, 1, fl.refreshCount())
	require.NoError(t, lease.Release(context.Background()))
}

func TestRedis_LeaseRetriesTransientErrorsUntilTTL(t *testing.T) {
	fl := &fakeLock{refreshErr: errors.New("i/o timeout")}
	r := &Redis{client: &fakeObtainer{lock: fl}, ttl: 60 * time.Millisecond, refreshEvery: 5 * time.Millisecond}

	lease, err := r.TryLock(context.Background(), "tag:1")
	require.NoError(t, err)

	select {
	case <-lease.Lost():
	case <-time.After(time.Second):
		t.Fatal("lease not marked lost after ttl")
	}
	assert.Greater(t, fl.refreshCount(), 1)
	require.NoError(t, lease.Release(context.Background()))
}

func TestRedisLease_Release(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"released", nil, false},
		{"already expired", redislock.ErrLockNotHeld, false},
		{"redis error", errors.New("connection reset"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fl := &fakeLock{releaseErr: tt.err}
			r := &Redis{client: &fakeObtainer{lock: fl}, ttl: time.Minute}

			lease, err := r.TryLock(context.Background(), "tag:1")
			require.NoError(t, err)

			err = lease.Release(context.Background())
			if tt.wantErr {
				require.ErrorContains(t, err, "connection reset")
			} else {
				require.NoError(t, err)
			}
			assert.True(t, fl.released)
		})
	}
}
