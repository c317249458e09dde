package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// heldLock is the part of *redislock.Lock a lease needs.
type heldLock interface {
	Refresh(ctx context.Context, ttl time.Duration, opt *redislock.Options) error
	Release(ctx context.Context) error
}

type obtainer interface {
	Obtain(ctx context.Context, key string, ttl time.Duration, opt *redislock.Options) (heldLock, error)
}

type redislockClient struct {
	client *redislock.Client
}

func (c redislockClient) Obtain(ctx context.Context, key string, ttl time.Duration, opt *redislock.Options) (heldLock, error) {
	l, err := c.client.Obtain(ctx, key, ttl, opt)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Redis is a Locker shared by every instance pointed at the same Redis. The
// TTL bounds how long a crashed holder blocks others; a live holder keeps
// extending it every TTL/2 until the lease is released.
type Redis struct {
	client obtainer
	prefix string
	ttl    time.Duration
	// refreshEvery defaults to ttl/2.
	refreshEvery time.Duration
}

func NewRedis(rdb redis.UniversalClient, prefix string, ttl time.Duration) *Redis {
	return &Redis{client: redislockClient{client: redislock.New(rdb)}, prefix: prefix, ttl: ttl}
}

// DialRedis connects to addr and checks it answers before returning.
func DialRedis(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

func (r *Redis) TryLock(ctx context.Context, key string) (Lease, error) {
	l, err := r.client.Obtain(ctx, r.prefix+key, r.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}

	every := r.refreshEvery
	if every <= 0 {
		every = max(r.ttl/2, time.Millisecond)
	}
	lease := &redisLease{
		lock: l,
		ttl:  r.ttl,
		lost: make(chan struct{}),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go lease.keepAlive(every)
	return lease, nil
}

type redisLease struct {
	lock heldLock
	ttl  time.Duration

	lost chan struct{}
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func (l *redisLease) Lost() <-chan struct{} { return l.lost }

// keepAlive extends the TTL until Release. A refresh that finds the key gone
// or taken marks the lease lost at once; other errors are retried until the
// last extension would have run out.
func (l *redisLease) keepAlive(every time.Duration) {
	defer close(l.done)

	t := time.NewTicker(every)
	defer t.Stop()

	expires := time.Now().Add(l.ttl)
	for {
		select {
		case <-l.stop:
			return
		case <-t.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), every)
		err := l.lock.Refresh(ctx, l.ttl, nil)
		cancel()

		now := time.Now()
		switch {
		case err == nil:
			expires = now.Add(l.ttl)
		case errors.Is(err, redislock.ErrNotObtained), !now.Before(expires):
			close(l.lost)
			return
		}
	}
}

func (l *redisLease) Release(ctx context.Context) error {
	l.once.Do(func() { close(l.stop) })
	<-l.done

	err := l.lock.Release(ctx)
	if errors.Is(err, redislock.ErrLockNotHeld) {
		// expired before release; someone else may hold it now
		return nil
	}
	return err
}
