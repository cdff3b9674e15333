// Package redislock is a Redis backed keylock.Locker for running several
// instances against one store.
package redislock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MMN3003/payagent/src/keylock"
	"github.com/redis/go-redis/v9"
)

var _ keylock.Locker = (*Locker)(nil)

// releaseScript deletes the key only if we still own it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript pushes the expiry out only while we still own the key.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

const (
	minPoll = 10 * time.Millisecond
	maxPoll = 250 * time.Millisecond
)

// Locker keeps a held lock alive by renewing it every ttl/3, so a holder
// blocked on a slow call keeps it. A crashed holder stops renewing and the
// key lapses within ttl.
type Locker struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func New(client redis.UniversalClient, prefix string, ttl time.Duration) *Locker {
	trimmed := strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if trimmed == "" {
		trimmed = "payagent:lock"
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Locker{client: client, prefix: trimmed, ttl: ttl}
}

func (l *Locker) key(k string) string {
	return fmt.Sprintf("%s:%s", l.prefix, k)
}

func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	rk := l.key(key)

	wait := minPoll
	for {
		ok, err := l.client.SetNX(ctx, rk, token, l.ttl).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("redis lock %s: %w", rk, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		if wait *= 2; wait > maxPoll {
			wait = maxPoll
		}
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		keepAlive(stop, l.ttl/3, func() (bool, error) {
			rctx, cancel := context.WithTimeout(context.Background(), l.ttl/3)
			defer cancel()
			n, err := renewScript.Run(rctx, l.client, []string{rk}, token, l.ttl.Milliseconds()).Int()
			return n == 1, err
		})
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			// release even when the caller's ctx is gone
			rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = releaseScript.Run(rctx, l.client, []string{rk}, token).Err()
		})
	}, nil
}

// keepAlive calls renew every interval until stop is closed or renew reports
// the key is no longer ours. Renew errors are retried on the next tick.
func keepAlive(stop <-chan struct{}, interval time.Duration, renew func() (bool, error)) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			owned, err := renew()
			if err == nil && !owned {
				return
			}
		}
	}
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
