package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"click-merchant-api/pkg/logging"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// TransactionLocker serializes the read-validate-write sequence of callbacks
// that touch the same transaction.
type TransactionLocker interface {
	Lock(ctx context.Context, transactionID uint) (unlock func(), err error)
}

// LocalLocker is an in-process keyed mutex. Enough for a single instance.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[uint]*localLock
}

type localLock struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker creates an in-process locker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[uint]*localLock)}
}

// Lock blocks until the transaction is free or ctx is done
func (l *LocalLocker) Lock(ctx context.Context, transactionID uint) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[transactionID]
	if !ok {
		entry = &localLock{ch: make(chan struct{}, 1)}
		l.locks[transactionID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-entry.ch
				l.release(transactionID, entry)
			})
		}, nil
	case <-ctx.Done():
		l.release(transactionID, entry)
		return nil, ctx.Err()
	}
}

func (l *LocalLocker) release(transactionID uint, entry *localLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, transactionID)
	}
}

// held returns the number of transactions with waiters or holders
func (l *LocalLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// releaseScript deletes the key only if it still holds our token, so an
// expired lock taken over by another instance is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker is a SET NX PX lock shared by all instances using the same Redis.
type RedisLocker struct {
	client    *redis.Client
	ttl       time.Duration
	retryWait time.Duration
	logger    *zap.Logger
}

// NewRedisLocker creates a Redis backed locker; ttl bounds how long a crashed
// holder can block a transaction.
func NewRedisLocker(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisLocker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{
		client:    client,
		ttl:       ttl,
		retryWait: 25 * time.Millisecond,
		logger:    logger,
	}
}

func lockKey(transactionID uint) string {
	return fmt.Sprintf("click:tx_lock:%d", transactionID)
}

// Lock polls until the key is acquired or ctx is done
func (l *RedisLocker) Lock(ctx context.Context, transactionID uint) (func(), error) {
	key := lockKey(transactionID)
	token, err := newLockToken()
	if err != nil {
		return nil, err
	}

	for {
		acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if acquired {
			break
		}

		timer := time.NewTimer(l.retryWait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
				l.logger.Error("failed to release transaction lock", zap.String("key", key), zap.Error(err))
			}
		})
	}, nil
}

func newLockToken() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// NewTransactionLocker picks the Redis locker when a client is configured
func NewTransactionLocker(client *redis.Client, ttl time.Duration) TransactionLocker {
	if client == nil {
		logging.Infof("Using in-process transaction locks")
		return NewLocalLocker()
	}
	logging.Infof("Using Redis transaction locks, ttl %s", ttl)
	return NewRedisLocker(client, ttl, logging.L())
}
