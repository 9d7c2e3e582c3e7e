package gatelock

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "gate_lock:"

// Lock is an advisory per-ticket lock held across one scan transaction. A
// gate device that grabs the lock keeps a concurrent duplicate tap from
// even opening a database transaction; the store transaction remains the
// correctness boundary, so callers proceed when the lock is unavailable.
type Lock struct {
	Client *redis.Client
	TTL    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Lock {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Lock{Client: client, TTL: ttl}
}

// LockTicket takes the advisory lock for ticketID on behalf of owner
// (normally the device id). Returns false without error when another owner
// already holds it.
func (l *Lock) LockTicket(ctx context.Context, ticketID, owner string) (bool, error) {
	return l.Client.SetNX(ctx, keyPrefix+ticketID, owner, l.TTL).Result()
}

// UnlockTicket releases the lock if owner still holds it. A lock that
// expired or was taken over by another owner is left alone.
func (l *Lock) UnlockTicket(ctx context.Context, ticketID, owner string) error {
	key := keyPrefix + ticketID
	val, err := l.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if val == owner {
		_, err = l.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}
