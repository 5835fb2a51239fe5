package redisx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PendingTracker remembers which user each issued transaction belongs to,
// so a poll before the webhook lands can tell "not yet" from "not yours".
type PendingTracker struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewPendingTracker(rdb *redis.Client, ttl time.Duration) *PendingTracker {
	if ttl <= 0 {
		ttl = TTLPending
	}
	return &PendingTracker{rdb: rdb, ttl: ttl}
}

func (t *PendingTracker) MarkPending(ctx context.Context, transactionID, userID string) error {
	return t.rdb.Set(ctx, fmt.Sprintf(KeyPendingTxn, transactionID), userID, t.ttl).Err()
}

// PendingOwner returns the user a transaction was issued to, or ok=false when unknown or expired.
func (t *PendingTracker) PendingOwner(ctx context.Context, transactionID string) (string, bool, error) {
	userID, err := t.rdb.Get(ctx, fmt.Sprintf(KeyPendingTxn, transactionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return userID, true, nil
}

func (t *PendingTracker) Clear(ctx context.Context, transactionID string) error {
	return t.rdb.Del(ctx, fmt.Sprintf(KeyPendingTxn, transactionID)).Err()
}
