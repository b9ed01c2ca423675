// ABOUTME: Redis-backed cache holding the latest activity snapshot per agent
// ABOUTME: Snapshots are written wholesale with a TTL; a missing key reads as offline

package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	activityKeyPrefix = "activity:"
	onlineSetKey      = "online_agents"
)

// ActivityCache stores per-agent snapshots in Redis. Each write replaces the
// whole snapshot atomically; there are no partial updates. A key that has
// expired (agent stopped heartbeating) reads back as an offline snapshot.
type ActivityCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewActivityCache creates a cache with the given snapshot TTL.
func NewActivityCache(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *ActivityCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityCache{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger.With("component", "activity_cache"),
	}
}

// Put replaces the agent's snapshot and refreshes the online set membership.
func (c *ActivityCache) Put(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	key := activityKeyPrefix + snap.UserID

	pipe := c.rdb.Pipeline()
	pipe.Set(ctx, key, data, c.ttl)
	if snap.Kind == KindOnline && !snap.Offline {
		pipe.SAdd(ctx, onlineSetKey, snap.UserID)
		pipe.Expire(ctx, onlineSetKey, c.ttl*2)
	} else {
		pipe.SRem(ctx, onlineSetKey, snap.UserID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("storing snapshot: %w", err)
	}

	c.logger.Debug("snapshot stored", "user_id", snap.UserID, "kind", snap.Kind)
	return nil
}

// Get returns the agent's latest snapshot. A missing or expired key yields an
// offline snapshot, not an error.
func (c *ActivityCache) Get(ctx context.Context, userID string) (*Snapshot, error) {
	data, err := c.rdb.Get(ctx, activityKeyPrefix+userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return OfflineSnapshot(userID), nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return &snap, nil
}

// Touch records a tracked agent action: the stored snapshot is replaced with
// one whose LastActivityAt is the given instant. An offline agent stays
// offline; touching does not implicitly reconnect.
func (c *ActivityCache) Touch(ctx context.Context, userID string, at time.Time) error {
	snap, err := c.Get(ctx, userID)
	if err != nil {
		return err
	}
	if snap.Offline {
		return nil
	}

	next := *snap
	next.LastActivityAt = &at
	return c.Put(ctx, &next)
}

// SetKind replaces the stored snapshot with one of the given kind. Used by
// the connect action (kind online, activity now) and by break management.
func (c *ActivityCache) SetKind(ctx context.Context, userID string, kind Kind, at time.Time) error {
	snap, err := c.Get(ctx, userID)
	if err != nil {
		return err
	}

	next := *snap
	next.Kind = kind
	next.Offline = false
	next.LastActivityAt = &at
	return c.Put(ctx, &next)
}

// Remove deletes the agent's snapshot and online-set membership.
func (c *ActivityCache) Remove(ctx context.Context, userID string) error {
	pipe := c.rdb.Pipeline()
	pipe.Del(ctx, activityKeyPrefix+userID)
	pipe.SRem(ctx, onlineSetKey, userID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("removing snapshot: %w", err)
	}
	return nil
}

// OnlineUserIDs returns the members of the online set. Entries whose
// snapshots have expired are pruned as a side effect.
func (c *ActivityCache) OnlineUserIDs(ctx context.Context) ([]string, error) {
	ids, err := c.rdb.SMembers(ctx, onlineSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("listing online agents: %w", err)
	}

	online := make([]string, 0, len(ids))
	var expired []string
	for _, id := range ids {
		exists, err := c.rdb.Exists(ctx, activityKeyPrefix+id).Result()
		if err != nil {
			c.logger.Warn("checking snapshot existence", "user_id", id, "error", err)
			continue
		}
		if exists > 0 {
			online = append(online, id)
		} else {
			expired = append(expired, id)
		}
	}

	if len(expired) > 0 {
		c.rdb.SRem(ctx, onlineSetKey, expired)
	}
	return online, nil
}
