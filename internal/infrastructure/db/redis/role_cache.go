package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRoleTTL = 5 * time.Minute
	roleKeyPrefix  = "role:"
)

// RoleCache shares resolved role capabilities between service instances.
// Key format: role:<name>, value: JSON array of capability names.
type RoleCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRoleCache wraps client. Entries expire after ttl, or five minutes when ttl is not positive.
func NewRoleCache(client *redis.Client, ttl time.Duration) *RoleCache {
	if ttl <= 0 {
		ttl = defaultRoleTTL
	}
	return &RoleCache{client: client, ttl: ttl}
}

// Get returns the cached capabilities of role. ok is false on a miss.
func (c *RoleCache) Get(ctx context.Context, role string) ([]string, bool, error) {
	raw, err := c.client.Get(ctx, c.key(role)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("role cache get: %w", err)
	}

	var caps []string
	if err := json.Unmarshal(raw, &caps); err != nil {
		return nil, false, fmt.Errorf("role cache decode %q: %w", role, err)
	}
	return caps, true, nil
}

// Set stores capabilities for role with the cache TTL.
func (c *RoleCache) Set(ctx context.Context, role string, capabilities []string) error {
	if capabilities == nil {
		capabilities = []string{}
	}
	raw, err := json.Marshal(capabilities)
	if err != nil {
		return fmt.Errorf("role cache encode %q: %w", role, err)
	}
	if err := c.client.Set(ctx, c.key(role), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("role cache set: %w", err)
	}
	return nil
}

// Invalidate drops the cached entry for role.
func (c *RoleCache) Invalidate(ctx context.Context, role string) error {
	if err := c.client.Del(ctx, c.key(role)).Err(); err != nil {
		return fmt.Errorf("role cache invalidate: %w", err)
	}
	return nil
}

func (c *RoleCache) key(role string) string {
	return roleKeyPrefix + role
}
