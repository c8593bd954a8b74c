package rbac

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/docvault/docvault/pkg/apperr"
)

// CheckerConfig controls decision caching
type CheckerConfig struct {
	CacheSize int           // L1 LRU entries; 0 disables caching entirely
	CacheTTL  time.Duration // applies to both cache layers
	Redis     *redis.Client // optional shared cache
}

// DefaultCheckerConfig returns the default cache settings
func DefaultCheckerConfig() CheckerConfig {
	return CheckerConfig{
		CacheSize: 4096,
		CacheTTL:  30 * time.Second,
	}
}

// Checker resolves "can user U perform action A on module M within
// account X". Decisions are cached per (user, account, module, action)
// in an in-process LRU and, when configured, a shared Redis cache.
type Checker struct {
	store *Store
	l1    *lru.LRU[string, bool]
	redis *redis.Client
	ttl   time.Duration
}

// NewChecker creates a permission checker over the given store
func NewChecker(store *Store, config CheckerConfig) *Checker {
	c := &Checker{
		store: store,
		redis: config.Redis,
		ttl:   config.CacheTTL,
	}
	if config.CacheSize > 0 {
		c.l1 = lru.NewLRU[string, bool](config.CacheSize, nil, config.CacheTTL)
	}
	return c
}

// CanPerform checks whether the identity may perform action on the
// module within the account. Resolution order: super admin, account
// owner/admin role type, then the flattened direct and group role set.
// Errors resolve to a denial at the call site (fail closed).
func (c *Checker) CanPerform(ctx context.Context, id Identity, accountID, moduleKey string, action Action) (bool, error) {
	if !KnownAction(action) {
		return false, apperr.Validation("unknown action: %s", action)
	}

	if id.SuperAdmin {
		return true, nil
	}

	// API-key identities are pinned to their own account
	if id.AccountID != nil && *id.AccountID != accountID {
		return false, nil
	}

	key := cacheKey(id.UserID, accountID, moduleKey, action)
	if allowed, ok := c.cacheGet(ctx, key); ok {
		return allowed, nil
	}

	allowed, err := c.resolve(ctx, id.UserID, accountID, moduleKey, action)
	if err != nil {
		return false, err
	}

	c.cacheSet(ctx, key, allowed)
	return allowed, nil
}

// InvalidateUser drops all cached decisions for a user. Callers invoke
// this after mutating the user's role, group, or account assignments.
func (c *Checker) InvalidateUser(ctx context.Context, userID string) error {
	if c.l1 != nil {
		prefix := userID + "|"
		for _, k := range c.l1.Keys() {
			if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
				c.l1.Remove(k)
			}
		}
	}
	if c.redis != nil {
		keys, err := c.redis.Keys(ctx, redisKeyPrefix+userID+"|*").Result()
		if err != nil {
			return fmt.Errorf("failed to scan permission cache: %w", err)
		}
		if len(keys) > 0 {
			if err := c.redis.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to invalidate permission cache: %w", err)
			}
		}
	}
	return nil
}

func (c *Checker) resolve(ctx context.Context, userID, accountID, moduleKey string, action Action) (bool, error) {
	roleType, err := c.store.GetAccountRoleType(ctx, userID, accountID)
	if err != nil && !apperr.IsNotFound(err) {
		return false, err
	}
	if roleType == RoleTypeOwner || roleType == RoleTypeAdmin {
		return true, nil
	}

	module, err := c.store.GetModuleByKey(ctx, moduleKey)
	if err != nil {
		if apperr.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	direct, err := c.store.ListUserRoles(ctx, userID)
	if err != nil {
		return false, err
	}
	viaGroups, err := c.store.ListUserGroupRoles(ctx, userID, accountID)
	if err != nil {
		return false, err
	}

	seen := make(map[string]bool)
	for _, role := range append(direct, viaGroups...) {
		if seen[role.ID] {
			continue
		}
		seen[role.ID] = true

		// Roles from another account never apply here
		if role.AccountID != nil && *role.AccountID != accountID {
			continue
		}

		perms, err := c.store.ListPermissionsByRole(ctx, role.ID)
		if err != nil {
			return false, err
		}
		for _, p := range perms {
			if p.ModuleID == module.ID && p.Allows(action) {
				return true, nil
			}
		}
	}

	return false, nil
}

const redisKeyPrefix = "docvault:perm:"

func cacheKey(userID, accountID, moduleKey string, action Action) string {
	return userID + "|" + accountID + "|" + moduleKey + "|" + string(action)
}

func (c *Checker) cacheGet(ctx context.Context, key string) (bool, bool) {
	if c.l1 != nil {
		if allowed, ok := c.l1.Get(key); ok {
			return allowed, true
		}
	}
	if c.redis != nil {
		val, err := c.redis.Get(ctx, redisKeyPrefix+key).Result()
		if err == nil {
			allowed, perr := strconv.ParseBool(val)
			if perr == nil {
				if c.l1 != nil {
					c.l1.Add(key, allowed)
				}
				return allowed, true
			}
		}
	}
	return false, false
}

func (c *Checker) cacheSet(ctx context.Context, key string, allowed bool) {
	if c.l1 != nil {
		c.l1.Add(key, allowed)
	}
	if c.redis != nil {
		// Cache write failures degrade to recomputation
		_ = c.redis.Set(ctx, redisKeyPrefix+key, strconv.FormatBool(allowed), c.ttl).Err()
	}
}
