// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package auth

import (
	"context"
	"time"

	"github.com/tomtom215/cycles/internal/cache"
	"github.com/tomtom215/cycles/internal/models"
)

// Defaults for NewCachedUserLookup.
const (
	DefaultUserCacheSize = 10000
	DefaultUserCacheTTL  = time.Minute
)

// CachedUserLookup remembers successful lookups so authenticated requests
// skip the store while the entry is live. Misses and errors are never
// cached. Accounts are not deleted, so a cached hit cannot go stale in a
// way Authenticate depends on.
type CachedUserLookup struct {
	next  UserLookup
	users *cache.LRU[string, *models.User]
}

// NewCachedUserLookup wraps next with an LRU of size entries.
func NewCachedUserLookup(next UserLookup, size int, ttl time.Duration) *CachedUserLookup {
	return &CachedUserLookup{
		next:  next,
		users: cache.NewLRU[string, *models.User](size, ttl),
	}
}

// GetUserByID implements UserLookup.
func (c *CachedUserLookup) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := c.users.Get(id); ok {
		return u, nil
	}
	u, err := c.next.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.users.Add(id, u)
	return u, nil
}
