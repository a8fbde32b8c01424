package tree

import (
	"sync"

	"github.com/vanderheijden86/famtree/pkg/metrics"
	"github.com/vanderheijden86/famtree/pkg/model"
)

// Cache memoizes the last forest by snapshot version, so a store
// notification that carries unchanged data does not rebuild the tree.
type Cache struct {
	mu     sync.Mutex
	policy RootPolicy
	last   *Forest
}

// NewCache creates a cache that builds with policy.
func NewCache(policy RootPolicy) *Cache {
	return &Cache{policy: policy}
}

// Get returns the forest for members. version may be empty, in which case
// it is computed from the members.
func (c *Cache) Get(version string, members []model.Member) *Forest {
	if version == "" {
		version = model.Fingerprint(members)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last != nil && c.last.version == version {
		metrics.ForestCache.Hit()
		return c.last
	}
	metrics.ForestCache.Miss()
	c.last = Build(members, WithRootPolicy(c.policy), WithVersion(version))
	return c.last
}

// SetPolicy changes the policy and drops the memo.
func (c *Cache) SetPolicy(p RootPolicy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p != c.policy {
		c.policy = p
		c.last = nil
	}
}

// Invalidate drops the memo.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.last = nil
	c.mu.Unlock()
}
