package service

import (
	"sync"
	"time"

	"github.com/set-night/mindchat/internal/domain"
)

// ModelsCache holds the provider catalogue for ttl, indexed by model id.
type ModelsCache struct {
	mu       sync.RWMutex
	models   []domain.AIModel
	byID     map[string]int
	cachedAt time.Time
	ttl      time.Duration
}

func NewModelsCache(ttl time.Duration) *ModelsCache {
	return &ModelsCache{ttl: ttl}
}

func (c *ModelsCache) fresh() bool {
	return c.models != nil && time.Since(c.cachedAt) <= c.ttl
}

func (c *ModelsCache) Get() []domain.AIModel {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.fresh() {
		return nil
	}
	return c.models
}

// Find looks a model up in a fresh catalogue. ok is false on a miss or when
// the cache has expired.
func (c *ModelsCache) Find(id string) (model domain.AIModel, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.fresh() {
		return domain.AIModel{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return domain.AIModel{}, false
	}
	return c.models[i], true
}

func (c *ModelsCache) Set(models []domain.AIModel) {
	byID := make(map[string]int, len(models))
	for i, m := range models {
		byID[m.ID] = i
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.models = models
	c.byID = byID
	c.cachedAt = time.Now()
}
