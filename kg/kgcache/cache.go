// Package kgcache adds a Redis read-through cache in front of the
// knowledge graph store for slow-changing reference data: required
// capability sets, agent capability sets, and fallback edges. Routing
// decisions and feedback always go straight to the store.
package kgcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/agentroute/agentroute/kg"
	"github.com/agentroute/agentroute/types"
)

// Recorder receives cache hit/miss events. Implemented by the metrics
// collector; may be nil.
type Recorder interface {
	RecordCacheHit(kind string)
	RecordCacheMiss(kind string)
}

// CachedStore wraps a kg.Store with a Redis read-through cache. Cache
// failures degrade to the underlying store silently apart from a log
// line, so Redis is never a hard dependency.
type CachedStore struct {
	kg.Store

	rdb      *redis.Client
	ttl      time.Duration
	logger   *zap.Logger
	recorder Recorder
}

// New wraps store with a Redis cache.
func New(store kg.Store, rdb *redis.Client, ttl time.Duration, logger *zap.Logger, recorder Recorder) *CachedStore {
	return &CachedStore{
		Store:    store,
		rdb:      rdb,
		ttl:      ttl,
		logger:   logger.With(zap.String("component", "kg_cache")),
		recorder: recorder,
	}
}

func (c *CachedStore) hit(kind string) {
	if c.recorder != nil {
		c.recorder.RecordCacheHit(kind)
	}
}

func (c *CachedStore) miss(kind string) {
	if c.recorder != nil {
		c.recorder.RecordCacheMiss(kind)
	}
}

// TaskTypeRequirements serves required capability sets through the cache.
func (c *CachedStore) TaskTypeRequirements(ctx context.Context, taskType string) ([]string, error) {
	key := fmt.Sprintf("kg:tt_req:%s", taskType)

	var cached []string
	if c.getJSON(ctx, key, &cached) {
		c.hit("task_type_requirements")
		return cached, nil
	}
	c.miss("task_type_requirements")

	caps, err := c.Store.TaskTypeRequirements(ctx, taskType)
	if err != nil {
		return nil, err
	}
	c.setJSON(ctx, key, caps)
	return caps, nil
}

// AgentCapabilities serves agent capability sets through the cache.
func (c *CachedStore) AgentCapabilities(ctx context.Context, agentName string) ([]string, error) {
	key := fmt.Sprintf("kg:agent_caps:%s", agentName)

	var cached []string
	if c.getJSON(ctx, key, &cached) {
		c.hit("agent_capabilities")
		return cached, nil
	}
	c.miss("agent_capabilities")

	caps, err := c.Store.AgentCapabilities(ctx, agentName)
	if err != nil {
		return nil, err
	}
	c.setJSON(ctx, key, caps)
	return caps, nil
}

// FallbackAgent serves fallback edges through the cache. NOT_FOUND is
// cached too, as an empty sentinel, since most agents have no fallback.
func (c *CachedStore) FallbackAgent(ctx context.Context, agentName string) (string, error) {
	key := fmt.Sprintf("kg:fallback:%s", agentName)

	var cached string
	if c.getJSON(ctx, key, &cached) {
		c.hit("fallback_agent")
		if cached == "" {
			return "", types.NewErrorf(types.ErrNotFound, "no fallback registered for agent %q", agentName)
		}
		return cached, nil
	}
	c.miss("fallback_agent")

	fb, err := c.Store.FallbackAgent(ctx, agentName)
	if err != nil {
		if types.IsErrorCode(err, types.ErrNotFound) {
			c.setJSON(ctx, key, "")
		}
		return "", err
	}
	c.setJSON(ctx, key, fb)
	return fb, nil
}

// UpsertTaskType writes through and invalidates the requirement set.
func (c *CachedStore) UpsertTaskType(ctx context.Context, tt types.TaskType) error {
	if err := c.Store.UpsertTaskType(ctx, tt); err != nil {
		return err
	}
	c.invalidate(ctx, fmt.Sprintf("kg:tt_req:%s", tt.Name))
	return nil
}

// SetAgentCapabilities writes through and invalidates the capability set.
func (c *CachedStore) SetAgentCapabilities(ctx context.Context, agentName string, capabilities []string) error {
	if err := c.Store.SetAgentCapabilities(ctx, agentName, capabilities); err != nil {
		return err
	}
	c.invalidate(ctx, fmt.Sprintf("kg:agent_caps:%s", agentName))
	return nil
}

// SetFallback writes through and invalidates the fallback edge.
func (c *CachedStore) SetFallback(ctx context.Context, agentName, fallbackName string, priority int) error {
	if err := c.Store.SetFallback(ctx, agentName, fallbackName, priority); err != nil {
		return err
	}
	c.invalidate(ctx, fmt.Sprintf("kg:fallback:%s", agentName))
	return nil
}

func (c *CachedStore) getJSON(ctx context.Context, key string, out interface{}) bool {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *CachedStore) setJSON(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *CachedStore) invalidate(ctx context.Context, key string) {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}
