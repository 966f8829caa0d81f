package cache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"wallet-tx/pkg/logger"
)

// DefaultLocalTTL 本地副本最长保留时间。L2 被其他实例更新后，本地最多滞后这么久。
const DefaultLocalTTL = time.Minute

// MultiLevelCache L1 进程内 + L2 Redis。L1 失败只记日志，以 L2 的结果为准。
type MultiLevelCache struct {
	local    Cache
	remote   Cache
	localTTL time.Duration
}

func NewMultiLevelCache(local, remote Cache) *MultiLevelCache {
	return &MultiLevelCache{local: local, remote: remote, localTTL: DefaultLocalTTL}
}

// WithLocalTTL caps how long L1 keeps a copy.
func (m *MultiLevelCache) WithLocalTTL(d time.Duration) *MultiLevelCache {
	m.localTTL = d
	return m
}

func (m *MultiLevelCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := m.remote.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	m.setLocal(ctx, key, value, ttl)
	return nil
}

func (m *MultiLevelCache) Get(ctx context.Context, key string, target interface{}) error {
	if err := m.local.Get(ctx, key, target); err == nil {
		return nil
	}
	err := m.remote.Get(ctx, key, target)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			logger.Warn("L2 缓存读取失败", zap.String("key", key), zap.Error(err))
		}
		return err
	}
	m.setLocal(ctx, key, target, m.localTTL)
	return nil
}

func (m *MultiLevelCache) Delete(ctx context.Context, key string) error {
	if err := m.local.Delete(ctx, key); err != nil {
		logger.Warn("L1 缓存删除失败", zap.String("key", key), zap.Error(err))
	}
	return m.remote.Delete(ctx, key)
}

func (m *MultiLevelCache) setLocal(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 || ttl > m.localTTL {
		ttl = m.localTTL
	}
	if err := m.local.Set(ctx, key, value, ttl); err != nil {
		logger.Warn("L1 缓存写入失败", zap.String("key", key), zap.Error(err))
	}
}
