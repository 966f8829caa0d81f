package filler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"wallet-tx/pkg/cache"
	"wallet-tx/pkg/logger"
	"wallet-tx/pkg/monitor"
	"wallet-tx/pkg/transaction"
)

// Call is one JSON-RPC request inside a batch.
type Call struct {
	Method string
	Params []interface{}
}

// BatchExecutor sends calls in one round trip and returns their results in request order.
// A failed individual call must be reported as an error, preferably a *NetworkError
// naming its method.
type BatchExecutor interface {
	BatchCall(ctx context.Context, calls []Call) ([]json.RawMessage, error)
}

// NetworkError reports a failed default-field fetch. Method is empty when the
// whole batch failed.
type NetworkError struct {
	Method string
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("filler: batch call failed: %v", e.Err)
	}
	return fmt.Sprintf("filler: %s failed: %v", e.Method, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

const chainIDCacheKey = "chain_id"

// Filler fills absent auto-fetchable fields of a transaction record from a node.
type Filler struct {
	exec     BatchExecutor
	cache    cache.Cache
	cacheKey string
	cacheTTL time.Duration
}

type Option func(*Filler)

// WithChainIDCache caches eth_chainId results under key for ttl.
func WithChainIDCache(c cache.Cache, key string, ttl time.Duration) Option {
	return func(f *Filler) {
		f.cache = c
		f.cacheKey = key
		f.cacheTTL = ttl
	}
}

func New(exec BatchExecutor, opts ...Option) *Filler {
	f := &Filler{exec: exec, cacheKey: chainIDCacheKey}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fill returns a copy of fields with every absent auto-fetchable field of its type
// filled in. All fetches go out as one batch; if any of them fails nothing is merged.
func (f *Filler) Fill(ctx context.Context, fields transaction.Fields) (transaction.Fields, error) {
	// 1. chain id 优先取缓存
	if !fields.Has(transaction.FieldChainID) {
		if id, ok := f.cachedChainID(ctx); ok {
			fields = fields.With(transaction.FieldChainID, id)
		}
	}

	// 2. 计算缺失字段并生成批量请求
	missing := fields.Missing(transaction.AutoFetchableFields(fields.TxType()))
	if len(missing) == 0 {
		return fields, nil
	}
	actions, err := Plan(fields, missing)
	if err != nil {
		return transaction.Fields{}, err
	}
	calls := make([]Call, len(actions))
	names := make([]string, len(actions))
	for i, a := range actions {
		calls[i] = a.Call
		names[i] = string(a.Field)
	}
	logger.Debug("filling transaction defaults", zap.Strings("fields", names))

	// 3. 一次往返
	start := time.Now()
	results, err := f.exec.BatchCall(ctx, calls)
	if err == nil && len(results) != len(calls) {
		err = fmt.Errorf("expected %d results, got %d", len(calls), len(results))
	}
	if err != nil {
		monitor.ObserveFill(start, nil, err)
		var netErr *NetworkError
		if !errors.As(err, &netErr) {
			netErr = &NetworkError{Err: err}
		}
		return transaction.Fields{}, netErr
	}

	// 4. 解析结果，后处理后合并
	filled := fields
	for i, a := range actions {
		v, err := decodeQuantity(results[i])
		if err != nil {
			monitor.ObserveFill(start, nil, err)
			return transaction.Fields{}, &NetworkError{Method: a.Call.Method, Err: err}
		}
		filled = filled.With(a.Field, PostProcess(a.Field, v))
	}
	monitor.ObserveFill(start, names, nil)

	if !fields.Has(transaction.FieldChainID) {
		f.storeChainID(ctx, filled.ChainID)
	}
	return filled, nil
}

// ChainID returns the node's chain id, from the cache when one is configured.
func (f *Filler) ChainID(ctx context.Context) (*big.Int, error) {
	if id, ok := f.cachedChainID(ctx); ok {
		return id, nil
	}
	results, err := f.exec.BatchCall(ctx, []Call{{Method: "eth_chainId"}})
	if err == nil && len(results) != 1 {
		err = fmt.Errorf("expected 1 result, got %d", len(results))
	}
	if err != nil {
		var netErr *NetworkError
		if !errors.As(err, &netErr) {
			netErr = &NetworkError{Method: "eth_chainId", Err: err}
		}
		return nil, netErr
	}
	id, err := decodeQuantity(results[0])
	if err != nil {
		return nil, &NetworkError{Method: "eth_chainId", Err: err}
	}
	f.storeChainID(ctx, id)
	return id, nil
}

// Build fills fields and validates the result into a payload.
func (f *Filler) Build(ctx context.Context, fields transaction.Fields) (transaction.Payload, error) {
	filled, err := f.Fill(ctx, fields)
	if err != nil {
		return nil, err
	}
	return transaction.New(filled)
}

func (f *Filler) cachedChainID(ctx context.Context) (*big.Int, bool) {
	if f.cache == nil {
		return nil, false
	}
	var s string
	if err := f.cache.Get(ctx, f.cacheKey, &s); err != nil {
		return nil, false
	}
	id, ok := new(big.Int).SetString(s, 10)
	return id, ok
}

func (f *Filler) storeChainID(ctx context.Context, id *big.Int) {
	if f.cache == nil || id == nil {
		return
	}
	if err := f.cache.Set(ctx, f.cacheKey, id.String(), f.cacheTTL); err != nil {
		logger.Warn("缓存 chain id 失败", zap.Error(err))
	}
}

func decodeQuantity(raw json.RawMessage) (*big.Int, error) {
	var v *hexutil.Big
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("invalid quantity %s: %w", string(raw), err)
	}
	if v == nil {
		return nil, fmt.Errorf("null result")
	}
	return v.ToInt(), nil
}
