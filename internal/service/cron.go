package service

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"wallet-tx/internal/event"
	"wallet-tx/internal/model"
	"wallet-tx/pkg/lock"
	"wallet-tx/pkg/logger"
	"wallet-tx/pkg/monitor"
)

const rebroadcastLockKey = "cron:lock:rebroadcast"

// RebroadcastJob 定时检查长时间未上链的交易: 已上链的更新状态，其余重新投递
type RebroadcastJob struct {
	cron   *cron.Cron
	store  Store
	node   NodeClient
	locker lock.DistributedLock
	spec   string
	after  time.Duration
	topic  string
	batch  int
}

// NewRebroadcastJob locker may be nil for single-instance deployments.
func NewRebroadcastJob(store Store, node NodeClient, locker lock.DistributedLock, spec string, after time.Duration) *RebroadcastJob {
	return &RebroadcastJob{
		cron:   cron.New(),
		store:  store,
		node:   node,
		locker: locker,
		spec:   spec,
		after:  after,
		topic:  event.TopicSignedTx,
		batch:  100,
	}
}

// WithTopic overrides the outbox topic used for requeued events.
func (j *RebroadcastJob) WithTopic(topic string) *RebroadcastJob {
	j.topic = topic
	return j
}

func (j *RebroadcastJob) Start() error {
	if _, err := j.cron.AddFunc(j.spec, func() { j.Run(context.Background()) }); err != nil {
		return err
	}
	j.cron.Start()
	logger.Info("Rebroadcast job started", zap.String("spec", j.spec))
	return nil
}

func (j *RebroadcastJob) Stop() {
	<-j.cron.Stop().Done()
	logger.Info("Rebroadcast job stopped")
}

// Run 执行一轮检查，返回重新投递的条数
func (j *RebroadcastJob) Run(ctx context.Context) int {
	// 1. 获取分布式锁，防止多实例同时执行
	if j.locker != nil {
		token, err := j.locker.Acquire(ctx, rebroadcastLockKey, j.after)
		if err != nil {
			if !errors.Is(err, lock.ErrNotAcquired) {
				logger.Warn("Rebroadcast: 获取锁失败", zap.Error(err))
			}
			return 0
		}
		defer func() { _ = j.locker.Release(ctx, rebroadcastLockKey, token) }()
	}

	// 2. 查询超时未终结的交易
	stale, err := j.store.ListStale(ctx, time.Now().Add(-j.after), j.batch)
	if err != nil {
		logger.Warn("Rebroadcast: 查询失败", zap.Error(err))
		return 0
	}

	requeued := 0
	for i := range stale {
		tx := &stale[i]
		// 3. 已发出的先查回执
		if tx.Status == model.TxStatusSent {
			receipt, err := j.node.Receipt(ctx, common.HexToHash(tx.Hash))
			if err != nil {
				logger.Warn("Rebroadcast: 查询回执失败", zap.String("hash", tx.Hash), zap.Error(err))
				continue
			}
			if receipt != nil {
				j.settle(ctx, tx, receipt)
				continue
			}
		}

		// 4. 重新投递
		tx.Attempts++
		ev, err := newSignedTxEvent(j.topic, tx)
		if err == nil {
			err = j.store.Requeue(ctx, tx.Hash, ev)
		}
		if err != nil {
			logger.Warn("Rebroadcast: 重新投递失败", zap.String("hash", tx.Hash), zap.Error(err))
			continue
		}
		requeued++
	}
	monitor.ObserveRebroadcast(requeued)
	if requeued > 0 {
		logger.Info("Rebroadcast: 已重新投递", zap.Int("count", requeued))
	}
	return requeued
}

func (j *RebroadcastJob) settle(ctx context.Context, tx *model.SignedTransaction, receipt *types.Receipt) {
	status, reason := model.TxStatusConfirmed, ""
	if receipt.Status != types.ReceiptStatusSuccessful {
		status, reason = model.TxStatusFailed, "execution reverted"
	}
	var block *uint64
	if receipt.BlockNumber != nil {
		n := receipt.BlockNumber.Uint64()
		block = &n
	}
	if err := j.store.UpdateStatus(ctx, tx.Hash, status, reason, block); err != nil {
		logger.Warn("Rebroadcast: 更新状态失败", zap.String("hash", tx.Hash), zap.Error(err))
		return
	}
	logger.Info("交易已上链", zap.String("hash", tx.Hash), zap.String("status", status))
}
