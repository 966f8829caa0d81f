package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"wallet-tx/internal/event"
	"wallet-tx/internal/model"
	"wallet-tx/internal/service/mq"
	"wallet-tx/pkg/ethrpc"
	"wallet-tx/pkg/logger"
	"wallet-tx/pkg/monitor"
	"wallet-tx/pkg/transaction"
)

// 节点对重复广播的常见应答，视为已接收
var alreadyKnown = []string{"already known", "known transaction", "already imported"}

// Broadcaster 消费已签名交易事件并广播到节点
type Broadcaster struct {
	store Store
	node  NodeClient
}

func NewBroadcaster(store Store, node NodeClient) *Broadcaster {
	return &Broadcaster{store: store, node: node}
}

// HandleMessage 处理一条 SignedTxEvent。返回 error 仅表示可重试的传输失败。
func (b *Broadcaster) HandleMessage(ctx context.Context, msg *mq.Message) error {
	var ev event.SignedTxEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		logger.Error("[Broadcaster] 解析消息失败", zap.String("id", msg.ID), zap.Error(err))
		return nil // 格式错误，不再重试
	}
	log := logger.Named("broadcaster").With(zap.String("hash", ev.Hash), zap.Int("attempt", ev.Attempt))

	// 1. 幂等: 已终结的交易跳过
	if b.store != nil {
		row, err := b.store.Get(ctx, ev.Hash)
		switch {
		case errors.Is(err, ErrNotFound):
			log.Warn("流水不存在，仍按事件广播")
		case err != nil:
			return err
		case row.Final():
			log.Info("交易已终结，跳过", zap.String("status", row.Status))
			return nil
		}
	}

	// 2. 广播前校验原始字节，坏数据直接标记失败
	raw, err := hexutil.Decode(ev.RawTx)
	if err == nil {
		_, err = transaction.Decode(raw)
	}
	if err != nil {
		log.Error("原始交易无效", zap.Error(err))
		b.updateStatus(ctx, log, ev.Hash, model.TxStatusFailed, err.Error())
		monitor.ObserveBroadcast("invalid")
		return nil
	}

	// 3. 广播
	hash, err := b.node.SendRawTransaction(ctx, raw)
	switch {
	case err == nil:
		if !strings.EqualFold(hash.Hex(), ev.Hash) {
			log.Warn("节点返回的哈希与本地不一致", zap.String("node_hash", hash.Hex()))
		}
	case ethrpc.IsRejected(err) && isAlreadyKnown(err):
		log.Info("节点已存在该交易")
	case ethrpc.IsRejected(err):
		log.Warn("节点拒绝交易", zap.Error(err))
		b.updateStatus(ctx, log, ev.Hash, model.TxStatusFailed, err.Error())
		monitor.ObserveBroadcast("rejected")
		return nil
	default:
		log.Warn("广播失败，等待重试", zap.Error(err))
		monitor.ObserveBroadcast("retry")
		return err
	}

	b.updateStatus(ctx, log, ev.Hash, model.TxStatusSent, "")
	monitor.ObserveBroadcast("sent")
	log.Info("✅ 广播成功")
	return nil
}

func (b *Broadcaster) updateStatus(ctx context.Context, log *zap.Logger, hash, status, reason string) {
	if b.store == nil {
		return
	}
	if err := b.store.UpdateStatus(ctx, hash, status, reason, nil); err != nil && !errors.Is(err, ErrNotFound) {
		log.Warn("更新交易状态失败", zap.String("status", status), zap.Error(err))
	}
}

func isAlreadyKnown(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, s := range alreadyKnown {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
