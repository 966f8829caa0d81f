package service

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"wallet-tx/internal/event"
	"wallet-tx/internal/model"
	"wallet-tx/pkg/filler"
	"wallet-tx/pkg/transaction"
)

var ErrNotFound = errors.New("service: record not found")

// Store 持久化已签名交易流水与 outbox 消息
type Store interface {
	// Record 在同一事务中写入交易流水和 outbox 事件。
	// hash 已存在时不重复写入，返回已有记录和 created=false。
	Record(ctx context.Context, tx *model.SignedTransaction, ev *model.OutboxMessage) (stored *model.SignedTransaction, created bool, err error)
	// Get 按交易哈希查询，不存在返回 ErrNotFound
	Get(ctx context.Context, hash string) (*model.SignedTransaction, error)
	// PendingNonce 返回 sender 在 chainID 上本地未终结交易中的最大 nonce
	PendingNonce(ctx context.Context, chainID, sender string) (nonce uint64, ok bool, err error)
	// UpdateStatus 更新状态；reason 写入 last_error
	UpdateStatus(ctx context.Context, hash, status, reason string, block *uint64) error
	// ListStale 返回 updated_at 早于 before 的 pending/sent 交易
	ListStale(ctx context.Context, before time.Time, limit int) ([]model.SignedTransaction, error)
	// Requeue 递增 attempts 并写入新的 outbox 事件
	Requeue(ctx context.Context, hash string, ev *model.OutboxMessage) error

	// PendingMessages 取一批待投递的 outbox 消息
	PendingMessages(ctx context.Context, limit int) ([]model.OutboxMessage, error)
	// MarkMessageSent 标记消息已投递
	MarkMessageSent(ctx context.Context, id uint64) error
}

// NodeClient 节点能力：批量填充、广播与回执查询。*ethrpc.Client 实现该接口。
type NodeClient interface {
	filler.BatchExecutor
	SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error)
	Receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// AccountSigner 持有单个账户私钥的签名器
type AccountSigner interface {
	transaction.Signer
	Address() common.Address
}

// newSignedTxEvent 由流水记录构造广播事件
func newSignedTxEvent(topic string, tx *model.SignedTransaction) (*model.OutboxMessage, error) {
	return model.NewOutboxMessage(topic, tx.Sender, event.SignedTxEvent{
		Hash:    tx.Hash,
		RawTx:   tx.RawTx,
		Sender:  tx.Sender,
		Nonce:   tx.Nonce,
		ChainID: tx.ChainID,
		Attempt: tx.Attempts,
	})
}
