package model

import (
	"time"
)

// 交易状态流转: pending -> sent -> confirmed / failed
const (
	TxStatusPending   = "pending"   // 已签名落库，等待广播
	TxStatusSent      = "sent"      // 节点已接收
	TxStatusConfirmed = "confirmed" // 已上链且执行成功
	TxStatusFailed    = "failed"    // 节点拒绝或链上执行失败
)

// SignedTransaction 已签名交易流水表
type SignedTransaction struct {
	ID          uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Hash        string     `gorm:"type:varchar(66);not null;uniqueIndex" json:"hash"`
	Type        uint8      `gorm:"not null" json:"type"`
	ChainID     string     `gorm:"type:varchar(78)" json:"chain_id,omitempty"` // 十进制，pre-EIP-155 为空
	Sender      string     `gorm:"type:varchar(42);not null;index:idx_sender_nonce" json:"sender"`
	Nonce       uint64     `gorm:"not null;index:idx_sender_nonce" json:"nonce"`
	RawTx       string     `gorm:"type:text;not null" json:"raw_tx"` // 0x 十六进制
	Status      string     `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	Attempts    int        `gorm:"not null;default:0" json:"attempts"`
	LastError   string     `gorm:"type:text" json:"last_error,omitempty"`
	BlockNumber *uint64    `json:"block_number,omitempty"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (SignedTransaction) TableName() string {
	return "signed_transactions"
}

// Final reports whether no further broadcast is needed.
func (t *SignedTransaction) Final() bool {
	return t.Status == TxStatusConfirmed || t.Status == TxStatusFailed
}
