package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wallet-tx/internal/model"
)

// GormStore 基于 PostgreSQL 的 Store 实现
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Record(ctx context.Context, tx *model.SignedTransaction, ev *model.OutboxMessage) (*model.SignedTransaction, bool, error) {
	created := false
	err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		// 1. 按 hash 去重，重复提交不产生新事件
		res := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "hash"}}, DoNothing: true}).Create(tx)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true

		// 2. 同一事务写 outbox，保证 至少一次 投递
		return db.Create(ev).Error
	})
	if err != nil {
		return nil, false, err
	}
	if !created {
		stored, err := s.Get(ctx, tx.Hash)
		return stored, false, err
	}
	return tx, true, nil
}

func (s *GormStore) Get(ctx context.Context, hash string) (*model.SignedTransaction, error) {
	var tx model.SignedTransaction
	err := s.db.WithContext(ctx).Where("hash = ?", hash).First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *GormStore) PendingNonce(ctx context.Context, chainID, sender string) (uint64, bool, error) {
	var nonce *uint64
	err := s.db.WithContext(ctx).Model(&model.SignedTransaction{}).
		Where("chain_id = ? AND sender = ? AND status IN ?", chainID, sender, []string{model.TxStatusPending, model.TxStatusSent}).
		Select("MAX(nonce)").Scan(&nonce).Error
	if err != nil || nonce == nil {
		return 0, false, err
	}
	return *nonce, true, nil
}

func (s *GormStore) UpdateStatus(ctx context.Context, hash, status, reason string, block *uint64) error {
	updates := map[string]interface{}{
		"status":     status,
		"last_error": reason,
		"updated_at": time.Now(),
	}
	if status == model.TxStatusSent {
		updates["sent_at"] = time.Now()
	}
	if block != nil {
		updates["block_number"] = *block
	}
	res := s.db.WithContext(ctx).Model(&model.SignedTransaction{}).Where("hash = ?", hash).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ListStale(ctx context.Context, before time.Time, limit int) ([]model.SignedTransaction, error) {
	var txs []model.SignedTransaction
	err := s.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?", []string{model.TxStatusPending, model.TxStatusSent}, before).
		Order("sender, nonce").Limit(limit).Find(&txs).Error
	return txs, err
}

func (s *GormStore) Requeue(ctx context.Context, hash string, ev *model.OutboxMessage) error {
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		err := db.Model(&model.SignedTransaction{}).Where("hash = ?", hash).Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"updated_at": time.Now(),
		}).Error
		if err != nil {
			return err
		}
		return db.Create(ev).Error
	})
}

func (s *GormStore) PendingMessages(ctx context.Context, limit int) ([]model.OutboxMessage, error) {
	var messages []model.OutboxMessage
	err := s.db.WithContext(ctx).Where("status = ?", model.OutboxPending).Order("id").Limit(limit).Find(&messages).Error
	return messages, err
}

func (s *GormStore) MarkMessageSent(ctx context.Context, id uint64) error {
	return s.db.WithContext(ctx).Model(&model.OutboxMessage{}).Where("id = ?", id).Update("status", model.OutboxSent).Error
}
