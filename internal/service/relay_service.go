package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"wallet-tx/internal/service/mq"
	"wallet-tx/pkg/logger"
)

// RelayService 负责将本地消息表的消息搬运到 MQ
type RelayService struct {
	store    Store
	producer mq.Producer
	interval time.Duration
	batch    int
}

func NewRelayService(store Store, producer mq.Producer) *RelayService {
	return &RelayService{
		store:    store,
		producer: producer,
		interval: 500 * time.Millisecond, // 500ms 轮询一次
		batch:    50,                     // 每次取 50 条，避免内存爆炸
	}
}

func (s *RelayService) Start(ctx context.Context) {
	logger.Info("[Relay] 启动消息中继服务...")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("[Relay] 停止服务")
			return
		case <-ticker.C:
			s.processPendingMessages(ctx)
		}
	}
}

// processPendingMessages 返回本轮成功投递的条数
func (s *RelayService) processPendingMessages(ctx context.Context) int {
	// 1. 获取一批 Pending 消息
	messages, err := s.store.PendingMessages(ctx, s.batch)
	if err != nil {
		logger.Warn("[Relay] 查询消息失败", zap.Error(err))
		return 0
	}
	if len(messages) == 0 {
		return 0
	}

	sent := 0
	for _, msg := range messages {
		// 2. 发送 MQ，Key 为发送方地址
		if err := s.producer.Publish(ctx, msg.Topic, msg.Key, msg.Payload); err != nil {
			logger.Warn("[Relay] 发送消息失败", zap.Uint64("id", msg.ID), zap.Error(err))
			// 同一发送方的后续消息不能越过失败的这一条
			break
		}

		// 3. 更新状态为 SENT
		// 只有发送成功了才更新状态 => At-least-once，Consumer 需做好幂等
		if err := s.store.MarkMessageSent(ctx, msg.ID); err != nil {
			logger.Warn("[Relay] 更新状态失败", zap.Uint64("id", msg.ID), zap.Error(err))
			continue
		}
		sent++
	}
	logger.Debug("[Relay] 消息已投递", zap.Int("count", sent))
	return sent
}
