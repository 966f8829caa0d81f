package mq

import (
	"context"
	"time"

	"go.uber.org/zap"

	"wallet-tx/pkg/logger"
)

// 单条消息的最大处理次数，超过后确认并丢弃（由补偿任务兜底）
const maxAttempts = 3

var retryBackoff = 500 * time.Millisecond

// handleWithRetry 调用 handler，失败时按线性退避重试。返回最后一次的错误。
func handleWithRetry(ctx context.Context, handler Handler, msg *Message) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = handler(ctx, msg); err == nil {
			return nil
		}
		logger.Warn("[MQ] 消息处理失败",
			zap.String("topic", msg.Topic),
			zap.String("id", msg.ID),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
	return err
}
