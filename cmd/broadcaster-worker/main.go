package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"wallet-tx/internal/service"
	"wallet-tx/internal/service/mq"
	"wallet-tx/pkg/config"
	"wallet-tx/pkg/database"
	"wallet-tx/pkg/ethrpc"
	"wallet-tx/pkg/logger"
)

// 广播服务: 消费已签名交易事件并提交到节点。不持有私钥。
func main() {
	// 1. 初始化配置与日志
	config.Init()
	cfg := config.Global
	logger.Init(cfg.App.Env)
	defer logger.Sync()

	logger.Info("启动广播服务 (Broadcaster Worker)...", zap.String("env", cfg.App.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	// 2. 数据库用于读取与更新交易状态
	db, err := database.ConnectPostgres(database.DSN(cfg.DB), cfg.App.Env)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	rdb, err := database.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("Redis 连接失败", zap.Error(err))
	}
	defer rdb.Close()

	// 3. 节点连接
	node, err := ethrpc.Dial(ctx, cfg.Chain.RpcUrl, cfg.Chain.Timeout)
	if err != nil {
		logger.Fatal("RPC 节点连接失败", zap.Error(err))
	}
	defer node.Close()

	broadcaster := service.NewBroadcaster(service.NewGormStore(db), node)

	// 4. 初始化 MQ Consumer
	var consumer mq.Consumer
	if cfg.Redis.MQType == "kafka" {
		logger.Info("MQ Mode: Kafka Consumer", zap.Strings("brokers", cfg.Kafka.Brokers))
		consumer = mq.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
	} else {
		logger.Info("MQ Mode: Redis Consumer")
		host, _ := os.Hostname()
		consumer = mq.NewRedisConsumer(rdb, cfg.Kafka.GroupID, "broadcaster-"+host)
	}
	defer consumer.Close()

	// 5. 订阅 (阻塞直到收到信号)
	logger.Info("开始监听已签名交易事件", zap.String("topic", cfg.Kafka.Topic))
	if err := consumer.Subscribe(ctx, cfg.Kafka.Topic, broadcaster.HandleMessage); err != nil && ctx.Err() == nil {
		logger.Fatal("订阅失败", zap.Error(err))
	}

	logger.Info("广播服务已停止")
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
