package main

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"wallet-tx/internal/handler"
	"wallet-tx/internal/server"
	"wallet-tx/internal/service"
	"wallet-tx/internal/service/mq"
	"wallet-tx/pkg/cache"
	"wallet-tx/pkg/config"
	"wallet-tx/pkg/database"
	"wallet-tx/pkg/ethrpc"
	"wallet-tx/pkg/filler"
	"wallet-tx/pkg/lock"
	"wallet-tx/pkg/logger"
	"wallet-tx/pkg/signer"
	"wallet-tx/pkg/validator"

	_ "wallet-tx/docs/swagger"
)

// @title Wallet Tx API
// @version 1.0
// @description Ethereum transaction encode / decode / prepare / sign / submit
// @host localhost:8080
// @BasePath /api/v1
func main() {
	// 0. 初始化 Config / Validator / Logger
	config.Init()
	cfg := config.Global
	validator.Init()
	logger.Init(cfg.App.Env)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. 连接数据库与 Redis
	db, err := database.ConnectPostgres(database.DSN(cfg.DB), cfg.App.Env)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	rdb, err := database.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("Redis 连接失败", zap.Error(err))
	}

	// 2. 连接节点
	node, err := ethrpc.Dial(ctx, cfg.Chain.RpcUrl, cfg.Chain.Timeout)
	if err != nil {
		logger.Fatal("RPC 节点连接失败", zap.Error(err))
	}

	// 3. 字段补全器，chainId 走 L1 内存 + L2 Redis 缓存
	chainCache := cache.NewMultiLevelCache(
		cache.NewMemoryCache(time.Minute, 5*time.Minute),
		cache.NewRedisCache(rdb, "wallet-tx:"),
	)
	f := filler.New(node, filler.WithChainIDCache(chainCache, "chain_id:"+cfg.Chain.RpcUrl, cfg.Chain.ChainIDCacheTTL))

	// 4. 交易服务
	store := service.NewGormStore(db)
	locker := lock.NewRedisLock(rdb)
	opts := []service.TxOption{
		service.WithTimeout(cfg.Chain.Timeout),
		service.WithTopic(cfg.Kafka.Topic),
	}
	if s := loadSigner(cfg.Wallet); s != nil {
		opts = append(opts, service.WithSigner(s))
	}
	if cfg.Chain.NonceLock {
		opts = append(opts, service.WithNonceLock(locker, cfg.Chain.NonceLockTTL))
	}
	txService := service.NewTxService(f, store, opts...)

	// 5. 消息中继: outbox -> MQ
	var producer mq.Producer
	if cfg.Redis.MQType == "kafka" {
		logger.Info("使用 Kafka 作为消息队列...", zap.Strings("brokers", cfg.Kafka.Brokers))
		producer = mq.NewKafkaProducer(cfg.Kafka.Brokers)
	} else {
		logger.Info("使用 Redis Streams 作为消息队列...")
		producer = mq.NewRedisProducer(rdb)
	}
	go service.NewRelayService(store, producer).Start(ctx)

	// 6. 重新投递 / 回执检查定时任务
	job := service.NewRebroadcastJob(store, node, locker, cfg.Chain.RebroadcastSpec, cfg.Chain.RebroadcastAfter).
		WithTopic(cfg.Kafka.Topic)
	if err := job.Start(); err != nil {
		logger.Fatal("定时任务启动失败", zap.Error(err))
	}

	// 7. HTTP
	r := server.NewHTTPRouter(handler.NewTxHandler(txService))
	app := server.New(server.Config{HttpPort: cfg.App.HttpPort}, r)
	app.OnShutdown(func() {
		logger.Info("正在关闭数据库连接...")
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		_ = rdb.Close()
	})
	app.OnShutdown(node.Close)
	app.OnShutdown(func() { _ = producer.Close() })
	app.OnShutdown(job.Stop)
	app.OnShutdown(cancel)

	// 运行 (阻塞)
	app.Run()
	logger.Info("系统已退出")
}

// loadSigner 从加密 Keystore 加载签名账户；未配置时 sign 接口不可用
func loadSigner(w config.WalletConfig) *signer.KeySigner {
	if _, err := os.Stat(w.KeystorePath); err != nil {
		logger.Warn("未找到 Keystore 文件，服务端签名已禁用", zap.String("path", w.KeystorePath))
		return nil
	}
	if w.Password == "" {
		logger.Fatal("加载 Keystore 失败: 未提供密码 (环境变量 WALLET_PASSWORD)")
	}
	s, err := signer.NewKeystoreSigner(w.KeystorePath, w.Password, w.DerivationPath)
	if err != nil {
		logger.Fatal("解密 Keystore 失败: 密码错误或文件损坏", zap.Error(err))
	}
	logger.Info("✅ 签名账户已加载", zap.String("address", s.Address().Hex()))
	return s
}
