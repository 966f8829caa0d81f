package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	DB     DBConfig     `mapstructure:"db"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Kafka  KafkaConfig  `mapstructure:"kafka"`
	Chain  ChainConfig  `mapstructure:"chain"`
	Wallet WalletConfig `mapstructure:"wallet"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	HttpPort string `mapstructure:"http_port"`
}

type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	MQType   string `mapstructure:"mq_type"` // "redis" or "kafka"
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

type ChainConfig struct {
	RpcUrl          string        `mapstructure:"rpc_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	ChainIDCacheTTL time.Duration `mapstructure:"chain_id_cache_ttl"`
	// NonceLock 为 true 时按发送方加 Redis 锁，串行化 填充-签名-落库
	NonceLock    bool          `mapstructure:"nonce_lock"`
	NonceLockTTL time.Duration `mapstructure:"nonce_lock_ttl"`
	// 超过 RebroadcastAfter 仍处于 pending 的交易由定时任务重新投递
	RebroadcastAfter time.Duration `mapstructure:"rebroadcast_after"`
	RebroadcastSpec  string        `mapstructure:"rebroadcast_spec"`
}

type WalletConfig struct {
	KeystorePath   string `mapstructure:"keystore_path"`
	Password       string `mapstructure:"password"` // 通常通过环境变量 WALLET_PASSWORD 传入
	DerivationPath string `mapstructure:"derivation_path"`
}

var Global Config

func Init() {
	v := viper.GetViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := load(v, &Global); err != nil {
		log.Fatalf("Fatal error config file: %s \n", err)
	}
	log.Printf("Configuration loaded successfully. Env: %s", Global.App.Env)
}

// Load reads the yaml file at path (optional) plus environment overrides into a new Config.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	var cfg Config
	if err := load(v, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func load(v *viper.Viper, out *Config) error {
	// 环境变量: chain.rpc_url -> CHAIN_RPC_URL
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		log.Printf("Warning: Config file not found, using defaults and environment variables")
	}
	return v.Unmarshal(out)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.http_port", "8080")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "wallet_user")
	v.SetDefault("db.password", "wallet_password")
	v.SetDefault("db.name", "wallet_db")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.mq_type", "redis")

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "wallet_events_signed_tx")
	v.SetDefault("kafka.group_id", "broadcaster-group")

	v.SetDefault("chain.rpc_url", "http://localhost:8545")
	v.SetDefault("chain.timeout", "10s")
	v.SetDefault("chain.chain_id_cache_ttl", "10m")
	v.SetDefault("chain.nonce_lock", false)
	v.SetDefault("chain.nonce_lock_ttl", "30s")
	v.SetDefault("chain.rebroadcast_after", "5m")
	v.SetDefault("chain.rebroadcast_spec", "@every 1m")

	v.SetDefault("wallet.keystore_path", "wallet.json")
	v.SetDefault("wallet.password", "")
	v.SetDefault("wallet.derivation_path", "m/44'/60'/0'/0/0")
}
