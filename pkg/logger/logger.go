package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Log 全局 logger，Init 之前为 Nop，库代码可以安全调用
	Log = zap.NewNop()

	// Level 可在运行时调整，例如排查节点问题时临时打开 debug
	Level = zap.NewAtomicLevelAt(zap.InfoLevel)
)

// Init builds the global logger: JSON with ISO8601 timestamps in production, colour console
// otherwise. LOG_LEVEL (debug, info, warn, error) overrides the default level.
func Init(env string) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		Level.SetLevel(zap.InfoLevel)
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		Level.SetLevel(zap.DebugLevel)
	}
	if s := os.Getenv("LOG_LEVEL"); s != "" {
		if lvl, err := zapcore.ParseLevel(s); err == nil {
			Level.SetLevel(lvl)
		}
	}
	cfg.Level = Level

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	Log = l
	zap.ReplaceGlobals(Log)
}

// Sync flushes any buffered log entries
func Sync() {
	_ = Log.Sync()
}

// Named returns a child logger without the wrapper caller skip, for components
// that keep their own *zap.Logger.
func Named(name string) *zap.Logger {
	return Log.WithOptions(zap.AddCallerSkip(-1)).Named(name)
}

func Debug(msg string, fields ...zap.Field) { Log.Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { Log.Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { Log.Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { Log.Error(msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { Log.Fatal(msg, fields...) }
