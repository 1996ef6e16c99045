package server

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log 是全局可用的 SugaredLogger；未初始化时为 no-op，便于测试与库内调用
var Log = zap.NewNop().Sugar()

// LogOptions 日志输出参数
type LogOptions struct {
	File       string // 日志文件路径，如 "app.log"
	Level      string // debug | info | warn | error，空则 debug
	MaxSizeMB  int    // 单文件上限，<=0 时 10MB
	MaxBackups int
	Stdout     bool // 同时输出到控制台，级别不低于 Info
}

// InitLogger 初始化 zap 日志到本地文件（lumberjack 滚动）
func InitLogger(opts LogOptions) error {
	level := zapcore.DebugLevel
	if opts.Level != "" {
		lv, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return fmt.Errorf("log level: %w", err)
		}
		level = lv
	}
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 10
	}

	rolling := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     7, // days
	}

	encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stack",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.CapitalLevelEncoder,
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
	})
	cores := []zapcore.Core{zapcore.NewCore(encoder, zapcore.AddSync(rolling), level)}
	if opts.Stdout {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), max(level, zapcore.InfoLevel)))
	}

	Log = zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Sugar()
	return nil
}

// SyncLogger 刷出缓冲
func SyncLogger() {
	_ = Log.Sync()
}
