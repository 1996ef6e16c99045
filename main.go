package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"snakerooms/config"
	"snakerooms/server"
)

// 入口：加载配置，启动 HTTP + WebSocket 服务，并初始化房间管理器
func main() {
	var addr, envFile string
	flag.StringVar(&addr, "addr", "", "server listen address, e.g. :3000 (overrides SNAKE_ADDR)")
	flag.StringVar(&envFile, "env", ".env", "path of the optional .env file")
	flag.Parse()

	cfg, err := config.Load(envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if addr != "" {
		cfg.Addr = addr
	}

	// 使用第三方 zap 日志库写入日志文件（带滚动）
	if err := server.InitLogger(server.LogOptions{
		File:       cfg.LogFile,
		Level:      cfg.LogLevel,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		Stdout:     cfg.LogStdout,
	}); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	codec, err := server.NewCodec(cfg.WireCodec)
	if err != nil {
		server.Log.Fatalf("codec: %v", err)
	}

	rm := server.NewRoomManager(server.RoomConfig{
		Grid:          cfg.Grid(),
		TickInterval:  cfg.TickInterval,
		IdleExpiry:    cfg.IdleExpiry,
		InitialFruits: cfg.InitialFruits,
		Codec:         codec,
		Scheduler:     server.RealScheduler,
	})
	// 可选：预创建一个常驻的默认房间，便于快速试跑
	if cfg.DefaultRoom != "" {
		_ = rm.GetOrCreatePersistentRoom(cfg.DefaultRoom)
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{Addr: cfg.Addr, Handler: server.NewRouter(rm, codec, cfg.StaticDir)}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// .env 变更时热更新 Tick 周期
	go func() {
		err := config.Watch(ctx, envFile, func(next config.Config) {
			server.Log.Infof("config reloaded: tick=%v", next.TickInterval)
			rm.SetTickInterval(next.TickInterval)
		}, func(err error) {
			server.Log.Warnf("config reload: %v", err)
		})
		if err != nil {
			server.Log.Warnf("config watch disabled: %v", err)
		}
	}()

	go func() {
		server.Log.Infof("snake rooms listening on %s; grid %dx%d tick %v codec %s", cfg.Addr, cfg.Grid().Width, cfg.Grid().Height, cfg.TickInterval, codec.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			server.Log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	server.Log.Info("Shutting down...")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		server.Log.Warnf("shutdown: %v", err)
	}
	rm.StopAll()
}
