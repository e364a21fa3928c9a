package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"thrustarena/server"
)

var CLI struct {
	Config  string `help:"Path to a YAML configuration file."`
	Addr    string `help:"Server listen address, e.g. :8080 (overrides config)."`
	LogFile string `help:"Log file path (overrides config)." name:"log-file"`
}

// ThrustArena 入口：启动 HTTP + WebSocket 服务
func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("thrustarena"),
		kong.Description("an authoritative real-time multiplayer state server"),
		kong.UsageOnError(),
	)

	cfg, err := server.LoadConfig(CLI.Config)
	kctx.FatalIfErrorf(err)
	if CLI.Addr != "" {
		cfg.Listen = CLI.Addr
	}
	if CLI.LogFile != "" {
		cfg.Log.File = CLI.LogFile
	}

	// 使用 zap 日志库写入文件（带滚动）
	kctx.FatalIfErrorf(server.InitLogger(cfg.Log))
	defer server.SyncLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	arena := server.NewArena(ctx, cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", arena.HandleWS)
	// 管理与监控接口
	mux.HandleFunc("/admin/config", arena.HandleAdminConfig)
	mux.HandleFunc("/metrics", arena.HandleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: cfg.Listen, Handler: mux}

	go func() {
		server.Log.Infof("ThrustArena listening on %s", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			server.Log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）
	<-ctx.Done()
	server.Log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	arena.Close()
}
