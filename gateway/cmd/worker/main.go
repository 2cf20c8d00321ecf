package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/mosgim/platform/gateway/internal/config"
	"github.com/mosgim/platform/gateway/internal/proxy"
	"github.com/mosgim/platform/gateway/internal/tasks"
	"github.com/mosgim/platform/pkg/logging"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("upload worker: %v", err)
	}
}

func run() error {
	cfg, err := config.LoadWorker()
	if err != nil {
		return err
	}

	logger, flush, err := logging.Setup(cfg.LogLevel, logging.ElasticConfig{
		URL:      cfg.ESURL,
		Username: cfg.ESUser,
		Password: cfg.ESPassword,
		Index:    cfg.ESLogIndex,
	})
	if err != nil {
		return err
	}
	defer flush()
	logger = logger.With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler := &tasks.UploadHandler{
		Forwarder: proxy.NewClient(cfg.Timeout.Std()),
		URL:       strings.TrimRight(cfg.UploadURL, "/") + "/uploadfile",
	}
	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      map[string]int{tasks.QueueDefault: 1},
		BaseContext: func() context.Context { return logging.IntoContext(context.Background(), logger) },
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("worker_started", "redis", cfg.RedisAddr)
		errCh <- srv.Run(tasks.NewServeMux(handler))
	}()

	select {
	case <-ctx.Done():
		srv.Shutdown()
		return nil
	case err := <-errCh:
		return err
	}
}
