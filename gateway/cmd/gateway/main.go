package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/mosgim/platform/gateway/internal/config"
	"github.com/mosgim/platform/gateway/internal/httpserver"
	"github.com/mosgim/platform/gateway/internal/proxy"
	"github.com/mosgim/platform/gateway/internal/tasks"
	"github.com/mosgim/platform/pkg/authclient"
	"github.com/mosgim/platform/pkg/logging"
	"github.com/mosgim/platform/pkg/middleware/auth"
	"github.com/mosgim/platform/pkg/registry"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("gateway: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
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

	deps := &httpserver.Deps{
		Logger:    logger,
		Forwarder: proxy.NewClient(cfg.Timeout.Std()),
		MosgimURL: cfg.MosgimURL,
		UploadURL: cfg.UploadURL,
		Guard:     auth.NewBearer(authclient.NewClient(cfg.UserServiceURL)).RequireToken,
		Uploads:   &httpserver.UploadHTTP{},
		RateLimit: cfg.RateLimit,
	}

	if cfg.RedisAddr != "" {
		queue := tasks.NewQueue(cfg.RedisAddr)
		defer queue.Close()
		deps.Uploads.Queue = queue

		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Warn("redis_close_failed", "error", err)
			}
		}()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis_ping_failed", "addr", cfg.RedisAddr, "error", err)
		}
		deps.Ready = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	e := echo.New()
	e.HideBanner = true
	if err := httpserver.Register(e, deps); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           e,
		ReadTimeout:       cfg.ReadTimeout(),
		WriteTimeout:      cfg.WriteTimeout(),
		ReadHeaderTimeout: 3 * time.Second,
	}

	if !cfg.Test && cfg.ConsulHost != "" {
		reg, err := registry.New(cfg.ConsulHost, cfg.ConsulPort, cfg.ConsulToken)
		if err != nil {
			return err
		}
		id := fmt.Sprintf("%s-%s-%d", cfg.ServiceName, cfg.ServiceAddress, cfg.ServicePort)
		if err := reg.Register(registry.Registration{
			ID:        id,
			Name:      cfg.ServiceName,
			Address:   cfg.ServiceAddress,
			Port:      cfg.ServicePort,
			HealthURL: fmt.Sprintf("http://%s:%d/health", cfg.ServiceAddress, cfg.ServicePort),
			Interval:  10 * time.Second,
			Timeout:   time.Second,
		}); err != nil {
			return err
		}
		defer func() {
			if err := reg.Deregister(id); err != nil {
				logger.Warn("consul_deregister_failed", "id", id, "error", err)
			}
		}()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http_listen", "addr", srv.Addr, "mosgim", cfg.MosgimURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
