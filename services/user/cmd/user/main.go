package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/mosgim/platform/pkg/db"
	"github.com/mosgim/platform/pkg/events"
	"github.com/mosgim/platform/pkg/logging"
	loggingmw "github.com/mosgim/platform/pkg/middleware/logging"
	"github.com/mosgim/platform/pkg/registry"
	"github.com/mosgim/platform/pkg/tokens"
	"github.com/mosgim/platform/services/user/internal/config"
	"github.com/mosgim/platform/services/user/internal/httpserver"
	"github.com/mosgim/platform/services/user/internal/repo"
	"github.com/mosgim/platform/services/user/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("user service: %v", err)
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db init: %w", err)
	}
	defer db.Close(gdb)

	r := repo.New(gdb)
	if err := r.Migrate(initCtx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	var pub events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		producer := events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		pub = producer
	}

	issuer := tokens.NewIssuer([]byte(cfg.JWTSecret))
	issuer.TTL = cfg.TokenTTL
	svc := service.New(r, issuer, pub)
	if err := svc.EnsureDefaultRoles(logging.IntoContext(initCtx, logger)); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		Users:    &httpserver.UserHTTP{Svc: svc},
		Roles:    &httpserver.RoleHTTP{Svc: svc},
		Services: &httpserver.ServiceHTTP{Svc: svc},
		Ready: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
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
		logger.Info("consul_registered", "id", id)
		defer func() {
			if err := reg.Deregister(id); err != nil {
				logger.Warn("consul_deregister_failed", "id", id, "error", err)
			}
		}()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http_listen", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("http_shutdown")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
