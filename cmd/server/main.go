package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/d60-Lab/hydration/config"
	"github.com/d60-Lab/hydration/internal/api/handler"
	"github.com/d60-Lab/hydration/internal/api/router"
	"github.com/d60-Lab/hydration/internal/repository"
	"github.com/d60-Lab/hydration/internal/service"
	"github.com/d60-Lab/hydration/pkg/database"
	"github.com/d60-Lab/hydration/pkg/logger"
	"github.com/d60-Lab/hydration/pkg/monitor"
	"github.com/d60-Lab/hydration/pkg/tracing"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var configPath string
	flagSet := pflag.NewFlagSet("server", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to config.yaml (default: ./config.yaml or ./config/config.yaml)")
	flagSet.Int("port", 8080, "listen port (overrides server.port)")
	flagSet.String("redis-addr", "localhost:6379", "redis address (overrides redis.addr)")
	flagSet.String("log-level", "info", "log level: debug, info, warn, error")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	v := viper.New()
	for key, flag := range map[string]string{
		"server.port": "port",
		"redis.addr":  "redis-addr",
		"log.level":   "log-level",
	} {
		if err := v.BindPFlag(key, flagSet.Lookup(flag)); err != nil {
			return err
		}
	}
	cfg, err := config.LoadFrom(v, configPath)
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	flush, err := monitor.Init(monitor.Options{
		DSN:         cfg.Sentry.DSN,
		Environment: cfg.Sentry.Environment,
		SampleRate:  cfg.Sentry.SampleRate,
	})
	if err != nil {
		logger.Warn("sentry disabled", zap.Error(err))
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, tracing.Options{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		ServiceName: cfg.Tracing.ServiceName,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	rdb, err := database.InitRedis(cfg)
	if err != nil {
		return err
	}
	defer rdb.Close()

	postRepo := repository.NewPostRepository(rdb, cfg.Redis.KeyPrefix)
	postSvc := service.NewPostService(postRepo, service.Options{
		MaxCount:       cfg.API.MaxCount,
		MaxConcurrency: cfg.Service.MaxConcurrency,
	})
	h := handler.NewHandler(postSvc, handler.Options{
		DefaultCount: cfg.API.DefaultCount,
		HelpFile:     cfg.API.HelpFile,
		Ping:         func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	})

	gin.SetMode(cfg.Server.Mode)
	routerOpts := router.Options{Gzip: cfg.API.Gzip, Swagger: cfg.API.Swagger}
	if cfg.Tracing.Enabled {
		routerOpts.ServiceName = cfg.Tracing.ServiceName
	}
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Setup(h, routerOpts),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("started", zap.Int("port", cfg.Server.Port), zap.String("redis", cfg.Redis.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}
