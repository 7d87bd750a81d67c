// cmd/reward-api/main.go
package main

import (
	"context"
	stderrors "errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"reward-management-api/internal/api"
	"reward-management-api/internal/common/camunda"
	"reward-management-api/internal/common/config"
	commonhttp "reward-management-api/internal/common/http"
	"reward-management-api/internal/common/logger"
	"reward-management-api/internal/common/loyalty"
	"reward-management-api/internal/common/observability"
	"reward-management-api/internal/common/vendor"
	selectreward "reward-management-api/internal/workers/rewards/select-reward"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting reward management api",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New(cfg.App.Name, prometheus.DefaultRegisterer)
	defer obs.Shutdown()

	lookup, err := loyalty.NewClient(loyalty.Config{
		BaseURL:      cfg.Loyalty.BaseURL,
		Timeout:      config.GetDuration(cfg.Loyalty.Timeout),
		MaxAttempts:  cfg.Loyalty.MaxAttempts,
		RetryBackoff: config.GetDuration(cfg.Loyalty.RetryBackoff),
	}, outboundClient(cfg.Loyalty.Timeout, cfg.Loyalty.OAuth), log)
	if err != nil {
		zapLog.Fatal("loyalty client init failed", zap.Error(err))
	}

	submitter, err := vendor.NewClient(vendor.Config{
		BaseURL: cfg.Vendor.BaseURL,
		Timeout: config.GetDuration(cfg.Vendor.Timeout),
	}, outboundClient(cfg.Vendor.Timeout, cfg.Vendor.OAuth), log)
	if err != nil {
		zapLog.Fatal("vendor client init failed", zap.Error(err))
	}

	workerConfig := selectreward.ConfigFromAppConfig(cfg, nil)
	svc, err := selectreward.NewService(selectreward.ServiceDependencies{
		Logger:        log,
		Lookup:        lookup,
		Submitter:     submitter,
		Observability: obs,
	}, workerConfig)
	if err != nil {
		zapLog.Fatal("pipeline init failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Optional Zeebe job worker ---
	if cfg.Camunda.Enabled {
		zeebe, err := camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer zeebe.Close()

		handler, err := selectreward.NewHandler(selectreward.HandlerOptions{
			AppConfig:     cfg,
			Camunda:       zeebe,
			CustomConfig:  workerConfig,
			Logger:        log,
			Pipeline:      svc,
			Observability: obs,
		})
		if err != nil {
			zapLog.Fatal("worker init failed", zap.Error(err))
		}
		if err := handler.Register(); err != nil {
			zapLog.Fatal("worker registration failed", zap.Error(err))
		}
		defer handler.Close()
		zapLog.Info("Job worker registered", zap.String("taskType", handler.GetTaskType()))
	}

	// --- HTTP server ---
	router := api.NewRouter(
		api.NewHandler(svc, log, obs, config.GetDuration(cfg.Server.RequestTimeout)),
		api.RouterOptions{
			Logger:         log,
			RateLimitRPS:   cfg.Server.RateLimitRPS,
			RateLimitBurst: cfg.Server.RateLimitBurst,
		},
	)
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zapLog.Info("Shutdown signal received, draining requests...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zapLog.Error("Server stopped with error", zap.Error(err))
		return
	}
	zapLog.Info("Reward management api stopped gracefully")
}

func outboundClient(timeoutMs int, oauth config.OAuthConfig) *commonhttp.Client {
	opts := commonhttp.Options{Timeout: config.GetDuration(timeoutMs)}
	if oauth.Enabled() {
		opts.OAuth = &commonhttp.OAuthCredentials{
			ClientID:     oauth.ClientID,
			ClientSecret: oauth.ClientSecret,
			TokenURL:     oauth.TokenURL,
			Scopes:       oauth.Scopes,
		}
	}
	return commonhttp.NewClientWithOptions(opts)
}
