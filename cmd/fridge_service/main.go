// Package main runs the fridge inventory service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "net/http/pprof"
	_ "time/tzdata"

	"github.com/abgdnv/fridgekeeper/internal/app"
	"github.com/abgdnv/fridgekeeper/internal/config"
	"github.com/abgdnv/fridgekeeper/internal/notification"
	"github.com/abgdnv/fridgekeeper/internal/store"
	"github.com/abgdnv/fridgekeeper/pkg/bootstrap"
	pkgconfig "github.com/abgdnv/fridgekeeper/pkg/config"
	"github.com/abgdnv/fridgekeeper/pkg/config/configloader"
	"github.com/abgdnv/fridgekeeper/pkg/messaging"
	pnats "github.com/abgdnv/fridgekeeper/pkg/nats"
	"github.com/abgdnv/fridgekeeper/pkg/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run loads the configuration, opens the connections and runs the HTTP, gRPC and pprof servers
// and the notification subscriber until ctx is cancelled.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.Config](app.ServiceName)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, app.ServiceName, cfg.Telemetry)
	if err != nil {
		logger.Error("error creating tracer provider", slog.Any("error", err))
		return err
	}
	defer shutdownWithTimeout(logger, "tracer provider", cfg.Shutdown.Timeout, tracerProvider.Shutdown)

	meterProvider, metricsHandler, err := telemetry.NewMeterProvider(app.ServiceName, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer shutdownWithTimeout(logger, "meter provider", cfg.Shutdown.Timeout, meterProvider.Shutdown)

	dbPool, err := bootstrap.NewDbPool(ctx, cfg.Database.URL, cfg.Database.Timeout)
	if err != nil {
		return fmt.Errorf("failed to create database connection pool: %w", err)
	}
	defer dbPool.Close()
	logger.Info("Successfully connected to the database!")

	if cfg.Database.Migrate {
		if err := bootstrap.Migrate(store.Migrations, store.MigrationsDir, cfg.Database.URL); err != nil {
			return err
		}
		logger.Info("Database migrations applied")
	}

	infra := app.Infrastructure{Store: store.NewPgStore(dbPool)}

	if cfg.Cache.Enabled {
		rdb, err := bootstrap.NewRedisClient(ctx, cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB, cfg.Cache.Timeout)
		if err != nil {
			return err
		}
		defer func() {
			_ = rdb.Close()
		}()
		infra.Redis = rdb
		logger.Info("Food API cache enabled", slog.String("addr", cfg.Cache.Addr))
	}

	if cfg.Nats.Enabled {
		natsConn, err := pnats.NewClient(cfg.Nats.Url, cfg.Nats.Timeout)
		if err != nil {
			return err
		}
		defer natsConn.Close()
		js, err := pnats.NewJetStreamContext(natsConn)
		if err != nil {
			return err
		}
		stream := messaging.ProductsStream
		if cfg.Notification.Sink == pkgconfig.NotificationSinkNATS {
			stream = cfg.Notification.Subscriber.Stream
		}
		if _, err := pnats.EnsureStream(ctx, js, stream, messaging.ProductsExpiringSubject); err != nil {
			return err
		}
		infra.JetStream = js
	}

	deps, err := app.SetupDependencies(cfg, infra, metricsHandler, logger)
	if err != nil {
		return fmt.Errorf("failed to set up dependencies: %w", err)
	}
	httpServer := app.SetupHttpServer(deps, cfg)
	grpcServer, healthServer := app.SetupGrpcServer(deps, cfg.GRPC.ReflectionEnabled)

	g, gCtx := errgroup.WithContext(ctx)

	// Start the HTTP server
	g.Go(func() error {
		logger.Info("HTTP server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	// Start the gRPC server
	g.Go(func() error {
		grpcAddr := ":" + cfg.GRPC.Port
		lis, err := net.Listen("tcp", grpcAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on gRPC port: %w", err)
		}
		logger.Info("gRPC server listening", slog.String("addr", grpcAddr))
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down gRPC server...")
		healthServer.Shutdown()
		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
			logger.Info("gRPC server stopped gracefully.")
			return nil
		case <-time.After(cfg.Shutdown.Timeout):
			logger.Warn("gRPC server graceful stop timed out. Forcing stop.")
			grpcServer.Stop()
			return fmt.Errorf("grpc server graceful stop timed out")
		}
	})

	// Deliver published expiring-product events to the log
	if cfg.Notification.Sink == pkgconfig.NotificationSinkNATS {
		g.Go(func() error {
			logger.Info("NATS subscriber started")
			err := notification.Start(gCtx, infra.JetStream, cfg.Notification.Subscriber, notification.NewLogNotifier(logger), logger)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("subscriber failed", "error", err)
				return err
			}
			logger.Info("subscriber stopped gracefully.")
			return nil
		})
	}

	// Start the pprof server if enabled
	if cfg.PProf.Enabled {
		pprofServer := &http.Server{
			Addr:              cfg.PProf.Addr,
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("Pprof server listening", slog.String("addr", pprofServer.Addr))
			if err := pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("pprof server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down pprof server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			return pprofServer.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}

// shutdownWithTimeout flushes a telemetry provider on exit.
func shutdownWithTimeout(logger *slog.Logger, name string, timeout time.Duration, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logger.Error("failed to shut down "+name, slog.Any("error", err))
	}
}
