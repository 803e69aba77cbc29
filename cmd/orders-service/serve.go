package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/jcmexdev/orders-service/internal/coordinator/orderlog/sqlite"
	"github.com/jcmexdev/orders-service/internal/orders-service/app"
	"github.com/jcmexdev/orders-service/internal/orders-service/infra/adapters/brokers"
	"github.com/jcmexdev/orders-service/internal/orders-service/infra/grpcx"
	"github.com/jcmexdev/orders-service/internal/orders-service/infra/httpx"
	"github.com/jcmexdev/orders-service/internal/pkg/cache"
	"github.com/jcmexdev/orders-service/internal/pkg/config"
	"github.com/jcmexdev/orders-service/internal/pkg/events"
	"github.com/jcmexdev/orders-service/internal/pkg/telemetry"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the gRPC health server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	cfg, err := config.Load(brokers.Supported)
	if err != nil {
		return err
	}
	telemetry.InitLogger(telemetry.ParseLogLevel(cfg.LogLevel))

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer := telemetry.ShutdownFunc(telemetry.NoopShutdown)
	if cfg.TracingEnabled {
		shutdownTracer, err = telemetry.SetupTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
		if err != nil {
			return err
		}
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	var store cache.Cache
	if cfg.RedisAddr != "" {
		store = cache.NewRedisCache(cfg.RedisAddr, cfg.ServiceName)
		slog.Info("using redis cache", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
	} else {
		store = cache.NewMemoryCache(cfg.ServiceName)
		slog.Info("using in-memory cache", "ttl", cfg.CacheTTL)
	}

	journal, err := sqlite.Open(cfg.OrderLogPath)
	if err != nil {
		return err
	}
	defer journal.Close()

	publisher := events.Publisher(events.NopPublisher{})
	if cfg.AMQPURL != "" {
		conn, ch, err := events.SetupConn(cfg.AMQPURL)
		if err != nil {
			return err
		}
		defer conn.Close()
		defer ch.Close()
		publisher = events.NewRabbitPublisher(ch)
		slog.Info("publishing order events", "exchange", events.ExchangeName)
	}

	registry := brokers.NewRegistry(gateways(cfg.Gateways))
	for name, gw := range cfg.Gateways {
		slog.Info("broker routed to gateway", "broker", name, "url", gw.URL)
	}

	svc := app.NewOrderService(registry, store, cfg.CacheTTL, journal, publisher)
	router := httpx.NewRouter(
		httpx.NewHandler(svc, "orders-service", version),
		httpx.RouterOptions{AuthEnabled: cfg.AuthEnabled, AuthTokens: cfg.AuthTokens},
	)

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           otelhttp.NewHandler(router, cfg.ServiceName),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.GRPCAddr, err)
	}
	grpcSrv := grpcx.NewServer()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("orders service HTTP running", "addr", cfg.HTTPAddr, "auth", cfg.AuthEnabled)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		slog.Info("orders service gRPC health running", "addr", cfg.GRPCAddr)
		if err := grpcSrv.Serve(lis); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		grpcSrv.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func gateways(in map[string]config.Gateway) map[string]brokers.Gateway {
	out := make(map[string]brokers.Gateway, len(in))
	for name, gw := range in {
		out[name] = brokers.Gateway{
			URL:       gw.URL,
			Token:     gw.Token,
			ReadRate:  gw.ReadRate,
			WriteRate: gw.WriteRate,
		}
	}
	return out
}
