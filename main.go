package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcatalog "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/catalog"
	appinventory "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/inventory"
	apporder "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/order"
	apppayment "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/config"
	domcustomer "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/customer"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	dompay "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/kafka"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/memory"
	infraobs "github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability/telemetry"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability/zaplogger"
	orderworker "github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/order/worker"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/postgres"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/rediscache"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/minishop-fulfillment/internal/presentation/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// repositories is the store selected by store.driver.
type repositories struct {
	products  dominv.Repository
	customers domcustomer.Repository
	orders    domorder.Repository
	payments  dompay.Repository
	close     func()
}

func main() {
	cfg, err := config.Load(getenvDefault("MINISHOP_CONFIG_DIR", "configs"), getenvDefault("MINISHOP_ENV", ""))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	baseLogger := logging.MustNewLogger(logging.Options{
		Service: cfg.App.Name,
		Env:     cfg.App.Env,
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
	})
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)
	systemLogger := logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID)

	if err := run(cfg, baseLogger, systemLogger); err != nil {
		systemLogger.Error("minishop_exit", zap.Error(err))
		_ = baseLogger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, baseLogger, systemLogger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Env,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			systemLogger.Warn("tracer_shutdown_error", zap.Error(err))
		}
	}()

	counters, histograms := prometrics.Instruments(prometrics.New("", "", prometheus.DefaultRegisterer))
	tel := infraobs.New(oteltrace.New(cfg.App.Name), zaplogger.New(baseLogger), counters, histograms)

	repos, err := openStore(ctx, cfg, systemLogger)
	if err != nil {
		return err
	}
	defer repos.close()

	bus := outbox.NewBus(tel.Logger(),
		outbox.WithQueueSize(cfg.Events.QueueSize),
		outbox.WithConcurrency(cfg.Events.Concurrency),
		outbox.WithHandlerTimeout(cfg.Events.HandlerTimeout),
	)

	var orderCache apporder.Cache
	if cfg.Redis.Addr != "" {
		rdb, err := rediscache.NewClient(ctx, rediscache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		cache := rediscache.NewOrderCache(rdb, cfg.Redis.OrderTTL)
		orderworker.NewCacheWorker(cache, bus, tel.Logger()).Start()
		orderCache = cache
		systemLogger.Info("order_cache_enabled", zap.String("addr", cfg.Redis.Addr))
	}

	if len(cfg.Kafka.Brokers) > 0 {
		relay := kafka.NewRelay(kafka.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), cfg.App.Name, tel)
		relay.Start(bus,
			domorder.CreatedEvent{}.EventName(),
			domorder.StatusChangedEvent{}.EventName(),
			dompay.RecordedEvent{}.EventName(),
		)
		defer func() {
			if err := relay.Close(); err != nil {
				systemLogger.Warn("kafka_relay_close_error", zap.Error(err))
			}
		}()
		systemLogger.Info("kafka_relay_enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	bus.Start(ctx)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		bus.Stop(sctx)
	}()

	ids := id.NewUUIDGenerator()
	ledger := appinventory.NewLedger(repos.products, tel)
	handler := httppresentation.NewHandler(httppresentation.Services{
		CreateOrder: apporder.NewCreateOrderUseCase(repos.orders, repos.customers, ledger, ids, bus, tel,
			apporder.WithCompensationTimeout(cfg.Order.CompensationTimeout)),
		TransitionStatus: apporder.NewTransitionStatusUseCase(repos.orders, bus, tel,
			apporder.WithTransitionCache(orderCache)),
		Orders: apporder.NewQueryService(repos.orders, orderCache, tel),
		Pay: apppayment.NewPayUseCase(repos.orders, repos.payments, ids, bus, tel,
			apppayment.WithOrderCache(orderCache)),
		Payments: apppayment.NewQueryService(repos.payments, tel),
		Catalog:  appcatalog.NewService(repos.products, repos.customers, repos.orders, ids, tel),
	}, tel, cfg.HTTP.RequestTimeout)

	root := chi.NewRouter()
	root.Handle("/metrics", promhttp.Handler())
	root.Mount("/", handler.Router())

	server := &http.Server{
		Addr:         cfg.App.HTTPAddr,
		Handler:      root,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		systemLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
			zap.String("store", cfg.Store.Driver),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error", zap.Error(err))
		return err
	}
	systemLogger.Info("http_server_stopped")
	return nil
}

func openStore(ctx context.Context, cfg config.Config, systemLogger *zap.Logger) (repositories, error) {
	switch cfg.Store.Driver {
	case config.StorePostgres:
		pool, err := postgres.Connect(ctx, postgres.Options{
			DSN:      cfg.Postgres.DSN,
			MaxConns: cfg.Postgres.MaxConns,
			MinConns: cfg.Postgres.MinConns,
		})
		if err != nil {
			return repositories{}, err
		}
		if cfg.Postgres.Migrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				pool.Close()
				return repositories{}, err
			}
		}
		s := postgres.NewStore(pool)
		systemLogger.Info("store_ready", zap.String("driver", config.StorePostgres))
		return repositories{
			products:  s.Products,
			customers: s.Customers,
			orders:    s.Orders,
			payments:  s.Payments,
			close:     pool.Close,
		}, nil
	default:
		s := memory.NewStore()
		systemLogger.Info("store_ready", zap.String("driver", config.StoreMemory))
		return repositories{
			products:  s.Products,
			customers: s.Customers,
			orders:    s.Orders,
			payments:  s.Payments,
			close:     func() {},
		}, nil
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
