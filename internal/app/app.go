// Package app связывает конфигурацию, зависимости и серверы витрины.
package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/service/cart"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/service/checkout"
	"github.com/vladislavdragonenkov/storefront/internal/service/idempotency"
	"github.com/vladislavdragonenkov/storefront/internal/service/orders"
	"github.com/vladislavdragonenkov/storefront/internal/service/outbox"
	transport "github.com/vladislavdragonenkov/storefront/internal/transport/http"
	"github.com/vladislavdragonenkov/storefront/internal/version"
)

// Run запускает витрину и блокируется до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")
	configureLogLevel(cfg.App.LogLevel, logger)

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	// Kafka опционален: без брокера уведомления копятся в outbox и будут
	// опубликованы после его появления.
	kafkaProducer := initKafkaProducer(cfg.Kafka.Brokers, logger)
	defer closeKafka(kafkaProducer, logger)

	checkoutSvc := checkout.New(deps.Orders, deps.Products, deps.Carts, deps.Addresses,
		logger.WithField("component", "checkout"))
	ordersSvc := orders.New(deps.Orders, logger.WithField("component", "orders"))
	catalogSvc := catalog.New(deps.Products, deps.Categories, deps.Cache, cfg.Cache.TTL,
		logger.WithField("component", "catalog"))
	cartSvc := cart.New(deps.Carts, deps.Products, logger.WithField("component", "cart"))

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	deps.RegisterHealthCheckers(healthHandler)

	auth := transport.NewAuth(cfg.Security.JWTSecret)
	router := transport.NewRouter(transport.Handlers{
		Orders:  transport.NewOrderHandler(checkoutSvc, ordersSvc, deps.Idempotency, logger.WithField("component", "http-orders")),
		Catalog: transport.NewCatalogHandler(catalogSvc),
		Cart:    transport.NewCartHandler(cartSvc),
		Account: transport.NewAccountHandler(deps.Addresses, deps.Users),
	}, auth, healthHandler, logger.WithField("component", "http"))

	var wg sync.WaitGroup

	// Фоновые воркеры.
	if kafkaProducer != nil {
		publisher := kafka.NewOutboxPublisher(kafkaProducer, cfg.Kafka.Topic)
		dlqPublisher := kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicDeadLetterQueue)
		worker := outbox.NewWorker(deps.Outbox, publisher,
			outbox.WithLogger(logger.WithField("component", "outbox-worker")),
			outbox.WithDLQPublisher(dlqPublisher),
			outbox.WithPollInterval(cfg.Outbox.PollInterval),
			outbox.WithBatchSize(cfg.Outbox.BatchSize),
			outbox.WithMaxAttempts(cfg.Outbox.MaxAttempts),
			outbox.WithRetryBaseDelay(cfg.Outbox.RetryBaseDelay),
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Run(ctx)
		}()
	} else {
		logger.Info("kafka is not configured, outbox worker is idle")
	}

	cleanup := idempotency.NewCleanupWorker(deps.Idempotency,
		idempotency.WithLogger(logger.WithField("component", "idempotency-cleanup-worker")),
		idempotency.WithInterval(cfg.Idempotency.CleanupInterval),
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		cleanup.Run(ctx)
	}()

	metricsSrv := startMetricsServer(ctx, cfg.App.MetricsAddr, logger, healthHandler)

	apiSrv := &http.Server{Addr: cfg.App.HTTPAddr, Handler: router}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.App.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		wg.Wait()
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		wg.Wait()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func configureLogLevel(level string, logger *log.Entry) {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		logger.WithField("level", level).Warn("unknown log level, using info")
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez", addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
