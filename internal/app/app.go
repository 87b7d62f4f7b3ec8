package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/catalog/internal/health"
	"github.com/vladislavdragonenkov/catalog/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/catalog/internal/metrics"
	"github.com/vladislavdragonenkov/catalog/internal/service/idempotency"
	"github.com/vladislavdragonenkov/catalog/internal/service/order"
	"github.com/vladislavdragonenkov/catalog/internal/service/outbox"
	"github.com/vladislavdragonenkov/catalog/internal/service/product"
	transport "github.com/vladislavdragonenkov/catalog/internal/transport/http"
	"github.com/vladislavdragonenkov/catalog/internal/version"
)

// Config описывает настройки запуска приложения.
type Config struct {
	HTTPAddr       string
	MetricsAddr    string
	PostgresDSN    string
	KafkaBrokers   string
	PricePolicy    domain.PricePolicy
	IdempotencyTTL time.Duration
}

// DefaultConfig возвращает базовые адреса API и HTTP-метрик.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:       ":8080",
		MetricsAddr:    ":9090",
		PricePolicy:    domain.PricePolicyPassthrough,
		IdempotencyTTL: 24 * time.Hour,
	}
}

// Run собирает зависимости и держит приложение до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := NewDependencies(ctx, cfg.PostgresDSN, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.WithError(err).Warn("failed to close storage")
		}
	}()

	catalogMetrics := metrics.NewCatalogMetrics()

	productSvc := product.NewService(
		deps.ProductRepo,
		deps.OutboxRepo,
		cfg.PricePolicy,
		catalogMetrics,
		logger.WithField("component", "product-service"),
	)
	orderSvc := order.NewService(
		deps.OrderRepo,
		deps.ProductRepo,
		deps.OutboxRepo,
		catalogMetrics,
		logger.WithField("component", "order-service"),
	)

	// Kafka опционален: без брокеров события копятся в outbox,
	// но воркер публикации не стартует.
	var kafkaProducer *kafka.Producer
	if cfg.KafkaBrokers != "" {
		brokers := strings.Split(cfg.KafkaBrokers, ",")
		producer, err := kafka.NewProducer(brokers)
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		} else {
			kafkaProducer = producer
			logger.WithField("brokers", brokers).Info("kafka producer initialized")
		}
	}

	if kafkaProducer != nil {
		worker := outbox.NewWorker(
			deps.OutboxRepo,
			kafka.NewEventPublisher(kafkaProducer),
			outbox.WithLogger(logger.WithField("component", "outbox-worker")),
			outbox.WithDLQPublisher(kafka.NewDLQPublisher(kafkaProducer, "")),
		)
		go worker.Run(ctx)
	}

	cleanup := idempotency.NewCleanupWorker(
		deps.IdemRepo,
		idempotency.WithLogger(logger.WithField("component", "idempotency-cleanup-worker")),
	)
	go cleanup.Run(ctx)

	healthHandler := healthcheck.NewHandler(version.String())
	if deps.Store != nil {
		healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return deps.Store.Ping(checkCtx)
		}))
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	idemMiddleware := transport.NewIdempotencyMiddleware(
		deps.IdemRepo,
		cfg.IdempotencyTTL,
		logger.WithField("component", "idempotency-middleware"),
	)
	router := transport.NewRouter(
		transport.NewProductHandler(productSvc, logger.WithField("component", "product-handler")),
		transport.NewOrderHandler(orderSvc, logger.WithField("component", "order-handler")),
		idemMiddleware,
	)

	apiSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		closeKafka(kafkaProducer, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		closeKafka(kafkaProducer, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/readyz, %s/livez", addr, addr, addr)
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

func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}
	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
		return
	}
	logger.Info("kafka producer closed")
}
