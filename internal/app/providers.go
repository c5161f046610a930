package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/alxtravel/server/internal/domain/payment"

	paymenthttp "github.com/alxtravel/server/internal/adapter/inbound/http/payment"

	"github.com/alxtravel/server/internal/port/outbound"

	"github.com/alxtravel/server/internal/adapter/outbound/gateway"
	"github.com/alxtravel/server/internal/adapter/outbound/memory"
	"github.com/alxtravel/server/internal/adapter/outbound/messaging"
	"github.com/alxtravel/server/internal/adapter/outbound/notification"
	"github.com/alxtravel/server/internal/adapter/outbound/postgres"
	redisadapter "github.com/alxtravel/server/internal/adapter/outbound/redis"

	"github.com/alxtravel/server/internal/infra/events"
	"github.com/alxtravel/server/internal/infra/httpclient"

	"github.com/alxtravel/server/internal/shared/auth"
	"github.com/alxtravel/server/internal/shared/cache"
	"github.com/alxtravel/server/internal/shared/config"
	"github.com/alxtravel/server/internal/shared/database"
	"github.com/alxtravel/server/internal/shared/logger"
	"github.com/alxtravel/server/internal/shared/metrics"
)

// ===== Infrastructure Providers =====

// InfraSet provides infrastructure dependencies.
var InfraSet = wire.NewSet(
	ProvideLogger,
	ProvideDatabase,
	ProvideRedisClient,
	ProvideHTTPClient,
	ProvideMetrics,
	ProvideJWTManager,
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
}

// ProvideDatabase creates a database connection.
func ProvideDatabase(cfg *config.Config) (*gorm.DB, func(), error) {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { _ = database.Close(db) }, nil
}

// ProvideRedisClient creates a Redis client. It returns nil when Redis is not
// configured or unreachable, in which case in-process fallbacks are used.
func ProvideRedisClient(cfg *config.Config, zapLog *zap.Logger) (goredis.UniversalClient, func()) {
	if !cfg.Redis.Enabled() {
		return nil, func() {}
	}
	client, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		zapLog.Warn("Redis connection failed, continuing without it", zap.Error(err))
		return nil, func() {}
	}
	return client, func() { _ = client.Close() }
}

// ProvideHTTPClient creates the shared outbound HTTP client.
func ProvideHTTPClient(cfg *config.Config) *http.Client {
	return httpclient.New(cfg.HTTPClient)
}

// ProvideMetrics creates the metrics collectors on the default registry.
func ProvideMetrics() *metrics.Metrics {
	return metrics.New("alxtravel", prometheus.DefaultRegisterer)
}

// ProvideJWTManager creates the access token manager.
func ProvideJWTManager(cfg *config.Config) *auth.JWTManager {
	return auth.NewJWTManager(auth.JWTConfig{
		Secret:            cfg.Auth.JWTSecret,
		Issuer:            cfg.Auth.Issuer,
		AccessTokenExpiry: cfg.Auth.AccessTokenExpiry,
	})
}

// ===== Outbound Adapter Providers =====

// AdapterSet provides outbound adapters.
var AdapterSet = wire.NewSet(
	postgres.NewPaymentAdapter,
	postgres.NewBookingAdapter,
	ProvideGateway,
	ProvideLocker,
	ProvideRateLimiter,
	ProvideMessageQueue,
	ProvideEmailSender,
	ProvideEventBus,
	wire.Bind(new(outbound.EventPublisherPort), new(*events.Bus)),
	ProvideNotificationDispatcher,
	wire.Bind(new(outbound.NotificationPort), new(*notification.Dispatcher)),
)

// ProvideGateway builds the configured payment gateway wrapped with a
// circuit breaker and call instrumentation.
func ProvideGateway(cfg *config.Config, client *http.Client, m *metrics.Metrics, zapLog *zap.Logger) (outbound.GatewayPort, error) {
	var gw outbound.GatewayPort
	switch cfg.Gateway.Provider {
	case config.ProviderChapa, "":
		gw = gateway.NewChapaGateway(client, gateway.ChapaConfig{
			BaseURL:     cfg.Gateway.Chapa.BaseURL,
			SecretKey:   cfg.Gateway.Chapa.SecretKey,
			CallbackURL: cfg.Gateway.Chapa.CallbackURL,
			ReturnURL:   cfg.Gateway.Chapa.ReturnURL,
			Timeout:     cfg.Gateway.Timeout,
		}, zapLog)
	case config.ProviderStripe:
		gw = gateway.NewStripeGateway(gateway.StripeConfig{
			SecretKey:  cfg.Gateway.Stripe.SecretKey,
			SuccessURL: cfg.Gateway.Stripe.SuccessURL,
			CancelURL:  cfg.Gateway.Stripe.CancelURL,
			Timeout:    cfg.Gateway.Timeout,
			HTTPClient: client,
		}, zapLog)
	default:
		return nil, fmt.Errorf("unknown gateway provider %q", cfg.Gateway.Provider)
	}

	gw = gateway.NewBreakerGateway(gw, gateway.BreakerConfig{
		MaxFailures: cfg.Gateway.Breaker.MaxFailures,
		OpenTimeout: cfg.Gateway.Breaker.OpenTimeout,
		HalfOpenMax: cfg.Gateway.Breaker.HalfOpenMax,
	}, m, zapLog)
	return gateway.NewInstrumentedGateway(gw, m), nil
}

// ProvideLocker returns a Redis locker when Redis is available so that
// initiation is serialised across replicas, and an in-process one otherwise.
func ProvideLocker(redis goredis.UniversalClient, zapLog *zap.Logger) outbound.LockerPort {
	if redis != nil {
		return redisadapter.NewLockerAdapter(redis, zapLog)
	}
	return memory.NewLocker()
}

// ProvideRateLimiter returns a Redis rate limiter, or nil without Redis.
func ProvideRateLimiter(redis goredis.UniversalClient) outbound.RateLimiterPort {
	if redis == nil {
		return nil
	}
	return redisadapter.NewRateLimiterAdapter(redis)
}

// ProvideMessageQueue creates the configured message queue.
func ProvideMessageQueue(cfg *config.Config, redis goredis.UniversalClient, zapLog *zap.Logger) (outbound.MessagePort, func(), error) {
	var queue outbound.MessagePort
	switch cfg.Messaging.Driver {
	case config.DriverMemory, "":
		queue = messaging.NewMemoryQueue(cfg.Messaging.MemoryBuffer, zapLog)
	case config.DriverRedis:
		if redis == nil {
			return nil, nil, fmt.Errorf("messaging driver %q requires redis", config.DriverRedis)
		}
		queue = messaging.NewRedisQueue(redis, zapLog)
	case config.DriverNATS:
		nq, err := messaging.NewNatsQueue(cfg.Messaging.NATS.URL, cfg.Messaging.NATS.QueueGroup, zapLog)
		if err != nil {
			return nil, nil, err
		}
		queue = nq
	case config.DriverKafka:
		queue = messaging.NewKafkaQueue(cfg.Messaging.Kafka.Brokers, cfg.Messaging.Kafka.GroupID, zapLog)
	default:
		return nil, nil, fmt.Errorf("unknown messaging driver %q", cfg.Messaging.Driver)
	}
	return queue, func() { _ = queue.Close() }, nil
}

// ProvideEmailSender sends through SMTP when a host is configured and logs
// emails otherwise.
func ProvideEmailSender(cfg *config.Config, zapLog *zap.Logger) outbound.EmailSenderPort {
	email := cfg.Notification.Email
	if email.Host == "" {
		return notification.NewLogSender(zapLog)
	}
	return notification.NewSMTPSender(notification.SMTPConfig{
		Host:     email.Host,
		Port:     email.Port,
		Username: email.Username,
		Password: email.Password,
		From:     email.From,
	})
}

// ProvideEventBus creates the event bus and forwards payment state changes
// to the state topic.
func ProvideEventBus(cfg *config.Config, queue outbound.MessagePort, zapLog *zap.Logger) *events.Bus {
	bus := events.NewBus(zapLog)
	if cfg.Messaging.StateTopic != "" {
		bus.Register(events.NewStateChangeForwarder(queue, cfg.Messaging.StateTopic))
	}
	return bus
}

// ProvideNotificationDispatcher creates the notification dispatcher.
func ProvideNotificationDispatcher(cfg *config.Config, queue outbound.MessagePort, sender outbound.EmailSenderPort, m *metrics.Metrics, zapLog *zap.Logger) *notification.Dispatcher {
	return notification.NewDispatcher(queue, sender, m, notification.Config{
		Topic:   cfg.Messaging.NotificationTopic,
		Workers: cfg.Notification.Workers,
	}, zapLog)
}

// ===== Domain Providers =====

// DomainSet provides domain services.
var DomainSet = wire.NewSet(
	ProvidePaymentDomain,
	ProvideReconciler,
)

// ProvidePaymentDomain creates the payment domain.
func ProvidePaymentDomain(
	cfg *config.Config,
	paymentDB outbound.PaymentDatabasePort,
	bookings outbound.BookingReaderPort,
	gw outbound.GatewayPort,
	locker outbound.LockerPort,
	notifier outbound.NotificationPort,
	publisher outbound.EventPublisherPort,
	m *metrics.Metrics,
	zapLog *zap.Logger,
) payment.PaymentDomain {
	return payment.NewPaymentDomain(paymentDB, bookings, gw, locker, notifier, publisher, m, payment.Config{
		Currency:      cfg.Gateway.Currency,
		CheckoutTitle: cfg.Payment.CheckoutTitle,
		LockTTL:       cfg.Payment.LockTTL,
	}, zapLog)
}

// ProvideReconciler creates the pending payment reconciler.
func ProvideReconciler(cfg *config.Config, domain payment.PaymentDomain, paymentDB outbound.PaymentDatabasePort, zapLog *zap.Logger) *payment.Reconciler {
	return payment.NewReconciler(domain, paymentDB, payment.ReconcilerConfig{
		Interval:  cfg.Reconcile.Interval,
		MinAge:    cfg.Reconcile.MinAge,
		BatchSize: cfg.Reconcile.BatchSize,
	}, zapLog)
}

// ===== Handler Providers =====

// HandlerSet provides HTTP handlers.
var HandlerSet = wire.NewSet(
	paymenthttp.NewPaymentHandler,
)

// AppSet is the complete provider set.
var AppSet = wire.NewSet(
	InfraSet,
	AdapterSet,
	DomainSet,
	HandlerSet,
)

// Dependencies holds all injected dependencies.
type Dependencies struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	Redis       goredis.UniversalClient
	Metrics     *metrics.Metrics
	JWTManager  *auth.JWTManager
	RateLimiter outbound.RateLimiterPort
	Queue       outbound.MessagePort

	PaymentDomain payment.PaymentDomain
	Reconciler    *payment.Reconciler
	Dispatcher    *notification.Dispatcher

	PaymentHandler *paymenthttp.PaymentHandler
}

// BuildDependencies wires the dependency graph by hand, in the order the
// provider sets declare it.
func BuildDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	fail := func(err error) (*Dependencies, func(), error) {
		cleanup()
		return nil, nil, err
	}

	zapLog, err := ProvideLogger(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	cleanups = append(cleanups, func() { _ = zapLog.Sync() })

	db, dbCleanup, err := ProvideDatabase(cfg)
	if err != nil {
		return fail(fmt.Errorf("init database: %w", err))
	}
	cleanups = append(cleanups, dbCleanup)

	redis, redisCleanup := ProvideRedisClient(cfg, zapLog)
	cleanups = append(cleanups, redisCleanup)

	httpClient := ProvideHTTPClient(cfg)
	m := ProvideMetrics()

	gw, err := ProvideGateway(cfg, httpClient, m, zapLog)
	if err != nil {
		return fail(fmt.Errorf("init gateway: %w", err))
	}

	queue, queueCleanup, err := ProvideMessageQueue(cfg, redis, zapLog)
	if err != nil {
		return fail(fmt.Errorf("init messaging: %w", err))
	}
	cleanups = append(cleanups, queueCleanup)

	bus := ProvideEventBus(cfg, queue, zapLog)
	dispatcher := ProvideNotificationDispatcher(cfg, queue, ProvideEmailSender(cfg, zapLog), m, zapLog)

	paymentDB := postgres.NewPaymentAdapter(db)
	domain := ProvidePaymentDomain(cfg,
		paymentDB,
		postgres.NewBookingAdapter(db),
		gw,
		ProvideLocker(redis, zapLog),
		dispatcher,
		bus,
		m,
		zapLog,
	)

	return &Dependencies{
		Config:         cfg,
		Logger:         zapLog,
		DB:             db,
		Redis:          redis,
		Metrics:        m,
		JWTManager:     ProvideJWTManager(cfg),
		RateLimiter:    ProvideRateLimiter(redis),
		Queue:          queue,
		PaymentDomain:  domain,
		Reconciler:     ProvideReconciler(cfg, domain, paymentDB, zapLog),
		Dispatcher:     dispatcher,
		PaymentHandler: paymenthttp.NewPaymentHandler(domain, zapLog),
	}, cleanup, nil
}

// readinessCheck reports whether the database and, when configured, Redis respond.
func readinessCheck(ctx context.Context, db *gorm.DB, redis goredis.UniversalClient) error {
	if err := database.Ping(ctx, db); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if redis != nil {
		if err := redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}
