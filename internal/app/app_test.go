package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	paymenthttp "github.com/alxtravel/server/internal/adapter/inbound/http/payment"
	"github.com/alxtravel/server/internal/adapter/outbound/memory"
	"github.com/alxtravel/server/internal/adapter/outbound/messaging"
	"github.com/alxtravel/server/internal/adapter/outbound/notification"
	"github.com/alxtravel/server/internal/adapter/outbound/postgres"
	"github.com/alxtravel/server/internal/domain/payment"
	"github.com/alxtravel/server/internal/infra/events"
	"github.com/alxtravel/server/internal/model"
	"github.com/alxtravel/server/internal/shared/config"
	"github.com/alxtravel/server/internal/shared/database"
	"github.com/alxtravel/server/internal/shared/metrics"
)

func newTestMetrics() *metrics.Metrics {
	return metrics.New("test", prometheus.NewRegistry())
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func TestProvideGateway(t *testing.T) {
	tests := []struct {
		provider string
		wantName string
		wantErr  bool
	}{
		{provider: "", wantName: "chapa"},
		{provider: config.ProviderChapa, wantName: "chapa"},
		{provider: config.ProviderStripe, wantName: "stripe"},
		{provider: "paypal", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.Gateway.Provider = tt.provider

			gw, err := ProvideGateway(cfg, http.DefaultClient, newTestMetrics(), zap.NewNop())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, gw.Name())
		})
	}
}

func TestProvideMessageQueue(t *testing.T) {
	t.Run("memory by default", func(t *testing.T) {
		queue, cleanup, err := ProvideMessageQueue(&config.Config{}, nil, zap.NewNop())
		require.NoError(t, err)
		defer cleanup()
		assert.IsType(t, &messaging.MemoryQueue{}, queue)
	})

	t.Run("redis driver without redis", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Messaging.Driver = config.DriverRedis
		_, _, err := ProvideMessageQueue(cfg, nil, zap.NewNop())
		assert.ErrorContains(t, err, "requires redis")
	})

	t.Run("kafka", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Messaging.Driver = config.DriverKafka
		cfg.Messaging.Kafka.Brokers = []string{"localhost:9092"}
		queue, cleanup, err := ProvideMessageQueue(cfg, nil, zap.NewNop())
		require.NoError(t, err)
		defer cleanup()
		assert.IsType(t, &messaging.KafkaQueue{}, queue)
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Messaging.Driver = "carrier-pigeon"
		_, _, err := ProvideMessageQueue(cfg, nil, zap.NewNop())
		assert.Error(t, err)
	})
}

func TestProvideLocker(t *testing.T) {
	assert.IsType(t, &memory.Locker{}, ProvideLocker(nil, zap.NewNop()))
}

func TestProvideEmailSender(t *testing.T) {
	cfg := &config.Config{}
	assert.IsType(t, &notification.LogSender{}, ProvideEmailSender(cfg, zap.NewNop()))

	cfg.Notification.Email.Host = "smtp.example.com"
	assert.IsType(t, &notification.SMTPSender{}, ProvideEmailSender(cfg, zap.NewNop()))
}

func TestProvideEventBus_ForwardsStateChanges(t *testing.T) {
	cfg := &config.Config{}
	cfg.Messaging.StateTopic = "payment.state"
	queue := messaging.NewMemoryQueue(8, nil)

	bus := ProvideEventBus(cfg, queue, zap.NewNop())
	err := bus.Publish(context.Background(), events.NewPaymentStateChangedEvent(events.TypePaymentCompleted, uuid.New()))

	require.NoError(t, err)
	assert.Equal(t, 1, queue.Len("payment.state"))
}

func TestRouter(t *testing.T) {
	db := newTestDB(t)
	log := zap.NewNop()
	m := newTestMetrics()

	cfg := &config.Config{}
	cfg.Server.Mode = gin.TestMode
	cfg.Auth.JWTSecret = "test-secret"
	jwtManager := ProvideJWTManager(cfg)

	queue := messaging.NewMemoryQueue(8, log)
	dispatcher := notification.NewDispatcher(queue, notification.NewLogSender(log), m, notification.Config{}, log)
	paymentDB := postgres.NewPaymentAdapter(db)
	domain := payment.NewPaymentDomain(paymentDB, postgres.NewBookingAdapter(db), nil, memory.NewLocker(),
		dispatcher, events.NewBus(log), m, payment.Config{}, log)

	r := newRouter(&Dependencies{
		Config:         cfg,
		Logger:         log,
		DB:             db,
		Metrics:        m,
		JWTManager:     jwtManager,
		Queue:          queue,
		PaymentDomain:  domain,
		Dispatcher:     dispatcher,
		PaymentHandler: paymenthttp.NewPaymentHandler(domain, log),
	})

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("health", func(t *testing.T) {
		w := serve(httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("ready", func(t *testing.T) {
		w := serve(httptest.NewRequest(http.MethodGet, "/ready", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("metrics", func(t *testing.T) {
		w := serve(httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("swagger doc", func(t *testing.T) {
		w := serve(httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "/payments/initiate")
	})

	t.Run("payments require a token", func(t *testing.T) {
		w := serve(httptest.NewRequest(http.MethodGet, "/api/v1/payments/booking_1-1", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("authenticated lookup of unknown payment", func(t *testing.T) {
		token, _, err := jwtManager.GenerateAccessToken(1, "guest@example.com")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/booking_1-1", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := serve(req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("authenticated lookup of own payment", func(t *testing.T) {
		require.NoError(t, db.Create(&model.Payment{
			ID:            uuid.New(),
			BookingID:     2,
			UserID:        1,
			TransactionID: "booking_2-1",
			Provider:      "chapa",
			Currency:      "ETB",
			Status:        model.PaymentStatusPending,
		}).Error)
		token, _, err := jwtManager.GenerateAccessToken(1, "guest@example.com")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/booking_2-1", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := serve(req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
