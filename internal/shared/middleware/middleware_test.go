package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/alxtravel/server/internal/shared/auth"
	"github.com/alxtravel/server/internal/shared/config"
	"github.com/alxtravel/server/internal/shared/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID(t *testing.T) {
	t.Run("generates new request ID when not provided", func(t *testing.T) {
		router := gin.New()
		router.Use(RequestID())
		router.GET("/test", func(c *gin.Context) {
			assert.Equal(t, GetRequestID(c), RequestIDFromContext(c.Request.Context()))
			c.String(http.StatusOK, GetRequestID(c))
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		headerID := w.Header().Get(RequestIDHeader)
		assert.NotEmpty(t, headerID)
		assert.Equal(t, headerID, w.Body.String())
	})

	t.Run("uses existing request ID from header", func(t *testing.T) {
		router := gin.New()
		router.Use(RequestID())
		router.GET("/test", func(c *gin.Context) {
			c.String(http.StatusOK, GetRequestID(c))
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, "existing-request-id-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "existing-request-id-123", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "existing-request-id-123", w.Body.String())
	})
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	router := gin.New()
	router.Use(RequestID(), Logging(zap.New(core)))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/ok", "/bad", "/boom"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "/ok", entries[0].ContextMap()["path"])
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/panic", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"code":"internal_error","message":"internal server error"}`, w.Body.String())
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(CORS(config.CORSConfig{AllowOrigins: []string{"https://alxtravel.example"}}))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/test", nil)
	req.Header.Set("Origin", "https://alxtravel.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://alxtravel.example", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetrics(t *testing.T) {
	m := metrics.New("test", prometheus.NewRegistry())
	router := gin.New()
	router.Use(Metrics(m))
	router.GET("/payments/:transaction_id", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/payments/booking_1-1", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/payments/booking_2-1", nil))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/payments/:transaction_id", "2xx")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.HTTPRequestsInFlight))
}

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager(auth.JWTConfig{Secret: "secret"})
	token, _, err := jwtManager.GenerateAccessToken(7, "guest@example.com")
	require.NoError(t, err)

	router := gin.New()
	router.Use(RequireAuth(jwtManager))
	router.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c), "email": GetEmail(c)})
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "valid token", header: "Bearer " + token, wantStatus: http.StatusOK},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + token, wantStatus: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(AuthorizationHeader, tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.JSONEq(t, `{"user_id":7,"email":"guest@example.com"}`, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"code":"unauthorized"`)
			}
		})
	}
}

func TestGetUserID_NotSet(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, uint64(0), GetUserID(c))
	assert.Empty(t, GetEmail(c))
}

func TestIdempotency(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	var calls atomic.Int32
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(UserIDKey, uint64(1))
		c.Next()
	})
	router.Use(Idempotency(client, IdempotencyConfig{}))
	router.POST("/payments/initiate", func(c *gin.Context) {
		n := calls.Add(1)
		c.JSON(http.StatusCreated, gin.H{"call": n})
	})

	send := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/payments/initiate", strings.NewReader(`{"booking_id":1}`))
		if key != "" {
			req.Header.Set(IdempotencyKeyHeader, key)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	first := send("abc")
	second := send("abc")
	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, int32(1), calls.Load())

	send("other")
	send("")
	assert.Equal(t, int32(3), calls.Load())
}

func TestIdempotency_InProgress(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	router := gin.New()
	router.Use(Idempotency(client, IdempotencyConfig{}))
	router.POST("/payments/initiate", func(c *gin.Context) { c.Status(http.StatusCreated) })

	// Simulate a concurrent holder of the lock for this key.
	lockKey := "idempotency:" + hashFor(t, "abc") + ":lock"
	require.NoError(t, mr.Set(lockKey, "1"))

	req := httptest.NewRequest(http.MethodPost, "/payments/initiate", nil)
	req.Header.Set(IdempotencyKeyHeader, "abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

// hashFor computes the cache key suffix for an unauthenticated POST to /payments/initiate.
func hashFor(t *testing.T, key string) string {
	t.Helper()
	var out string
	r := gin.New()
	r.POST("/payments/initiate", func(c *gin.Context) {
		out = strings.TrimPrefix(idempotencyCacheKey(c, key), idempotencyKeyPrefix)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/payments/initiate", nil))
	return out
}

func TestIdempotency_TransientErrorsNotReplayed(t *testing.T) {
	for _, transient := range []int{http.StatusConflict, http.StatusTooManyRequests} {
		t.Run(http.StatusText(transient), func(t *testing.T) {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = client.Close() })

			var calls atomic.Int32
			router := gin.New()
			router.Use(Idempotency(client, IdempotencyConfig{}))
			router.POST("/payments/initiate", func(c *gin.Context) {
				if calls.Add(1) == 1 {
					c.JSON(transient, gin.H{"error": "busy"})
					return
				}
				c.JSON(http.StatusCreated, gin.H{"checkout_url": "https://pay.example/x"})
			})

			send := func() *httptest.ResponseRecorder {
				req := httptest.NewRequest(http.MethodPost, "/payments/initiate", nil)
				req.Header.Set(IdempotencyKeyHeader, "retry-me")
				w := httptest.NewRecorder()
				router.ServeHTTP(w, req)
				return w
			}

			first := send()
			second := send()
			third := send()

			assert.Equal(t, transient, first.Code)
			assert.Equal(t, http.StatusCreated, second.Code)
			assert.Empty(t, second.Header().Get("Idempotent-Replayed"))
			assert.Equal(t, http.StatusCreated, third.Code)
			assert.Equal(t, "true", third.Header().Get("Idempotent-Replayed"))
			assert.Equal(t, int32(2), calls.Load())
		})
	}
}

func TestIdempotency_NotFoundIsReplayed(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	var calls atomic.Int32
	router := gin.New()
	router.Use(Idempotency(client, IdempotencyConfig{}))
	router.POST("/payments/initiate", func(c *gin.Context) {
		calls.Add(1)
		c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/payments/initiate", nil)
		req.Header.Set(IdempotencyKeyHeader, "gone")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestIdempotency_NilRedis(t *testing.T) {
	router := gin.New()
	router.Use(Idempotency(nil, IdempotencyConfig{}))
	router.POST("/x", func(c *gin.Context) { c.Status(http.StatusCreated) })

	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.Header.Set(IdempotencyKeyHeader, "abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestTracing(t *testing.T) {
	router := gin.New()
	router.Use(Tracing("alxtravel-test"))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}
