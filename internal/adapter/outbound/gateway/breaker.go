package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/alxtravel/server/internal/model"
	"github.com/alxtravel/server/internal/port/outbound"
	apperrors "github.com/alxtravel/server/internal/shared/errors"
	"github.com/alxtravel/server/internal/shared/metrics"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

var _ outbound.GatewayPort = (*BreakerGateway)(nil)

// BreakerConfig contains circuit breaker configuration.
type BreakerConfig struct {
	MaxFailures  uint32
	OpenTimeout  time.Duration
	HalfOpenMax  uint32
	ResetCounter time.Duration
}

// DefaultBreakerConfig returns the default circuit breaker configuration.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxFailures: 5,
		OpenTimeout: 30 * time.Second,
		HalfOpenMax: 1,
	}
}

// BreakerGateway wraps a GatewayPort with a circuit breaker. Only transport
// failures and provider 5xx responses count toward tripping it.
type BreakerGateway struct {
	next    outbound.GatewayPort
	breaker *gobreaker.CircuitBreaker[any]
}

// NewBreakerGateway wraps next with a circuit breaker.
func NewBreakerGateway(next outbound.GatewayPort, config BreakerConfig, m *metrics.Metrics, logger *zap.Logger) *BreakerGateway {
	defaults := DefaultBreakerConfig()
	if config.MaxFailures == 0 {
		config.MaxFailures = defaults.MaxFailures
	}
	if config.OpenTimeout <= 0 {
		config.OpenTimeout = defaults.OpenTimeout
	}
	if config.HalfOpenMax == 0 {
		config.HalfOpenMax = defaults.HalfOpenMax
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("gateway-breaker")

	provider := next.Name()
	if m != nil {
		m.SetBreakerState(provider, int(gobreaker.StateClosed))
	}

	settings := gobreaker.Settings{
		Name:        provider,
		MaxRequests: config.HalfOpenMax,
		Interval:    config.ResetCounter,
		Timeout:     config.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return !countsAsFailure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("gateway circuit breaker state changed",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			if m != nil {
				m.SetBreakerState(name, int(to))
			}
		},
	}

	return &BreakerGateway{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
	}
}

// Name returns the wrapped provider name.
func (g *BreakerGateway) Name() string {
	return g.next.Name()
}

// State returns the current breaker state.
func (g *BreakerGateway) State() gobreaker.State {
	return g.breaker.State()
}

// Initialize calls the wrapped gateway unless the breaker is open.
func (g *BreakerGateway) Initialize(ctx context.Context, req *outbound.InitializeRequest) (*outbound.InitializeResult, error) {
	res, err := g.breaker.Execute(func() (any, error) {
		return g.next.Initialize(ctx, req)
	})
	if err != nil {
		return nil, g.translate(opInitialize, err)
	}
	return res.(*outbound.InitializeResult), nil
}

// Verify calls the wrapped gateway unless the breaker is open.
func (g *BreakerGateway) Verify(ctx context.Context, req *outbound.VerifyRequest) (model.GatewayStatus, error) {
	res, err := g.breaker.Execute(func() (any, error) {
		return g.next.Verify(ctx, req)
	})
	if err != nil {
		return model.GatewayStatusUnknown, g.translate(opVerify, err)
	}
	return res.(model.GatewayStatus), nil
}

func (g *BreakerGateway) translate(op string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &apperrors.GatewayError{
			Provider: g.next.Name(),
			Op:       op,
			Reason:   apperrors.ReasonUnavailable,
			Err:      err,
		}
	}
	return err
}

// countsAsFailure reports whether err indicates the provider itself is unhealthy.
func countsAsFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	gwErr, ok := apperrors.AsGatewayError(err)
	if !ok {
		return true
	}
	switch gwErr.Reason {
	case apperrors.ReasonTimeout, apperrors.ReasonNetwork:
		return true
	case apperrors.ReasonStatus:
		return gwErr.StatusCode >= http.StatusInternalServerError
	default:
		return false
	}
}
