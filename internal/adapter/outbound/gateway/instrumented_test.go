package gateway

import (
	"context"
	"testing"

	"github.com/alxtravel/server/internal/model"
	"github.com/alxtravel/server/internal/port/outbound"
	apperrors "github.com/alxtravel/server/internal/shared/errors"
	"github.com/alxtravel/server/internal/shared/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentedGateway(t *testing.T) {
	m := metrics.New("test", prometheus.NewRegistry())

	t.Run("success records duration only", func(t *testing.T) {
		g := NewInstrumentedGateway(&stubGateway{status: model.GatewayStatusSucceeded}, m)

		status, err := g.Verify(context.Background(), &outbound.VerifyRequest{TxRef: "booking_1-1"})

		require.NoError(t, err)
		assert.Equal(t, model.GatewayStatusSucceeded, status)
		assert.Equal(t, 1, testutil.CollectAndCount(m.GatewayRequestDuration))
		assert.Equal(t, 0, testutil.CollectAndCount(m.GatewayErrorsTotal))
	})

	t.Run("failure records reason", func(t *testing.T) {
		stub := &stubGateway{err: &apperrors.GatewayError{Provider: "stub", Reason: apperrors.ReasonTimeout}}
		g := NewInstrumentedGateway(stub, m)

		_, err := g.Initialize(context.Background(), newInitializeRequest())

		require.Error(t, err)
		assert.Equal(t, float64(1), testutil.ToFloat64(m.GatewayErrorsTotal.WithLabelValues("stub", "initialize", "timeout")))
	})

	t.Run("nil metrics", func(t *testing.T) {
		g := NewInstrumentedGateway(&stubGateway{status: model.GatewayStatusFailed}, nil)
		status, err := g.Verify(context.Background(), &outbound.VerifyRequest{TxRef: "booking_1-1"})
		require.NoError(t, err)
		assert.Equal(t, model.GatewayStatusFailed, status)
		assert.Equal(t, "stub", g.Name())
	})
}
