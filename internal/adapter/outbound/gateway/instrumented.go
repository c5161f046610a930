package gateway

import (
	"context"
	"time"

	"github.com/alxtravel/server/internal/model"
	"github.com/alxtravel/server/internal/port/outbound"
	apperrors "github.com/alxtravel/server/internal/shared/errors"
	"github.com/alxtravel/server/internal/shared/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/alxtravel/server/internal/adapter/outbound/gateway"

var _ outbound.GatewayPort = (*InstrumentedGateway)(nil)

// InstrumentedGateway records metrics and a trace span for every gateway call.
type InstrumentedGateway struct {
	next    outbound.GatewayPort
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// NewInstrumentedGateway wraps next with metrics and tracing.
func NewInstrumentedGateway(next outbound.GatewayPort, m *metrics.Metrics) *InstrumentedGateway {
	return &InstrumentedGateway{
		next:    next,
		metrics: m,
		tracer:  otel.Tracer(tracerName),
	}
}

// Name returns the wrapped provider name.
func (g *InstrumentedGateway) Name() string {
	return g.next.Name()
}

// Initialize forwards to the wrapped gateway.
func (g *InstrumentedGateway) Initialize(ctx context.Context, req *outbound.InitializeRequest) (*outbound.InitializeResult, error) {
	ctx, span := g.start(ctx, opInitialize, req.TxRef)
	defer span.End()

	start := time.Now()
	res, err := g.next.Initialize(ctx, req)
	g.finish(span, opInitialize, start, err)
	return res, err
}

// Verify forwards to the wrapped gateway.
func (g *InstrumentedGateway) Verify(ctx context.Context, req *outbound.VerifyRequest) (model.GatewayStatus, error) {
	ctx, span := g.start(ctx, opVerify, req.TxRef)
	defer span.End()

	start := time.Now()
	status, err := g.next.Verify(ctx, req)
	if err == nil {
		span.SetAttributes(attribute.String("payment.gateway_status", string(status)))
	}
	g.finish(span, opVerify, start, err)
	return status, err
}

func (g *InstrumentedGateway) start(ctx context.Context, op, txRef string) (context.Context, trace.Span) {
	return g.tracer.Start(ctx, "gateway."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("payment.provider", g.next.Name()),
			attribute.String("payment.tx_ref", txRef),
		))
}

func (g *InstrumentedGateway) finish(span trace.Span, op string, start time.Time, err error) {
	reason := ""
	if err != nil {
		reason = "error"
		if gwErr, ok := apperrors.AsGatewayError(err); ok {
			reason = string(gwErr.Reason)
			if gwErr.StatusCode != 0 {
				span.SetAttributes(attribute.Int("http.response.status_code", gwErr.StatusCode))
			}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
	}
	if g.metrics != nil {
		g.metrics.RecordGatewayCall(g.next.Name(), op, reason, time.Since(start))
	}
}
