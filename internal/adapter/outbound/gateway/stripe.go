package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alxtravel/server/internal/model"
	"github.com/alxtravel/server/internal/port/outbound"
	apperrors "github.com/alxtravel/server/internal/shared/errors"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"go.uber.org/zap"
)

// ProviderStripe is the Stripe provider name.
const ProviderStripe = "stripe"

var _ outbound.GatewayPort = (*StripeGateway)(nil)

// StripeConfig contains Stripe Checkout configuration.
type StripeConfig struct {
	SecretKey  string
	SuccessURL string
	CancelURL  string
	// Timeout bounds each API call through the request context.
	Timeout time.Duration

	// HTTPClient is used by the default API backend. Nil uses stripe-go's client.
	HTTPClient *http.Client
	// Backend overrides the Stripe API backend. Nil uses the default API backend.
	Backend stripe.Backend
}

// StripeGateway is a GatewayPort backed by Stripe Checkout sessions.
type StripeGateway struct {
	sessions *session.Client
	config   StripeConfig
	logger   *zap.Logger
}

// NewStripeGateway creates a Stripe Checkout gateway.
func NewStripeGateway(config StripeConfig, logger *zap.Logger) *StripeGateway {
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	backend := config.Backend
	if backend == nil {
		backend = stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			HTTPClient:        config.HTTPClient,
			MaxNetworkRetries: stripe.Int64(0),
		})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StripeGateway{
		sessions: &session.Client{B: backend, Key: config.SecretKey},
		config:   config,
		logger:   logger.Named("stripe"),
	}
}

// Name returns the provider name.
func (g *StripeGateway) Name() string {
	return ProviderStripe
}

// Initialize creates a payment-mode Checkout session with a single line item.
func (g *StripeGateway) Initialize(ctx context.Context, req *outbound.InitializeRequest) (*outbound.InitializeResult, error) {
	productName := req.Title
	if req.Description != "" {
		productName = req.Description
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(req.TxRef),
		SuccessURL:        stripe.String(g.config.SuccessURL),
		CancelURL:         stripe.String(g.config.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(req.Currency)),
					UnitAmount: stripe.Int64(req.Amount.Shift(2).Round(0).IntPart()),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(productName),
					},
				},
			},
		},
	}
	if req.Payer.Email != "" {
		params.CustomerEmail = stripe.String(req.Payer.Email)
	}
	params.AddMetadata("tx_ref", req.TxRef)
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()
	params.Context = ctx

	s, err := g.sessions.New(params)
	if err != nil {
		return nil, stripeError(opInitialize, err)
	}
	if s.URL == "" {
		return nil, &apperrors.GatewayError{
			Provider: ProviderStripe,
			Op:       opInitialize,
			Reason:   apperrors.ReasonMalformed,
			Err:      fmt.Errorf("session %s has no checkout url", s.ID),
		}
	}

	g.logger.Debug("checkout session created", zap.String("tx_ref", req.TxRef), zap.String("session_id", s.ID))
	return &outbound.InitializeResult{
		CheckoutURL:       s.URL,
		ProviderReference: s.ID,
	}, nil
}

// Verify retrieves the Checkout session and maps its state.
func (g *StripeGateway) Verify(ctx context.Context, req *outbound.VerifyRequest) (model.GatewayStatus, error) {
	if req.ProviderReference == "" {
		return model.GatewayStatusUnknown, &apperrors.GatewayError{
			Provider: ProviderStripe,
			Op:       opVerify,
			Reason:   apperrors.ReasonMalformed,
			Err:      fmt.Errorf("no session id recorded for %s", req.TxRef),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := g.sessions.Get(req.ProviderReference, params)
	if err != nil {
		return model.GatewayStatusUnknown, stripeError(opVerify, err)
	}

	switch {
	case s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid:
		return model.GatewayStatusSucceeded, nil
	case s.Status == stripe.CheckoutSessionStatusExpired:
		return model.GatewayStatusFailed, nil
	default:
		return model.GatewayStatusUnknown, nil
	}
}

func stripeError(op string, err error) *apperrors.GatewayError {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		payload, _ := json.Marshal(stripeErr)
		return &apperrors.GatewayError{
			Provider:   ProviderStripe,
			Op:         op,
			Reason:     apperrors.ReasonStatus,
			StatusCode: stripeErr.HTTPStatusCode,
			Payload:    payload,
			Err:        err,
		}
	}
	return apperrors.NewGatewayError(ProviderStripe, op, err)
}
