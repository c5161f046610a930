package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alxtravel/server/internal/infra/httpclient"
	"github.com/alxtravel/server/internal/model"
	"github.com/alxtravel/server/internal/port/outbound"
	apperrors "github.com/alxtravel/server/internal/shared/errors"
	"go.uber.org/zap"
)

const (
	// ProviderChapa is the Chapa provider name.
	ProviderChapa = "chapa"

	// DefaultChapaBaseURL is the Chapa API root.
	DefaultChapaBaseURL = "https://api.chapa.co/v1"

	opInitialize = "initialize"
	opVerify     = "verify"
)

var _ outbound.GatewayPort = (*ChapaGateway)(nil)

// ChapaConfig contains Chapa client configuration.
type ChapaConfig struct {
	BaseURL     string
	SecretKey   string
	CallbackURL string
	ReturnURL   string
	Timeout     time.Duration
}

// ChapaGateway is a GatewayPort for the Chapa hosted checkout API.
type ChapaGateway struct {
	client *httpclient.JSONClient
	config ChapaConfig
	logger *zap.Logger
}

// NewChapaGateway creates a Chapa client. client may be shared; config.Timeout
// bounds every call through the request context.
func NewChapaGateway(client *http.Client, config ChapaConfig, logger *zap.Logger) *ChapaGateway {
	if config.BaseURL == "" {
		config.BaseURL = DefaultChapaBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChapaGateway{
		client: httpclient.NewJSONClient(client, config.Timeout),
		config: config,
		logger: logger.Named("chapa"),
	}
}

// Name returns the provider name.
func (g *ChapaGateway) Name() string {
	return ProviderChapa
}

type chapaCustomizations struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

type chapaInitializeBody struct {
	Amount         string              `json:"amount"`
	Currency       string              `json:"currency"`
	Email          string              `json:"email"`
	FirstName      string              `json:"first_name"`
	LastName       string              `json:"last_name"`
	PhoneNumber    string              `json:"phone_number,omitempty"`
	TxRef          string              `json:"tx_ref"`
	CallbackURL    string              `json:"callback_url,omitempty"`
	ReturnURL      string              `json:"return_url,omitempty"`
	Customizations chapaCustomizations `json:"customizations"`
}

type chapaInitializeResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Data    *struct {
		CheckoutURL string `json:"checkout_url"`
	} `json:"data"`
}

type chapaVerifyResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Data    *struct {
		Status string `json:"status"`
		TxRef  string `json:"tx_ref"`
	} `json:"data"`
}

// Initialize creates a Chapa checkout for the transaction.
func (g *ChapaGateway) Initialize(ctx context.Context, req *outbound.InitializeRequest) (*outbound.InitializeResult, error) {
	body := chapaInitializeBody{
		Amount:      req.Amount.StringFixed(2),
		Currency:    req.Currency,
		Email:       req.Payer.Email,
		FirstName:   req.Payer.FirstName,
		LastName:    req.Payer.LastName,
		PhoneNumber: req.Payer.Phone,
		TxRef:       req.TxRef,
		CallbackURL: g.config.CallbackURL,
		ReturnURL:   g.config.ReturnURL,
		Customizations: chapaCustomizations{
			Title:       req.Title,
			Description: req.Description,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal chapa request: %w", err)
	}

	resp, err := g.client.Do(ctx, &httpclient.Request{
		Method: http.MethodPost,
		URL:    g.config.BaseURL + "/transaction/initialize",
		Token:  g.config.SecretKey,
		Body:   payload,
	})
	if err != nil {
		return nil, apperrors.NewGatewayError(ProviderChapa, opInitialize, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(ProviderChapa, opInitialize, resp.StatusCode, resp.Body)
	}
	raw := resp.Body

	var out chapaInitializeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, malformedError(ProviderChapa, opInitialize, raw, err)
	}
	if out.Data == nil || out.Data.CheckoutURL == "" {
		return nil, malformedError(ProviderChapa, opInitialize, raw, fmt.Errorf("missing data.checkout_url"))
	}

	g.logger.Debug("checkout initialized", zap.String("tx_ref", req.TxRef))
	return &outbound.InitializeResult{
		CheckoutURL:       out.Data.CheckoutURL,
		ProviderReference: req.TxRef,
	}, nil
}

// Verify queries Chapa for the transaction status.
func (g *ChapaGateway) Verify(ctx context.Context, req *outbound.VerifyRequest) (model.GatewayStatus, error) {
	endpoint := g.config.BaseURL + "/transaction/verify/" + url.PathEscape(req.TxRef)
	resp, err := g.client.Do(ctx, &httpclient.Request{
		Method: http.MethodGet,
		URL:    endpoint,
		Token:  g.config.SecretKey,
	})
	if err != nil {
		return model.GatewayStatusUnknown, apperrors.NewGatewayError(ProviderChapa, opVerify, err)
	}
	if resp.StatusCode != http.StatusOK {
		return model.GatewayStatusUnknown, statusError(ProviderChapa, opVerify, resp.StatusCode, resp.Body)
	}

	var out chapaVerifyResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return model.GatewayStatusUnknown, malformedError(ProviderChapa, opVerify, resp.Body, err)
	}
	if out.Data == nil || out.Data.Status == "" {
		return model.GatewayStatusUnknown, malformedError(ProviderChapa, opVerify, resp.Body, fmt.Errorf("missing data.status"))
	}

	return mapChapaStatus(out.Data.Status), nil
}

func mapChapaStatus(status string) model.GatewayStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "success":
		return model.GatewayStatusSucceeded
	case "failed":
		return model.GatewayStatusFailed
	default:
		return model.GatewayStatusUnknown
	}
}

func statusError(provider, op string, status int, raw []byte) *apperrors.GatewayError {
	return &apperrors.GatewayError{
		Provider:   provider,
		Op:         op,
		Reason:     apperrors.ReasonStatus,
		StatusCode: status,
		Payload:    raw,
	}
}

func malformedError(provider, op string, raw []byte, err error) *apperrors.GatewayError {
	return &apperrors.GatewayError{
		Provider:   provider,
		Op:         op,
		Reason:     apperrors.ReasonMalformed,
		StatusCode: http.StatusOK,
		Payload:    raw,
		Err:        err,
	}
}
