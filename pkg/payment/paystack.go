package payment

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// PaystackClient talks to a Paystack-compatible REST API.
type PaystackClient struct {
	client *resty.Client
	logger *zap.Logger
}

func NewPaystackClient(baseURL, secretKey string, timeout time.Duration, logger *zap.Logger) *PaystackClient {
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetAuthToken(secretKey).
		SetHeader("Content-Type", "application/json")
	return &PaystackClient{client: c, logger: logger}
}

type apiEnvelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

func (p *PaystackClient) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResponse, error) {
	var out apiEnvelope[initializeData]
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"email":        req.Email,
			"amount":       req.AmountMinorUnits,
			"reference":    req.Reference,
			"callback_url": req.CallbackURL,
			"metadata":     req.Metadata,
		}).
		SetResult(&out).
		ForceContentType("application/json").
		Post("/transaction/initialize")
	if err != nil {
		return nil, fmt.Errorf("gateway initialize: %w", err)
	}
	p.logger.Info("gateway initialize",
		zap.String("reference", req.Reference),
		zap.Int("http_status", resp.StatusCode()),
		zap.Bool("status", out.Status))
	if resp.IsError() || !out.Status {
		return nil, fmt.Errorf("gateway initialize: %d %s", resp.StatusCode(), out.Message)
	}
	return &InitializeResponse{
		Status:           out.Status,
		AuthorizationURL: out.Data.AuthorizationURL,
		AccessCode:       out.Data.AccessCode,
		Reference:        out.Data.Reference,
	}, nil
}

type verifyData struct {
	Reference       string                 `json:"reference"`
	Status          string                 `json:"status"`
	Amount          int64                  `json:"amount"`
	GatewayResponse string                 `json:"gateway_response"`
	Metadata        map[string]interface{} `json:"metadata"`
}

func (p *PaystackClient) Verify(ctx context.Context, reference string) (*VerifyResponse, error) {
	var out apiEnvelope[verifyData]
	resp, err := p.client.R().
		SetContext(ctx).
		SetResult(&out).
		ForceContentType("application/json").
		Get("/transaction/verify/" + url.PathEscape(reference))
	if err != nil {
		return nil, fmt.Errorf("gateway verify: %w", err)
	}
	p.logger.Info("gateway verify",
		zap.String("reference", reference),
		zap.Int("http_status", resp.StatusCode()),
		zap.String("status", out.Data.Status))
	if resp.IsError() || !out.Status {
		return nil, fmt.Errorf("%w: %d %s", ErrVerificationFailed, resp.StatusCode(), out.Message)
	}
	return &VerifyResponse{
		Reference:        out.Data.Reference,
		Status:           out.Data.Status,
		AmountMinorUnits: out.Data.Amount,
		GatewayResponse:  out.Data.GatewayResponse,
		Metadata:         out.Data.Metadata,
	}, nil
}

type transferData struct {
	TransferCode string `json:"transfer_code"`
	Status       string `json:"status"`
}

func (p *PaystackClient) InitiateTransfer(ctx context.Context, req TransferRequest) (*TransferResponse, error) {
	var out apiEnvelope[transferData]
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"source":    "balance",
			"amount":    req.AmountMinorUnits,
			"recipient": req.RecipientCode,
			"reference": req.Reference,
			"reason":    req.Reason,
		}).
		SetResult(&out).
		ForceContentType("application/json").
		Post("/transfer")
	if err != nil {
		return nil, fmt.Errorf("gateway transfer: %w", err)
	}
	p.logger.Info("gateway transfer",
		zap.String("reference", req.Reference),
		zap.Int("http_status", resp.StatusCode()),
		zap.String("status", out.Data.Status))
	if resp.IsError() || !out.Status {
		return nil, fmt.Errorf("gateway transfer: %d %s", resp.StatusCode(), out.Message)
	}
	return &TransferResponse{TransferCode: out.Data.TransferCode, Status: out.Data.Status}, nil
}
