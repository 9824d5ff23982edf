package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"pinvault/internal/domain"
	"pinvault/internal/repository"
	"pinvault/internal/service"
	"pinvault/internal/webhook"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

// PaymentWebhookHandler is the gateway push endpoint. Every authenticated delivery writes a
// receipt and an outcome row to the webhook log. Expected business failures are acknowledged
// with 200 once logged so the gateway stops redelivering; only unexpected errors return 500.
type PaymentWebhookHandler struct {
	secret      string
	fulfillment *service.FulfillmentService
	transfers   *service.TransferService
	logs        *repository.WebhookLogRepository
	logger      *zap.Logger
}

func NewPaymentWebhookHandler(secret string, fulfillment *service.FulfillmentService, transfers *service.TransferService, logs *repository.WebhookLogRepository, logger *zap.Logger) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{secret: secret, fulfillment: fulfillment, transfers: transfers, logs: logs, logger: logger}
}

type webhookOutcome struct {
	level string
	data  map[string]interface{}
	err   error // unexpected; answered with 500
}

func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
	// Gateway disconnects must not abort a fulfillment half way.
	ctx := context.WithoutCancel(c.Request.Context())

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if err := webhook.VerifySignature(h.secret, body, c.GetHeader(webhook.SignatureHeader)); err != nil {
		h.logger.Warn("webhook signature rejected", zap.String("ip", c.ClientIP()), zap.Int("bytes", len(body)))
		h.write(ctx, "webhook.rejected", domain.LogLevelWarn, map[string]interface{}{
			"ip":     c.ClientIP(),
			"reason": err.Error(),
		})
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	ev, err := webhook.Parse(body)
	if err != nil {
		h.logger.Error("webhook malformed", zap.Error(err))
		if werr := h.write(ctx, "webhook.malformed", domain.LogLevelError, map[string]interface{}{"error": err.Error()}); werr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	h.write(ctx, "webhook.received", domain.LogLevelInfo, map[string]interface{}{
		"event":     ev.Name,
		"reference": ev.Data.Reference,
		"amount":    ev.Data.Amount,
	})

	var out webhookOutcome
	switch ev.Kind {
	case webhook.KindChargeSuccess:
		out = h.onCharge(ctx, ev)
	case webhook.KindTransferSuccess:
		out = h.onTransfer(ctx, ev, h.transfers.Complete)
	case webhook.KindTransferFailed, webhook.KindTransferReversed:
		out = h.onTransfer(ctx, ev, func(ctx context.Context, ref string) (bool, error) {
			return h.transfers.Fail(ctx, ref, ev.Name)
		})
	default:
		out = webhookOutcome{level: domain.LogLevelInfo, data: map[string]interface{}{"outcome": "ignored"}}
	}

	out.data["event"] = ev.Name
	out.data["reference"] = ev.Data.Reference
	name := "webhook.processed"
	if out.level == domain.LogLevelError {
		name = "webhook.failed"
	}
	if out.err != nil {
		out.data["error"] = out.err.Error()
		h.logger.Error("webhook processing error", zap.String("event", ev.Name), zap.String("reference", ev.Data.Reference), zap.Error(out.err))
	}
	if err := h.write(ctx, name, out.level, out.data); err != nil || out.err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *PaymentWebhookHandler) onCharge(ctx context.Context, ev *webhook.Event) webhookOutcome {
	res, err := h.fulfillment.FulfillCharge(ctx, service.Charge{
		Reference:        ev.Data.Reference,
		AmountMinorUnits: ev.Data.Amount,
		Purpose:          ev.Data.Metadata.Type,
	})
	data := map[string]interface{}{"outcome": res.Outcome.String()}
	switch {
	case errors.Is(err, service.ErrIntentMissing),
		errors.Is(err, service.ErrAmountMismatch),
		errors.Is(err, service.ErrGuestDeposit):
		data["error"] = err.Error()
		return webhookOutcome{level: domain.LogLevelError, data: data}
	case err != nil:
		return webhookOutcome{level: domain.LogLevelError, data: data, err: err}
	}
	if res.Order != nil {
		data["orderId"] = res.Order.ID
		data["orderStatus"] = res.Order.Status
	}
	if res.Shortfall != nil {
		data["required"] = res.Shortfall.Required
		data["available"] = res.Shortfall.Available
		return webhookOutcome{level: domain.LogLevelWarn, data: data}
	}
	if res.Email != nil {
		data["emailStatus"] = res.Email.Status
	}
	return webhookOutcome{level: domain.LogLevelInfo, data: data}
}

func (h *PaymentWebhookHandler) onTransfer(ctx context.Context, ev *webhook.Event, settle func(context.Context, string) (bool, error)) webhookOutcome {
	moved, err := settle(ctx, ev.Data.Reference)
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, service.ErrNotWithdrawal):
		return webhookOutcome{level: domain.LogLevelWarn, data: map[string]interface{}{"outcome": "unknown_transfer", "error": err.Error()}}
	case err != nil:
		return webhookOutcome{level: domain.LogLevelError, data: map[string]interface{}{"outcome": "error"}, err: err}
	case !moved:
		return webhookOutcome{level: domain.LogLevelInfo, data: map[string]interface{}{"outcome": "duplicate"}}
	}
	return webhookOutcome{level: domain.LogLevelInfo, data: map[string]interface{}{"outcome": "settled"}}
}

func (h *PaymentWebhookHandler) write(ctx context.Context, event, level string, data map[string]interface{}) error {
	err := h.logs.Record(ctx, event, level, data)
	if err != nil {
		h.logger.Error("write webhook log", zap.String("event", event), zap.Error(err))
	}
	return err
}
