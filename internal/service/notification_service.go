package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"pinvault/internal/domain"
	"pinvault/internal/models"
	"pinvault/internal/repository"
	"pinvault/pkg/mailer"

	"go.uber.org/zap"
)

var deliveryTmpl = template.Must(template.New("delivery").Parse(`<p>Hello {{.Name}},</p>
<p>Thank you for your purchase. Your {{.CardType}} card{{if gt (len .Cards) 1}}s are{{else}} is{{end}} below.</p>
<table>
<tr><th>Serial</th><th>PIN</th></tr>
{{range .Cards}}<tr><td>{{.SerialNumber}}</td><td>{{if .IsImageCard}}<a href="{{.ImageURL}}">View card</a>{{else}}{{.Pin}}{{end}}</td></tr>
{{end}}</table>
<p>Order reference: {{.Reference}}</p>`))

var delayedTmpl = template.Must(template.New("delayed").Parse(`<p>Hello {{.Name}},</p>
<p>We received your payment for {{.Quantity}} {{.CardType}} card(s) but stock ran out before we could deliver them.
Our team has been notified and will complete your order shortly.</p>
<p>Order reference: {{.Reference}}</p>`))

// NotificationService sends customer emails and records every attempt in the email log.
type NotificationService struct {
	emailLogs *repository.EmailLogRepository
	mailer    mailer.Mailer
	logger    *zap.Logger
}

func NewNotificationService(emailLogs *repository.EmailLogRepository, m mailer.Mailer, logger *zap.Logger) *NotificationService {
	return &NotificationService{emailLogs: emailLogs, mailer: m, logger: logger}
}

// SendDelivery mails the allocated cards for a completed order. Failures are logged and
// recorded; they never change the order.
func (s *NotificationService) SendDelivery(ctx context.Context, order *models.Order, cards []models.ScratchCard, name string) models.EmailLog {
	if name == "" {
		name = "Customer"
	}
	var body bytes.Buffer
	err := deliveryTmpl.Execute(&body, map[string]interface{}{
		"Name":      name,
		"CardType":  order.CardType,
		"Cards":     cards,
		"Reference": order.Reference,
	})
	subject := fmt.Sprintf("Your %s scratch card%s", order.CardType, plural(len(cards)))
	return s.send(ctx, order, subject, body.String(), err)
}

// SendDelayed tells the buyer their paid order is waiting on stock. Best-effort.
func (s *NotificationService) SendDelayed(ctx context.Context, order *models.Order, name string) models.EmailLog {
	if name == "" {
		name = "Customer"
	}
	var body bytes.Buffer
	err := delayedTmpl.Execute(&body, map[string]interface{}{
		"Name":      name,
		"CardType":  order.CardType,
		"Quantity":  order.Quantity,
		"Reference": order.Reference,
	})
	return s.send(ctx, order, "Your order is being processed", body.String(), err)
}

func (s *NotificationService) send(ctx context.Context, order *models.Order, subject, html string, renderErr error) models.EmailLog {
	entry := models.EmailLog{
		UserID:    order.UserID,
		OrderID:   &order.ID,
		Recipient: order.DeliveryEmail,
		Subject:   subject,
		CardType:  order.CardType,
	}
	var res mailer.Result
	switch {
	case renderErr != nil:
		res = mailer.Result{Error: "render: " + renderErr.Error()}
	case order.DeliveryEmail == "":
		res = mailer.Result{Error: "no delivery address"}
	default:
		res = s.mailer.Send(ctx, order.DeliveryEmail, subject, html)
	}
	if res.Success {
		entry.Status = domain.EmailStatusSent
		entry.MessageID = res.MessageID
	} else {
		entry.Status = domain.EmailStatusFailed
		msg := res.Error
		entry.Error = &msg
		s.logger.Error("customer email failed",
			zap.String("reference", order.Reference),
			zap.String("recipient", order.DeliveryEmail),
			zap.String("error", msg))
	}
	// The request context may already be done; the log row must still be written.
	if err := s.emailLogs.Create(context.WithoutCancel(ctx), &entry); err != nil {
		s.logger.Error("write email log", zap.String("reference", order.Reference), zap.Error(err))
	}
	return entry
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
