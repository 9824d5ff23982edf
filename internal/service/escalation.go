package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"pinvault/pkg/mailer"

	"go.uber.org/zap"
)

// ShortfallAlert is sent to operators when a paid order could not be filled from stock.
type ShortfallAlert struct {
	Reference   string    `json:"reference"`
	OrderID     uint      `json:"orderId"`
	CardType    string    `json:"cardType"`
	Required    int       `json:"required"`
	Available   int       `json:"available"`
	BuyerID     string    `json:"buyerId"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// Escalator is the operator channel. It is separate from customer email.
type Escalator interface {
	Escalate(ctx context.Context, alert ShortfallAlert) error
}

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	PublishJSON(topic, key string, event interface{}) error
}

type KafkaEscalator struct {
	publisher Publisher
	topic     string
}

func NewKafkaEscalator(p Publisher, topic string) *KafkaEscalator {
	return &KafkaEscalator{publisher: p, topic: topic}
}

func (e *KafkaEscalator) Escalate(_ context.Context, alert ShortfallAlert) error {
	return e.publisher.PublishJSON(e.topic, alert.Reference, alert)
}

var shortfallTmpl = template.Must(template.New("shortfall").Parse(`<p>Order {{.Reference}} (id {{.OrderID}}) needs {{.Required}} {{.CardType}} card(s); {{.Available}} available.</p>
<p>Buyer: {{.BuyerID}} &lt;{{.Email}}&gt;{{if .DisplayName}} ({{.DisplayName}}){{end}}</p>
<p>Restock, then replay the order or fail it.</p>`))

// MailEscalator emails the operator inbox.
type MailEscalator struct {
	mailer mailer.Mailer
	to     string
}

func NewMailEscalator(m mailer.Mailer, to string) *MailEscalator {
	return &MailEscalator{mailer: m, to: to}
}

func (e *MailEscalator) Escalate(ctx context.Context, alert ShortfallAlert) error {
	subject := fmt.Sprintf("[stock] %s shortfall on order %s", alert.CardType, alert.Reference)
	var body bytes.Buffer
	if err := shortfallTmpl.Execute(&body, alert); err != nil {
		return fmt.Errorf("render shortfall alert: %w", err)
	}
	res := e.mailer.Send(ctx, e.to, subject, body.String())
	if !res.Success {
		return errors.New(res.Error)
	}
	return nil
}

// LogEscalator only logs. Used when no broker is configured.
type LogEscalator struct {
	logger *zap.Logger
}

func NewLogEscalator(logger *zap.Logger) *LogEscalator {
	return &LogEscalator{logger: logger}
}

func (e *LogEscalator) Escalate(_ context.Context, alert ShortfallAlert) error {
	e.logger.Error("inventory shortfall",
		zap.String("reference", alert.Reference),
		zap.String("card_type", alert.CardType),
		zap.Int("required", alert.Required),
		zap.Int("available", alert.Available),
		zap.String("buyer_id", alert.BuyerID),
		zap.String("email", alert.Email))
	return nil
}

// Escalators fans an alert out to every channel and joins their errors.
type Escalators []Escalator

func (es Escalators) Escalate(ctx context.Context, alert ShortfallAlert) error {
	var errs []error
	for _, e := range es {
		if err := e.Escalate(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
