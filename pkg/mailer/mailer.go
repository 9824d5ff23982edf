// Package mailer delivers transactional email through an HTTP email API.
package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Result reports one delivery attempt. Transport failures are reported here rather than
// as a returned error so callers always have something to log.
type Result struct {
	Success   bool
	MessageID string
	Error     string
}

type Mailer interface {
	Send(ctx context.Context, to, subject, html string) Result
}

type HTTPMailer struct {
	client *resty.Client
	from   string
	logger *zap.Logger
}

func NewHTTPMailer(baseURL, apiKey, from string, timeout time.Duration, logger *zap.Logger) *HTTPMailer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")
	return &HTTPMailer{client: c, from: from, logger: logger}
}

type sendResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (m *HTTPMailer) Send(ctx context.Context, to, subject, html string) Result {
	var ok sendResponse
	var fail errorResponse
	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"from":    m.from,
			"to":      []string{to},
			"subject": subject,
			"html":    html,
		}).
		SetResult(&ok).
		SetError(&fail).
		ForceContentType("application/json").
		Post("/emails")
	if err != nil {
		m.logger.Warn("mail send failed", zap.String("to", to), zap.Error(err))
		return Result{Error: err.Error()}
	}
	if resp.IsError() {
		msg := fail.Message
		if msg == "" {
			msg = resp.Status()
		}
		m.logger.Warn("mail rejected", zap.String("to", to), zap.Int("http_status", resp.StatusCode()), zap.String("message", msg))
		return Result{Error: fmt.Sprintf("mail api %d: %s", resp.StatusCode(), msg)}
	}
	return Result{Success: true, MessageID: ok.ID}
}

// LogMailer writes messages to the log instead of sending them. Used when no API key is set.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, html string) Result {
	m.logger.Info("mail (log only)", zap.String("to", to), zap.String("subject", subject), zap.Int("bytes", len(html)))
	return Result{Success: true, MessageID: fmt.Sprintf("log-%d", time.Now().UnixNano())}
}
