package service

import (
	"testing"

	"pinvault/internal/domain"
	"pinvault/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_SendDeliveryRendersImageCards(t *testing.T) {
	f := newFixture(t)
	order := &models.Order{Reference: "R-img", DeliveryEmail: "a@b.com", CardType: "WAEC", Quantity: 2, Status: domain.OrderStatusCompleted}
	require.NoError(t, f.store.Orders.Create(f.ctx, order))
	cards := []models.ScratchCard{
		{Type: "WAEC", Pin: "1234-5678", SerialNumber: "SN1"},
		{Type: "WAEC", SerialNumber: "SN2", ImageURL: "https://res.cloudinary.com/demo/image/upload/waec-sn2"},
	}

	entry := f.notifier.SendDelivery(f.ctx, order, cards, "")

	assert.Equal(t, domain.EmailStatusSent, entry.Status)
	require.Equal(t, 1, f.mail.count())
	html := f.mail.sent[0].HTML
	assert.Contains(t, html, "Hello Customer")
	assert.Contains(t, html, "1234-5678")
	assert.Contains(t, html, `<a href="https://res.cloudinary.com/demo/image/upload/waec-sn2">View card</a>`)
	assert.Equal(t, "Your WAEC scratch cards", f.mail.sent[0].Subject)
}

func TestNotificationService_NoAddressIsLoggedAsFailed(t *testing.T) {
	f := newFixture(t)
	order := &models.Order{Reference: "R-noaddr", CardType: "NECO", Quantity: 1, Status: domain.OrderStatusCompleted}
	require.NoError(t, f.store.Orders.Create(f.ctx, order))

	entry := f.notifier.SendDelivery(f.ctx, order, nil, "Ada")

	assert.Equal(t, domain.EmailStatusFailed, entry.Status)
	assert.Equal(t, 0, f.mail.count())
	logs, err := f.store.EmailLogs.ListByOrderID(f.ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestEscalators_JoinErrors(t *testing.T) {
	rec := &recordingEscalator{}
	mail := &fakeMailer{fail: true}
	es := Escalators{rec, NewMailEscalator(mail, "ops@shop.test")}

	err := es.Escalate(t.Context(), ShortfallAlert{Reference: "R", CardType: "WAEC", Required: 2})

	assert.Error(t, err)
	assert.Len(t, rec.alerts, 1)
}

func TestMailEscalator_EscapesBuyerFields(t *testing.T) {
	mail := &fakeMailer{}
	esc := NewMailEscalator(mail, "ops@shop.test")

	err := esc.Escalate(t.Context(), ShortfallAlert{
		Reference:   "R-x",
		CardType:    "NECO",
		Required:    5,
		Available:   3,
		BuyerID:     "guest",
		Email:       `"><script>alert(1)</script>@x.com`,
		DisplayName: "<b>Ada</b>",
	})

	require.NoError(t, err)
	require.Equal(t, 1, mail.count())
	html := mail.sent[0].HTML
	assert.Equal(t, "ops@shop.test", mail.sent[0].To)
	assert.Contains(t, html, "needs 5 NECO card(s); 3 available")
	assert.NotContains(t, html, "<script>")
	assert.NotContains(t, html, "<b>Ada</b>")
	assert.Contains(t, html, "&lt;script&gt;")
}
