package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"pinvault/internal/intent"
	"pinvault/internal/repository"
	"pinvault/internal/testutil"
	"pinvault/pkg/mailer"
	"pinvault/pkg/payment"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type sentMail struct {
	To, Subject, HTML string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail bool
}

func (m *fakeMailer) Send(_ context.Context, to, subject, html string) mailer.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return mailer.Result{Error: "smtp timeout"}
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, HTML: html})
	return mailer.Result{Success: true, MessageID: "msg-1"}
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type recordingEscalator struct {
	mu     sync.Mutex
	alerts []ShortfallAlert
}

func (e *recordingEscalator) Escalate(_ context.Context, a ShortfallAlert) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.alerts = append(e.alerts, a)
	return nil
}

type fixture struct {
	ctx       context.Context
	db        *gorm.DB
	store     *repository.Store
	redis     *miniredis.Miniredis
	intents   *intent.RedisCache
	mail      *fakeMailer
	escalator *recordingEscalator
	gateway   *payment.StubGateway
	notifier  *NotificationService
	svc       *FulfillmentService
	transfers *TransferService
	wallets   *WalletService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger := zap.NewNop()
	store := repository.NewStore(db)
	f := &fixture{
		ctx:       context.Background(),
		db:        db,
		store:     store,
		redis:     mr,
		intents:   intent.NewRedisCache(rdb),
		mail:      &fakeMailer{},
		escalator: &recordingEscalator{},
		gateway:   payment.NewStubGateway(),
	}
	f.notifier = NewNotificationService(store.EmailLogs, f.mail, logger)
	f.svc = NewFulfillmentService(store, f.intents, f.notifier, f.escalator, logger)
	f.transfers = NewTransferService(store, logger)
	f.wallets = NewWalletService(store, f.gateway, f.transfers, f.notifier, logger)
	return f
}

func (f *fixture) stage(t *testing.T, p *intent.PaymentIntent) {
	t.Helper()
	require.NoError(t, f.intents.Put(f.ctx, p, time.Hour))
}

func purchaseIntent(ref, cardType string, qty int, unit int64) *intent.PaymentIntent {
	return &intent.PaymentIntent{
		Reference:   ref,
		BuyerID:     "guest",
		ProductType: cardType,
		Quantity:    qty,
		UnitPrice:   unit,
		TotalAmount: unit * int64(qty),
		Email:       "a@b.com",
		DisplayName: "Ada",
	}
}
