package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Store bundles the ledger repositories over one *gorm.DB handle, which is either the
// pool or an open transaction.
type Store struct {
	db           *gorm.DB
	Orders       *OrderRepository
	Transactions *TransactionRepository
	Cards        *CardRepository
	Wallets      *WalletRepository
	EmailLogs    *EmailLogRepository
	WebhookLogs  *WebhookLogRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:           db,
		Orders:       NewOrderRepository(db),
		Transactions: NewTransactionRepository(db),
		Cards:        NewCardRepository(db),
		Wallets:      NewWalletRepository(db),
		EmailLogs:    NewEmailLogRepository(db),
		WebhookLogs:  NewWebhookLogRepository(db),
	}
}

// InTx runs fn against a Store bound to a single database transaction. Any error
// returned by fn rolls back every write made through the tx store.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func (s *Store) DB() *gorm.DB {
	return s.db
}
