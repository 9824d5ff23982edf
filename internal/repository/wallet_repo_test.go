package repository_test

import (
	"context"
	"testing"

	"pinvault/internal/domain"
	"pinvault/internal/models"
	"pinvault/internal/repository"
	"pinvault/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletRepository_CreditDebit(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	wallets := repository.NewWalletRepository(db)

	require.NoError(t, wallets.Credit(ctx, 7, 5000))
	require.NoError(t, wallets.Debit(ctx, 7, 2000))

	w, err := wallets.GetByUserID(ctx, 7)
	require.NoError(t, err)
	assert.EqualValues(t, 3000, w.Balance)

	err = wallets.Debit(ctx, 7, 3001)
	assert.ErrorIs(t, err, repository.ErrInsufficientBalance)
	w, err = wallets.GetByUserID(ctx, 7)
	require.NoError(t, err)
	assert.EqualValues(t, 3000, w.Balance)
}

func TestWalletRepository_GetOrCreateIsIdempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	wallets := repository.NewWalletRepository(db)

	a, err := wallets.GetOrCreate(ctx, 9)
	require.NoError(t, err)
	b, err := wallets.GetOrCreate(ctx, 9)
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID)
	assert.EqualValues(t, 1, testutil.CountRows(t, db, &models.Wallet{}, "user_id = ?", 9))
}

func TestTransactionRepository_TransitionStatusOnlyOnce(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	txs := repository.NewTransactionRepository(db)
	uid := uint(3)
	require.NoError(t, txs.Create(ctx, &models.Transaction{
		UserID: &uid, Amount: 500, Type: domain.TxTypeWithdrawal, Reference: "wd_1", Status: domain.TxStatusPending,
	}))

	moved, err := txs.TransitionStatus(ctx, "wd_1", domain.TxStatusPending, domain.TxStatusFailed)
	require.NoError(t, err)
	assert.True(t, moved)

	moved, err = txs.TransitionStatus(ctx, "wd_1", domain.TxStatusPending, domain.TxStatusFailed)
	require.NoError(t, err)
	assert.False(t, moved)
}

func TestTransactionRepository_ReferenceIsUnique(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	txs := repository.NewTransactionRepository(db)

	require.NoError(t, txs.Create(ctx, &models.Transaction{Amount: 1, Type: domain.TxTypePurchase, Reference: "R1", Status: domain.TxStatusSuccess}))
	err := txs.Create(ctx, &models.Transaction{Amount: 1, Type: domain.TxTypePurchase, Reference: "R1", Status: domain.TxStatusSuccess})

	assert.Error(t, err)
	_, err = txs.GetByReference(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestWebhookLogRepository_Record(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	logs := repository.NewWebhookLogRepository(db)

	require.NoError(t, logs.Record(ctx, "webhook.received", domain.LogLevelInfo, map[string]interface{}{"event": "charge.success"}))

	list, err := logs.ListByEvent(ctx, "webhook.received")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.JSONEq(t, `{"event":"charge.success"}`, list[0].Data)
}
