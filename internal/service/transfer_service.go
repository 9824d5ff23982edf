package service

import (
	"context"
	"errors"
	"fmt"

	"pinvault/internal/domain"
	"pinvault/internal/models"
	"pinvault/internal/repository"

	"go.uber.org/zap"
)

var ErrNotWithdrawal = errors.New("reference is not a withdrawal")

// TransferService settles wallet withdrawals from gateway transfer events. Each settlement is
// a conditional PENDING transition, so redelivered events change nothing.
type TransferService struct {
	store  *repository.Store
	logger *zap.Logger
}

func NewTransferService(store *repository.Store, logger *zap.Logger) *TransferService {
	return &TransferService{store: store, logger: logger}
}

// Complete marks a pending withdrawal successful. It reports whether this call moved it.
func (s *TransferService) Complete(ctx context.Context, reference string) (bool, error) {
	var moved bool
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		if _, err := lockWithdrawal(ctx, tx, reference); err != nil {
			return err
		}
		var err error
		moved, err = tx.Transactions.TransitionStatus(ctx, reference, domain.TxStatusPending, domain.TxStatusSuccess)
		return err
	})
	if err != nil {
		return false, err
	}
	if moved {
		s.logger.Info("withdrawal settled", zap.String("reference", reference))
	}
	return moved, nil
}

// Fail marks a pending withdrawal failed and returns the money to the wallet, recording the
// refund as its own REFUND transaction.
func (s *TransferService) Fail(ctx context.Context, reference, reason string) (bool, error) {
	var moved bool
	var t *models.Transaction
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		var err error
		t, err = lockWithdrawal(ctx, tx, reference)
		if err != nil {
			return err
		}
		moved, err = tx.Transactions.TransitionStatus(ctx, reference, domain.TxStatusPending, domain.TxStatusFailed)
		if err != nil || !moved {
			return err
		}
		if t.UserID == nil {
			return fmt.Errorf("withdrawal %s has no owner", reference)
		}
		if err := tx.Wallets.Credit(ctx, *t.UserID, t.Amount); err != nil {
			return fmt.Errorf("refund wallet: %w", err)
		}
		return tx.Transactions.Create(ctx, &models.Transaction{
			UserID:    t.UserID,
			Amount:    t.Amount,
			Type:      domain.TxTypeRefund,
			Reference: reference + "_refund",
			Status:    domain.TxStatusSuccess,
			Metadata:  fmt.Sprintf(`{"withdrawal":%q,"reason":%q}`, reference, reason),
		})
	})
	if err != nil {
		return false, err
	}
	if moved {
		s.logger.Warn("withdrawal failed, refunded",
			zap.String("reference", reference),
			zap.Uint("user_id", *t.UserID),
			zap.Int64("amount", t.Amount),
			zap.String("reason", reason))
	}
	return moved, nil
}

func lockWithdrawal(ctx context.Context, tx *repository.Store, reference string) (*models.Transaction, error) {
	t, err := tx.Transactions.GetByReferenceForUpdate(ctx, reference)
	if err != nil {
		return nil, err
	}
	if t.Type != domain.TxTypeWithdrawal {
		return nil, ErrNotWithdrawal
	}
	return t, nil
}
