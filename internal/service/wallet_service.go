package service

import (
	"context"
	"errors"
	"fmt"

	"pinvault/internal/domain"
	"pinvault/internal/models"
	"pinvault/internal/repository"
	"pinvault/pkg/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidAmount  = errors.New("amount must be positive")
	ErrInvalidProduct = errors.New("unknown card type or quantity")
	ErrTransferFailed = errors.New("transfer could not be initiated")
)

// WalletService is the balance-funded path into orders. It allocates through the same
// CardRepository.Allocate as gateway fulfillment.
type WalletService struct {
	store     *repository.Store
	gateway   payment.Gateway
	transfers *TransferService
	notifier  *NotificationService
	logger    *zap.Logger
}

func NewWalletService(store *repository.Store, gateway payment.Gateway, transfers *TransferService, notifier *NotificationService, logger *zap.Logger) *WalletService {
	return &WalletService{store: store, gateway: gateway, transfers: transfers, notifier: notifier, logger: logger}
}

func (s *WalletService) Balance(ctx context.Context, userID uint) (*models.Wallet, error) {
	return s.store.Wallets.GetOrCreate(ctx, userID)
}

type WalletPurchase struct {
	UserID      uint
	Email       string
	DisplayName string
	CardType    string
	Quantity    int
}

// Purchase allocates cards, debits the wallet by their summed price and completes the order
// in one transaction. A shortfall or a short balance rolls the whole thing back, so the buyer
// is never charged for cards they did not get.
func (s *WalletService) Purchase(ctx context.Context, req WalletPurchase) (*Result, error) {
	if !domain.IsCardType(req.CardType) || req.Quantity < 1 {
		return nil, ErrInvalidProduct
	}
	reference := "wal_" + uuid.NewString()
	uid := req.UserID

	res := &Result{}
	var total int64
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		w, err := tx.Wallets.GetForUpdate(ctx, uid)
		if err != nil {
			return err
		}
		order := &models.Order{
			Reference:     reference,
			UserID:        &uid,
			DeliveryEmail: req.Email,
			CardType:      req.CardType,
			Quantity:      req.Quantity,
			Status:        domain.OrderStatusProcessing,
		}
		if err := tx.Orders.Create(ctx, order); err != nil {
			return err
		}
		cards, err := tx.Cards.Allocate(ctx, req.CardType, req.Quantity, order.ID, &uid)
		if err != nil {
			return err
		}
		total = repository.PriceOf(cards)
		if w.Balance < total {
			return repository.ErrInsufficientBalance
		}
		if err := tx.Wallets.Debit(ctx, uid, total); err != nil {
			return err
		}
		if err := tx.Orders.SetTotal(ctx, order, total); err != nil {
			return err
		}
		if err := tx.Transactions.Create(ctx, &models.Transaction{
			UserID:    &uid,
			Amount:    total,
			Type:      domain.TxTypePurchase,
			Reference: reference,
			Status:    domain.TxStatusSuccess,
			OrderID:   &order.ID,
			Metadata:  `{"source":"wallet"}`,
		}); err != nil {
			return err
		}
		res.Order = order
		res.Cards = cards
		return tx.Orders.UpdateStatus(ctx, order, domain.OrderStatusCompleted)
	})
	if err != nil {
		return nil, err
	}
	res.Outcome = OutcomeCompleted
	sent := s.notifier.SendDelivery(ctx, res.Order, res.Cards, req.DisplayName)
	res.Email = &sent
	s.logger.Info("wallet purchase completed",
		zap.String("reference", reference),
		zap.Uint("user_id", uid),
		zap.Int64("amount", total))
	return res, nil
}

// Withdraw debits the wallet, records a PENDING withdrawal and asks the gateway to pay out.
// The outcome arrives later as a transfer event. If the gateway refuses up front the
// withdrawal is failed and refunded immediately.
func (s *WalletService) Withdraw(ctx context.Context, userID uint, amount int64, recipientCode string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if recipientCode == "" {
		return nil, errors.New("recipient code is required")
	}
	t := &models.Transaction{
		UserID:    &userID,
		Amount:    amount,
		Type:      domain.TxTypeWithdrawal,
		Reference: "wd_" + uuid.NewString(),
		Status:    domain.TxStatusPending,
		Metadata:  fmt.Sprintf(`{"recipientCode":%q}`, recipientCode),
	}
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		if _, err := tx.Wallets.GetForUpdate(ctx, userID); err != nil {
			return err
		}
		if err := tx.Wallets.Debit(ctx, userID, amount); err != nil {
			return err
		}
		return tx.Transactions.Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	_, err = s.gateway.InitiateTransfer(ctx, payment.TransferRequest{
		AmountMinorUnits: amount * 100,
		RecipientCode:    recipientCode,
		Reference:        t.Reference,
		Reason:           "Wallet withdrawal",
	})
	if err != nil {
		s.logger.Error("initiate transfer", zap.String("reference", t.Reference), zap.Error(err))
		if _, ferr := s.transfers.Fail(context.WithoutCancel(ctx), t.Reference, err.Error()); ferr != nil {
			s.logger.Error("refund after transfer error", zap.String("reference", t.Reference), zap.Error(ferr))
		}
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	return t, nil
}
