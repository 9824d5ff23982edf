package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"pinvault/internal/domain"
	"pinvault/internal/intent"
	"pinvault/internal/models"
	"pinvault/internal/repository"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrIntentMissing means payment was confirmed but the checkout context is gone.
	// It needs a human; retrying the event cannot help.
	ErrIntentMissing   = errors.New("payment confirmed but order context missing")
	ErrAmountMismatch  = errors.New("paid amount does not match order total")
	ErrGuestDeposit    = errors.New("wallet funding requires an authenticated buyer")
	ErrOrderNotPending = errors.New("order is not pending")
)

// errDuplicate aborts the fulfillment transaction when another delivery of the same
// reference has already committed.
var errDuplicate = errors.New("duplicate delivery")

// errUnderpaid aborts the fulfillment transaction when the allocated cards cost more than
// the intent's total.
var errUnderpaid = errors.New("charge below card prices")

type Outcome int

const (
	OutcomeError Outcome = iota
	OutcomeCompleted
	OutcomeDuplicate
	OutcomeShortfall
	OutcomeIntentMissing
	OutcomeAmountMismatch
	OutcomeDeposit
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeShortfall:
		return "shortfall"
	case OutcomeIntentMissing:
		return "intent_missing"
	case OutcomeAmountMismatch:
		return "amount_mismatch"
	case OutcomeDeposit:
		return "deposit"
	default:
		return "error"
	}
}

// Charge is a gateway-confirmed successful payment.
type Charge struct {
	Reference        string
	AmountMinorUnits int64
	Purpose          string // metadata "type", may be empty
}

type Result struct {
	Outcome   Outcome
	Order     *models.Order
	Cards     []models.ScratchCard
	Shortfall *repository.ShortfallError
	Email     *models.EmailLog
}

// FulfillmentService turns confirmed payments into ledger state: one SUCCESS transaction per
// reference, a wallet credit or an order with bound cards, then customer and operator mail.
type FulfillmentService struct {
	store     *repository.Store
	intents   intent.Cache
	notifier  *NotificationService
	escalator Escalator
	logger    *zap.Logger
	tracer    trace.Tracer
	outcomes  metric.Int64Counter
}

func NewFulfillmentService(store *repository.Store, intents intent.Cache, notifier *NotificationService, escalator Escalator, logger *zap.Logger) *FulfillmentService {
	outcomes, err := otel.Meter("pinvault/fulfillment").Int64Counter("fulfillment.outcomes",
		metric.WithDescription("Confirmed payments by fulfillment outcome"))
	if err != nil {
		logger.Warn("create outcome counter", zap.Error(err))
	}
	return &FulfillmentService{
		store:     store,
		intents:   intents,
		notifier:  notifier,
		escalator: escalator,
		logger:    logger,
		tracer:    otel.Tracer("pinvault/fulfillment"),
		outcomes:  outcomes,
	}
}

// FulfillCharge is the single entry point for webhook pushes and guest polls. Expected
// business conditions come back as an Outcome together with a sentinel error where one applies.
func (s *FulfillmentService) FulfillCharge(ctx context.Context, ch Charge) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "fulfillment.charge",
		trace.WithAttributes(attribute.String("payment.reference", ch.Reference)))
	defer span.End()

	res, err := s.fulfillCharge(ctx, ch)
	s.finish(ctx, span, res.Outcome, err)
	return res, err
}

func (s *FulfillmentService) fulfillCharge(ctx context.Context, ch Charge) (*Result, error) {
	log := s.logger.With(zap.String("reference", ch.Reference))

	existing, err := s.store.Transactions.GetByReference(ctx, ch.Reference)
	switch {
	case err == nil && existing.Status == domain.TxStatusSuccess:
		log.Info("duplicate charge ignored")
		return &Result{Outcome: OutcomeDuplicate}, nil
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return &Result{}, fmt.Errorf("idempotency lookup: %w", err)
	}

	p, err := s.intents.Get(ctx, ch.Reference)
	if errors.Is(err, intent.ErrNotFound) {
		// A concurrent delivery of the same reference deletes the intent after it commits.
		if t, terr := s.store.Transactions.GetByReference(ctx, ch.Reference); terr == nil && t.Status == domain.TxStatusSuccess {
			log.Info("duplicate charge ignored")
			return &Result{Outcome: OutcomeDuplicate}, nil
		}
		log.Error("payment confirmed but intent missing", zap.Int64("amount_minor", ch.AmountMinorUnits))
		return &Result{Outcome: OutcomeIntentMissing}, ErrIntentMissing
	}
	if err != nil {
		return &Result{}, fmt.Errorf("load intent: %w", err)
	}

	if ch.AmountMinorUnits != p.TotalAmount*100 {
		log.Error("charge amount mismatch",
			zap.Int64("paid_minor", ch.AmountMinorUnits),
			zap.Int64("expected_minor", p.TotalAmount*100))
		return &Result{Outcome: OutcomeAmountMismatch}, ErrAmountMismatch
	}

	if ch.Purpose == domain.PurposeWalletFunding || p.IsWalletFunding() {
		return s.fulfillDeposit(ctx, log, p)
	}
	return s.fulfillPurchase(ctx, log, p)
}

func (s *FulfillmentService) fulfillDeposit(ctx context.Context, log *zap.Logger, p *intent.PaymentIntent) (*Result, error) {
	uid := p.UserID()
	if uid == nil {
		log.Error("wallet funding intent has no buyer", zap.String("buyer_id", p.BuyerID))
		return &Result{Outcome: OutcomeError}, ErrGuestDeposit
	}
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		if _, err := claimReference(ctx, tx, p, domain.TxTypeDeposit); err != nil {
			return err
		}
		return tx.Wallets.Credit(ctx, *uid, p.TotalAmount)
	})
	if errors.Is(err, errDuplicate) {
		log.Info("duplicate deposit ignored")
		return &Result{Outcome: OutcomeDuplicate}, nil
	}
	if err != nil {
		if s.settledElsewhere(ctx, p.Reference) {
			log.Info("concurrent delivery won", zap.NamedError("lost_with", err))
			return &Result{Outcome: OutcomeDuplicate}, nil
		}
		return &Result{}, fmt.Errorf("credit wallet: %w", err)
	}
	s.dropIntent(ctx, log, p.Reference)
	log.Info("wallet funded", zap.Uint("user_id", *uid), zap.Int64("amount", p.TotalAmount))
	return &Result{Outcome: OutcomeDeposit}, nil
}

func (s *FulfillmentService) fulfillPurchase(ctx context.Context, log *zap.Logger, p *intent.PaymentIntent) (*Result, error) {
	res := &Result{}
	var due int64
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		t, err := claimReference(ctx, tx, p, domain.TxTypePurchase)
		if err != nil {
			return err
		}
		order := &models.Order{
			Reference:     p.Reference,
			UserID:        p.UserID(),
			DeliveryEmail: p.Email,
			CardType:      p.ProductType,
			Quantity:      p.Quantity,
			TotalAmount:   p.TotalAmount,
			Status:        domain.OrderStatusProcessing,
		}
		if order.UserID == nil {
			email := p.Email
			order.GuestEmail = &email
		}
		if err := tx.Orders.Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		t.OrderID = &order.ID
		if err := tx.Transactions.Update(ctx, t); err != nil {
			return fmt.Errorf("link transaction: %w", err)
		}
		res.Order = order

		cards, err := tx.Cards.Allocate(ctx, order.CardType, order.Quantity, order.ID, order.UserID)
		var shortfall *repository.ShortfallError
		if errors.As(err, &shortfall) {
			res.Shortfall = shortfall
			return tx.Orders.UpdateStatus(ctx, order, domain.OrderStatusPending)
		}
		if err != nil {
			return err
		}
		if due = repository.PriceOf(cards); p.TotalAmount < due {
			return errUnderpaid
		}
		res.Cards = cards
		return tx.Orders.UpdateStatus(ctx, order, domain.OrderStatusCompleted)
	})
	if errors.Is(err, errDuplicate) {
		log.Info("duplicate charge ignored")
		return &Result{Outcome: OutcomeDuplicate}, nil
	}
	if errors.Is(err, errUnderpaid) {
		log.Error("charge below card prices",
			zap.Int64("paid", p.TotalAmount),
			zap.Int64("due", due),
			zap.String("card_type", p.ProductType),
			zap.Int("quantity", p.Quantity))
		return &Result{Outcome: OutcomeAmountMismatch}, ErrAmountMismatch
	}
	if err != nil {
		if s.settledElsewhere(ctx, p.Reference) {
			log.Info("concurrent delivery won", zap.NamedError("lost_with", err))
			return &Result{Outcome: OutcomeDuplicate}, nil
		}
		return &Result{}, fmt.Errorf("fulfill purchase: %w", err)
	}

	if res.Shortfall != nil {
		res.Outcome = OutcomeShortfall
		log.Warn("order pending on stock",
			zap.String("card_type", res.Shortfall.CardType),
			zap.Int("required", res.Shortfall.Required),
			zap.Int("available", res.Shortfall.Available))
		s.escalate(ctx, log, res.Order, res.Shortfall, p.BuyerID, p.DisplayName)
		delayed := s.notifier.SendDelayed(ctx, res.Order, p.DisplayName)
		res.Email = &delayed
		return res, nil
	}

	res.Outcome = OutcomeCompleted
	s.dropIntent(ctx, log, p.Reference)
	sent := s.notifier.SendDelivery(ctx, res.Order, res.Cards, p.DisplayName)
	res.Email = &sent
	log.Info("order completed", zap.Uint("order_id", res.Order.ID), zap.Int("cards", len(res.Cards)), zap.String("email_status", sent.Status))
	return res, nil
}

// claimReference records the SUCCESS transaction for p.Reference inside tx. A row that
// already succeeded, or a concurrent insert that wins the unique reference, yields errDuplicate.
func claimReference(ctx context.Context, tx *repository.Store, p *intent.PaymentIntent, txType string) (*models.Transaction, error) {
	t, err := tx.Transactions.GetByReferenceForUpdate(ctx, p.Reference)
	switch {
	case err == nil:
		if t.Status == domain.TxStatusSuccess {
			return nil, errDuplicate
		}
		t.Status = domain.TxStatusSuccess
		t.Type = txType
		t.Amount = p.TotalAmount
		t.UserID = p.UserID()
		if err := tx.Transactions.Update(ctx, t); err != nil {
			return nil, fmt.Errorf("update transaction: %w", err)
		}
		return t, nil
	case errors.Is(err, repository.ErrNotFound):
		t = &models.Transaction{
			UserID:    p.UserID(),
			Amount:    p.TotalAmount,
			Type:      txType,
			Reference: p.Reference,
			Status:    domain.TxStatusSuccess,
			Metadata:  fmt.Sprintf(`{"productType":%q,"quantity":%d,"buyerId":%q}`, p.ProductType, p.Quantity, p.BuyerID),
		}
		if err := tx.Transactions.Create(ctx, t); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, errDuplicate
			}
			return nil, fmt.Errorf("create transaction: %w", err)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("lock transaction: %w", err)
	}
}

// Replay retries allocation for an order left PENDING by a shortfall.
func (s *FulfillmentService) Replay(ctx context.Context, reference string) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "fulfillment.replay",
		trace.WithAttributes(attribute.String("payment.reference", reference)))
	defer span.End()

	log := s.logger.With(zap.String("reference", reference))
	res := &Result{}
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		order, err := tx.Orders.GetByReferenceForUpdate(ctx, reference)
		if err != nil {
			return err
		}
		res.Order = order
		if order.Status != domain.OrderStatusPending {
			return ErrOrderNotPending
		}
		cards, err := tx.Cards.Allocate(ctx, order.CardType, order.Quantity, order.ID, order.UserID)
		var shortfall *repository.ShortfallError
		if errors.As(err, &shortfall) {
			res.Shortfall = shortfall
			return nil
		}
		if err != nil {
			return err
		}
		if due := repository.PriceOf(cards); order.TotalAmount < due {
			return fmt.Errorf("%w: paid %d, cards cost %d", ErrAmountMismatch, order.TotalAmount, due)
		}
		res.Cards = cards
		return tx.Orders.UpdateStatus(ctx, order, domain.OrderStatusCompleted)
	})
	if err != nil {
		res.Outcome = OutcomeError
		s.finish(ctx, span, res.Outcome, err)
		return res, err
	}

	name := ""
	if p, err := s.intents.Get(ctx, reference); err == nil {
		name = p.DisplayName
	}
	buyer := domain.GuestBuyer
	if res.Order.UserID != nil {
		buyer = strconv.FormatUint(uint64(*res.Order.UserID), 10)
	}

	if res.Shortfall != nil {
		res.Outcome = OutcomeShortfall
		log.Warn("replay still short", zap.Int("available", res.Shortfall.Available))
		s.escalate(ctx, log, res.Order, res.Shortfall, buyer, name)
	} else {
		res.Outcome = OutcomeCompleted
		s.dropIntent(ctx, log, reference)
		sent := s.notifier.SendDelivery(ctx, res.Order, res.Cards, name)
		res.Email = &sent
		log.Info("replayed order completed", zap.Uint("order_id", res.Order.ID))
	}
	s.finish(ctx, span, res.Outcome, nil)
	return res, nil
}

// FailOrder closes a PENDING order that will not be filled. Refunds happen out of band.
func (s *FulfillmentService) FailOrder(ctx context.Context, reference string) (*models.Order, error) {
	var order *models.Order
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		o, err := tx.Orders.GetByReferenceForUpdate(ctx, reference)
		if err != nil {
			return err
		}
		if o.Status != domain.OrderStatusPending {
			return ErrOrderNotPending
		}
		order = o
		return tx.Orders.UpdateStatus(ctx, o, domain.OrderStatusFailed)
	})
	if err != nil {
		return nil, err
	}
	log := s.logger.With(zap.String("reference", reference))
	s.dropIntent(ctx, log, reference)
	log.Warn("order failed by operator", zap.Uint("order_id", order.ID))
	return order, nil
}

func (s *FulfillmentService) escalate(ctx context.Context, log *zap.Logger, order *models.Order, sf *repository.ShortfallError, buyerID, name string) {
	alert := ShortfallAlert{
		Reference:   order.Reference,
		OrderID:     order.ID,
		CardType:    sf.CardType,
		Required:    sf.Required,
		Available:   sf.Available,
		BuyerID:     buyerID,
		Email:       order.DeliveryEmail,
		DisplayName: name,
		OccurredAt:  time.Now().UTC(),
	}
	if err := s.escalator.Escalate(context.WithoutCancel(ctx), alert); err != nil {
		log.Error("operator escalation failed", zap.Error(err))
	}
}

// settledElsewhere reports whether reference already has a SUCCESS row. A transaction that
// lost a race (deadlock, serialization failure) is a duplicate when the winner committed.
func (s *FulfillmentService) settledElsewhere(ctx context.Context, reference string) bool {
	t, err := s.store.Transactions.GetByReference(ctx, reference)
	return err == nil && t.Status == domain.TxStatusSuccess
}

func (s *FulfillmentService) dropIntent(ctx context.Context, log *zap.Logger, reference string) {
	if err := s.intents.Delete(ctx, reference); err != nil {
		log.Warn("delete intent", zap.Error(err))
	}
}

func (s *FulfillmentService) finish(ctx context.Context, span trace.Span, o Outcome, err error) {
	span.SetAttributes(attribute.String("fulfillment.outcome", o.String()))
	if o == OutcomeError && err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if s.outcomes != nil {
		s.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", o.String())))
	}
}
