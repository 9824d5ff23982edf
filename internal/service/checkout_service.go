package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"pinvault/internal/domain"
	"pinvault/internal/intent"
	"pinvault/internal/repository"
	"pinvault/pkg/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

type CheckoutRequest struct {
	BuyerID     *uint
	Purpose     string
	ProductType string
	Quantity    int
	Amount      int64 // wallet funding only
	Email       string
	DisplayName string
}

type CheckoutResponse struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorizationUrl"`
	AccessCode       string `json:"accessCode,omitempty"`
	TotalAmount      int64  `json:"totalAmount"`
}

// CheckoutService prices a request, stages the intent and opens a gateway payment.
type CheckoutService struct {
	store       *repository.Store
	intents     intent.Cache
	gateway     payment.Gateway
	ttl         time.Duration
	callbackURL string
	logger      *zap.Logger
}

func NewCheckoutService(store *repository.Store, intents intent.Cache, gateway payment.Gateway, ttl time.Duration, callbackURL string, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{store: store, intents: intents, gateway: gateway, ttl: ttl, callbackURL: callbackURL, logger: logger}
}

func (s *CheckoutService) Initialize(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error) {
	if req.Email == "" {
		return nil, errors.New("email is required")
	}
	p := &intent.PaymentIntent{
		Reference:   "pv_" + uuid.NewString(),
		BuyerID:     domain.GuestBuyer,
		Purpose:     domain.PurposePurchase,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		CreatedAt:   time.Now().UTC(),
	}
	if req.BuyerID != nil {
		p.BuyerID = strconv.FormatUint(uint64(*req.BuyerID), 10)
	}

	switch req.Purpose {
	case domain.PurposeWalletFunding:
		if req.BuyerID == nil {
			return nil, ErrGuestDeposit
		}
		if req.Amount <= 0 {
			return nil, ErrInvalidAmount
		}
		p.Purpose = domain.PurposeWalletFunding
		p.TotalAmount = req.Amount
	case "", domain.PurposePurchase:
		if !domain.IsCardType(req.ProductType) || req.Quantity < 1 {
			return nil, ErrInvalidProduct
		}
		total, err := s.store.Cards.Quote(ctx, req.ProductType, req.Quantity)
		if err != nil {
			return nil, err
		}
		p.ProductType = req.ProductType
		p.Quantity = req.Quantity
		p.UnitPrice = total / int64(req.Quantity)
		p.TotalAmount = total
	default:
		return nil, fmt.Errorf("%w: unknown purpose %q", ErrInvalidProduct, req.Purpose)
	}

	if err := s.intents.Put(ctx, p, s.ttl); err != nil {
		return nil, fmt.Errorf("stage intent: %w", err)
	}
	init, err := s.gateway.Initialize(ctx, payment.InitializeRequest{
		Email:            p.Email,
		AmountMinorUnits: p.TotalAmount * 100,
		Reference:        p.Reference,
		CallbackURL:      s.callbackURL,
		Metadata:         map[string]interface{}{"type": p.Purpose, "buyerId": p.BuyerID},
	})
	if err != nil {
		s.logger.Error("gateway initialize", zap.String("reference", p.Reference), zap.Error(err))
		if derr := s.intents.Delete(ctx, p.Reference); derr != nil {
			s.logger.Warn("delete intent", zap.String("reference", p.Reference), zap.Error(derr))
		}
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	s.logger.Info("checkout initialized",
		zap.String("reference", p.Reference),
		zap.String("purpose", p.Purpose),
		zap.Int64("amount", p.TotalAmount))
	return &CheckoutResponse{
		Reference:        p.Reference,
		AuthorizationURL: init.AuthorizationURL,
		AccessCode:       init.AccessCode,
		TotalAmount:      p.TotalAmount,
	}, nil
}
