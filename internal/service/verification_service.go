package service

import (
	"context"
	"errors"
	"fmt"

	"pinvault/pkg/payment"

	"go.uber.org/zap"
)

var ErrPaymentNotSuccessful = errors.New("payment not successful")

// VerificationService is the guest poll path: pull the status from the gateway and, if
// paid, run the same fulfillment as a webhook would.
type VerificationService struct {
	gateway     payment.Gateway
	fulfillment *FulfillmentService
	logger      *zap.Logger
}

func NewVerificationService(gateway payment.Gateway, fulfillment *FulfillmentService, logger *zap.Logger) *VerificationService {
	return &VerificationService{gateway: gateway, fulfillment: fulfillment, logger: logger}
}

func (s *VerificationService) Verify(ctx context.Context, reference string) (*Result, error) {
	if reference == "" {
		return nil, errors.New("reference is required")
	}
	v, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		s.logger.Warn("gateway verify", zap.String("reference", reference), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", payment.ErrVerificationFailed, err)
	}
	if !v.Succeeded() {
		return nil, fmt.Errorf("%w: %s", ErrPaymentNotSuccessful, v.Status)
	}
	purpose, _ := v.Metadata["type"].(string)
	return s.fulfillment.FulfillCharge(ctx, Charge{
		Reference:        reference,
		AmountMinorUnits: v.AmountMinorUnits,
		Purpose:          purpose,
	})
}
