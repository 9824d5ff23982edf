package payment

import (
	"context"
	"strings"
	"sync"
)

// StubGateway is an in-process gateway for development and tests. References registered
// with Settle verify as successful; everything else verifies as failed.
type StubGateway struct {
	mu      sync.Mutex
	settled map[string]int64
	Fail    bool
}

func NewStubGateway() *StubGateway {
	return &StubGateway{settled: make(map[string]int64)}
}

func (s *StubGateway) Settle(reference string, amountMinorUnits int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settled[reference] = amountMinorUnits
}

func (s *StubGateway) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResponse, error) {
	if s.Fail {
		return nil, ErrVerificationFailed
	}
	return &InitializeResponse{
		Status:           true,
		AuthorizationURL: "https://checkout.stub.local/" + req.Reference,
		AccessCode:       "stub_" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

func (s *StubGateway) Verify(ctx context.Context, reference string) (*VerifyResponse, error) {
	if s.Fail {
		return nil, ErrVerificationFailed
	}
	s.mu.Lock()
	amount, ok := s.settled[reference]
	s.mu.Unlock()
	if !ok {
		return &VerifyResponse{Reference: reference, Status: StatusFailed, GatewayResponse: "Declined"}, nil
	}
	return &VerifyResponse{Reference: reference, Status: StatusSuccess, AmountMinorUnits: amount, GatewayResponse: "Approved"}, nil
}

func (s *StubGateway) InitiateTransfer(ctx context.Context, req TransferRequest) (*TransferResponse, error) {
	if s.Fail || strings.TrimSpace(req.RecipientCode) == "" {
		return nil, ErrVerificationFailed
	}
	return &TransferResponse{TransferCode: "TRF_" + req.Reference, Status: StatusPending}, nil
}
