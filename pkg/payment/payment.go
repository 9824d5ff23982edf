// Package payment is the outbound client for the card payment gateway.
package payment

import (
	"context"
	"errors"
)

var ErrVerificationFailed = errors.New("payment verification failed")

const (
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
	StatusPending   = "pending"
)

type InitializeRequest struct {
	Email            string
	AmountMinorUnits int64
	Reference        string
	CallbackURL      string
	Metadata         map[string]interface{}
}

type InitializeResponse struct {
	Status           bool
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

type VerifyResponse struct {
	Reference        string
	Status           string // success | failed | abandoned | pending
	AmountMinorUnits int64
	GatewayResponse  string
	Metadata         map[string]interface{}
}

func (v *VerifyResponse) Succeeded() bool { return v.Status == StatusSuccess }

type TransferRequest struct {
	AmountMinorUnits int64
	RecipientCode    string
	Reference        string
	Reason           string
}

type TransferResponse struct {
	TransferCode string
	Status       string
}

// Gateway is the black-box payment provider.
type Gateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResponse, error)
	Verify(ctx context.Context, reference string) (*VerifyResponse, error)
	InitiateTransfer(ctx context.Context, req TransferRequest) (*TransferResponse, error)
}
