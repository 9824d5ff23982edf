package webhook

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"reference":"R1"}}`)
	good := Sign("sk_test", body)

	tests := []struct {
		name    string
		secret  string
		body    []byte
		sig     string
		wantErr bool
	}{
		{"valid", "sk_test", body, good, false},
		{"valid uppercase hex", "sk_test", body, "  " + upper(good), false},
		{"wrong secret", "other", body, good, true},
		{"tampered body", "sk_test", []byte(`{"event":"charge.success","data":{"reference":"R2"}}`), good, true},
		{"missing signature", "sk_test", body, "", true},
		{"empty secret", "", body, Sign("", body), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifySignature(tt.secret, tt.body, tt.sig)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSignature)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'f' {
			b[i] = c - 32
		}
	}
	return string(b)
}

func TestParse_ChargeSuccess(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"reference":"R1","amount":200000,"status":"success","currency":"NGN","metadata":{"type":"purchase","buyerId":12}}}`)

	ev, err := Parse(body)

	require.NoError(t, err)
	assert.Equal(t, KindChargeSuccess, ev.Kind)
	assert.Equal(t, "R1", ev.Data.Reference)
	assert.EqualValues(t, 200000, ev.Data.Amount)
	assert.Equal(t, "purchase", ev.Data.Metadata.Type)
	assert.Equal(t, "12", ev.Data.Metadata.BuyerID)
}

func TestParse_StringMetadata(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"reference":"R1","amount":5000,"metadata":"{\"type\":\"wallet_funding\",\"buyerId\":\"4\"}"}}`)

	ev, err := Parse(body)

	require.NoError(t, err)
	assert.Equal(t, "wallet_funding", ev.Data.Metadata.Type)
	assert.Equal(t, "4", ev.Data.Metadata.BuyerID)
}

func TestParse_UnknownEventIsNotAnError(t *testing.T) {
	ev, err := Parse([]byte(`{"event":"subscription.create","data":{}}`))

	require.NoError(t, err)
	assert.Equal(t, KindUnknown, ev.Kind)
	assert.Equal(t, "subscription.create", ev.Name)
}

func TestParse_Malformed(t *testing.T) {
	for _, body := range []string{`not json`, `{"data":{}}`, `{"event":"transfer.failed","data":{}}`} {
		_, err := Parse([]byte(body))
		assert.True(t, errors.Is(err, ErrMalformedEvent), body)
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "transfer.reversed", KindTransferReversed.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}
