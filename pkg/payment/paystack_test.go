package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *PaystackClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewPaystackClient(srv.URL, "sk_test", 5*time.Second, zap.NewNop())
}

func TestPaystackClient_Initialize(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "R1", body["reference"])
		assert.EqualValues(t, 200000, body["amount"])
		_, _ = w.Write([]byte(`{"status":true,"message":"ok","data":{"authorization_url":"https://pay/R1","access_code":"ac","reference":"R1"}}`))
	})

	resp, err := client.Initialize(context.Background(), InitializeRequest{Email: "a@b.com", AmountMinorUnits: 200000, Reference: "R1"})

	require.NoError(t, err)
	assert.Equal(t, "https://pay/R1", resp.AuthorizationURL)
}

func TestPaystackClient_Verify(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/verify/R1", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":true,"message":"ok","data":{"reference":"R1","status":"success","amount":200000,"gateway_response":"Approved"}}`))
	})

	resp, err := client.Verify(context.Background(), "R1")

	require.NoError(t, err)
	assert.True(t, resp.Succeeded())
	assert.EqualValues(t, 200000, resp.AmountMinorUnits)
}

func TestPaystackClient_VerifyNotFound(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":false,"message":"Transaction reference not found"}`))
	})

	_, err := client.Verify(context.Background(), "nope")

	assert.ErrorIs(t, err, ErrVerificationFailed)
}

func TestPaystackClient_InitiateTransferError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.InitiateTransfer(context.Background(), TransferRequest{AmountMinorUnits: 100, RecipientCode: "RCP_x", Reference: "wd_1"})

	assert.Error(t, err)
}

func TestPaystackClient_DecodesWithoutJSONContentType(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transfer", r.URL.Path)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(`{"status":true,"message":"queued","data":{"transfer_code":"TRF_1","status":"pending"}}`))
	})

	resp, err := client.InitiateTransfer(context.Background(), TransferRequest{AmountMinorUnits: 100, RecipientCode: "RCP_x", Reference: "wd_1"})

	require.NoError(t, err)
	assert.Equal(t, "TRF_1", resp.TransferCode)
	assert.Equal(t, StatusPending, resp.Status)
}

func TestStubGateway(t *testing.T) {
	gw := NewStubGateway()
	gw.Settle("R1", 5000)

	ok, err := gw.Verify(context.Background(), "R1")
	require.NoError(t, err)
	assert.True(t, ok.Succeeded())

	bad, err := gw.Verify(context.Background(), "R2")
	require.NoError(t, err)
	assert.False(t, bad.Succeeded())
}
