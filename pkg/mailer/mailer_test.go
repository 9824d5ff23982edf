package mailer

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

func TestHTTPMailer_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Your cards", body["subject"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1"}`))
	}))
	defer srv.Close()
	m := NewHTTPMailer(srv.URL, "key", "from@x.com", time.Second, zap.NewNop())

	res := m.Send(context.Background(), "a@b.com", "Your cards", "<p>hi</p>")

	assert.True(t, res.Success)
	assert.Equal(t, "msg_1", res.MessageID)
}

func TestHTTPMailer_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid recipient"}`))
	}))
	defer srv.Close()
	m := NewHTTPMailer(srv.URL, "key", "from@x.com", time.Second, zap.NewNop())

	res := m.Send(context.Background(), "bad", "s", "h")

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "invalid recipient")
}

func TestHTTPMailer_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()
	m := NewHTTPMailer(srv.URL, "key", "from@x.com", 20*time.Millisecond, zap.NewNop())

	res := m.Send(context.Background(), "a@b.com", "s", "h")

	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}
