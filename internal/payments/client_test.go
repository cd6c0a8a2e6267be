package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarer-app/wayfarer/internal/shared"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestCreateSession(t *testing.T) {
	var gotAuth string
	var gotParams SessionParams
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotParams))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_123","url":"https://pay.example/cs_123"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test", "whsec")
	session, err := client.CreateSession(context.Background(), SessionParams{
		Reference:   "ref-1",
		Email:       "ada@example.com",
		Name:        "The Forest Hiker Tour",
		AmountCents: 49700,
		Currency:    "usd",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_123", session.ID)
	assert.Equal(t, "https://pay.example/cs_123", session.URL)
	assert.Equal(t, "Bearer sk_test", gotAuth)
	assert.Equal(t, "ref-1", gotParams.Reference)
	assert.Equal(t, int64(49700), gotParams.AmountCents)
}

func TestCreateSessionProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test", "whsec")
	_, err := client.CreateSession(context.Background(), SessionParams{})
	assert.ErrorContains(t, err, "status 502")
}

func TestParseEvent(t *testing.T) {
	client := NewClient("http://unused", "sk_test", "whsec")
	body := []byte(`{"type":"checkout.completed","sessionId":"cs_123","clientReference":"ref-1"}`)

	header := http.Header{}
	header.Set("X-Webhook-Signature", sign("whsec", body))

	event, err := client.ParseEvent(body, header)
	require.NoError(t, err)
	assert.Equal(t, EventCheckoutCompleted, event.Type)
	assert.Equal(t, "ref-1", event.Reference)
}

func TestParseEventRejectsBadSignature(t *testing.T) {
	client := NewClient("http://unused", "sk_test", "whsec")
	body := []byte(`{"type":"checkout.completed"}`)

	header := http.Header{}
	header.Set("X-Webhook-Signature", sign("wrong-secret", body))
	_, err := client.ParseEvent(body, header)
	assert.ErrorIs(t, err, shared.ErrValidation)

	header.Set("X-Webhook-Signature", "zzz not hex")
	_, err = client.ParseEvent(body, header)
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = client.ParseEvent(body, http.Header{})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestParseEventRejectsTamperedBody(t *testing.T) {
	client := NewClient("http://unused", "sk_test", "whsec")
	body := []byte(`{"type":"checkout.completed","clientReference":"ref-1"}`)

	header := http.Header{}
	header.Set("X-Webhook-Signature", sign("whsec", body))

	tampered := []byte(`{"type":"checkout.completed","clientReference":"ref-2"}`)
	_, err := client.ParseEvent(tampered, header)
	assert.ErrorIs(t, err, shared.ErrValidation)
}
