package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/wayfarer-app/wayfarer/internal/shared"
)

// SessionParams describes the purchase a checkout session is opened for.
type SessionParams struct {
	Reference   string `json:"clientReference"`
	Email       string `json:"customerEmail"`
	Name        string `json:"productName"`
	Description string `json:"productDescription"`
	ImageURL    string `json:"productImage,omitempty"`
	AmountCents int64  `json:"amount"`
	Currency    string `json:"currency"`
	SuccessURL  string `json:"successUrl"`
	CancelURL   string `json:"cancelUrl"`
}

// Session is the provider's hosted checkout page.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Event is a webhook notification from the provider.
type Event struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Reference string `json:"clientReference"`
}

// Provider event types.
const (
	EventCheckoutCompleted = "checkout.completed"
	EventCheckoutRejected  = "checkout.rejected"
)

const signatureHeader = "X-Webhook-Signature"

// Client wraps interactions with the hosted checkout provider.
type Client struct {
	baseURL       string
	apiKey        string
	webhookSecret []byte
	httpClient    *http.Client
}

// NewClient constructs a new client.
func NewClient(baseURL, apiKey, webhookSecret string) *Client {
	return &Client{
		baseURL:       baseURL,
		apiKey:        apiKey,
		webhookSecret: []byte(webhookSecret),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateSession opens a hosted checkout session for the given purchase.
func (c *Client) CreateSession(ctx context.Context, params SessionParams) (*Session, error) {
	payload, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/v1/checkout/sessions", c.baseURL), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("checkout provider returned status %d", resp.StatusCode)
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, err
	}
	return &session, nil
}

// ParseEvent verifies the webhook signature and decodes the event. The
// signature is a hex encoded HMAC-SHA256 over the raw body.
func (c *Client) ParseEvent(body []byte, header http.Header) (*Event, error) {
	signature := header.Get(signatureHeader)
	if signature == "" {
		return nil, fmt.Errorf("%w: missing webhook signature", shared.ErrValidation)
	}
	provided, err := hex.DecodeString(signature)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed webhook signature", shared.ErrValidation)
	}

	mac := hmac.New(sha256.New, c.webhookSecret)
	_, _ = mac.Write(body)
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return nil, fmt.Errorf("%w: webhook signature mismatch", shared.ErrValidation)
	}

	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: malformed webhook body", shared.ErrValidation)
	}
	return &event, nil
}
