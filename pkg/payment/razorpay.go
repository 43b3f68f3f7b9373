package payment

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

	"github.com/multimart/multimart-backend/pkg/config"
)

// RazorpayClient talks to the Razorpay orders API and verifies widget
// signatures locally via HMAC.
type RazorpayClient struct {
	keyID   string
	secret  string
	baseURL string
	http    *http.Client
}

// NewRazorpayClient builds a gateway client from configuration.
func NewRazorpayClient(cfg config.RazorpayConfig) (*RazorpayClient, error) {
	if cfg.KeyID == "" || cfg.Secret == "" {
		return nil, fmt.Errorf("razorpay key id and secret are required")
	}
	return &RazorpayClient{
		keyID:   cfg.KeyID,
		secret:  cfg.Secret,
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}, nil
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type createOrderResponse struct {
	ID string `json:"id"`
}

// CreateOrder registers a gateway order for the given amount.
func (c *RazorpayClient) CreateOrder(ctx context.Context, amountCents int64, receipt string) (string, error) {
	if amountCents <= 0 {
		return "", fmt.Errorf("order amount must be positive")
	}

	body, err := json.Marshal(createOrderRequest{
		Amount:   amountCents,
		Currency: "INR",
		Receipt:  receipt,
	})
	if err != nil {
		return "", fmt.Errorf("encode order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build order request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway order create: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gateway order create: unexpected status %d", resp.StatusCode)
	}

	var parsed createOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode order response: %w", err)
	}
	if parsed.ID == "" {
		return "", fmt.Errorf("gateway returned empty order id")
	}
	return parsed.ID, nil
}

// VerifySignature checks the HMAC-SHA256 of "<orderID>|<paymentID>" against
// the signature delivered by the widget callback.
func (c *RazorpayClient) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	if gatewayOrderID == "" || paymentID == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(c.secret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
