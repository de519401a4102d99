package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tollsetu/fastag-portal/internal/pkg/env"
)

const defaultRazorpayAPIBaseURL = "https://api.razorpay.com/v1"

// Client talks to the Razorpay REST API with key-pair basic auth.
type Client struct {
	KeyID      string
	KeySecret  string
	APIBaseURL string

	HTTPClient *http.Client
}

// NewClientFromEnv builds a client from RAZORPAY_* environment configuration.
func NewClientFromEnv() *Client {
	return &Client{
		KeyID:      strings.TrimSpace(env.GetEnv("RAZORPAY_KEY_ID", "")),
		KeySecret:  strings.TrimSpace(env.GetEnv("RAZORPAY_KEY_SECRET", "")),
		APIBaseURL: strings.TrimSpace(env.GetEnv("RAZORPAY_API_BASE_URL", defaultRazorpayAPIBaseURL)),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// CreatePaymentLinkInput describes one payment link request.
type CreatePaymentLinkInput struct {
	Amount      int64  // minor units (paise)
	Currency    string
	Description string
	ReferenceID string
	CallbackURL string
	Customer    struct {
		Name  string
		Email string
		Phone string
	}
}

// PaymentLink is the subset of the provider's payment link object we use.
type PaymentLink struct {
	ID        string `json:"id"`
	ShortURL  string `json:"short_url"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
	CreatedAt int64  `json:"created_at"`
}

// CreatePaymentLink issues a shareable payment link for one application fee.
// The returned link id becomes the local record's order id.
func (c *Client) CreatePaymentLink(ctx context.Context, in CreatePaymentLinkInput) (*PaymentLink, error) {
	if strings.TrimSpace(c.KeyID) == "" || strings.TrimSpace(c.KeySecret) == "" {
		return nil, errors.New("RAZORPAY_KEY_ID/RAZORPAY_KEY_SECRET are not configured")
	}
	if in.Amount <= 0 {
		return nil, errors.New("amount must be positive")
	}
	currency := strings.TrimSpace(in.Currency)
	if currency == "" {
		currency = "INR"
	}

	reqBody := map[string]interface{}{
		"amount":       in.Amount,
		"currency":     currency,
		"description":  in.Description,
		"reference_id": in.ReferenceID,
		"customer": map[string]string{
			"name":    in.Customer.Name,
			"email":   in.Customer.Email,
			"contact": in.Customer.Phone,
		},
		"notify": map[string]bool{
			"sms":   true,
			"email": true,
		},
	}
	if strings.TrimSpace(in.CallbackURL) != "" {
		reqBody["callback_url"] = in.CallbackURL
		reqBody["callback_method"] = "get"
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := strings.TrimRight(c.APIBaseURL, "/") + "/payment_links"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.KeyID, c.KeySecret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("razorpay payment link creation failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var out PaymentLink
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.ID) == "" {
		return nil, errors.New("razorpay payment link response missing id")
	}
	return &out, nil
}
