package api

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Billing summarizes the user's plan and usage.
type Billing struct {
	Plan            string    `json:"plan"` // "free" | "pro"
	RenewsAt        time.Time `json:"renews_at,omitzero"`
	MessagesUsed    int       `json:"messages_used"`
	MessagesAllowed int       `json:"messages_allowed"`
	TailorsUsed     int       `json:"tailors_used"`
	TailorsAllowed  int       `json:"tailors_allowed"`
}

// GetBilling fetches the current plan and usage counters.
func (c *Client) GetBilling(ctx context.Context) (*Billing, error) {
	var b Billing
	if err := c.do(ctx, http.MethodGet, "/billing", nil, &b); err != nil {
		return nil, fmt.Errorf("get billing: %w", err)
	}
	return &b, nil
}

// CreateCheckout starts an upgrade checkout and returns the URL the user
// should open in a browser.
func (c *Client) CreateCheckout(ctx context.Context, plan string) (string, error) {
	req := struct {
		Plan string `json:"plan"`
	}{Plan: plan}

	var resp struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodPost, "/billing/checkout", req, &resp); err != nil {
		return "", fmt.Errorf("create checkout: %w", err)
	}
	return resp.URL, nil
}
