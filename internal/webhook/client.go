// Package webhook provides HTTP client functionality for sending alert
// notifications to an external endpoint.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/certphish/certphish/internal/detect"
)

// Client sends webhook notifications for phishing alerts
type Client struct {
	url        string
	apiToken   string
	timeout    time.Duration
	userAgent  string
	httpClient *http.Client
}

// NewClient creates a new webhook client
func NewClient(url, apiToken string) *Client {
	timeout := 10 * time.Second
	return &Client{
		url:       url,
		apiToken:  apiToken,
		timeout:   timeout,
		userAgent: "certphish/1.0",
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Payload represents the data sent to the webhook endpoint
type Payload struct {
	Timestamp        string  `json:"timestamp"`
	Domain           string  `json:"domain"`
	BrandMatch       string  `json:"brand_match"`
	SimilarityScore  float64 `json:"similarity_score"`
	Issuer           string  `json:"issuer"`
	Score            float64 `json:"score"`
	RegistrationDays int     `json:"registration_days"`
	TLDSuspicious    bool    `json:"tld_suspicious"`
	HasKeyword       bool    `json:"has_keyword"`
}

// Send sends an alert to the configured webhook endpoint
func (c *Client) Send(ctx context.Context, alert detect.Alert) error {
	if c.url == "" {
		return nil // No webhook configured
	}

	payload := buildPayload(alert)

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}

	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned non-success status: %d", resp.StatusCode)
	}

	return nil
}

// buildPayload constructs the webhook payload from an alert
func buildPayload(alert detect.Alert) Payload {
	return Payload{
		Timestamp:        alert.Timestamp,
		Domain:           alert.Domain,
		BrandMatch:       alert.Brand,
		SimilarityScore:  alert.Similarity,
		Issuer:           alert.Issuer,
		Score:            alert.Score,
		RegistrationDays: alert.RegistrationDays,
		TLDSuspicious:    alert.TLDSuspicious,
		HasKeyword:       alert.HasKeyword,
	}
}

// setHeaders sets the required HTTP headers for the webhook request
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.apiToken != "" {
		req.Header.Set("x-api-token", c.apiToken)
	}
}

// SetTimeout sets the HTTP client timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
	if c.httpClient != nil {
		c.httpClient.Timeout = timeout
	}
}
