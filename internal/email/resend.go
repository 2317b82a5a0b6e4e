// Package email sends transactional email through the Resend HTTP API.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

const defaultBaseURL = "https://api.resend.com/emails"

// ErrAPIKeyNotSet indicates the Resend API key is missing.
var ErrAPIKeyNotSet = fmt.Errorf("RESEND_API_KEY environment variable not set")

// Sender delivers a single email message.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Client is a Resend-backed Sender.
type Client struct {
	apiKey  string
	from    string
	baseURL string
	http    *http.Client
}

// Opts holds configuration for Client.
type Opts struct {
	APIKey  string
	From    string
	BaseURL string
}

// Option configures Client creation.
type Option func(*Opts)

// WithAPIKey sets the Resend API key explicitly.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithFrom sets the sender address.
func WithFrom(from string) Option {
	return func(o *Opts) { o.From = from }
}

// WithBaseURL overrides the API endpoint, for tests.
func WithBaseURL(url string) Option {
	return func(o *Opts) { o.BaseURL = url }
}

// NewClient creates a Resend client. The API key defaults to the
// RESEND_API_KEY environment variable and the sender address to
// RESEND_FROM.
func NewClient(opts ...Option) (*Client, error) {
	cfg := Opts{
		APIKey:  os.Getenv("RESEND_API_KEY"),
		From:    os.Getenv("RESEND_FROM"),
		BaseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	if cfg.From == "" {
		cfg.From = "naapim <noreply@naapim.app>"
	}

	slog.Debug("Email client initialized", "from", cfg.From)
	return &Client{
		apiKey:  cfg.APIKey,
		from:    cfg.From,
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}, nil
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send posts a message to the Resend API.
func (c *Client) Send(ctx context.Context, to, subject, htmlBody string) error {
	body, err := json.Marshal(sendRequest{
		From:    c.from,
		To:      []string{to},
		Subject: subject,
		HTML:    htmlBody,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("email request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		slog.Error("Email.Send: unexpected status", "status", resp.Status, "to", to)
		return fmt.Errorf("email send failed with status %s: %s", resp.Status, string(detail))
	}

	slog.Debug("Email.Send: delivered", "to", to, "subject", subject)
	return nil
}
