// Package facilitator implements an HTTP client for an x402 payment facilitator.
//
// Coverage:
// - POST /verify checks a payment payload against requirements
// - POST /settle submits a verified payload on-chain
// - GET /supported lists the scheme/network pairs the facilitator handles
//
// Notes:
// - Responses are bare JSON documents, there is no envelope
// - Non 2xx answers are returned as *HTTPError carrying any reason the
//   facilitator reported
package facilitator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const Version = 2

var (
	DefaultHTTPClient = &http.Client{Timeout: 30 * time.Second}
)

// NewClient constructs a new facilitator client
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("base url is required")
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	c := &Client{
		BaseURL:   u,
		HTTP:      DefaultHTTPClient,
		UserAgent: "payagent/1.0",
		Logger:    log.Logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Option functional options
type Option func(*Client)

func WithAPIKey(key string) Option         { return func(c *Client) { c.APIKey = key } }
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.HTTP = h } }
func WithUserAgent(ua string) Option       { return func(c *Client) { c.UserAgent = ua } }
func WithLogger(l zerolog.Logger) Option   { return func(c *Client) { c.Logger = l } }

type Client struct {
	BaseURL   *url.URL
	HTTP      *http.Client
	APIKey    string
	UserAgent string
	Logger    zerolog.Logger
}

// PaymentRequirements mirrors the x402 v2 requirements document
type PaymentRequirements struct {
	Scheme            string                 `json:"scheme"`
	Network           string                 `json:"network"`
	Asset             string                 `json:"asset"`
	Amount            string                 `json:"amount"`
	PayTo             string                 `json:"payTo"`
	MaxTimeoutSeconds int                    `json:"maxTimeoutSeconds"`
	Extra             map[string]interface{} `json:"extra,omitempty"`
}

type Request struct {
	X402Version         int                 `json:"x402Version"`
	PaymentPayload      json.RawMessage     `json:"paymentPayload"`
	PaymentRequirements PaymentRequirements `json:"paymentRequirements"`
}

type VerifyResponse struct {
	IsValid       bool   `json:"isValid"`
	InvalidReason string `json:"invalidReason,omitempty"`
	Payer         string `json:"payer,omitempty"`
}

type SettleResponse struct {
	Success     bool   `json:"success"`
	ErrorReason string `json:"errorReason,omitempty"`
	Payer       string `json:"payer,omitempty"`
	Transaction string `json:"transaction"`
	Network     string `json:"network"`
}

type SupportedKind struct {
	X402Version int                    `json:"x402Version"`
	Scheme      string                 `json:"scheme"`
	Network     string                 `json:"network"`
	Extra       map[string]interface{} `json:"extra,omitempty"`
}

type SupportedResponse struct {
	Kinds      []SupportedKind `json:"kinds"`
	Extensions []string        `json:"extensions"`
}

// HTTPError is a non 2xx answer from the facilitator.
type HTTPError struct {
	StatusCode int
	Reason     string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("facilitator http %d: %s", e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("facilitator http %d: %s", e.StatusCode, e.Body)
}

// Rejected reports a definitive refusal of the payment as opposed to an
// outage or throttling.
func (e *HTTPError) Rejected() bool {
	if e.StatusCode == http.StatusRequestTimeout || e.StatusCode == http.StatusTooManyRequests {
		return false
	}
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// --- Endpoints ---

func (c *Client) Verify(ctx context.Context, req Request) (*VerifyResponse, error) {
	out, err := doJSON[VerifyResponse](c, ctx, http.MethodPost, "/verify", req)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Settle(ctx context.Context, req Request) (*SettleResponse, error) {
	out, err := doJSON[SettleResponse](c, ctx, http.MethodPost, "/settle", req)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Supported(ctx context.Context) (*SupportedResponse, error) {
	out, err := doJSON[SupportedResponse](c, ctx, http.MethodGet, "/supported", nil)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, p string, body any, out any) error {
	u := *c.BaseURL
	u.Path = path.Join(u.Path, p)

	// --- Build request body ---
	var r io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		r = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), r)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	// --- Execute request ---
	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	c.Logger.Info().
		Str("method", method).
		Str("url", u.String()).
		Int("status", resp.StatusCode).
		Str("duration", time.Since(start).String()).
		Bytes("response", truncate(b, 2048)).
		Msg("facilitator response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Reason:     reasonFrom(b),
			Body:       string(truncate(b, 512)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// doJSON decodes into a typed response
func doJSON[T any](c *Client, ctx context.Context, method, path string, body any) (T, error) {
	var out T
	err := c.do(ctx, method, path, body, &out)
	return out, err
}

// --- Helpers ---

func reasonFrom(b []byte) string {
	var r struct {
		InvalidReason string `json:"invalidReason"`
		ErrorReason   string `json:"errorReason"`
		Error         string `json:"error"`
	}
	if err := json.Unmarshal(b, &r); err != nil {
		return ""
	}
	switch {
	case r.InvalidReason != "":
		return r.InvalidReason
	case r.ErrorReason != "":
		return r.ErrorReason
	default:
		return r.Error
	}
}

func truncate(b []byte, max int) []byte {
	if len(b) > max {
		return b[:max]
	}
	return b
}
