// Package fhe is a client for the confidential-amount encryption service.
//
// Coverage:
// - POST /api/fhe/encrypt {amount} -> {ciphertext, public_key}
// - POST /api/fhe/decrypt {ciphertext} -> {amount}
// - GET /health
package fhe

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

var (
	DefaultHTTPClient = &http.Client{Timeout: 10 * time.Second}

	ErrEmptyCiphertext = errors.New("encryption service returned an empty ciphertext")
)

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("base url is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	c := &Client{
		BaseURL: u,
		HTTP:    DefaultHTTPClient,
		Logger:  log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.HTTP = h } }
func WithLogger(l zerolog.Logger) Option   { return func(c *Client) { c.Logger = l } }

type Client struct {
	BaseURL *url.URL
	HTTP    *http.Client
	Logger  zerolog.Logger
}

type EncryptResponse struct {
	Ciphertext string `json:"ciphertext"`
	PublicKey  string `json:"public_key"`
}

type decryptResponse struct {
	Amount json.Number `json:"amount"`
}

// Encrypt seals a decimal amount string.
func (c *Client) Encrypt(ctx context.Context, amount string) (*EncryptResponse, error) {
	var out EncryptResponse
	if err := c.do(ctx, http.MethodPost, "/api/fhe/encrypt", map[string]string{"amount": amount}, &out); err != nil {
		return nil, err
	}
	if out.Ciphertext == "" {
		return nil, ErrEmptyCiphertext
	}
	return &out, nil
}

// Decrypt returns the plaintext amount as the service formatted it.
func (c *Client) Decrypt(ctx context.Context, ciphertext string) (string, error) {
	var out decryptResponse
	if err := c.do(ctx, http.MethodPost, "/api/fhe/decrypt", map[string]string{"ciphertext": ciphertext}, &out); err != nil {
		return "", err
	}
	return out.Amount.String(), nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) do(ctx context.Context, method, p string, body any, out any) error {
	u := *c.BaseURL
	u.Path = path.Join(u.Path, p)

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

	// ciphertexts and amounts are never logged
	c.Logger.Debug().
		Str("method", method).
		Str("path", p).
		Int("status", resp.StatusCode).
		Str("duration", time.Since(start).String()).
		Msg("fhe response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("fhe http error %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
