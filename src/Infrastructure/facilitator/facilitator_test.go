package facilitator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, WithHTTPClient(srv.Client()), WithLogger(zerolog.Nop()), WithAPIKey("secret"))
	require.NoError(t, err)
	return c
}

func TestVerifySendsRequestBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/verify", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req Request
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, Version, req.X402Version)
		assert.Equal(t, "100000000", req.PaymentRequirements.Amount)
		assert.JSONEq(t, `{"x402Version":2,"payload":{"signature":"0x01"}}`, string(req.PaymentPayload))

		_ = json.NewEncoder(w).Encode(VerifyResponse{IsValid: true, Payer: "0xpayer"})
	})

	resp, err := c.Verify(context.Background(), Request{
		X402Version:         Version,
		PaymentPayload:      json.RawMessage(`{"x402Version":2,"payload":{"signature":"0x01"}}`),
		PaymentRequirements: PaymentRequirements{Scheme: "exact", Amount: "100000000"},
	})
	require.NoError(t, err)
	assert.True(t, resp.IsValid)
	assert.Equal(t, "0xpayer", resp.Payer)
}

func TestSettleDecodesTransaction(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/settle", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"transaction":"0xdeadbeef","network":"base-sepolia"}`))
	})

	resp, err := c.Settle(context.Background(), Request{X402Version: Version, PaymentPayload: json.RawMessage(`{}`)})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "0xdeadbeef", resp.Transaction)
	assert.Equal(t, "base-sepolia", resp.Network)
}

func TestHTTPErrorCarriesReason(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"isValid":false,"invalidReason":"invalid_exact_evm_payload_signature"}`))
	})

	_, err := c.Verify(context.Background(), Request{PaymentPayload: json.RawMessage(`{}`)})
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Equal(t, "invalid_exact_evm_payload_signature", httpErr.Reason)
	assert.True(t, httpErr.Rejected())
}

func TestServerErrorsAreNotRejections(t *testing.T) {
	for _, code := range []int{http.StatusBadGateway, http.StatusTooManyRequests, http.StatusRequestTimeout} {
		e := &HTTPError{StatusCode: code}
		assert.False(t, e.Rejected(), code)
	}
}

func TestSupported(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"kinds":[{"x402Version":2,"scheme":"exact","network":"eip155:84532"}],"extensions":[]}`))
	})

	resp, err := c.Supported(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.Kinds, 1)
	assert.Equal(t, "exact", resp.Kinds[0].Scheme)
}

func TestNewClientRequiresURL(t *testing.T) {
	_, err := NewClient("")
	assert.Error(t, err)
}
