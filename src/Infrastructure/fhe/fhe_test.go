package fhe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/fhe/encrypt", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(map[string]string{"ciphertext": "ct:" + body["amount"], "public_key": "pk"})
	})
	mux.HandleFunc("/api/fhe/decrypt", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"amount": ` + body["ciphertext"][3:] + `}`))
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, WithHTTPClient(srv.Client()), WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	return c
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	enc, err := c.Encrypt(ctx, "95.5")
	require.NoError(t, err)
	assert.Equal(t, "ct:95.5", enc.Ciphertext)
	assert.Equal(t, "pk", enc.PublicKey)

	amount, err := c.Decrypt(ctx, enc.Ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "95.5", amount)
}

func TestHealthReportsFailure(t *testing.T) {
	assert.Error(t, newTestClient(t).Health(context.Background()))
}
