package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MMN3003/payagent/src/keylock"
	"github.com/MMN3003/payagent/src/logger"
	quoterepo "github.com/MMN3003/payagent/src/quote/repository"
	quoteusecase "github.com/MMN3003/payagent/src/quote/usecase"
	quoteadapter "github.com/MMN3003/payagent/src/session/adapter/quote"
	sessiondomain "github.com/MMN3003/payagent/src/session/domain"
	sessionrepo "github.com/MMN3003/payagent/src/session/repository"
	sessionusecase "github.com/MMN3003/payagent/src/session/usecase"
	sessionadapter "github.com/MMN3003/payagent/src/settlement/adapter/session"
	"github.com/MMN3003/payagent/src/settlement/domain"
	"github.com/MMN3003/payagent/src/settlement/repository"
	"github.com/MMN3003/payagent/src/settlement/usecase"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	secret = "test-secret"
	proof  = `{"x402Version":2,"scheme":"exact","network":"base-sepolia","payload":{"signature":"0x01"}}`
)

type stubFacilitator struct {
	err error
}

func (s *stubFacilitator) VerifyAndSettle(context.Context, json.RawMessage, domain.Requirements) (*domain.FacilitatorReceipt, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.FacilitatorReceipt{TransactionRef: "0xsettled"}, nil
}

type brokenTransfer struct{}

func (brokenTransfer) Transfer(context.Context, domain.Payment) (string, error) {
	return "", errors.New("treasury empty")
}

type harness struct {
	router   *gin.Engine
	quotes   *quoteusecase.Service
	sessions *sessionusecase.Service
	fac      *stubFacilitator
}

func newHarness(t *testing.T, opts ...usecase.Option) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := &harness{fac: &stubFacilitator{}}
	h.quotes = quoteusecase.NewService(quoterepo.NewMemoryQuoteRepo(), quoteusecase.NewFixedRateProvider(), logger.Nop(), 5*time.Minute)
	h.sessions = sessionusecase.NewService(sessionrepo.NewMemorySessionRepo(), quoteadapter.NewQuotePort(h.quotes), logger.Nop(), sessionusecase.Settings{
		SessionTTL:      5 * time.Minute,
		FacilitatorURL:  "https://facilitator.payai.network",
		MerchantAddress: "0x209693Bc6afc0C5328bA36FaF03C514EF312287C",
	})
	svc := usecase.NewService(sessionadapter.NewSessionPort(h.sessions), repository.NewMemoryPaymentRepo(), h.fac,
		keylock.NewRegistry(), logger.Nop(), usecase.Settings{CommissionBps: 500}, opts...)

	h.router = gin.New()
	NewHandler(svc, logger.Nop(), secret).RegisterRoutes(h.router)
	return h
}

func (h *harness) open(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	q, err := h.quotes.CreateQuote(ctx, decimal.NewFromInt(100), "USDC")
	require.NoError(t, err)
	sess, err := h.sessions.OpenSession(ctx, sessiondomain.OpenSessionRequest{QuoteID: q.ID, Amount: decimal.NewFromInt(100), Currency: "USDC"})
	require.NoError(t, err)
	return sess.ID
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Kind string `json:"kind"`
		Code string `json:"code"`
	} `json:"error"`
}

func (h *harness) do(t *testing.T, method, path, body string, header map[string]string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func bearer(t *testing.T, key string) map[string]string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "merchant-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(key))
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestSettleAndStatus(t *testing.T) {
	h := newHarness(t)
	id := h.open(t)

	code, env := h.do(t, http.MethodPost, "/api/payments/settle", `{"sessionId":"`+id+`","paymentProof":`+proof+`}`, nil)
	require.Equal(t, http.StatusOK, code)
	var res SettlementResultDto
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "settled", res.Status)
	assert.Equal(t, "0xsettled", res.TransactionRef)
	assert.Equal(t, "5", res.CommissionAmount.String())
	assert.Equal(t, "95", res.NetAmount.String())

	code, env = h.do(t, http.MethodGet, "/api/payments/"+id+"/status", "", nil)
	require.Equal(t, http.StatusOK, code)
	var view StatusViewDto
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "settled", view.Status)
	require.NotNil(t, view.Settlement)
	assert.Equal(t, "100", view.Settlement.TotalAmount.String())
	assert.NotEmpty(t, view.AuditLog)
}

func TestSettleFromPaymentHeader(t *testing.T) {
	h := newHarness(t)
	id := h.open(t)

	header := map[string]string{PaymentHeader: base64.StdEncoding.EncodeToString([]byte(proof))}
	code, env := h.do(t, http.MethodPost, "/api/payments/settle", `{"sessionId":"`+id+`"}`, header)
	require.Equal(t, http.StatusOK, code, env.Error.Code)
}

func TestSettleErrors(t *testing.T) {
	h := newHarness(t)
	id := h.open(t)

	code, env := h.do(t, http.MethodPost, "/api/payments/settle", `{"sessionId":"`+id+`"}`, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_PAYMENT_PROOF", env.Error.Code)

	code, env = h.do(t, http.MethodPost, "/api/payments/settle", `{"sessionId":"`+id+`","paymentProof":{"payload":{}}}`, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_PAYMENT_PROOF", env.Error.Code)

	code, env = h.do(t, http.MethodPost, "/api/payments/settle", `{"sessionId":"session_nope","paymentProof":`+proof+`}`, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "SESSION_NOT_FOUND", env.Error.Code)

	code, _ = h.do(t, http.MethodPost, "/api/payments/settle", `{"sessionId":`, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	h.fac.err = &domain.VerificationError{Reason: "invalid_signature"}
	code, env = h.do(t, http.MethodPost, "/api/payments/settle", `{"sessionId":"`+id+`","paymentProof":`+proof+`}`, nil)
	assert.Equal(t, http.StatusPaymentRequired, code)
	assert.Equal(t, "SETTLEMENT_VERIFICATION_FAILED", env.Error.Code)
	assert.Equal(t, "verification_failed", env.Error.Kind)
}

func TestSettleTimeoutIs504(t *testing.T) {
	h := newHarness(t)
	id := h.open(t)
	h.fac.err = errors.New("upstream reset")

	code, env := h.do(t, http.MethodPost, "/api/payments/settle", `{"sessionId":"`+id+`","paymentProof":`+proof+`}`, nil)
	assert.Equal(t, http.StatusGatewayTimeout, code)
	assert.Equal(t, "FACILITATOR_TIMEOUT", env.Error.Code)
}

func TestRetryCommissionReportsProgressOnFailure(t *testing.T) {
	h := newHarness(t, usecase.WithCommissionTransfer(brokenTransfer{}))
	id := h.open(t)

	code, _ := h.do(t, http.MethodPost, "/api/payments/"+id+"/commission/retry", "", nil)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = h.do(t, http.MethodPost, "/api/payments/settle", `{"sessionId":"`+id+`","paymentProof":`+proof+`}`, nil)
	require.Equal(t, http.StatusOK, code)

	code, env := h.do(t, http.MethodPost, "/api/payments/"+id+"/commission/retry", "", nil)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "COMMISSION_FAILED", env.Error.Code)
	var res RetryResultDto
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "commission_failed", res.PaymentStatus)
	assert.Equal(t, 2, res.CommissionAttempts)
}

func TestMerchantRoutesRequireToken(t *testing.T) {
	h := newHarness(t)
	id := h.open(t)
	code, _ := h.do(t, http.MethodPost, "/api/payments/settle", `{"sessionId":"`+id+`","paymentProof":`+proof+`}`, nil)
	require.Equal(t, http.StatusOK, code)

	code, env := h.do(t, http.MethodGet, "/me/payments", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	code, _ = h.do(t, http.MethodGet, "/me/payments", "", bearer(t, "wrong-secret"))
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = h.do(t, http.MethodGet, "/me/payments?pageSize=5", "", bearer(t, secret))
	require.Equal(t, http.StatusOK, code)
	var page PaymentPageDto
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, 5, page.PageSize)
	require.Len(t, page.Items, 1)
	assert.Equal(t, id, page.Items[0].SessionID)

	code, env = h.do(t, http.MethodGet, "/me/payments?status=bogus", "", bearer(t, secret))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_PAYLOAD", env.Error.Code)

	code, env = h.do(t, http.MethodGet, "/me/payments/"+id+"/amount", "", bearer(t, secret))
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "PAYMENT_NOT_FOUND", env.Error.Code)
}
