package http

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/MMN3003/payagent/src/apperror"
	"github.com/MMN3003/payagent/src/logger"
	"github.com/MMN3003/payagent/src/response"
	"github.com/MMN3003/payagent/src/settlement/domain"

	"github.com/gin-gonic/gin"
)

// PaymentHeader carries a base64 encoded x402 payment payload.
const PaymentHeader = "X-PAYMENT"

type Handler struct {
	service   domain.SettlementUsecase
	logger    *logger.Logger
	jwtSecret string
}

func NewHandler(s domain.SettlementUsecase, l *logger.Logger, jwtSecret string) *Handler {
	return &Handler{service: s, logger: l, jwtSecret: jwtSecret}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/api/payments/settle", h.Settle)
	r.GET("/api/payments/:sessionId/status", h.GetStatus)
	r.POST("/api/payments/:sessionId/commission/retry", h.RetryCommission)

	me := r.Group("/me", JWTAuth(h.jwtSecret, h.logger))
	me.GET("/payments", h.ListPayments)
	me.GET("/payments/:sessionId/amount", h.RevealAmount)
}

// Settle godoc
//
//	@Summary		Settle a payment session
//	@Description	Verify the x402 payment proof with the facilitator and finalise the session. Idempotent once settled.
//	@Tags			payments
//	@Accept			json
//	@Produce		json
//	@Param			request		body		SettleRequestBody	true	"Request body"
//	@Param			X-PAYMENT	header		string				false	"base64 encoded payment payload"
//	@Success		200			{object}	response.Envelope{data=SettlementResultDto}
//	@Failure		400			{object}	response.Envelope
//	@Failure		402			{object}	response.Envelope
//	@Failure		404			{object}	response.Envelope
//	@Failure		409			{object}	response.Envelope
//	@Failure		504			{object}	response.Envelope
//	@Router			/api/payments/settle [post]
func (h *Handler) Settle(c *gin.Context) {
	var req SettleRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debugf("Settle bind err: %v", err)
		response.Fail(c, apperror.ErrInvalidInput.WithMessage(err.Error()))
		return
	}

	proof := req.PaymentProof
	if isEmptyJSON(proof) {
		decoded, err := proofFromHeader(c.GetHeader(PaymentHeader))
		if err != nil {
			response.Fail(c, err)
			return
		}
		proof = decoded
	}

	res, err := h.service.Settle(c.Request.Context(), req.SessionID, proof)
	if err != nil {
		response.LogFailure(h.logger.WithField("session_id", req.SessionID), "Settle", err)
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, SettlementResultDtoFromDomain(*res))
}

// GetStatus godoc
//
//	@Summary		Get session status
//	@Tags			payments
//	@Produce		json
//	@Param			sessionId	path		string	true	"Session id"
//	@Success		200			{object}	response.Envelope{data=StatusViewDto}
//	@Failure		404			{object}	response.Envelope
//	@Router			/api/payments/{sessionId}/status [get]
func (h *Handler) GetStatus(c *gin.Context) {
	view, err := h.service.GetStatus(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, StatusViewDtoFromDomain(*view))
}

// RetryCommission godoc
//
//	@Summary		Retry the commission transfer
//	@Description	Re-attempt only the commission leg of a settled payment
//	@Tags			payments
//	@Produce		json
//	@Param			sessionId	path		string	true	"Session id"
//	@Success		200			{object}	response.Envelope{data=RetryResultDto}
//	@Failure		404			{object}	response.Envelope
//	@Failure		409			{object}	response.Envelope
//	@Failure		502			{object}	response.Envelope{data=RetryResultDto}
//	@Router			/api/payments/{sessionId}/commission/retry [post]
func (h *Handler) RetryCommission(c *gin.Context) {
	sessionID := c.Param("sessionId")
	res, err := h.service.RetryCommission(c.Request.Context(), sessionID)
	if err != nil {
		response.LogFailure(h.logger.WithField("session_id", sessionID), "RetryCommission", err)
		if res != nil {
			response.FailWith(c, err, RetryResultDtoFromDomain(*res))
			return
		}
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, RetryResultDtoFromDomain(*res))
}

// ListPayments godoc
//
//	@Summary		List settled payments
//	@Tags			merchant
//	@Produce		json
//	@Security		BearerAuth
//	@Param			status		query		string	false	"settled, commission_pending, commission_transferring or commission_failed"
//	@Param			page		query		int		false	"Page, from 1"
//	@Param			pageSize	query		int		false	"Page size, max 100"
//	@Success		200			{object}	response.Envelope{data=PaymentPageDto}
//	@Failure		400			{object}	response.Envelope
//	@Failure		401			{object}	response.Envelope
//	@Router			/me/payments [get]
func (h *Handler) ListPayments(c *gin.Context) {
	var q ListPaymentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Fail(c, apperror.ErrInvalidInput.WithMessage(err.Error()))
		return
	}

	page, err := h.service.ListPayments(c.Request.Context(), domain.ListFilter{
		Status:   domain.PaymentStatus(q.Status),
		Page:     q.Page,
		PageSize: q.PageSize,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, PaymentPageDtoFromDomain(*page))
}

// RevealAmount godoc
//
//	@Summary		Decrypt a confidential amount
//	@Tags			merchant
//	@Produce		json
//	@Security		BearerAuth
//	@Param			sessionId	path		string	true	"Session id"
//	@Success		200			{object}	response.Envelope{data=RevealAmountDto}
//	@Failure		401			{object}	response.Envelope
//	@Failure		404			{object}	response.Envelope
//	@Router			/me/payments/{sessionId}/amount [get]
func (h *Handler) RevealAmount(c *gin.Context) {
	sessionID := c.Param("sessionId")
	amount, err := h.service.RevealAmount(c.Request.Context(), sessionID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	h.logger.WithFields(map[string]interface{}{
		"session_id": sessionID,
		"merchant":   c.GetString(merchantKey),
	}).Infof("confidential amount revealed")
	response.OK(c, http.StatusOK, RevealAmountDto{SessionID: sessionID, Amount: amount})
}

func isEmptyJSON(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func proofFromHeader(header string) (json.RawMessage, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, apperror.ErrInvalidPaymentProof.WithMessage("paymentProof or " + PaymentHeader + " header is required")
	}
	decoded, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		decoded, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(header, "="))
	}
	if err != nil {
		return nil, apperror.ErrInvalidPaymentProof.WithMessage(PaymentHeader + " header is not valid base64")
	}
	return json.RawMessage(decoded), nil
}
