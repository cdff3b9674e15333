package http

import (
	"net/http"

	"github.com/MMN3003/payagent/src/apperror"
	"github.com/MMN3003/payagent/src/logger"
	"github.com/MMN3003/payagent/src/response"
	"github.com/MMN3003/payagent/src/session/domain"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service domain.SessionUsecase
	logger  *logger.Logger
}

func NewHandler(s domain.SessionUsecase, l *logger.Logger) *Handler {
	return &Handler{service: s, logger: l}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/api/payments/session", h.OpenSession)
}

// OpenSession godoc
//
//	@Summary		Open a payment session
//	@Description	Bind an unexpired quote to a new session and return the payment instructions
//	@Tags			payments
//	@Accept			json
//	@Produce		json
//	@Param			request	body		OpenSessionRequestBody	true	"Request body"
//	@Success		201		{object}	response.Envelope{data=SessionViewDto}
//	@Failure		400		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Failure		409		{object}	response.Envelope
//	@Router			/api/payments/session [post]
func (h *Handler) OpenSession(c *gin.Context) {
	var req OpenSessionRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debugf("OpenSession bind err: %v", err)
		response.Fail(c, apperror.ErrInvalidInput.WithMessage(err.Error()))
		return
	}

	sess, err := h.service.OpenSession(c.Request.Context(), domain.OpenSessionRequest{
		QuoteID:      req.QuoteID,
		Amount:       req.Amount,
		Currency:     req.Currency,
		Memo:         req.Memo,
		Confidential: req.Confidential,
	})
	if err != nil {
		response.LogFailure(h.logger.WithField("quote_id", req.QuoteID), "OpenSession", err)
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusCreated, SessionViewDtoFromDomain(sess.View()))
}
