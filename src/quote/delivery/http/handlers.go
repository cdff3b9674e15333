package http

import (
	"net/http"

	"github.com/MMN3003/payagent/src/apperror"
	"github.com/MMN3003/payagent/src/logger"
	"github.com/MMN3003/payagent/src/quote/domain"
	"github.com/MMN3003/payagent/src/response"

	"github.com/gin-gonic/gin"
)

// Handler binds usecase + logger
type Handler struct {
	service domain.QuoteUsecase
	logger  *logger.Logger
}

func NewHandler(s domain.QuoteUsecase, l *logger.Logger) *Handler {
	return &Handler{service: s, logger: l}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/api/payments/quote", h.CreateQuote)
	r.GET("/api/payments/quote/:quoteId", h.GetQuote)
}

// CreateQuote godoc
//
//	@Summary		Create a quote
//	@Description	Issue a short lived price lock for an amount
//	@Tags			payments
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateQuoteRequestBody	true	"Request body"
//	@Success		201		{object}	response.Envelope{data=QuoteDto}
//	@Failure		400		{object}	response.Envelope
//	@Router			/api/payments/quote [post]
func (h *Handler) CreateQuote(c *gin.Context) {
	var req CreateQuoteRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debugf("CreateQuote bind err: %v", err)
		response.Fail(c, apperror.ErrInvalidInput.WithMessage(err.Error()))
		return
	}

	q, err := h.service.CreateQuote(c.Request.Context(), req.Amount, req.Currency)
	if err != nil {
		response.LogFailure(h.logger, "CreateQuote", err)
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusCreated, QuoteDtoFromDomain(*q))
}

// GetQuote godoc
//
//	@Summary		Get a quote
//	@Tags			payments
//	@Produce		json
//	@Param			quoteId	path		string	true	"Quote id"
//	@Success		200		{object}	response.Envelope{data=QuoteDto}
//	@Failure		404		{object}	response.Envelope
//	@Router			/api/payments/quote/{quoteId} [get]
func (h *Handler) GetQuote(c *gin.Context) {
	q, err := h.service.GetQuote(c.Request.Context(), c.Param("quoteId"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, QuoteDtoFromDomain(*q))
}
