// Package response writes the JSON envelope shared by every HTTP handler.
package response

import (
	"github.com/MMN3003/payagent/src/apperror"
	"github.com/MMN3003/payagent/src/logger"
	"github.com/gin-gonic/gin"
)

// Envelope is the body of every API response.
// swagger:model Envelope
type Envelope struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody is the machine readable failure.
type ErrorBody struct {
	Kind    string `json:"kind" example:"not_found"`
	Code    string `json:"code" example:"SESSION_NOT_FOUND"`
	Message string `json:"message" example:"session not found"`
}

func OK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

// Fail renders err with the status derived from its kind. Internal causes
// never leak to the client.
func Fail(c *gin.Context, err error) {
	FailWith(c, err, nil)
}

// FailWith is Fail with a data payload, for operations that report partial
// progress alongside the error.
func FailWith(c *gin.Context, err error, data interface{}) {
	e := apperror.From(err)
	msg := e.Message
	if e.Kind == apperror.KindInternal {
		msg = apperror.ErrInternal.Message
	}
	c.AbortWithStatusJSON(apperror.HTTPStatus(e.Kind), Envelope{
		Success: false,
		Data:    data,
		Error: &ErrorBody{
			Kind:    string(e.Kind),
			Code:    e.Code,
			Message: msg,
		},
	})
}

// LogFailure logs a failed request at a level matching its kind. Only
// internal faults are errors; upstream trouble is a warning and expected
// client outcomes stay at debug.
func LogFailure(l *logger.Logger, op string, err error) {
	switch apperror.KindOf(err) {
	case apperror.KindInternal:
		l.Errorf("%s err: %v", op, err)
	case apperror.KindTimeout, apperror.KindCommissionFailed:
		l.Warnf("%s err: %v", op, err)
	default:
		l.Debugf("%s err: %v", op, err)
	}
}
