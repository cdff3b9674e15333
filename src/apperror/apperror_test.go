package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesOnCode(t *testing.T) {
	err := ErrVerificationFailed.WithMessage("invalid_exact_evm_payload_signature")

	assert.True(t, errors.Is(err, ErrVerificationFailed))
	assert.False(t, errors.Is(err, ErrTimeout))
	assert.Equal(t, "invalid_exact_evm_payload_signature", err.Message)
	assert.Equal(t, "payment verification failed", ErrVerificationFailed.Message)
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: i/o timeout")
	err := fmt.Errorf("settle: %w", ErrTimeout.Wrap(cause))

	assert.True(t, errors.Is(err, ErrTimeout))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, KindTimeout, KindOf(err))
}

func TestFromUntypedIsInternal(t *testing.T) {
	e := From(errors.New("boom"))
	assert.Equal(t, KindInternal, e.Kind)
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(e.Kind))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(KindInvalidInput))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(KindNotFound))
	assert.Equal(t, http.StatusConflict, HTTPStatus(KindExpired))
	assert.Equal(t, http.StatusConflict, HTTPStatus(KindAlreadyConsumed))
	assert.Equal(t, http.StatusPaymentRequired, HTTPStatus(KindVerificationFailed))
	assert.Equal(t, http.StatusGatewayTimeout, HTTPStatus(KindTimeout))
}
