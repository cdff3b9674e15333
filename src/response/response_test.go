package response

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/MMN3003/payagent/src/apperror"
	"github.com/MMN3003/payagent/src/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogFailureLevels(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		level string
	}{
		{"verification failure", apperror.ErrVerificationFailed.WithMessage("bad signature"), "debug"},
		{"expired session", apperror.ErrSessionExpired, "debug"},
		{"unknown session", apperror.ErrSessionNotFound, "debug"},
		{"facilitator timeout", apperror.ErrTimeout, "warn"},
		{"commission transfer", apperror.ErrCommissionFailed, "warn"},
		{"store down", apperror.ErrInternal.Wrap(errors.New("connection refused")), "error"},
		{"untyped", errors.New("boom"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			LogFailure(logger.NewWithWriter("prod", &buf), "Settle", tt.err)

			var line struct {
				Level   string `json:"level"`
				Message string `json:"message"`
			}
			require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
			assert.Equal(t, tt.level, line.Level)
			assert.Contains(t, line.Message, "Settle err: ")
		})
	}
}
