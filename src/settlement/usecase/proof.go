package usecase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MMN3003/payagent/src/apperror"
	"github.com/xeipuuv/gojsonschema"
)

// paymentProofSchema accepts both the v1 shape (scheme/network at top level)
// and v2 (accepted requirements embedded).
const paymentProofSchema = `{
  "type": "object",
  "required": ["x402Version", "payload"],
  "properties": {
    "x402Version": {"type": "integer", "minimum": 1},
    "scheme": {"type": "string"},
    "network": {"type": "string"},
    "payload": {"type": "object", "minProperties": 1},
    "accepted": {"type": "object"}
  }
}`

var proofSchema = mustSchema(paymentProofSchema)

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("compile payment proof schema: %v", err))
	}
	return schema
}

// validateProof checks the shape of an x402 payment payload. Signatures are
// the facilitator's business.
func validateProof(proof json.RawMessage) error {
	if len(bytes.TrimSpace(proof)) == 0 {
		return apperror.ErrInvalidPaymentProof.WithMessage("paymentProof is required")
	}
	if !json.Valid(proof) {
		return apperror.ErrInvalidPaymentProof.WithMessage("paymentProof is not valid JSON")
	}

	result, err := proofSchema.Validate(gojsonschema.NewBytesLoader(proof))
	if err != nil {
		return apperror.ErrInvalidPaymentProof.Wrap(err)
	}
	if result.Valid() {
		return nil
	}

	var msgs []string
	for _, desc := range result.Errors() {
		msgs = append(msgs, fmt.Sprintf("%s: %s", desc.Context().String(), desc.Description()))
	}
	return apperror.ErrInvalidPaymentProof.WithMessage(strings.Join(msgs, "; "))
}
