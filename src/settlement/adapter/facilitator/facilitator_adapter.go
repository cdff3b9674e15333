package facilitator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	x402 "github.com/MMN3003/payagent/src/Infrastructure/facilitator"
	"github.com/MMN3003/payagent/src/apperror"
	quotedomain "github.com/MMN3003/payagent/src/quote/domain"
	"github.com/MMN3003/payagent/src/settlement/domain"
)

var _ domain.Facilitator = (*FacilitatorPort)(nil)

// X402Client is the part of the facilitator HTTP client the port drives.
type X402Client interface {
	Verify(ctx context.Context, req x402.Request) (*x402.VerifyResponse, error)
	Settle(ctx context.Context, req x402.Request) (*x402.SettleResponse, error)
}

// Settings describe the asset the merchant accepts on chain.
type Settings struct {
	Network string
	// Assets maps a currency code to its token contract address.
	Assets map[quotedomain.Currency]string
	// TokenName and TokenVersion are the EIP-712 domain of the token.
	TokenName    string
	TokenVersion string
}

type FacilitatorPort struct {
	client   X402Client
	settings Settings
	now      func() time.Time
}

func NewFacilitatorPort(client X402Client, settings Settings) *FacilitatorPort {
	if settings.TokenName == "" {
		settings.TokenName = "USDC"
	}
	if settings.TokenVersion == "" {
		settings.TokenVersion = "2"
	}
	return &FacilitatorPort{client: client, settings: settings, now: time.Now}
}

// VerifyAndSettle runs /verify then /settle. Definitive refusals come back as
// *domain.VerificationError.
func (f *FacilitatorPort) VerifyAndSettle(ctx context.Context, proof json.RawMessage, req domain.Requirements) (*domain.FacilitatorReceipt, error) {
	r, err := f.buildRequest(proof, req)
	if err != nil {
		return nil, err
	}

	verified, err := f.client.Verify(ctx, r)
	if err != nil {
		return nil, classify(err)
	}
	if !verified.IsValid {
		return nil, &domain.VerificationError{Reason: reasonOr(verified.InvalidReason, "payment proof is not valid")}
	}

	settled, err := f.client.Settle(ctx, r)
	if err != nil {
		return nil, classify(err)
	}
	if !settled.Success {
		return nil, &domain.VerificationError{Reason: reasonOr(settled.ErrorReason, "facilitator could not settle the payment")}
	}

	payer := settled.Payer
	if payer == "" {
		payer = verified.Payer
	}
	return &domain.FacilitatorReceipt{
		TransactionRef: settled.Transaction,
		Payer:          payer,
		Network:        settled.Network,
	}, nil
}

func (f *FacilitatorPort) buildRequest(proof json.RawMessage, req domain.Requirements) (x402.Request, error) {
	asset, ok := quotedomain.LookupAsset(string(req.Currency))
	if !ok {
		return x402.Request{}, apperror.ErrInternal.WithMessage(fmt.Sprintf("unsupported currency %s", req.Currency))
	}
	contract, ok := f.settings.Assets[asset.Symbol]
	if !ok {
		return x402.Request{}, apperror.ErrInternal.WithMessage(fmt.Sprintf("no token contract configured for %s", asset.Symbol))
	}

	var head struct {
		X402Version int `json:"x402Version"`
	}
	if err := json.Unmarshal(proof, &head); err != nil {
		return x402.Request{}, &domain.VerificationError{Reason: "payment proof is not valid JSON"}
	}
	version := head.X402Version
	if version == 0 {
		version = x402.Version
	}

	timeout := int(math.Ceil(req.ExpiresAt.Sub(f.now()).Seconds()))
	if timeout < 1 {
		timeout = 1
	}

	return x402.Request{
		X402Version:    version,
		PaymentPayload: proof,
		PaymentRequirements: x402.PaymentRequirements{
			Scheme:            "exact",
			Network:           f.settings.Network,
			Asset:             contract,
			Amount:            asset.ToMinor(req.Amount).String(),
			PayTo:             req.PayTo,
			MaxTimeoutSeconds: timeout,
			Extra: map[string]interface{}{
				"name":    f.settings.TokenName,
				"version": f.settings.TokenVersion,
				"nonce":   req.Nonce,
			},
		},
	}, nil
}

// classify keeps transport trouble transient and turns 4xx refusals into
// verification failures.
func classify(err error) error {
	var herr *x402.HTTPError
	if errors.As(err, &herr) && herr.Rejected() {
		return &domain.VerificationError{Reason: reasonOr(herr.Reason, herr.Error())}
	}
	return err
}

func reasonOr(reason, fallback string) string {
	if reason != "" {
		return reason
	}
	return fallback
}
