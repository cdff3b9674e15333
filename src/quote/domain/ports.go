package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrDuplicateID = errors.New("quote id already exists")

// QuoteRepository persistence port. GetByID returns nil, nil when absent.
type QuoteRepository interface {
	Save(ctx context.Context, q *Quote) error
	GetByID(ctx context.Context, id string) (*Quote, error)
	// Claim binds the quote to sessionID if and only if it is unclaimed.
	Claim(ctx context.Context, id, sessionID string) (bool, error)
	// Release undoes a claim, only while the quote is still bound to sessionID.
	Release(ctx context.Context, id, sessionID string) (bool, error)
}

// RateProvider supplies the USD conversion for a currency
type RateProvider interface {
	Rate(ctx context.Context, currency Currency) (Rate, error)
}

type QuoteUsecase interface {
	CreateQuote(ctx context.Context, inputAmount decimal.Decimal, currency string) (*Quote, error)
	GetQuote(ctx context.Context, id string) (*Quote, error)
	ClaimQuote(ctx context.Context, id, sessionID string) error
	ReleaseQuote(ctx context.Context, id, sessionID string) error
}
