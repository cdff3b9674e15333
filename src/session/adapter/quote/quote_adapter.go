package quote

import (
	"context"

	quotedomain "github.com/MMN3003/payagent/src/quote/domain"
	"github.com/MMN3003/payagent/src/session/domain"
)

var _ domain.QuoteAdapter = (*QuotePort)(nil)

// init quote port
func NewQuotePort(quoteService quotedomain.QuoteUsecase) *QuotePort {
	return &QuotePort{quoteService: quoteService}
}

type QuotePort struct {
	quoteService quotedomain.QuoteUsecase
}

func (q *QuotePort) GetQuote(ctx context.Context, id string) (*quotedomain.Quote, error) {
	return q.quoteService.GetQuote(ctx, id)
}

func (q *QuotePort) ClaimQuote(ctx context.Context, id, sessionID string) error {
	return q.quoteService.ClaimQuote(ctx, id, sessionID)
}

func (q *QuotePort) ReleaseQuote(ctx context.Context, id, sessionID string) error {
	return q.quoteService.ReleaseQuote(ctx, id, sessionID)
}
