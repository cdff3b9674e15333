package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/MMN3003/payagent/src/logger"
	"github.com/MMN3003/payagent/src/quote/domain"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

var _ domain.QuoteRepository = (*PostgresQuoteRepo)(nil)

const uniqueViolation = "23505"

const quotesSchema = `
CREATE TABLE IF NOT EXISTS quotes (
	id                TEXT PRIMARY KEY,
	currency          TEXT NOT NULL,
	input_amount      NUMERIC(38, 18) NOT NULL,
	quoted_amount_usd NUMERIC(38, 18) NOT NULL,
	rate              NUMERIC(38, 18) NOT NULL,
	rate_source       TEXT NOT NULL,
	fetched_at        TIMESTAMPTZ NOT NULL,
	quote_expires_at  TIMESTAMPTZ NOT NULL,
	claimed_by        TEXT
)`

type PostgresQuoteRepo struct {
	db  *sql.DB
	log *logger.Logger
}

func NewPostgresQuoteRepo(ctx context.Context, db *sql.DB, log *logger.Logger) *PostgresQuoteRepo {
	if _, err := db.ExecContext(ctx, quotesSchema); err != nil {
		log.Fatalf("failed to migrate quotes table: %v", err)
	}
	return &PostgresQuoteRepo{db: db, log: log}
}

func (r *PostgresQuoteRepo) Save(ctx context.Context, q *domain.Quote) error {
	query := `
	INSERT INTO quotes (
		id, currency, input_amount, quoted_amount_usd, rate,
		rate_source, fetched_at, quote_expires_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`

	_, err := r.db.ExecContext(ctx, query,
		q.ID,
		string(q.Currency),
		q.InputAmount.String(),
		q.QuotedAmountUSD.String(),
		q.Rate.String(),
		string(q.RateSource),
		q.FetchedAt,
		q.QuoteExpiresAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrDuplicateID
		}
		r.log.Errorf("failed to save quote: %v", err)
	}
	return err
}

func (r *PostgresQuoteRepo) GetByID(ctx context.Context, id string) (*domain.Quote, error) {
	query := `SELECT id, currency, input_amount, quoted_amount_usd, rate, rate_source, fetched_at, quote_expires_at, claimed_by FROM quotes WHERE id=$1`
	row := r.db.QueryRowContext(ctx, query, id)

	var q domain.Quote
	var currency, rateSource string
	var inputStr, quotedStr, rateStr string
	var claimedBy sql.NullString

	err := row.Scan(
		&q.ID,
		&currency,
		&inputStr,
		&quotedStr,
		&rateStr,
		&rateSource,
		&q.FetchedAt,
		&q.QuoteExpiresAt,
		&claimedBy,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.log.Errorf("failed to get quote by id: %v", err)
		return nil, err
	}
	q.Currency = domain.Currency(currency)
	q.RateSource = domain.RateSource(rateSource)
	q.ClaimedBy = claimedBy.String

	// Parse decimal strings into decimal.Decimal
	if q.InputAmount, err = decimal.NewFromString(inputStr); err != nil {
		return nil, err
	}
	if q.QuotedAmountUSD, err = decimal.NewFromString(quotedStr); err != nil {
		return nil, err
	}
	if q.Rate, err = decimal.NewFromString(rateStr); err != nil {
		return nil, err
	}
	return &q, nil
}

// Claim is a single conditional UPDATE so concurrent claimers race inside
// postgres and exactly one sees a row affected.
func (r *PostgresQuoteRepo) Claim(ctx context.Context, id, sessionID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE quotes SET claimed_by=$2 WHERE id=$1 AND claimed_by IS NULL", id, sessionID)
	if err != nil {
		r.log.Errorf("failed to claim quote: %v", err)
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *PostgresQuoteRepo) Release(ctx context.Context, id, sessionID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE quotes SET claimed_by=NULL WHERE id=$1 AND claimed_by=$2", id, sessionID)
	if err != nil {
		r.log.Errorf("failed to release quote: %v", err)
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
