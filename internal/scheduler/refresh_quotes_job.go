package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/sagarwalke-dev/portfolio-engine/internal/domain"
)

// SymbolSource lists the symbols whose quotes should be kept warm
type SymbolSource interface {
	AllSymbols(ctx context.Context) ([]string, error)
}

// RefreshQuotesJob keeps the quote cache warm for all watched symbols so
// dashboard reads rarely pay the feed's latency. Valuation correctness does
// not depend on this job: a cold cache just means a slower first read.
type RefreshQuotesJob struct {
	source  SymbolSource
	prices  domain.PriceProvider
	timeout time.Duration
	log     zerolog.Logger
}

// NewRefreshQuotesJob creates a new quote refresh job
func NewRefreshQuotesJob(source SymbolSource, prices domain.PriceProvider, timeout time.Duration, log zerolog.Logger) *RefreshQuotesJob {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RefreshQuotesJob{
		source:  source,
		prices:  prices,
		timeout: timeout,
		log:     log.With().Str("job", "refresh_quotes").Logger(),
	}
}

// Name returns the job name
func (j *RefreshQuotesJob) Name() string { return "refresh_quotes" }

// Run fetches fresh quotes for every watched symbol
func (j *RefreshQuotesJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	symbols, err := j.source.AllSymbols(ctx)
	if err != nil {
		return err
	}
	if len(symbols) == 0 {
		return nil
	}

	quotes, err := j.prices.GetQuotes(ctx, symbols)
	if err != nil {
		return err
	}

	j.log.Info().Int("symbols", len(symbols)).Int("refreshed", len(quotes)).Msg("Quotes refreshed")
	return nil
}
