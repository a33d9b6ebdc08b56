// Package marketdata provides the client for the external market-data
// collaborator. The engine depends on it only through the quote maps it
// produces and never embeds a specific provider.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sagarwalke-dev/portfolio-engine/internal/domain"
	"github.com/sagarwalke-dev/portfolio-engine/internal/quotecache"
)

// Client fetches quotes over HTTP with a bounded time budget.
//
// Reads are cache-first within the freshness TTL; symbols not covered by a
// fresh cached quote are fetched from the feed. A fetch that times out or
// fails simply leaves its symbols absent from the result map - the caller
// (valuation) turns absence into MissingPriceError instead of blocking or
// substituting stale data.
type Client struct {
	baseURL   string
	client    *http.Client
	timeout   time.Duration
	cacheRepo *quotecache.Repository
	log       zerolog.Logger
}

// NewClient creates a new market data client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(baseURL string, timeout time.Duration, cacheRepo *quotecache.Repository, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		client:    &http.Client{Timeout: timeout},
		timeout:   timeout,
		cacheRepo: cacheRepo,
		log:       log.With().Str("client", "marketdata").Logger(),
	}
}

// quoteResponse is the feed's wire format
type quoteResponse struct {
	Quotes []struct {
		Symbol        string    `json:"symbol"`
		Price         float64   `json:"price"`
		ChangePercent float64   `json:"change_percent"`
		AsOf          time.Time `json:"as_of"`
	} `json:"quotes"`
}

// GetQuotes returns current quotes for the requested symbols.
// The result map only contains symbols that were quoted in time; it is
// never padded with zeros or stale entries. The fetch is cancellable via
// ctx and additionally bounded by the client timeout.
func (c *Client) GetQuotes(ctx context.Context, symbols []string) (map[string]domain.PriceQuote, error) {
	result := make(map[string]domain.PriceQuote, len(symbols))
	if len(symbols) == 0 {
		return result, nil
	}

	// Cache-first: collect symbols still needing a network fetch
	var missing []string
	for _, symbol := range symbols {
		if c.cacheRepo != nil {
			cached, err := c.cacheRepo.GetIfFresh(symbol)
			if err != nil {
				c.log.Warn().Err(err).Str("symbol", symbol).Msg("Quote cache read failed")
			} else if cached != nil {
				result[symbol] = *cached
				continue
			}
		}
		missing = append(missing, symbol)
	}

	if len(missing) == 0 {
		return result, nil
	}

	fetched, err := c.fetch(ctx, missing)
	if err != nil {
		// Partial result: cached symbols are still usable
		c.log.Warn().Err(err).Strs("symbols", missing).Msg("Quote fetch failed")
		return result, fmt.Errorf("quote fetch failed: %w", err)
	}

	for symbol, quote := range fetched {
		result[symbol] = quote
		if c.cacheRepo != nil {
			if err := c.cacheRepo.Store(quote, quotecache.TTLQuote); err != nil {
				c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache quote")
			}
		}
	}

	return result, nil
}

// fetch performs the HTTP round trip for the given symbols
func (c *Client) fetch(ctx context.Context, symbols []string) (map[string]domain.PriceQuote, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqURL := fmt.Sprintf("%s/quotes?symbols=%s", c.baseURL, url.QueryEscape(strings.Join(symbols, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	var parsed quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	quotes := make(map[string]domain.PriceQuote, len(parsed.Quotes))
	now := time.Now()
	for _, q := range parsed.Quotes {
		asOf := q.AsOf
		if asOf.IsZero() {
			asOf = now
		}
		quotes[q.Symbol] = domain.PriceQuote{
			Symbol:        q.Symbol,
			Price:         q.Price,
			ChangePercent: q.ChangePercent,
			AsOf:          asOf,
		}
	}

	c.log.Debug().Int("requested", len(symbols)).Int("received", len(quotes)).Msg("Fetched quotes")
	return quotes, nil
}
