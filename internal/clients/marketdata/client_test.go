package marketdata

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/sagarwalke-dev/portfolio-engine/internal/quotecache"
)

func setupCache(t *testing.T) *quotecache.Repository {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE quotes (
			symbol TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expires_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`)
	require.NoError(t, err)

	return quotecache.NewRepository(db)
}

func quoteFeed(t *testing.T, prices map[string]float64, hits *int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			*hits++
		}
		assert.Equal(t, "/quotes", r.URL.Path)

		var quotes []map[string]interface{}
		for symbol, price := range prices {
			quotes = append(quotes, map[string]interface{}{
				"symbol":         symbol,
				"price":          price,
				"change_percent": 0.5,
				"as_of":          time.Now().UTC().Format(time.RFC3339),
			})
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"quotes": quotes})
	}))
}

func TestGetQuotes(t *testing.T) {
	feed := quoteFeed(t, map[string]float64{"AAPL": 182.63, "MSFT": 415.20}, nil)
	defer feed.Close()

	client := NewClient(feed.URL, 5*time.Second, nil, zerolog.Nop())

	quotes, err := client.GetQuotes(context.Background(), []string{"AAPL", "MSFT"})
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.InDelta(t, 182.63, quotes["AAPL"].Price, 1e-9)
	assert.InDelta(t, 415.20, quotes["MSFT"].Price, 1e-9)
}

func TestGetQuotesAbsentSymbolsNotPadded(t *testing.T) {
	feed := quoteFeed(t, map[string]float64{"AAPL": 182.63}, nil)
	defer feed.Close()

	client := NewClient(feed.URL, 5*time.Second, nil, zerolog.Nop())

	quotes, err := client.GetQuotes(context.Background(), []string{"AAPL", "UNKNOWN"})
	require.NoError(t, err)

	// The feed did not quote UNKNOWN; the map must not invent an entry
	require.Len(t, quotes, 1)
	_, ok := quotes["UNKNOWN"]
	assert.False(t, ok)
}

func TestGetQuotesCacheFirst(t *testing.T) {
	hits := 0
	feed := quoteFeed(t, map[string]float64{"AAPL": 182.63}, &hits)
	defer feed.Close()

	client := NewClient(feed.URL, 5*time.Second, setupCache(t), zerolog.Nop())
	ctx := context.Background()

	_, err := client.GetQuotes(ctx, []string{"AAPL"})
	require.NoError(t, err)
	assert.Equal(t, 1, hits)

	// Second read is served from cache
	quotes, err := client.GetQuotes(ctx, []string{"AAPL"})
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
	assert.InDelta(t, 182.63, quotes["AAPL"].Price, 1e-9)
}

func TestGetQuotesFeedFailure(t *testing.T) {
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer feed.Close()

	client := NewClient(feed.URL, 5*time.Second, nil, zerolog.Nop())

	quotes, err := client.GetQuotes(context.Background(), []string{"AAPL"})
	require.Error(t, err)
	assert.Empty(t, quotes)
}

func TestGetQuotesFeedFailureReturnsCached(t *testing.T) {
	cache := setupCache(t)

	hits := 0
	feed := quoteFeed(t, map[string]float64{"AAPL": 182.63}, &hits)
	client := NewClient(feed.URL, 5*time.Second, cache, zerolog.Nop())
	ctx := context.Background()

	_, err := client.GetQuotes(ctx, []string{"AAPL"})
	require.NoError(t, err)
	feed.Close()

	// AAPL is cached; MSFT needs the now-dead feed
	quotes, err := client.GetQuotes(ctx, []string{"AAPL", "MSFT"})
	require.Error(t, err)
	require.Len(t, quotes, 1)
	assert.InDelta(t, 182.63, quotes["AAPL"].Price, 1e-9)
}

func TestGetQuotesTimeout(t *testing.T) {
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer feed.Close()

	client := NewClient(feed.URL, 50*time.Millisecond, nil, zerolog.Nop())

	start := time.Now()
	_, err := client.GetQuotes(context.Background(), []string{"AAPL"})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestGetQuotesNoSymbols(t *testing.T) {
	client := NewClient("http://localhost:1", time.Second, nil, zerolog.Nop())

	quotes, err := client.GetQuotes(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, quotes)
}
