package watchlist

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sagarwalke-dev/portfolio-engine/internal/domain"
)

// QuotedEntry is a watchlist entry joined with its current quote.
// Price fields are always recomputed from the feed; they are never stored.
type QuotedEntry struct {
	domain.WatchlistEntry
	Quoted        bool      `json:"quoted"`
	Price         float64   `json:"price"`
	ChangePercent float64   `json:"change_percent"`
	AsOf          time.Time `json:"as_of,omitempty"`
}

// Service manages watchlist entries
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

// NewService creates a new watchlist service
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "watchlist").Logger(),
	}
}

// Add creates a watchlist entry. A symbol the user already tracks is
// rejected with DuplicateEntryError rather than silently merged.
// Symbol and name are distinct required fields.
func (s *Service) Add(ctx context.Context, userID, symbol, name string, assetType domain.AssetType) (domain.WatchlistEntry, error) {
	if err := ctx.Err(); err != nil {
		return domain.WatchlistEntry{}, err
	}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.WatchlistEntry{}, &domain.ValidationError{Field: "user_id", Reason: "must not be empty"}
	}

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return domain.WatchlistEntry{}, &domain.ValidationError{Field: "symbol", Reason: "must not be empty"}
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return domain.WatchlistEntry{}, &domain.ValidationError{Field: "name", Reason: "must not be empty"}
	}

	if assetType == "" {
		assetType = domain.AssetStocks
	}

	exists, err := s.repo.Exists(userID, symbol)
	if err != nil {
		return domain.WatchlistEntry{}, err
	}
	if exists {
		return domain.WatchlistEntry{}, &domain.DuplicateEntryError{UserID: userID, Symbol: symbol}
	}

	entry := domain.WatchlistEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Symbol:    symbol,
		Name:      name,
		AssetType: assetType,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Insert(entry); err != nil {
		return domain.WatchlistEntry{}, err
	}

	return entry, nil
}

// Remove deletes an entry owned by the user
func (s *Service) Remove(ctx context.Context, userID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.repo.Delete(userID, id)
}

// List returns a user's watchlist entries
func (s *Service) List(ctx context.Context, userID string) ([]domain.WatchlistEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.repo.ListByUser(userID)
}

// SetNotification toggles price alerts for an entry
func (s *Service) SetNotification(ctx context.Context, userID, id string, enabled bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.repo.SetNotification(userID, id, enabled)
}

// AllSymbols returns the distinct symbols tracked across all users
func (s *Service) AllSymbols(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.repo.AllSymbols()
}

// RefreshQuotes joins entries against the supplied quotes. Pure: no
// persistence side effect. Entries without a quote are returned with
// Quoted=false so the caller can distinguish "no data" from a zero price.
func RefreshQuotes(entries []domain.WatchlistEntry, quotes map[string]domain.PriceQuote) []QuotedEntry {
	out := make([]QuotedEntry, 0, len(entries))
	for _, entry := range entries {
		qe := QuotedEntry{WatchlistEntry: entry}
		if quote, ok := quotes[entry.Symbol]; ok {
			qe.Quoted = true
			qe.Price = quote.Price
			qe.ChangePercent = quote.ChangePercent
			qe.AsOf = quote.AsOf
		}
		out = append(out, qe)
	}
	return out
}
