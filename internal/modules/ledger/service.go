package ledger

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sagarwalke-dev/portfolio-engine/internal/domain"
)

// quantityEpsilon absorbs float accumulation noise when comparing a
// requested sell against the held quantity.
const quantityEpsilon = 1e-9

// Service validates and records ledger transactions.
//
// All mutations to one user's history are serialized through a per-user lock
// so concurrent buy/sell submissions cannot produce lost updates (an
// oversell slipping past the held-quantity check). Reads do not take the
// lock: SQLite WAL gives them a consistent snapshot.
type Service struct {
	repo *Repository
	log  zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a new ledger service
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo:  repo,
		log:   log.With().Str("service", "ledger").Logger(),
		locks: make(map[string]*sync.Mutex),
	}
}

// userLock returns the mutex serializing writes for one user
func (s *Service) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

// Record validates and appends a transaction, returning its ID.
// Validation happens before any mutation; a rejected transaction leaves the
// ledger untouched.
//
// A sell or withdrawal is checked against the chronological replay as of its
// execution time, not just the current net position: a backdated reduce that
// would drive the replayed quantity negative at any point in the history is
// rejected with InsufficientHoldingsError.
func (s *Service) Record(ctx context.Context, tx domain.Transaction) (string, error) {
	if err := validate(&tx); err != nil {
		return "", err
	}

	lock := s.userLock(tx.UserID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	tx.CreatedAt = time.Now().UTC()
	if tx.ExecutedAt.IsZero() {
		tx.ExecutedAt = tx.CreatedAt
	}

	if tx.Kind.Reduces() {
		available, err := s.availableQuantity(tx.UserID, tx.Symbol, tx.ExecutedAt)
		if err != nil {
			return "", err
		}
		if tx.Quantity > available+quantityEpsilon {
			return "", &domain.InsufficientHoldingsError{
				Symbol:    tx.Symbol,
				Requested: tx.Quantity,
				Held:      available,
			}
		}
	}

	tx.ID = uuid.NewString()

	if err := s.repo.Insert(tx); err != nil {
		return "", err
	}

	return tx.ID, nil
}

// availableQuantity returns the largest quantity removable from a position
// at the given execution time. It is the minimum of the replayed running
// quantity from that point through the end of the history, so accepting a
// reduce of at most this amount keeps every prefix of the ledger
// non-negative. For an execution time at or after the last recorded
// transaction this equals the net held quantity.
func (s *Service) availableQuantity(userID, symbol string, at time.Time) (float64, error) {
	txs, err := s.repo.ListByUser(userID, symbol)
	if err != nil {
		return 0, err
	}

	running := 0.0
	apply := func(t domain.Transaction) {
		if t.Kind == domain.KindBuy {
			running += t.Quantity
		} else {
			running -= t.Quantity
		}
	}

	i := 0
	for ; i < len(txs) && !txs[i].ExecutedAt.After(at); i++ {
		apply(txs[i])
	}

	available := running
	for ; i < len(txs); i++ {
		apply(txs[i])
		if running < available {
			available = running
		}
	}

	return available, nil
}

// ListTransactions returns a user's transactions in chronological order,
// optionally filtered by symbol.
func (s *Service) ListTransactions(ctx context.Context, userID, symbol string) ([]domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, &domain.ValidationError{Field: "user_id", Reason: "must not be empty"}
	}
	return s.repo.ListByUser(userID, symbol)
}

// Symbols returns the distinct symbols a user has transacted in
func (s *Service) Symbols(ctx context.Context, userID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.repo.Symbols(userID)
}

// validate normalizes and checks a transaction before it touches the ledger
func validate(tx *domain.Transaction) error {
	tx.UserID = strings.TrimSpace(tx.UserID)
	if tx.UserID == "" {
		return &domain.ValidationError{Field: "user_id", Reason: "must not be empty"}
	}

	tx.Symbol = normalizeSymbol(tx.Symbol)
	if tx.Symbol == "" {
		return &domain.ValidationError{Field: "symbol", Reason: "must not be empty"}
	}

	if !tx.Kind.Valid() {
		return &domain.ValidationError{Field: "kind", Reason: "must be buy, sell or withdrawal"}
	}

	if tx.Quantity <= 0 {
		return &domain.ValidationError{Field: "quantity", Reason: "must be positive"}
	}

	if tx.UnitPrice <= 0 {
		return &domain.ValidationError{Field: "unit_price", Reason: "must be positive"}
	}

	if tx.AssetType == "" {
		tx.AssetType = domain.AssetStocks
	}

	return nil
}
