package portfolio

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stockfolio/stockfolio/pkg/metrics"
	"github.com/stockfolio/stockfolio/pkg/models"
)

// HoldingsCache caches per-user holdings listings. Implementations must be
// safe for concurrent use. A nil cache disables caching.
type HoldingsCache interface {
	GetHoldings(ctx context.Context, userID uuid.UUID) ([]models.Position, bool)
	SetHoldings(ctx context.Context, userID uuid.UUID, positions []models.Position)
	Invalidate(ctx context.Context, userID uuid.UUID)
}

// SellResult is the user-facing outcome of a sell request.
type SellResult struct {
	Outcome  SellOutcome
	Position *models.Position // set only when Outcome is SellUpdated
}

// Service is the transaction orchestrator: it coordinates the
// read-modify-write of a single position against the holding store per trade
// request. The read-then-write sequence for a given (user, instrument) key is
// serialized behind a per-key mutex, so concurrent trades on the same key
// apply in some serial order while trades on distinct keys proceed
// independently.
type Service struct {
	logger *zap.Logger
	store  HoldingStore
	cache  HoldingsCache

	// one mutex per (user, instrument) key, created on first use
	keyLocks sync.Map
}

// NewService creates a portfolio service. cache may be nil.
func NewService(logger *zap.Logger, store HoldingStore, cache HoldingsCache) *Service {
	return &Service{
		logger: logger,
		store:  store,
		cache:  cache,
	}
}

// lockKey acquires the mutex for one (user, instrument) key and returns the
// matching unlock function.
func (s *Service) lockKey(userID uuid.UUID, instrumentID string) func() {
	key := userID.String() + "/" + instrumentID
	mu, _ := s.keyLocks.LoadOrStore(key, &sync.Mutex{})
	lock := mu.(*sync.Mutex)
	lock.Lock()
	return lock.Unlock
}

// Buy records a buy of quantity units at the given price. On the first buy of
// an instrument a new position is opened with displayName as its label;
// subsequent buys update the quantity and the weighted-average cost.
func (s *Service) Buy(ctx context.Context, userID uuid.UUID, instrumentID, displayName string, quantity int64, price decimal.Decimal) (*models.Position, error) {
	// Validate before any store access so a bad request never mutates state.
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if price.IsNegative() {
		return nil, ErrInvalidPrice
	}

	start := time.Now()
	unlock := s.lockKey(userID, instrumentID)
	defer unlock()

	existing, err := s.store.Get(ctx, userID, instrumentID)
	if err != nil {
		return nil, err
	}

	pos, err := ApplyBuy(existing, userID, instrumentID, displayName, quantity, price)
	if err != nil {
		return nil, err
	}

	if err := s.store.Upsert(ctx, &pos); err != nil {
		return nil, err
	}
	s.invalidateHoldings(ctx, userID)

	metrics.TradesProcessed.WithLabelValues("buy").Inc()
	metrics.TradeLatency.Observe(time.Since(start).Seconds())
	s.logger.Info("buy applied",
		zap.String("user_id", userID.String()),
		zap.String("instrument_id", instrumentID),
		zap.Int64("quantity", quantity),
		zap.String("price", price.String()),
		zap.Int64("quantity_held", pos.QuantityHeld),
		zap.String("average_cost", pos.AverageCost.String()))
	return &pos, nil
}

// Sell records a sell of quantity units. The price is accepted for interface
// symmetry but does not affect the cost basis. Selling the full held quantity
// closes the position and deletes the stored record; selling more than held
// is rejected without touching the store.
func (s *Service) Sell(ctx context.Context, userID uuid.UUID, instrumentID string, quantity int64, price decimal.Decimal) (*SellResult, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	start := time.Now()
	unlock := s.lockKey(userID, instrumentID)
	defer unlock()

	existing, err := s.store.Get(ctx, userID, instrumentID)
	if err != nil {
		return nil, err
	}

	outcome, pos, err := ApplySell(existing, quantity)
	if err != nil {
		return nil, err
	}

	switch outcome {
	case SellUpdated:
		if err := s.store.Upsert(ctx, &pos); err != nil {
			return nil, err
		}
		s.invalidateHoldings(ctx, userID)
	case SellClosed:
		if err := s.store.Delete(ctx, userID, instrumentID); err != nil {
			return nil, err
		}
		s.invalidateHoldings(ctx, userID)
	case SellRejected:
		s.logger.Info("sell rejected",
			zap.String("user_id", userID.String()),
			zap.String("instrument_id", instrumentID),
			zap.Int64("quantity", quantity))
		return &SellResult{Outcome: SellRejected}, nil
	}

	metrics.TradesProcessed.WithLabelValues("sell").Inc()
	metrics.TradeLatency.Observe(time.Since(start).Seconds())
	s.logger.Info("sell applied",
		zap.String("user_id", userID.String()),
		zap.String("instrument_id", instrumentID),
		zap.Int64("quantity", quantity),
		zap.String("outcome", outcome.String()))

	if outcome == SellUpdated {
		return &SellResult{Outcome: SellUpdated, Position: &pos}, nil
	}
	return &SellResult{Outcome: SellClosed}, nil
}

// ListHoldings returns the caller's current positions. The result is a stable
// per-call snapshot; no ordering is guaranteed.
func (s *Service) ListHoldings(ctx context.Context, userID uuid.UUID) ([]models.Position, error) {
	if s.cache != nil {
		if positions, ok := s.cache.GetHoldings(ctx, userID); ok {
			return positions, nil
		}
	}

	positions, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetHoldings(ctx, userID, positions)
	}
	return positions, nil
}

func (s *Service) invalidateHoldings(ctx context.Context, userID uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, userID)
	}
}
