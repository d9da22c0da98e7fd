// Package portfolio implements the position accounting engine and the
// transaction orchestrator that records buy/sell trades against a per-user
// portfolio of holdings.
package portfolio

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockfolio/stockfolio/pkg/models"
)

// currencyPlaces is the fixed monetary precision. All rounding is half-up,
// applied once at the point the average cost is computed.
const currencyPlaces = 2

// SellOutcome describes the engine's decision for a sell.
type SellOutcome int

const (
	// SellUpdated means the position remains open with a reduced quantity.
	SellUpdated SellOutcome = iota
	// SellClosed means the quantity reached exactly zero and the stored
	// record must be deleted.
	SellClosed
	// SellRejected means the sell exceeds the held quantity (or no position
	// exists) and no state may change.
	SellRejected
)

func (o SellOutcome) String() string {
	switch o {
	case SellUpdated:
		return "updated"
	case SellClosed:
		return "closed"
	case SellRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// ApplyBuy computes the position resulting from a buy. It is a pure function
// of the current snapshot and the trade parameters; it never touches the
// store. When existing is nil a new position is opened at the buy price,
// otherwise the average cost becomes the quantity-weighted mean of the old
// lot and the new one. There is deliberately no funds check.
func ApplyBuy(existing *models.Position, userID uuid.UUID, instrumentID, displayName string, quantity int64, price decimal.Decimal) (models.Position, error) {
	if quantity <= 0 {
		return models.Position{}, ErrInvalidQuantity
	}
	if price.IsNegative() {
		return models.Position{}, ErrInvalidPrice
	}
	price = price.Round(currencyPlaces)

	now := time.Now()
	if existing == nil {
		return models.Position{
			UserID:       userID,
			InstrumentID: instrumentID,
			DisplayName:  displayName,
			QuantityHeld: quantity,
			AverageCost:  price,
			CreatedAt:    now,
			UpdatedAt:    now,
		}, nil
	}

	newQuantity := existing.QuantityHeld + quantity
	oldCost := decimal.NewFromInt(existing.QuantityHeld).Mul(existing.AverageCost)
	newCost := decimal.NewFromInt(quantity).Mul(price)
	avg := oldCost.Add(newCost).Div(decimal.NewFromInt(newQuantity)).Round(currencyPlaces)

	next := *existing
	next.QuantityHeld = newQuantity
	next.AverageCost = avg
	next.UpdatedAt = now
	return next, nil
}

// ApplySell computes the outcome of a sell against the current snapshot.
// The average cost is never altered by a sell; realized gain/loss is not
// tracked. A sell that would drive the quantity below zero is rejected and
// the snapshot must be left untouched by the caller.
func ApplySell(existing *models.Position, quantity int64) (SellOutcome, models.Position, error) {
	if quantity <= 0 {
		return SellRejected, models.Position{}, ErrInvalidQuantity
	}
	if existing == nil || quantity > existing.QuantityHeld {
		return SellRejected, models.Position{}, nil
	}

	remaining := existing.QuantityHeld - quantity
	if remaining == 0 {
		return SellClosed, models.Position{}, nil
	}

	next := *existing
	next.QuantityHeld = remaining
	next.UpdatedAt = time.Now()
	return SellUpdated, next, nil
}
