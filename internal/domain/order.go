package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order. Only the two declared values exist;
// code switching on Side handles both and nothing else.
type Side int

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	if s == Bid {
		return "Bid"
	}
	return "Ask"
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == Bid {
		return Ask
	}
	return Bid
}

var (
	ErrBadPrice    = errors.New("order price must be positive")
	ErrBadQuantity = errors.New("order quantity must be positive")
)

// Order is one trader's priced, sized intent to trade. TraderID, Side,
// Price and Time never change after construction; Quantity is decremented
// by fills while the order rests on the book, and QuoteID is assigned
// exactly once when the exchange accepts the order.
type Order struct {
	TraderID string
	Side     Side
	Price    decimal.Decimal
	Quantity int64
	Time     float64
	QuoteID  uint64
}

// NewOrder validates and builds an order. The price is rounded to two
// decimal places, the engine's fixed-point price resolution.
func NewOrder(traderID string, side Side, price decimal.Decimal, quantity int64, now float64) (*Order, error) {
	if price.Sign() <= 0 {
		return nil, ErrBadPrice
	}
	if quantity <= 0 {
		return nil, ErrBadQuantity
	}
	return &Order{
		TraderID: traderID,
		Side:     side,
		Price:    price.Round(2),
		Quantity: quantity,
		Time:     now,
	}, nil
}

func (o *Order) String() string {
	return fmt.Sprintf("[%s %s P=%s Q=%d T=%5.2f quote_id:%d]",
		o.TraderID, o.Side, o.Price.StringFixed(2), o.Quantity, o.Time, o.QuoteID)
}
