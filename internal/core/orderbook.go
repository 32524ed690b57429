package core

import (
	"github.com/shopspring/decimal"

	"github.com/quantfray/marketsim/internal/domain"
)

// Price domain bounds, in currency units. They double as the worst-price
// sentinels each side publishes while empty.
var (
	DefaultMinPrice = decimal.NewFromInt(1)
	DefaultMaxPrice = decimal.NewFromInt(1000)
)

// OrderBook pairs the two book sides with the append-only tape and the
// quote-id sequence shared by both.
type OrderBook struct {
	Bids *BookSide
	Asks *BookSide

	tape        []domain.TapeRecord
	nextQuoteID uint64
}

func NewOrderBook(minPrice, maxPrice decimal.Decimal) *OrderBook {
	return &OrderBook{
		Bids: NewBookSide(domain.Bid, minPrice),
		Asks: NewBookSide(domain.Ask, maxPrice),
	}
}

// bookSide returns the half of the book orders of direction s rest on.
func (ob *OrderBook) bookSide(s domain.Side) *BookSide {
	if s == domain.Bid {
		return ob.Bids
	}
	return ob.Asks
}

// NextQuoteID is the id the next accepted order will receive.
func (ob *OrderBook) NextQuoteID() uint64 { return ob.nextQuoteID }

func (ob *OrderBook) appendTape(rec domain.TapeRecord) {
	ob.tape = append(ob.tape, rec)
}

// Tape returns a copy of the event tape in emission order.
func (ob *OrderBook) Tape() []domain.TapeRecord {
	out := make([]domain.TapeRecord, len(ob.tape))
	copy(out, ob.tape)
	return out
}

func (ob *OrderBook) wipeTape() { ob.tape = nil }
