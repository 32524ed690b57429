package domain

import "github.com/shopspring/decimal"

// PriceLevel is one row of the anonymized book: a price and the total
// quantity resting at it.
type PriceLevel struct {
	Price    decimal.Decimal
	Quantity int64
}

// SideView is the published state of one half of the book. Best is nil
// when no interest rests on the side; SessionHi is set on the ask side
// only, once at least one ask has been observed.
type SideView struct {
	Best       *decimal.Decimal
	Worst      decimal.Decimal
	SessionHi  *decimal.Decimal
	NumTraders int
	LOB        []PriceLevel
}

// Snapshot is the market state the exchange publishes to traders. It is
// detached from the live book; holding or mutating it cannot disturb
// matching.
type Snapshot struct {
	Time    float64
	Bids    SideView
	Asks    SideView
	QuoteID uint64
	Tape    []TapeRecord
}
