package domain

import "github.com/shopspring/decimal"

// RecordType tags entries on the exchange tape.
type RecordType string

const (
	RecordTrade  RecordType = "Trade"
	RecordCancel RecordType = "Cancel"
)

// TapeRecord is one entry of the exchange's append-only event tape.
type TapeRecord interface {
	Type() RecordType
}

// Trade records one execution between the resting bid and ask.
type Trade struct {
	ID        string
	Time      float64
	Price     decimal.Decimal
	BidTrader string
	AskTrader string
	Quantity  int64
}

func (*Trade) Type() RecordType { return RecordTrade }

// Cancel records the withdrawal of a trader's resting interest on one
// side of the book.
type Cancel struct {
	Time     float64
	TraderID string
}

func (*Cancel) Type() RecordType { return RecordCancel }

// ExceptionTrade is a trade whose price jumped more than the engine's
// exception threshold from the previous deal, annotated with the
// submission times of the two consumed orders for auditing.
type ExceptionTrade struct {
	Trade
	BidOrderTime float64
	AskOrderTime float64
}

// MidQuote samples the middle of the spread after one submission has
// fully settled, tagged with that submission's quantity.
type MidQuote struct {
	Time     float64
	Price    decimal.Decimal
	Quantity int64
}
