package core

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfray/marketsim/internal/domain"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(DefaultConfig(), nil)
}

func mustOrder(t *testing.T, trader string, side domain.Side, price string, qty int64, now float64) *domain.Order {
	t.Helper()
	o, err := domain.NewOrder(trader, side, d(price), qty, now)
	require.NoError(t, err)
	return o
}

// requireNotCrossed asserts the post-Process book invariant: one side is
// empty or best bid strictly below best ask.
func requireNotCrossed(t *testing.T, e *Engine) {
	t.Helper()
	bid, hasBid := e.Bids.BestPrice()
	ask, hasAsk := e.Asks.BestPrice()
	if hasBid && hasAsk {
		require.True(t, bid.LessThan(ask), "book crossed: bid %s >= ask %s", bid, ask)
	}
}

func TestRestingBidThenCrossingFlow(t *testing.T) {
	e := newTestEngine(t)

	// a lone bid rests without trading
	trades := e.Process(1, mustOrder(t, "A", domain.Bid, "100", 5, 1))
	assert.Empty(t, trades)
	best, ok := e.Bids.BestPrice()
	require.True(t, ok)
	assert.True(t, best.Equal(d("100")))
	qty, _ := e.Bids.BestQuantity()
	assert.Equal(t, int64(5), qty)

	// an ask at the same price trades, leaving the bid partially filled
	trades = e.Process(2, mustOrder(t, "B", domain.Ask, "100", 3, 2))
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Price.Equal(d("100")))
	assert.Equal(t, int64(3), trades[0].Quantity)
	assert.Equal(t, "A", trades[0].BidTrader)
	assert.Equal(t, "B", trades[0].AskTrader)
	qty, _ = e.Bids.BestQuantity()
	assert.Equal(t, int64(2), qty)
	assert.Equal(t, 0, e.Asks.NumTraders(), "B fully filled and removed")
	requireNotCrossed(t, e)

	// a cheaper ask consumes the bid remainder at the resting bid's price
	trades = e.Process(3, mustOrder(t, "C", domain.Ask, "99", 5, 3))
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Price.Equal(d("100")), "ask submission prices at the best bid")
	assert.Equal(t, int64(2), trades[0].Quantity)
	assert.Equal(t, 0, e.Bids.NumTraders(), "A removed")
	best, ok = e.Asks.BestPrice()
	require.True(t, ok)
	assert.True(t, best.Equal(d("99")))
	qty, _ = e.Asks.BestQuantity()
	assert.Equal(t, int64(3), qty, "C rests with the unfilled remainder")
	requireNotCrossed(t, e)

	// cancelling C removes its ask and tapes exactly one Cancel record
	cancelsBefore := countCancels(e.Tape())
	e.CancelAll("C", []domain.Side{domain.Bid, domain.Ask}, 4)
	assert.Equal(t, 0, e.Asks.NumTraders())
	cancels := cancelRecords(e.Tape())
	require.Len(t, cancels, cancelsBefore+1)
	last := cancels[len(cancels)-1]
	assert.Equal(t, "C", last.TraderID)
	assert.Equal(t, 4.0, last.Time)
}

func countCancels(tape []domain.TapeRecord) int {
	return len(cancelRecords(tape))
}

func cancelRecords(tape []domain.TapeRecord) []*domain.Cancel {
	var out []*domain.Cancel
	for _, rec := range tape {
		if c, ok := rec.(*domain.Cancel); ok {
			out = append(out, c)
		}
	}
	return out
}

func TestQuoteIDsStrictlyIncreasing(t *testing.T) {
	e := newTestEngine(t)
	var prev uint64
	for i := 0; i < 10; i++ {
		id, _ := e.Submit(mustOrder(t, "A", domain.Bid, "50", 1, float64(i)))
		if i > 0 {
			assert.Greater(t, id, prev)
		}
		prev = id
	}
	assert.Equal(t, uint64(10), e.NextQuoteID())
}

func TestFillConservation(t *testing.T) {
	e := newTestEngine(t)
	e.Process(0, mustOrder(t, "A", domain.Ask, "101", 2, 0))
	e.Process(1, mustOrder(t, "B", domain.Ask, "102", 4, 1))
	e.Process(2, mustOrder(t, "C", domain.Ask, "103", 3, 2))

	trades := e.Process(3, mustOrder(t, "D", domain.Bid, "103", 9, 3))
	require.Len(t, trades, 3)
	var filled int64
	for _, tr := range trades {
		filled += tr.Quantity
		assert.Equal(t, "D", tr.BidTrader)
	}
	assert.Equal(t, int64(9), filled, "matched quantities sum to the original order size")
	assert.Equal(t, 0, e.Bids.NumTraders())
	assert.Equal(t, 0, e.Asks.NumTraders())
	requireNotCrossed(t, e)
}

// The execution price side stays pinned to the originally submitted
// order for every iteration of one Process call. This is intended
// behavior carried over from the engine's history, not an oversight: a
// bid submission prices every trade of its loop at the ask side's
// current best, and vice versa.
func TestExecutionPricePinnedToSubmissionSide(t *testing.T) {
	e := newTestEngine(t)
	e.Process(0, mustOrder(t, "T1", domain.Ask, "101", 2, 0))
	e.Process(1, mustOrder(t, "T2", domain.Ask, "103", 1, 1))

	trades := e.Process(2, mustOrder(t, "B", domain.Bid, "103", 3, 2))
	require.Len(t, trades, 2)
	assert.True(t, trades[0].Price.Equal(d("101")))
	assert.Equal(t, int64(2), trades[0].Quantity)
	assert.True(t, trades[1].Price.Equal(d("103")))
	assert.Equal(t, int64(1), trades[1].Quantity)
	requireNotCrossed(t, e)

	// mirror case: an ask submission prices every iteration at the bid side
	e2 := newTestEngine(t)
	e2.Process(0, mustOrder(t, "T1", domain.Bid, "100", 2, 0))
	e2.Process(1, mustOrder(t, "T2", domain.Bid, "98", 4, 1))

	trades = e2.Process(2, mustOrder(t, "S", domain.Ask, "97", 5, 2))
	require.Len(t, trades, 2)
	assert.True(t, trades[0].Price.Equal(d("100")))
	assert.True(t, trades[1].Price.Equal(d("98")))
	requireNotCrossed(t, e2)
}

func TestCancellationIsolation(t *testing.T) {
	e := newTestEngine(t)
	e.Process(0, mustOrder(t, "A", domain.Bid, "99", 5, 0))
	e.Process(1, mustOrder(t, "B", domain.Bid, "99", 3, 1))
	e.Process(2, mustOrder(t, "B", domain.Bid, "98", 2, 2))
	e.Process(3, mustOrder(t, "C", domain.Bid, "97", 4, 3))

	e.CancelAll("B", []domain.Side{domain.Bid}, 4)

	assert.Equal(t, 2, e.Bids.NumTraders())
	levels := e.Bids.Levels()
	require.Len(t, levels, 2)
	assert.True(t, levels[0].Price.Equal(d("97")))
	assert.Equal(t, int64(4), levels[0].Quantity)
	assert.True(t, levels[1].Price.Equal(d("99")))
	assert.Equal(t, int64(5), levels[1].Quantity, "A's resting quantity untouched")
}

func TestCancelOldestRemovesEarliestOnly(t *testing.T) {
	e := newTestEngine(t)
	e.Process(0, mustOrder(t, "A", domain.Bid, "99", 5, 0))
	e.Process(1, mustOrder(t, "A", domain.Bid, "98", 3, 1))

	e.CancelOldest("A", domain.Bid, 2)
	levels := e.Bids.Levels()
	require.Len(t, levels, 1)
	assert.True(t, levels[0].Price.Equal(d("98")))
	require.Len(t, cancelRecords(e.Tape()), 1)

	// nothing resting on the ask side: silent no-op, no record
	e.CancelOldest("A", domain.Ask, 3)
	assert.Len(t, cancelRecords(e.Tape()), 1)
}

func TestMidQuoteRecordingAndCarryForward(t *testing.T) {
	e := newTestEngine(t)

	// one-sided book: no computable mid, falls back to the last price
	e.Process(0, mustOrder(t, "A", domain.Bid, "100", 5, 0))
	mids := e.MidQuotes()
	require.Len(t, mids, 1)
	assert.True(t, mids[0].Price.Equal(d("100")), "falls back to init price before any trade or mid")
	assert.Equal(t, int64(5), mids[0].Quantity)

	// two-sided book: mid is the rounded midpoint
	e.Process(1, mustOrder(t, "B", domain.Ask, "104.01", 2, 1))
	mids = e.MidQuotes()
	require.Len(t, mids, 2)
	assert.True(t, mids[1].Price.Equal(d("102.01")), "round((100+104.01)/2, 2)")

	// ask side emptied again: the prior mid carries forward
	e.CancelAll("B", []domain.Side{domain.Ask}, 2)
	e.Process(3, mustOrder(t, "C", domain.Bid, "99", 1, 3))
	mids = e.MidQuotes()
	require.Len(t, mids, 3)
	assert.True(t, mids[2].Price.Equal(d("102.01")))
}

func TestExceptionTradeRecorded(t *testing.T) {
	e := newTestEngine(t)

	// first trade jumps 0.5 above the initial price of 100
	e.Process(1, mustOrder(t, "A", domain.Bid, "100.5", 1, 1))
	trades := e.Process(2, mustOrder(t, "B", domain.Ask, "100.3", 1, 2))
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Price.Equal(d("100.5")))

	exceptions := e.Exceptions()
	require.Len(t, exceptions, 1)
	ex := exceptions[0]
	assert.True(t, ex.Price.Equal(d("100.5")))
	assert.Equal(t, 1.0, ex.BidOrderTime)
	assert.Equal(t, 2.0, ex.AskOrderTime)

	// a small follow-up move stays under the threshold
	e.Process(3, mustOrder(t, "A", domain.Bid, "100.6", 1, 3))
	e.Process(4, mustOrder(t, "B", domain.Ask, "100.4", 1, 4))
	assert.Len(t, e.Exceptions(), 1)
}

func TestPublishSchema(t *testing.T) {
	e := newTestEngine(t)
	e.Process(0, mustOrder(t, "A", domain.Bid, "100", 5, 0))
	e.Process(1, mustOrder(t, "B", domain.Ask, "105", 2, 1))
	e.Process(2, mustOrder(t, "C", domain.Ask, "104", 1, 2))

	snap := e.Publish(3)
	assert.Equal(t, 3.0, snap.Time)
	assert.Equal(t, uint64(3), snap.QuoteID)

	require.NotNil(t, snap.Bids.Best)
	assert.True(t, snap.Bids.Best.Equal(d("100")))
	assert.True(t, snap.Bids.Worst.Equal(DefaultMinPrice))
	assert.Equal(t, 1, snap.Bids.NumTraders)
	assert.Nil(t, snap.Bids.SessionHi)

	require.NotNil(t, snap.Asks.Best)
	assert.True(t, snap.Asks.Best.Equal(d("104")))
	assert.True(t, snap.Asks.Worst.Equal(DefaultMaxPrice))
	assert.Equal(t, 2, snap.Asks.NumTraders)
	require.NotNil(t, snap.Asks.SessionHi)
	assert.True(t, snap.Asks.SessionHi.Equal(d("105")))
	require.Len(t, snap.Asks.LOB, 2)
	assert.True(t, snap.Asks.LOB[0].Price.Equal(d("104")), "LOB ascending")

	assert.Empty(t, snap.Tape)
}

func TestExportFormats(t *testing.T) {
	e := newTestEngine(t)
	e.Process(1, mustOrder(t, "A", domain.Bid, "100", 3, 1))
	e.Process(2, mustOrder(t, "B", domain.Ask, "100", 3, 2))
	e.CancelAll("A", []domain.Side{domain.Bid}, 3)

	var buf bytes.Buffer
	require.NoError(t, e.ExportTrades(&buf))
	assert.Equal(t, "Trade, 000002.000, A, B, 100.00, 3\n", buf.String())

	buf.Reset()
	require.NoError(t, e.ExportCancels(&buf))
	assert.Empty(t, buf.String(), "A was fully filled, cancel was a no-op")

	e.Process(4, mustOrder(t, "C", domain.Bid, "99", 1, 4))
	e.CancelAll("C", []domain.Side{domain.Bid}, 5)
	buf.Reset()
	require.NoError(t, e.ExportCancels(&buf))
	assert.Equal(t, "Cancel, 000005.000, C\n", buf.String())

	buf.Reset()
	require.NoError(t, e.ExportAuditOrders(&buf))
	assert.Equal(t,
		"000001.000, Bid, A, 100.00, 3, 0\n"+
			"000002.000, Ask, B, 100.00, 3, 1\n"+
			"000004.000, Bid, C, 99.00, 1, 2\n",
		buf.String())
}

func TestExportExceptionFormat(t *testing.T) {
	e := newTestEngine(t)
	e.Process(1, mustOrder(t, "A", domain.Bid, "101", 1, 1))
	e.Process(2, mustOrder(t, "B", domain.Ask, "100", 1, 2))
	require.Len(t, e.Exceptions(), 1)

	var buf bytes.Buffer
	require.NoError(t, e.ExportExceptions(&buf))
	assert.Equal(t, "Trade, 000002.000, A, 000001.000, B, 000002.000, 101.00, 1\n", buf.String())
}

func TestDumpTapeKeepAndWipe(t *testing.T) {
	e := newTestEngine(t)
	e.Process(1, mustOrder(t, "A", domain.Bid, "100", 1, 1))
	e.Process(2, mustOrder(t, "B", domain.Ask, "100", 1, 2))
	require.Len(t, e.Tape(), 1)

	var buf bytes.Buffer
	require.NoError(t, e.DumpTape(&buf, false))
	assert.NotEmpty(t, buf.String())
	assert.Len(t, e.Tape(), 1, "keep mode leaves the tape alone")

	buf.Reset()
	require.NoError(t, e.DumpTape(&buf, true))
	assert.NotEmpty(t, buf.String())
	assert.Empty(t, e.Tape(), "wipe mode clears the tape after writing")
}

func TestBookNeverCrossedAfterProcess(t *testing.T) {
	e := newTestEngine(t)
	orders := []*domain.Order{
		mustOrder(t, "A", domain.Bid, "100", 5, 0),
		mustOrder(t, "B", domain.Ask, "102", 3, 1),
		mustOrder(t, "C", domain.Bid, "103", 4, 2),
		mustOrder(t, "D", domain.Ask, "99", 10, 3),
		mustOrder(t, "E", domain.Bid, "101", 2, 4),
		mustOrder(t, "F", domain.Ask, "98", 1, 5),
	}
	for i, o := range orders {
		e.Process(float64(i), o)
		requireNotCrossed(t, e)
	}
}
