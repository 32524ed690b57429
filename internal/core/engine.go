package core

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quantfray/marketsim/internal/domain"
)

var two = decimal.NewFromInt(2)

// Config fixes the engine's pricing parameters for one session.
type Config struct {
	// InitPrice seeds the last-trade price before any deal happens.
	InitPrice decimal.Decimal
	// TickSize is the minimum price increment. Strategies quote with it;
	// the engine itself does not enforce it.
	TickSize decimal.Decimal
	// ExceptionThreshold flags trades whose price jumps more than this
	// from the previous deal.
	ExceptionThreshold decimal.Decimal
	MinPrice           decimal.Decimal
	MaxPrice           decimal.Decimal
}

func DefaultConfig() Config {
	return Config{
		InitPrice:          decimal.NewFromInt(100),
		TickSize:           decimal.NewFromFloat(0.01),
		ExceptionThreshold: decimal.NewFromFloat(0.2),
		MinPrice:           DefaultMinPrice,
		MaxPrice:           DefaultMaxPrice,
	}
}

// Engine is the matching engine: order submission, crossed-book
// resolution, cancellation, publication, and the recorded history that
// downstream analytics consume. All methods must be called from a single
// goroutine; the engine performs no I/O and every call runs to
// completion before returning.
type Engine struct {
	*OrderBook

	cfg    Config
	logger *zap.Logger

	lastPrice  decimal.Decimal
	dealPrices []decimal.Decimal
	midQuotes  []domain.MidQuote
	audit      []domain.Order
	exceptions []domain.ExceptionTrade
}

func NewEngine(cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultConfig()
	if cfg.InitPrice.IsZero() {
		cfg.InitPrice = def.InitPrice
	}
	if cfg.TickSize.IsZero() {
		cfg.TickSize = def.TickSize
	}
	if cfg.ExceptionThreshold.IsZero() {
		cfg.ExceptionThreshold = def.ExceptionThreshold
	}
	if cfg.MinPrice.IsZero() {
		cfg.MinPrice = def.MinPrice
	}
	if cfg.MaxPrice.IsZero() {
		cfg.MaxPrice = def.MaxPrice
	}
	return &Engine{
		OrderBook: NewOrderBook(cfg.MinPrice, cfg.MaxPrice),
		cfg:       cfg,
		logger:    logger,
		lastPrice: cfg.InitPrice,
	}
}

// Submit assigns the next quote id and rests the order on its side. No
// matching happens here; a crossing order stays crossed until Process
// runs the matching loop.
func (e *Engine) Submit(o *domain.Order) (uint64, Placement) {
	o.QuoteID = e.nextQuoteID
	e.nextQuoteID++
	placement := e.bookSide(o.Side).Add(o)
	return o.QuoteID, placement
}

// Process accepts one order and resolves the book until it is no longer
// crossed. Every generated trade is appended to the tape and returned in
// execution order. A copy of the accepted order is kept on the audit log.
func (e *Engine) Process(now float64, o *domain.Order) []*domain.Trade {
	quantity := o.Quantity
	_, placement := e.Submit(o)
	e.audit = append(e.audit, *o)
	e.logger.Debug("order accepted",
		zap.String("trader", o.TraderID),
		zap.Stringer("side", o.Side),
		zap.String("price", o.Price.StringFixed(2)),
		zap.Int64("quantity", o.Quantity),
		zap.Uint64("quote_id", o.QuoteID),
		zap.String("placement", string(placement)),
	)

	var trades []*domain.Trade
	for {
		trade := e.tryMatch(now, o.Side)
		if trade == nil {
			break
		}
		trades = append(trades, trade)
		e.appendTape(trade)
	}
	e.recordMidQuote(now, quantity)
	return trades
}

// tryMatch executes at most one trade, consuming the front of both best
// queues. origSide is the side of the order whose Process call is
// running: the execution price is always taken from its counterparty
// side, even on later loop iterations that resolve crossed interest
// unrelated to that order. That pinning reproduces the historical engine
// byte for byte and is asserted by tests; do not rework it to re-derive
// the aggressor per iteration.
func (e *Engine) tryMatch(now float64, origSide domain.Side) *domain.Trade {
	bidQty, hasBid := e.Bids.BestQuantity()
	askQty, hasAsk := e.Asks.BestQuantity()
	if !hasBid || !hasAsk {
		return nil
	}
	bestBid, _ := e.Bids.BestPrice()
	bestAsk, _ := e.Asks.BestPrice()
	if bestBid.LessThan(bestAsk) {
		return nil
	}

	var price decimal.Decimal
	if origSide == domain.Bid {
		price = bestAsk
	} else {
		price = bestBid
	}
	quantity := bidQty
	if askQty < quantity {
		quantity = askQty
	}
	bidTrader, _ := e.Bids.BestTrader()
	askTrader, _ := e.Asks.BestTrader()

	bidTime, _ := e.Bids.ConsumeBest(quantity)
	askTime, _ := e.Asks.ConsumeBest(quantity)

	trade := &domain.Trade{
		ID:        uuid.NewString(),
		Time:      now,
		Price:     price,
		BidTrader: bidTrader,
		AskTrader: askTrader,
		Quantity:  quantity,
	}

	if price.Sub(e.lastPrice).Abs().GreaterThan(e.cfg.ExceptionThreshold) {
		e.exceptions = append(e.exceptions, domain.ExceptionTrade{
			Trade:        *trade,
			BidOrderTime: bidTime,
			AskOrderTime: askTime,
		})
		e.logger.Warn("price jump above exception threshold",
			zap.String("price", price.StringFixed(2)),
			zap.String("last_price", e.lastPrice.StringFixed(2)),
			zap.String("bid_trader", bidTrader),
			zap.String("ask_trader", askTrader),
		)
	}
	e.lastPrice = price
	e.dealPrices = append(e.dealPrices, price)
	return trade
}

// recordMidQuote appends the spread midpoint after a submission has
// settled. When a side is empty the previous mid-quote is carried
// forward, falling back to the last trade price before any exists.
func (e *Engine) recordMidQuote(now float64, quantity int64) {
	bestBid, hasBid := e.Bids.BestPrice()
	bestAsk, hasAsk := e.Asks.BestPrice()
	var mid decimal.Decimal
	switch {
	case hasBid && hasAsk:
		mid = bestBid.Add(bestAsk).Div(two).Round(2)
	case len(e.midQuotes) > 0:
		mid = e.midQuotes[len(e.midQuotes)-1].Price
	default:
		mid = e.lastPrice
	}
	e.midQuotes = append(e.midQuotes, domain.MidQuote{Time: now, Price: mid, Quantity: quantity})
}

// CancelAll withdraws every resting order the trader holds on each of
// the requested sides. One Cancel record is taped per side actually
// affected; sides with nothing resting are silent no-ops.
func (e *Engine) CancelAll(traderID string, sides []domain.Side, now float64) {
	for _, s := range sides {
		if e.bookSide(s).RemoveAllFor(traderID) {
			e.appendTape(&domain.Cancel{Time: now, TraderID: traderID})
		}
	}
}

// CancelOldest withdraws only the trader's earliest-submitted resting
// order on the given side, taping a Cancel record when a removal
// happened.
func (e *Engine) CancelOldest(traderID string, side domain.Side, now float64) {
	if e.bookSide(side).RemoveOldestFor(traderID) {
		e.appendTape(&domain.Cancel{Time: now, TraderID: traderID})
	}
}

// Publish projects the current market state for traders. Call it between
// Process calls only; the snapshot then always shows a settled,
// non-crossed book.
func (e *Engine) Publish(now float64) *domain.Snapshot {
	return &domain.Snapshot{
		Time:    now,
		Bids:    sideView(e.Bids),
		Asks:    sideView(e.Asks),
		QuoteID: e.nextQuoteID,
		Tape:    e.Tape(),
	}
}

func sideView(bs *BookSide) domain.SideView {
	view := domain.SideView{
		Worst:      bs.WorstPrice(),
		NumTraders: bs.NumTraders(),
		LOB:        bs.Levels(),
	}
	if best, ok := bs.BestPrice(); ok {
		view.Best = &best
	}
	if hi, ok := bs.SessionExtreme(); ok {
		view.SessionHi = &hi
	}
	return view
}

// LastPrice is the price of the most recent trade, or the configured
// initial price before any trade.
func (e *Engine) LastPrice() decimal.Decimal { return e.lastPrice }

// TickSize is the configured minimum price increment.
func (e *Engine) TickSize() decimal.Decimal { return e.cfg.TickSize }

// DealPrices returns the chronological trade-price history.
func (e *Engine) DealPrices() []decimal.Decimal {
	out := make([]decimal.Decimal, len(e.dealPrices))
	copy(out, e.dealPrices)
	return out
}

// MidQuotes returns the chronological mid-quote history.
func (e *Engine) MidQuotes() []domain.MidQuote {
	out := make([]domain.MidQuote, len(e.midQuotes))
	copy(out, e.midQuotes)
	return out
}

// Exceptions returns the trades whose price jumped beyond the threshold.
func (e *Engine) Exceptions() []domain.ExceptionTrade {
	out := make([]domain.ExceptionTrade, len(e.exceptions))
	copy(out, e.exceptions)
	return out
}

// AuditOrders returns copies of every order accepted by Process.
func (e *Engine) AuditOrders() []domain.Order {
	out := make([]domain.Order, len(e.audit))
	copy(out, e.audit)
	return out
}

// MarketView is the read-only projection strategies trade against: the
// published book plus the price history their signals are built from.
type MarketView struct {
	Time       float64
	BestBid    *decimal.Decimal
	BestAsk    *decimal.Decimal
	BidLOB     []domain.PriceLevel
	AskLOB     []domain.PriceLevel
	LastPrice  decimal.Decimal
	DealPrices []decimal.Decimal
	TickSize   decimal.Decimal
}

// View builds the strategy-facing market projection. Like Publish it is
// a pure read over a settled book.
func (e *Engine) View(now float64) *MarketView {
	view := &MarketView{
		Time:       now,
		BidLOB:     e.Bids.Levels(),
		AskLOB:     e.Asks.Levels(),
		LastPrice:  e.lastPrice,
		DealPrices: e.DealPrices(),
		TickSize:   e.cfg.TickSize,
	}
	if best, ok := e.Bids.BestPrice(); ok {
		view.BestBid = &best
	}
	if best, ok := e.Asks.BestPrice(); ok {
		view.BestAsk = &best
	}
	return view
}
