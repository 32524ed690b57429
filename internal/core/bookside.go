package core

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/quantfray/marketsim/internal/domain"
)

// Placement reports whether an Add introduced a new trader to the side or
// stacked another order onto a trader already present. It is a diagnostic
// signal, never a rejection.
type Placement string

const (
	Addition  Placement = "Addition"
	Overwrite Placement = "Overwrite"
)

// priceLevel aggregates every resting order at one price, queued in
// arrival order across all traders.
type priceLevel struct {
	price    decimal.Decimal
	quantity int64
	queue    []*domain.Order
}

// BookSide holds all resting orders for one side of the book plus the
// state derived from them: the price-level aggregation, the anonymized
// ascending view, and the best-price summary. Derived state is rebuilt
// after every mutation and always matches a full recomputation.
type BookSide struct {
	side       domain.Side
	worstPrice decimal.Decimal

	// orders holds each trader's resting orders in arrival order.
	orders map[string][]*domain.Order

	levels  map[string]*priceLevel
	lobAnon []domain.PriceLevel

	bestPrice    decimal.Decimal
	bestTrader   string
	bestQuantity int64
	hasBest      bool

	sessionHi    decimal.Decimal
	hasSessionHi bool
}

// NewBookSide builds an empty half book. worstPrice is the sentinel
// published when the side is empty: the system minimum for bids, the
// system maximum for asks.
func NewBookSide(side domain.Side, worstPrice decimal.Decimal) *BookSide {
	return &BookSide{
		side:       side,
		worstPrice: worstPrice,
		orders:     make(map[string][]*domain.Order),
		levels:     make(map[string]*priceLevel),
	}
}

func priceKey(p decimal.Decimal) string { return p.StringFixed(2) }

// Add rests the order on this side. Traders may hold any number of
// concurrently resting orders; the returned Placement only says whether
// the distinct-trader count grew.
func (bs *BookSide) Add(o *domain.Order) Placement {
	if bs.side == domain.Ask && (!bs.hasSessionHi || o.Price.GreaterThan(bs.sessionHi)) {
		bs.sessionHi = o.Price
		bs.hasSessionHi = true
	}
	before := len(bs.orders)
	bs.orders[o.TraderID] = append(bs.orders[o.TraderID], o)
	bs.rebuild()
	if len(bs.orders) != before {
		return Addition
	}
	return Overwrite
}

// RemoveAllFor drops every resting order the trader holds on this side.
// Reports whether anything was removed.
func (bs *BookSide) RemoveAllFor(traderID string) bool {
	if _, ok := bs.orders[traderID]; !ok {
		return false
	}
	delete(bs.orders, traderID)
	bs.rebuild()
	return true
}

// RemoveOldestFor drops only the trader's earliest-submitted resting
// order. Per-trader lists are kept in arrival order, so that is the head.
func (bs *BookSide) RemoveOldestFor(traderID string) bool {
	list, ok := bs.orders[traderID]
	if !ok || len(list) == 0 {
		return false
	}
	list = list[1:]
	if len(list) == 0 {
		delete(bs.orders, traderID)
	} else {
		bs.orders[traderID] = list
	}
	bs.rebuild()
	return true
}

// ConsumeBest decrements the earliest-submitted order at the best price
// by quantity, removing it when it reaches zero. The caller must not ask
// for more than that order holds. Returns the consumed order's original
// submission time, used when audit-logging abnormal trades.
func (bs *BookSide) ConsumeBest(quantity int64) (float64, bool) {
	if !bs.hasBest {
		return 0, false
	}
	front := bs.levels[priceKey(bs.bestPrice)].queue[0]
	submitted := front.Time
	front.Quantity -= quantity
	if front.Quantity <= 0 {
		bs.removeOrder(front)
	}
	bs.rebuild()
	return submitted, true
}

func (bs *BookSide) removeOrder(o *domain.Order) {
	list := bs.orders[o.TraderID]
	for i, other := range list {
		if other == o {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(bs.orders, o.TraderID)
	} else {
		bs.orders[o.TraderID] = list
	}
}

// rebuild recomputes the price-level map, the anonymized ascending view
// and the best-price summary from the resting set.
func (bs *BookSide) rebuild() {
	bs.levels = make(map[string]*priceLevel)
	for _, list := range bs.orders {
		for _, o := range list {
			key := priceKey(o.Price)
			level, ok := bs.levels[key]
			if !ok {
				level = &priceLevel{price: o.Price}
				bs.levels[key] = level
			}
			level.quantity += o.Quantity
			level.queue = append(level.queue, o)
		}
	}

	bs.lobAnon = bs.lobAnon[:0]
	for _, level := range bs.levels {
		// cross-trader time priority within the level
		sort.Slice(level.queue, func(i, j int) bool {
			if level.queue[i].Time != level.queue[j].Time {
				return level.queue[i].Time < level.queue[j].Time
			}
			return level.queue[i].QuoteID < level.queue[j].QuoteID
		})
		bs.lobAnon = append(bs.lobAnon, domain.PriceLevel{Price: level.price, Quantity: level.quantity})
	}
	sort.Slice(bs.lobAnon, func(i, j int) bool {
		return bs.lobAnon[i].Price.LessThan(bs.lobAnon[j].Price)
	})

	if len(bs.lobAnon) == 0 {
		bs.hasBest = false
		bs.bestTrader = ""
		bs.bestQuantity = 0
		return
	}
	var best domain.PriceLevel
	if bs.side == domain.Bid {
		best = bs.lobAnon[len(bs.lobAnon)-1]
	} else {
		best = bs.lobAnon[0]
	}
	front := bs.levels[priceKey(best.Price)].queue[0]
	bs.bestPrice = best.Price
	bs.bestTrader = front.TraderID
	bs.bestQuantity = front.Quantity
	bs.hasBest = true
}

// BestPrice reports the most competitive resting price, if any. An empty
// side has no best price; callers must not substitute zero.
func (bs *BookSide) BestPrice() (decimal.Decimal, bool) {
	return bs.bestPrice, bs.hasBest
}

// BestTrader is the owner of the earliest-submitted order at the best
// price, the counterparty a crossing order will meet first.
func (bs *BookSide) BestTrader() (string, bool) {
	return bs.bestTrader, bs.hasBest
}

// BestQuantity is the remaining quantity of the earliest-submitted order
// at the best price, not the level aggregate.
func (bs *BookSide) BestQuantity() (int64, bool) {
	return bs.bestQuantity, bs.hasBest
}

// WorstPrice is the empty-book sentinel for this side.
func (bs *BookSide) WorstPrice() decimal.Decimal { return bs.worstPrice }

// SessionExtreme is the highest ask price observed since construction.
// It never decreases. Meaningful on the ask side only.
func (bs *BookSide) SessionExtreme() (decimal.Decimal, bool) {
	return bs.sessionHi, bs.hasSessionHi
}

// NumTraders is how many distinct traders hold resting orders here.
func (bs *BookSide) NumTraders() int { return len(bs.orders) }

// Depth is the number of distinct resting price levels.
func (bs *BookSide) Depth() int { return len(bs.levels) }

// HasOrders reports whether the trader holds any resting order here.
func (bs *BookSide) HasOrders(traderID string) bool {
	return len(bs.orders[traderID]) > 0
}

// Levels returns a copy of the anonymized book, price ascending.
func (bs *BookSide) Levels() []domain.PriceLevel {
	out := make([]domain.PriceLevel, len(bs.lobAnon))
	copy(out, bs.lobAnon)
	return out
}
