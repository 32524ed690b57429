package agent

import (
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/quantfray/marketsim/internal/core"
	"github.com/quantfray/marketsim/internal/domain"
)

// MarketMaker quotes both sides of the spread, skewing size toward the
// direction a rolling mean of recent deal prices predicts order flow to
// take. It replaces its previous quotes every time it acts.
type MarketMaker struct {
	Trader
	rng *rand.Rand

	actProb    float64
	qtyMin     int64
	qtyMax     int64
	meanWindow int
}

func NewMarketMaker(rng *rand.Rand) *MarketMaker {
	return &MarketMaker{
		Trader:     Trader{TraderID: "market maker"},
		rng:        rng,
		actProb:    0.10,
		qtyMin:     1,
		qtyMax:     200000,
		meanWindow: 50,
	}
}

func (m *MarketMaker) Work(view *core.MarketView, now float64) Action {
	// no resting interest anywhere means no trading demand to serve
	if view.BestBid == nil && view.BestAsk == nil {
		return Action{}
	}
	bestBid := view.LastPrice
	bestAsk := view.LastPrice
	if view.BestBid != nil {
		bestBid = *view.BestBid
	}
	if view.BestAsk != nil {
		bestAsk = *view.BestAsk
	}
	// the rolling-mean signal needs at least two deals
	if len(view.DealPrices) < 2 {
		return Action{}
	}
	if m.rng.Float64() >= m.actProb {
		return Action{}
	}

	large := m.qtyMin + m.rng.Int63n(m.qtyMax-m.qtyMin+1)
	var ask, bid *domain.Order
	if m.predictBuy(view.DealPrices) {
		ask = m.Sell(bestAsk, large, now)
		bid = m.Buy(bestBid, 1, now)
	} else {
		ask = m.Sell(bestAsk, 1, now)
		bid = m.Buy(bestBid, large, now)
	}

	action := Action{CancelSides: []domain.Side{domain.Bid, domain.Ask}}
	if ask != nil {
		action.Orders = append(action.Orders, ask)
	}
	if bid != nil {
		action.Orders = append(action.Orders, bid)
	}
	return action
}

// predictBuy compares the rolling mean with and without the latest deal:
// a non-falling mean forecasts buy flow.
func (m *MarketMaker) predictBuy(prices []decimal.Decimal) bool {
	last := rollingMean(prices, m.meanWindow)
	penultimate := rollingMean(prices[:len(prices)-1], m.meanWindow)
	return !last.LessThan(penultimate)
}

func rollingMean(prices []decimal.Decimal, window int) decimal.Decimal {
	if len(prices) > window {
		prices = prices[len(prices)-window:]
	}
	return decimal.Avg(prices[0], prices[1:]...)
}
