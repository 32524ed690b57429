package agent

import (
	"math"
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/quantfray/marketsim/internal/core"
	"github.com/quantfray/marketsim/internal/domain"
)

// NoiseTrader supplies the background order flow: a calibrated mix of
// crossing, inside-spread, at-spread and off-spread limit orders plus
// cancellations. "Market" orders are expressed as crossing limits at the
// opposite best price; the engine has no separate market order type.
type NoiseTrader struct {
	Trader
	rng *rand.Rand

	actProb float64
	buyProb float64

	marketProb float64
	limitProb  float64
	// remaining probability mass cancels a resting order

	marketMu    float64
	marketSigma float64
	limitMu     float64
	limitSigma  float64

	crossProb     float64
	inSpreadProb  float64
	atSpreadProb  float64
	offSpreadMin  float64
	offSpreadBeta float64
	offSpreadCap  float64
}

func NewNoiseTrader(rng *rand.Rand) *NoiseTrader {
	return &NoiseTrader{
		Trader:        Trader{TraderID: "noise trader"},
		rng:           rng,
		actProb:       0.75,
		buyProb:       0.50,
		marketProb:    0.03,
		limitProb:     0.54,
		marketMu:      7,
		marketSigma:   0.1,
		limitMu:       8,
		limitSigma:    0.7,
		crossProb:     0.003,
		inSpreadProb:  0.098,
		atSpreadProb:  0.173,
		offSpreadMin:  0.03,
		offSpreadBeta: 2.72,
		offSpreadCap:  0.2,
	}
}

func (n *NoiseTrader) Work(view *core.MarketView, now float64) Action {
	if n.rng.Float64() >= n.actProb {
		return Action{}
	}
	buying := n.rng.Float64() <= n.buyProb

	// fall back to the last deal price when one side of the book is bare
	bestBid := view.LastPrice
	bestAsk := view.LastPrice
	if view.BestBid != nil {
		bestBid = *view.BestBid
	}
	if view.BestAsk != nil {
		bestAsk = *view.BestAsk
	}

	roll := n.rng.Float64()
	switch {
	case roll < n.marketProb:
		qty := n.orderSize(n.marketMu, n.marketSigma)
		return n.crossing(buying, qty, bestBid, bestAsk, now)
	case roll < n.marketProb+n.limitProb:
		return n.limit(buying, bestBid, bestAsk, now)
	default:
		side := domain.Ask
		if buying {
			side = domain.Bid
		}
		return Action{CancelSides: []domain.Side{side}}
	}
}

func (n *NoiseTrader) limit(buying bool, bestBid, bestAsk decimal.Decimal, now float64) Action {
	qty := n.orderSize(n.limitMu, n.limitSigma)
	roll := n.rng.Float64()
	var o *domain.Order
	switch {
	case roll < n.crossProb:
		return n.crossing(buying, qty, bestBid, bestAsk, now)
	case roll < n.crossProb+n.inSpreadProb:
		lo, _ := bestBid.Float64()
		hi, _ := bestAsk.Float64()
		price := decimal.NewFromFloat(lo + n.rng.Float64()*(hi-lo))
		if buying {
			o = n.Buy(price, qty, now)
		} else {
			o = n.Sell(price, qty, now)
		}
	case roll < n.crossProb+n.inSpreadProb+n.atSpreadProb:
		if buying {
			o = n.Buy(bestBid, qty, now)
		} else {
			o = n.Sell(bestAsk, qty, now)
		}
	default:
		offset := decimal.NewFromFloat(n.offSpreadOffset())
		if buying {
			o = n.Buy(bestBid.Sub(offset), qty, now)
		} else {
			o = n.Sell(bestAsk.Add(offset), qty, now)
		}
	}
	if o == nil {
		return Action{}
	}
	return Action{Orders: []*domain.Order{o}}
}

func (n *NoiseTrader) crossing(buying bool, qty int64, bestBid, bestAsk decimal.Decimal, now float64) Action {
	var o *domain.Order
	if buying {
		o = n.Buy(bestAsk, qty, now)
	} else {
		o = n.Sell(bestBid, qty, now)
	}
	if o == nil {
		return Action{}
	}
	return Action{Orders: []*domain.Order{o}}
}

// offSpreadOffset draws the power-law distance from the touch, capped.
func (n *NoiseTrader) offSpreadOffset() float64 {
	off := n.offSpreadMin * math.Pow(1-n.rng.Float64(), -1/(n.offSpreadBeta-1))
	return math.Min(off, n.offSpreadCap)
}

func (n *NoiseTrader) orderSize(mu, sigma float64) int64 {
	return int64(math.Exp(mu+sigma*n.rng.Float64()) + 0.5)
}
