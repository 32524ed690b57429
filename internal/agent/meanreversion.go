package agent

import (
	"math"
	"math/rand"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/quantfray/marketsim/internal/core"
	"github.com/quantfray/marketsim/internal/domain"
)

// MeanReversionTrader fades moves away from an exponential moving
// average of the deal price, stepping one tick inside the touch when the
// deviation exceeds k standard deviations of the EMA series.
type MeanReversionTrader struct {
	Trader
	rng *rand.Rand

	actProb float64
	size    int64
	alpha   float64
	k       float64

	ema     float64
	emaHist []float64
	seen    int
}

func NewMeanReversionTrader(rng *rand.Rand) *MeanReversionTrader {
	return &MeanReversionTrader{
		Trader:  Trader{TraderID: "mean reversion trader"},
		rng:     rng,
		actProb: 0.40,
		size:    1,
		alpha:   0.94,
		k:       1,
	}
}

func (m *MeanReversionTrader) Work(view *core.MarketView, now float64) Action {
	if m.rng.Float64() >= m.actProb {
		return Action{}
	}
	m.updateEMA(view.DealPrices)
	if len(m.emaHist) < 2 {
		return Action{}
	}
	sigma := stat.StdDev(m.emaHist, nil)
	if sigma == 0 || math.IsNaN(sigma) {
		return Action{}
	}

	price, _ := view.LastPrice.Float64()
	var o *domain.Order
	switch {
	case price-m.ema >= m.k*sigma && view.BestAsk != nil:
		o = m.Sell(view.BestAsk.Add(view.TickSize), m.size, now)
	case m.ema-price >= m.k*sigma && view.BestBid != nil:
		o = m.Buy(view.BestBid.Sub(view.TickSize), m.size, now)
	}
	if o == nil {
		return Action{}
	}
	return Action{Orders: []*domain.Order{o}}
}

// updateEMA folds deal prices recorded since the last call into the
// running average and its history.
func (m *MeanReversionTrader) updateEMA(prices []decimal.Decimal) {
	for ; m.seen < len(prices); m.seen++ {
		p, _ := prices[m.seen].Float64()
		m.ema += m.alpha * (p - m.ema)
		m.emaHist = append(m.emaHist, m.ema)
	}
}
