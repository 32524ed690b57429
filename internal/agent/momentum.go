package agent

import (
	"math"
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/quantfray/marketsim/internal/core"
	"github.com/quantfray/marketsim/internal/domain"
)

// MomentumTrader chases the recent rate of change of the deal price,
// sizing positions by conviction times current wealth.
type MomentumTrader struct {
	Trader
	rng *rand.Rand

	actProb   float64
	lookback  int
	threshold float64
}

func NewMomentumTrader(rng *rand.Rand) *MomentumTrader {
	return &MomentumTrader{
		Trader: Trader{
			TraderID: "momentum trader",
			Wealth:   decimal.NewFromInt(100000),
		},
		rng:       rng,
		actProb:   0.40,
		lookback:  6,
		threshold: 0.001,
	}
}

func (m *MomentumTrader) Work(view *core.MarketView, now float64) Action {
	if len(view.DealPrices) < m.lookback {
		return Action{}
	}
	if m.rng.Float64() >= m.actProb {
		return Action{}
	}

	prices := view.DealPrices
	newest, _ := prices[len(prices)-1].Float64()
	oldest, _ := prices[len(prices)-m.lookback].Float64()
	if oldest == 0 {
		return Action{}
	}
	roc := (newest - oldest) / oldest
	wealth, _ := m.Wealth.Float64()
	size := int64(math.Abs(roc)*wealth + 0.5)

	var o *domain.Order
	switch {
	case roc >= m.threshold && view.BestAsk != nil:
		o = m.Buy(*view.BestAsk, size, now)
	case roc <= -m.threshold && view.BestBid != nil:
		o = m.Sell(*view.BestBid, size, now)
	}
	if o == nil {
		return Action{}
	}
	return Action{Orders: []*domain.Order{o}}
}
