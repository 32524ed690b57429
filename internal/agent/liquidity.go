package agent

import (
	"math/rand"

	"github.com/quantfray/marketsim/internal/core"
	"github.com/quantfray/marketsim/internal/domain"
)

// LiquidityConsumer works one large hidden order through the day,
// repeatedly taking whatever volume rests at the opposite best price
// until its daily target is exhausted.
type LiquidityConsumer struct {
	Trader
	rng *rand.Rand

	actProb float64
	hMin    int64
	hMax    int64

	buying    bool
	remaining int64
	decided   bool
}

func NewLiquidityConsumer(rng *rand.Rand) *LiquidityConsumer {
	return &LiquidityConsumer{
		Trader:  Trader{TraderID: "liquidity consumer"},
		rng:     rng,
		actProb: 0.10,
		hMin:    1,
		hMax:    100000,
	}
}

// DecideDay picks the session's direction and total volume. The runner
// calls it once at the start of the trading day.
func (l *LiquidityConsumer) DecideDay() {
	l.buying = l.rng.Float64() < 0.5
	l.remaining = l.hMin + l.rng.Int63n(l.hMax-l.hMin+1)
	l.decided = true
}

func (l *LiquidityConsumer) Work(view *core.MarketView, now float64) Action {
	if !l.decided {
		l.DecideDay()
	}
	var levels []domain.PriceLevel
	if l.buying {
		levels = view.AskLOB
	} else {
		levels = view.BidLOB
	}
	if len(levels) == 0 {
		return Action{}
	}
	// opposite best level: lowest ask when buying, highest bid when selling
	var best domain.PriceLevel
	if l.buying {
		best = levels[0]
	} else {
		best = levels[len(levels)-1]
	}
	if l.remaining <= 0 || l.rng.Float64() >= l.actProb {
		return Action{}
	}

	volume := best.Quantity
	if l.remaining < volume {
		volume = l.remaining
	}
	var o *domain.Order
	if l.buying {
		o = l.Buy(best.Price, volume, now)
	} else {
		o = l.Sell(best.Price, volume, now)
	}
	if o == nil {
		return Action{}
	}
	l.remaining -= volume
	return Action{Orders: []*domain.Order{o}}
}
