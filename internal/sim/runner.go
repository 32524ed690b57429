// Package sim wires the trading agents to the matching engine and drives
// one simulated trading day.
package sim

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/quantfray/marketsim/internal/agent"
	"github.com/quantfray/marketsim/internal/core"
	"github.com/quantfray/marketsim/internal/domain"
)

// Runner executes the tick loop. Each tick the five agents observe the
// published market state and act in a fixed sequence, so a run is fully
// determined by its seed. All engine calls happen on the caller's
// goroutine; nothing here is concurrent.
type Runner struct {
	engine *core.Engine
	logger *zap.Logger

	marketMaker   *agent.MarketMaker
	liquidity     *agent.LiquidityConsumer
	momentum      *agent.MomentumTrader
	meanReversion *agent.MeanReversionTrader
	noise         *agent.NoiseTrader

	agents map[string]agent.Agent
}

// NewRunner builds the standard agent population, each strategy with its
// own RNG stream derived from seed.
func NewRunner(engine *core.Engine, seed int64, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	seeds := rand.New(rand.NewSource(seed))
	r := &Runner{
		engine:        engine,
		logger:        logger,
		marketMaker:   agent.NewMarketMaker(rand.New(rand.NewSource(seeds.Int63()))),
		liquidity:     agent.NewLiquidityConsumer(rand.New(rand.NewSource(seeds.Int63()))),
		momentum:      agent.NewMomentumTrader(rand.New(rand.NewSource(seeds.Int63()))),
		meanReversion: agent.NewMeanReversionTrader(rand.New(rand.NewSource(seeds.Int63()))),
		noise:         agent.NewNoiseTrader(rand.New(rand.NewSource(seeds.Int63()))),
	}
	r.agents = make(map[string]agent.Agent)
	for _, a := range []agent.Agent{r.marketMaker, r.liquidity, r.momentum, r.meanReversion, r.noise} {
		r.agents[a.ID()] = a
	}
	return r
}

// Run executes totalTime ticks.
func (r *Runner) Run(totalTime int) {
	r.liquidity.DecideDay()
	for tick := 0; tick < totalTime; tick++ {
		now := float64(tick)
		r.step(r.marketMaker, now)
		r.step(r.liquidity, now)
		r.step(r.momentum, now)
		r.step(r.meanReversion, now)
		r.step(r.noise, now)
	}
	r.logger.Info("session finished",
		zap.Int("ticks", totalTime),
		zap.Int("deals", len(r.engine.DealPrices())),
		zap.Uint64("quotes", r.engine.NextQuoteID()),
	)
}

// step lets one agent observe the market and applies its action:
// cancellations first, then each candidate order through the matching
// loop, settling any resulting trades with both counterparties.
func (r *Runner) step(a agent.Agent, now float64) {
	action := a.Work(r.engine.View(now), now)
	for _, side := range action.CancelSides {
		r.engine.CancelAll(a.ID(), []domain.Side{side}, now)
	}
	for _, o := range action.Orders {
		r.settle(r.engine.Process(now, o))
	}
}

func (r *Runner) settle(trades []*domain.Trade) {
	for _, t := range trades {
		if buyer, ok := r.agents[t.BidTrader]; ok {
			buyer.BookKeep(t, domain.Bid)
		}
		if seller, ok := r.agents[t.AskTrader]; ok {
			seller.BookKeep(t, domain.Ask)
		}
	}
}

// Agents exposes the population keyed by trader id, for post-run
// inspection of blotters and wealth.
func (r *Runner) Agents() map[string]agent.Agent {
	out := make(map[string]agent.Agent, len(r.agents))
	for id, a := range r.agents {
		out[id] = a
	}
	return out
}
