// Package agent implements the trading strategies that populate the
// simulated market. Each strategy is a per-tick decision function over
// the exchange's published state; none of them reach into the book.
package agent

import (
	"github.com/shopspring/decimal"

	"github.com/quantfray/marketsim/internal/core"
	"github.com/quantfray/marketsim/internal/domain"
)

// Action is what a strategy wants done this tick: cancellations applied
// first, then candidate orders submitted in order. The zero Action is a
// pass.
type Action struct {
	CancelSides []domain.Side
	Orders      []*domain.Order
}

// Agent is one trading strategy attached to the simulation loop.
type Agent interface {
	ID() string
	// Work reads the market and decides this tick's action. It must not
	// retain view beyond the call.
	Work(view *core.MarketView, now float64) Action
	// BookKeep notifies the agent it was counterparty to a trade, on the
	// given side.
	BookKeep(trade *domain.Trade, side domain.Side)
}

// Trader carries the state every strategy shares: identity, the blotter
// of executed trades, and a running wealth figure.
type Trader struct {
	TraderID string
	Blotter  []*domain.Trade
	Wealth   decimal.Decimal
}

func (t *Trader) ID() string { return t.TraderID }

// Buy builds a validated bid with the price rounded to two decimals.
// Returns nil for a non-positive price or quantity; the caller skips the
// tick.
func (t *Trader) Buy(price decimal.Decimal, quantity int64, now float64) *domain.Order {
	o, err := domain.NewOrder(t.TraderID, domain.Bid, price, quantity, now)
	if err != nil {
		return nil
	}
	return o
}

// Sell builds a validated ask, with the same rejection rules as Buy.
func (t *Trader) Sell(price decimal.Decimal, quantity int64, now float64) *domain.Order {
	o, err := domain.NewOrder(t.TraderID, domain.Ask, price, quantity, now)
	if err != nil {
		return nil
	}
	return o
}

// BookKeep records a completed trade. Wealth moves by the deal price:
// down when this trader bought, up when it sold.
func (t *Trader) BookKeep(trade *domain.Trade, side domain.Side) {
	t.Blotter = append(t.Blotter, trade)
	if side == domain.Bid {
		t.Wealth = t.Wealth.Sub(trade.Price)
	} else {
		t.Wealth = t.Wealth.Add(trade.Price)
	}
}
