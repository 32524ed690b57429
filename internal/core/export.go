package core

import (
	"fmt"
	"io"

	"github.com/quantfray/marketsim/internal/domain"
)

// Export routines stream the engine's records in the fixed textual
// schema the analysis tooling consumes: one record per line, times
// zero-padded at millisecond precision, prices with two decimals.

func formatTime(t float64) string { return fmt.Sprintf("%010.3f", t) }

// ExportTrades writes every trade on the tape as
// "type, time, bid, ask, price, quantity".
func (e *Engine) ExportTrades(w io.Writer) error {
	for _, rec := range e.tape {
		trade, ok := rec.(*domain.Trade)
		if !ok {
			continue
		}
		_, err := fmt.Fprintf(w, "%s, %s, %s, %s, %s, %d\n",
			domain.RecordTrade, formatTime(trade.Time), trade.BidTrader,
			trade.AskTrader, trade.Price.StringFixed(2), trade.Quantity)
		if err != nil {
			return err
		}
	}
	return nil
}

// ExportCancels writes every cancellation on the tape as
// "type, time, trader_id".
func (e *Engine) ExportCancels(w io.Writer) error {
	for _, rec := range e.tape {
		cancel, ok := rec.(*domain.Cancel)
		if !ok {
			continue
		}
		_, err := fmt.Fprintf(w, "%s, %s, %s\n",
			domain.RecordCancel, formatTime(cancel.Time), cancel.TraderID)
		if err != nil {
			return err
		}
	}
	return nil
}

// ExportExceptions writes the threshold-breaching trades as
// "type, time, bid, bid_time, ask, ask_time, price, quantity".
func (e *Engine) ExportExceptions(w io.Writer) error {
	for _, ex := range e.exceptions {
		_, err := fmt.Fprintf(w, "%s, %s, %s, %s, %s, %s, %s, %d\n",
			domain.RecordTrade, formatTime(ex.Time), ex.BidTrader,
			formatTime(ex.BidOrderTime), ex.AskTrader, formatTime(ex.AskOrderTime),
			ex.Price.StringFixed(2), ex.Quantity)
		if err != nil {
			return err
		}
	}
	return nil
}

// ExportAuditOrders writes every accepted order as
// "time, order_type, trader_id, price, quantity, quote_id".
func (e *Engine) ExportAuditOrders(w io.Writer) error {
	for _, o := range e.audit {
		_, err := fmt.Fprintf(w, "%s, %s, %s, %s, %d, %d\n",
			formatTime(o.Time), o.Side, o.TraderID,
			o.Price.StringFixed(2), o.Quantity, o.QuoteID)
		if err != nil {
			return err
		}
	}
	return nil
}

// DumpTape streams the tape's trades and, in wipe mode, clears the tape
// afterwards so the next dump starts fresh. Keep mode leaves the tape
// untouched.
func (e *Engine) DumpTape(w io.Writer, wipe bool) error {
	if err := e.ExportTrades(w); err != nil {
		return err
	}
	if wipe {
		e.wipeTape()
	}
	return nil
}
