package main

import (
	"io"
	"log"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quantfray/marketsim/internal/config"
	"github.com/quantfray/marketsim/internal/core"
	"github.com/quantfray/marketsim/internal/sim"
	"github.com/quantfray/marketsim/internal/stats"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var logger *zap.Logger
	if cfg.Development {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()
	logger = logger.With(zap.String("run_id", uuid.NewString()))

	engine := core.NewEngine(cfg.Engine(), logger)
	runner := sim.NewRunner(engine, cfg.Seed, logger)

	logger.Info("starting session",
		zap.Int("total_time", cfg.TotalTime),
		zap.Int64("seed", cfg.Seed),
		zap.Float64("init_price", cfg.InitPrice),
	)
	runner.Run(cfg.TotalTime)

	if err := exportAll(engine, cfg); err != nil {
		logger.Fatal("export failed", zap.Error(err))
	}
	logSummary(engine, cfg, logger)
}

func exportAll(engine *core.Engine, cfg *config.Config) error {
	exports := []struct {
		path  string
		write func(io.Writer) error
	}{
		{cfg.TradesFile, engine.ExportTrades},
		{cfg.CancelsFile, engine.ExportCancels},
		{cfg.ExceptionsFile, engine.ExportExceptions},
		{cfg.AuditFile, engine.ExportAuditOrders},
	}
	for _, e := range exports {
		f, err := os.Create(e.path)
		if err != nil {
			return err
		}
		if err := e.write(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

func logSummary(engine *core.Engine, cfg *config.Config, logger *zap.Logger) {
	deals := make([]float64, 0, len(engine.DealPrices()))
	for _, p := range engine.DealPrices() {
		f, _ := p.Float64()
		deals = append(deals, f)
	}
	mids := make([]float64, 0, len(engine.MidQuotes()))
	for _, m := range engine.MidQuotes() {
		f, _ := m.Price.Float64()
		mids = append(mids, f)
	}

	fields := []zap.Field{
		zap.Int("trades", len(deals)),
		zap.Int("exceptions", len(engine.Exceptions())),
		zap.String("last_price", engine.LastPrice().StringFixed(2)),
	}
	if len(deals) > 1 {
		spikes := stats.FindPriceSpikes(deals, 5, 0.0001, cfg.InitPrice)
		fields = append(fields,
			zap.Float64("hurst", stats.Hurst(deals)),
			zap.Int("price_spikes", len(spikes)),
		)
	}
	if returns := stats.LogReturns(mids, 500); len(returns) > 0 {
		fields = append(fields, zap.Float64("mid_return_kurtosis", stats.Kurtosis(returns)))
	}
	logger.Info("session summary", fields...)
}
