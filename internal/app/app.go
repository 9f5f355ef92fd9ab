// Package app wires configuration into a runnable process: broker,
// recorders, notifier, engine and the status HTTP server.
package app

import (
	"context"
	"fmt"

	"commander/internal/config"
	"commander/internal/engine"
	"commander/internal/gateway/binance"
	"commander/internal/gateway/exchange"
	"commander/internal/gateway/paper"
	"commander/internal/logger"
	"commander/internal/notifier"
	"commander/internal/recorder"
	"commander/internal/report"
	statushttp "commander/internal/transport/http"

	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg       *config.Config
	engine    *engine.Engine
	statusAPI *statushttp.Server
	rec       recorder.Recorder
	store     *recorder.Store
}

// NewApp builds the application from config without starting anything.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)

	broker, err := buildBroker(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build broker: %w", err)
	}

	rec, store, err := buildRecorders(cfg)
	if err != nil {
		return nil, fmt.Errorf("build recorders: %w", err)
	}

	var notify notifier.Notifier = notifier.Noop{}
	if tg := cfg.Notify.Telegram; tg.Enabled {
		notify = notifier.NewTelegram(tg.BotToken, tg.ChatID)
	}

	eng, err := engine.New(cfg, broker, rec, notify)
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}

	var statusAPI *statushttp.Server
	if cfg.HTTP.Addr != "" {
		statusAPI = statushttp.NewServer(cfg.HTTP.Addr, eng)
	}

	return &App{
		cfg:       cfg,
		engine:    eng,
		statusAPI: statusAPI,
		rec:       rec,
		store:     store,
	}, nil
}

func buildBroker(ctx context.Context, cfg *config.Config) (exchange.Broker, error) {
	live, err := binance.New(cfg.Exchange.BinanceConfig())
	if err != nil {
		return nil, err
	}
	if err := live.LoadMarkets(ctx); err != nil {
		return nil, err
	}
	if cfg.Trading.DryRun {
		logger.Infof("app: dry run, orders simulated against live prices")
		return paper.New(live), nil
	}
	return live, nil
}

func buildRecorders(cfg *config.Config) (recorder.Recorder, *recorder.Store, error) {
	sinks := make([]recorder.Recorder, 0, 2)
	if cfg.Report.TradeLogCSV != "" {
		csvRec, err := recorder.NewCSVRecorder(cfg.Report.TradeLogCSV)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, csvRec)
	}
	var store *recorder.Store
	if cfg.Report.TradeDB != "" {
		s, err := recorder.NewStore(cfg.Report.TradeDB)
		if err != nil {
			return nil, nil, err
		}
		store = s
		sinks = append(sinks, s)
	}
	return recorder.NewMulti(sinks...), store, nil
}

// Run starts the engine loop and the status server and blocks until ctx is
// cancelled. On shutdown it prints the session report.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.engine == nil {
		return fmt.Errorf("app not initialized")
	}
	group, gctx := errgroup.WithContext(ctx)

	if a.statusAPI != nil {
		group.Go(func() error {
			if err := a.statusAPI.Start(gctx); err != nil {
				return fmt.Errorf("status http server: %w", err)
			}
			return nil
		})
		logger.Infof("app: status api listening on %s", a.statusAPI.Addr())
	}

	group.Go(func() error {
		err := a.engine.Run(gctx)
		if err == context.Canceled {
			return nil
		}
		return err
	})

	err := group.Wait()
	a.printReport(context.Background())
	if closeErr := a.rec.Close(); closeErr != nil {
		logger.Warnf("app: closing recorders: %v", closeErr)
	}
	return err
}

func (a *App) printReport(ctx context.Context) {
	if a.store == nil {
		return
	}
	events, err := a.store.ListEvents(ctx, 0)
	if err != nil {
		logger.Warnf("app: loading trade events for report: %v", err)
		return
	}
	summary := report.Summarize(events)
	logger.InfoBlock(summary.Render())
	if a.cfg.Report.EquityPlot != "" && summary.Trades > 0 {
		if err := report.PlotEquity(summary.EquityCurve, a.cfg.Report.EquityPlot); err != nil {
			logger.Warnf("app: writing equity plot: %v", err)
		} else {
			logger.Infof("app: equity plot written to %s", a.cfg.Report.EquityPlot)
		}
	}
}
