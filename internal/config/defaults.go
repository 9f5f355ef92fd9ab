package config

import "commander/internal/regime"

func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if len(c.Data.Symbols) == 0 {
		c.Data.Symbols = []string{
			"BTC/USDT", "ETH/USDT", "BNB/USDT", "SOL/USDT", "ADA/USDT",
			"XRP/USDT", "LTC/USDT", "DOGE/USDT", "LINK/USDT",
		}
	}
	if c.Data.Lookback <= 0 {
		c.Data.Lookback = 600
	}
	if c.Regime.ADXTrendOn <= 0 || c.Regime.ADXRangeOff <= 0 || c.Regime.ATRExpansionRatio <= 0 {
		def := regime.DefaultConfig()
		if c.Regime.ADXTrendOn <= 0 {
			c.Regime.ADXTrendOn = def.ADXTrendOn
		}
		if c.Regime.ADXRangeOff <= 0 {
			c.Regime.ADXRangeOff = def.ADXRangeOff
		}
		if c.Regime.ATRExpansionRatio <= 0 {
			c.Regime.ATRExpansionRatio = def.ATRExpansionRatio
		}
	}
	if c.Meta.Decay <= 0 || c.Meta.Decay >= 1 {
		c.Meta.Decay = 0.9
	}
	if c.Trading.CapitalTotal <= 0 {
		c.Trading.CapitalTotal = 10000
	}
	if c.Trading.KATR <= 0 {
		c.Trading.KATR = 2.0
	}
	if c.Trading.RR1 <= 0 {
		c.Trading.RR1 = 1.5
	}
	if c.Trading.RR2 <= 0 {
		c.Trading.RR2 = 2.5
	}
	if c.Trading.TopK <= 0 {
		c.Trading.TopK = 5
	}
	if c.Trading.CorrThreshold <= 0 {
		c.Trading.CorrThreshold = 0.75
	}
	if len(c.Trading.TimeframeWeights) == 0 {
		c.Trading.TimeframeWeights = map[string]float64{"15m": 0.3, "30m": 0.3, "1h": 0.4}
	}
	if c.Exchange.Name == "" {
		c.Exchange.Name = "binance"
	}
	if c.Report.TradeLogCSV == "" {
		c.Report.TradeLogCSV = "data/paper_trades.csv"
	}
	if c.Report.TradeDB == "" {
		c.Report.TradeDB = "data/commander.db"
	}
	if c.Report.EquityPlot == "" {
		c.Report.EquityPlot = "data/equity.html"
	}
}
