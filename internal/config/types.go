package config

import (
	"time"

	"commander/internal/autoscaler"
	"commander/internal/gateway/binance"
	"commander/internal/regime"
	"commander/internal/risk"
)

// Config is the main configuration carrier. The core treats everything
// here as read-only for the run; only the auto scaler's own debounced tier
// application changes effective limits afterwards.
type Config struct {
	App      AppConfig      `toml:"app"`
	Data     DataConfig     `toml:"data"`
	Regime   regime.Config  `toml:"regime"`
	Meta     MetaConfig     `toml:"meta"`
	Risk     risk.Config    `toml:"risk"`
	Scaler   ScalerConfig   `toml:"scaler"`
	Trading  TradingConfig  `toml:"trading"`
	Exchange ExchangeConfig `toml:"exchange"`
	Notify   NotifyConfig   `toml:"notify"`
	HTTP     HTTPConfig     `toml:"http"`
	Report   ReportConfig   `toml:"report"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	LogPath  string `toml:"log_path"`
}

type DataConfig struct {
	Symbols  []string `toml:"symbols"`
	Lookback int      `toml:"lookback"`
}

type MetaConfig struct {
	Decay float64 `toml:"decay"`
}

// TierConfig is the flat YAML shape of one autoscaler tier.
type TierConfig struct {
	MinEquity        float64 `toml:"min_equity"`
	RiskPerTrade     float64 `toml:"risk_per_trade"`
	MaxPositions     int     `toml:"max_positions"`
	MaxGrossExposure float64 `toml:"max_gross_exposure"`
}

type ScalerConfig struct {
	CooldownSeconds int          `toml:"cooldown_seconds"`
	Tiers           []TierConfig `toml:"tiers"`
}

// Cooldown returns the tier-change debounce duration.
func (s ScalerConfig) Cooldown() time.Duration {
	if s.CooldownSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(s.CooldownSeconds) * time.Second
}

// AutoscalerTiers converts the flat config rows into the tier table; an
// empty list falls back to the stock tiers.
func (s ScalerConfig) AutoscalerTiers() []autoscaler.Tier {
	if len(s.Tiers) == 0 {
		return autoscaler.DefaultTiers()
	}
	out := make([]autoscaler.Tier, 0, len(s.Tiers))
	for _, t := range s.Tiers {
		out = append(out, autoscaler.Tier{
			MinEquity: t.MinEquity,
			Settings: autoscaler.Settings{
				RiskPerTrade:     t.RiskPerTrade,
				MaxPositions:     t.MaxPositions,
				MaxGrossExposure: t.MaxGrossExposure,
			},
		})
	}
	return out
}

type TradingConfig struct {
	DryRun             bool               `toml:"dry_run"`
	CapitalTotal       float64            `toml:"capital_total"`
	CycleSleepSeconds  int                `toml:"cycle_sleep_seconds"`
	ReopenCooldownSecs int                `toml:"reopen_cooldown_seconds"`
	KATR               float64            `toml:"k_atr"`
	RR1                float64            `toml:"rr1"`
	RR2                float64            `toml:"rr2"`
	TopK               int                `toml:"top_k"`
	CorrThreshold      float64            `toml:"corr_threshold"`
	TimeframeWeights   map[string]float64 `toml:"timeframe_weights"`
}

func (t TradingConfig) CycleSleep() time.Duration {
	if t.CycleSleepSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(t.CycleSleepSeconds) * time.Second
}

func (t TradingConfig) ReopenCooldown() time.Duration {
	if t.ReopenCooldownSecs <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(t.ReopenCooldownSecs) * time.Second
}

type ExchangeConfig struct {
	Name               string `toml:"name"`
	APIKey             string `toml:"api_key"`
	APISecret          string `toml:"api_secret"`
	Sandbox            bool   `toml:"sandbox"`
	RESTBaseURL        string `toml:"rest_base_url"`
	HTTPTimeoutSeconds int    `toml:"http_timeout_seconds"`
}

// BinanceConfig maps the exchange section onto the gateway config.
func (e ExchangeConfig) BinanceConfig() binance.Config {
	return binance.Config{
		APIKey:      e.APIKey,
		APISecret:   e.APISecret,
		Sandbox:     e.Sandbox,
		RESTBaseURL: e.RESTBaseURL,
		HTTPTimeout: time.Duration(e.HTTPTimeoutSeconds) * time.Second,
	}
}

type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

type HTTPConfig struct {
	Addr string `toml:"addr"`
}

type ReportConfig struct {
	TradeLogCSV string `toml:"trade_log_csv"`
	TradeDB     string `toml:"trade_db"`
	EquityPlot  string `toml:"equity_plot"`
}
