package config

import (
	"fmt"
	"math"
	"strings"

	"commander/internal/autoscaler"
	"commander/internal/regime"
	"commander/internal/scheduler"
)

// validate rejects a malformed configuration at startup so nothing bad
// reaches the running loop.
func validate(c *Config) error {
	if err := c.Data.validate(); err != nil {
		return err
	}
	if err := validateRegime(c.Regime); err != nil {
		return err
	}
	if err := c.Trading.validate(); err != nil {
		return err
	}
	if err := autoscaler.ValidateTiers(c.Scaler.AutoscalerTiers()); err != nil {
		return fmt.Errorf("scaler.tiers: %w", err)
	}
	if c.Exchange.Name != "binance" {
		return fmt.Errorf("exchange.name only supports binance, got %q", c.Exchange.Name)
	}
	if c.Notify.Telegram.Enabled {
		if strings.TrimSpace(c.Notify.Telegram.BotToken) == "" || strings.TrimSpace(c.Notify.Telegram.ChatID) == "" {
			return fmt.Errorf("notify.telegram enabled but bot_token/chat_id missing")
		}
	}
	return nil
}

func validateRegime(r regime.Config) error {
	if r.ADXRangeOff >= r.ADXTrendOn {
		return fmt.Errorf("regime.adx_range_off (%.1f) must be below adx_trend_on (%.1f)", r.ADXRangeOff, r.ADXTrendOn)
	}
	if r.ATRExpansionRatio <= 1 {
		return fmt.Errorf("regime.atr_expansion_ratio must exceed 1")
	}
	return nil
}

func (d DataConfig) validate() error {
	if len(d.Symbols) == 0 {
		return fmt.Errorf("data.symbols requires at least one symbol")
	}
	for _, s := range d.Symbols {
		if !strings.Contains(s, "/") {
			return fmt.Errorf("data.symbols entries use BASE/QUOTE notation, got %q", s)
		}
	}
	return nil
}

func (t TradingConfig) validate() error {
	var sum float64
	for tf, w := range t.TimeframeWeights {
		if _, ok := scheduler.ParseIntervalDuration(tf); !ok {
			return fmt.Errorf("trading.timeframe_weights: invalid timeframe %q", tf)
		}
		if w <= 0 {
			return fmt.Errorf("trading.timeframe_weights.%s must be positive", tf)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("trading.timeframe_weights must sum to 1, got %.4f", sum)
	}
	if t.RR2 <= t.RR1 {
		return fmt.Errorf("trading.rr2 must exceed rr1")
	}
	if t.CorrThreshold >= 1 {
		return fmt.Errorf("trading.corr_threshold must be below 1")
	}
	return nil
}
