// Package autoscaler maps account equity onto a risk tier. Tier changes are
// debounced by a cooldown so equity micro-fluctuations near a boundary do
// not thrash the applied settings.
package autoscaler

import (
	"fmt"
	"sort"
	"time"

	"commander/internal/logger"
)

// Settings is the policy one tier applies.
type Settings struct {
	RiskPerTrade     float64 `toml:"risk_per_trade" json:"risk_per_trade"`
	MaxPositions     int     `toml:"max_positions" json:"max_positions"`
	MaxGrossExposure float64 `toml:"max_gross_exposure" json:"max_gross_exposure"`
}

// Tier is one equity bracket. Tiers partition [0, inf) by MinEquity; the
// active tier is the greatest MinEquity <= equity.
type Tier struct {
	MinEquity float64  `toml:"min_equity" json:"min_equity"`
	Settings  Settings `toml:"settings" json:"settings"`
}

// DefaultTiers is the stock tier table.
func DefaultTiers() []Tier {
	return []Tier{
		{MinEquity: 0, Settings: Settings{RiskPerTrade: 0.008, MaxPositions: 3, MaxGrossExposure: 0.30}},
		{MinEquity: 5000, Settings: Settings{RiskPerTrade: 0.010, MaxPositions: 4, MaxGrossExposure: 0.35}},
		{MinEquity: 20000, Settings: Settings{RiskPerTrade: 0.015, MaxPositions: 6, MaxGrossExposure: 0.45}},
		{MinEquity: 100000, Settings: Settings{RiskPerTrade: 0.020, MaxPositions: 8, MaxGrossExposure: 0.55}},
	}
}

// ValidateTiers rejects malformed tier tables up front so a bad config
// fails at startup, not mid-run.
func ValidateTiers(tiers []Tier) error {
	if len(tiers) == 0 {
		return fmt.Errorf("tier table is empty")
	}
	if tiers[0].MinEquity != 0 {
		return fmt.Errorf("first tier must start at min_equity=0, got %.2f", tiers[0].MinEquity)
	}
	for i := 1; i < len(tiers); i++ {
		if tiers[i].MinEquity <= tiers[i-1].MinEquity {
			return fmt.Errorf("tier min_equity must be strictly ascending (index %d)", i)
		}
	}
	for i, t := range tiers {
		if t.Settings.RiskPerTrade <= 0 || t.Settings.RiskPerTrade >= 1 {
			return fmt.Errorf("tier %d: risk_per_trade must be in (0,1)", i)
		}
		if t.Settings.MaxPositions <= 0 {
			return fmt.Errorf("tier %d: max_positions must be positive", i)
		}
		if t.Settings.MaxGrossExposure <= 0 {
			return fmt.Errorf("tier %d: max_gross_exposure must be positive", i)
		}
	}
	return nil
}

// AutoScaler holds the last applied settings and the apply timestamp.
type AutoScaler struct {
	tiers         []Tier
	cooldown      time.Duration
	lastApplyTime time.Time
	current       Settings
	now           func() time.Time
}

func New(tiers []Tier, cooldown time.Duration) (*AutoScaler, error) {
	if len(tiers) == 0 {
		tiers = DefaultTiers()
	}
	sorted := append([]Tier(nil), tiers...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinEquity < sorted[j].MinEquity })
	if err := ValidateTiers(sorted); err != nil {
		return nil, err
	}
	if cooldown <= 0 {
		cooldown = time.Hour
	}
	return &AutoScaler{
		tiers:    sorted,
		cooldown: cooldown,
		current:  sorted[0].Settings,
		now:      time.Now,
	}, nil
}

// SetClock overrides the time source; tests use it to step across the
// cooldown window.
func (a *AutoScaler) SetClock(now func() time.Time) {
	if now != nil {
		a.now = now
	}
}

func (a *AutoScaler) tierFor(equity float64) Settings {
	if equity < 0 {
		equity = 0
	}
	chosen := a.tiers[0].Settings
	for _, t := range a.tiers {
		if equity >= t.MinEquity {
			chosen = t.Settings
		}
	}
	return chosen
}

// Settings returns the currently applied tier settings for the given
// equity. A pending tier change is applied only when force is set or the
// cooldown since the last apply has elapsed; until then the previously
// applied settings keep ruling.
func (a *AutoScaler) Settings(equity float64, force bool) Settings {
	desired := a.tierFor(equity)
	now := a.now()
	if force || (desired != a.current && now.Sub(a.lastApplyTime) >= a.cooldown) {
		if desired != a.current {
			logger.Infof("autoscaler: equity=%.2f applying tier risk=%.4f positions=%d exposure=%.2f",
				equity, desired.RiskPerTrade, desired.MaxPositions, desired.MaxGrossExposure)
		}
		a.current = desired
		a.lastApplyTime = now
	}
	return a.current
}

// Current returns the applied settings without evaluating a change.
func (a *AutoScaler) Current() Settings { return a.current }
