// Package symbol converts between the internal "BASE/QUOTE" pair notation
// and exchange-native formats.
package symbol

import "strings"

type Symbol struct {
	Base  string
	Quote string
}

func (s Symbol) Internal() string {
	if s.Base == "" || s.Quote == "" {
		return ""
	}
	return s.Base + "/" + s.Quote
}

func (s Symbol) Binance() string {
	if s.Base == "" || s.Quote == "" {
		return ""
	}
	return s.Base + s.Quote
}

// Parse accepts "BTC/USDT" or exchange-native "BTCUSDT" and splits it into
// base and quote, guessing the quote from the common stablecoin suffixes
// when no slash is present.
func Parse(s string) Symbol {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Symbol{}
	}
	if parts := strings.SplitN(s, "/", 2); len(parts) == 2 {
		return Symbol{Base: strings.TrimSpace(parts[0]), Quote: strings.TrimSpace(parts[1])}
	}
	quoteCurrencies := []string{"USDT", "BUSD", "USDC", "TUSD", "BTC", "ETH", "BNB"}
	for _, quote := range quoteCurrencies {
		if strings.HasSuffix(s, quote) && len(s) > len(quote) {
			return Symbol{Base: s[:len(s)-len(quote)], Quote: quote}
		}
	}
	return Symbol{Base: s}
}

// ToBinance strips the slash: "BTC/USDT" -> "BTCUSDT".
func ToBinance(internal string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(internal)), "/", "")
}

// FromBinance restores the internal notation: "BTCUSDT" -> "BTC/USDT".
func FromBinance(raw string) string {
	return Parse(raw).Internal()
}
