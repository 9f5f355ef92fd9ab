package binance

import "time"

type Config struct {
	APIKey      string        `toml:"api_key"`
	APISecret   string        `toml:"api_secret"`
	Sandbox     bool          `toml:"sandbox"`
	RESTBaseURL string        `toml:"rest_base_url"`
	HTTPTimeout time.Duration `toml:"http_timeout"`
}

func (c Config) withDefaults() Config {
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 15 * time.Second
	}
	return c
}
