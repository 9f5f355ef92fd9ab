package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML config file, fills defaults and validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "toml"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyDefaults()
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Render dumps the effective configuration as YAML for the startup log.
// Credentials are masked.
func Render(cfg *Config) string {
	clone := *cfg
	if clone.Exchange.APIKey != "" {
		clone.Exchange.APIKey = "***"
	}
	if clone.Exchange.APISecret != "" {
		clone.Exchange.APISecret = "***"
	}
	if clone.Notify.Telegram.BotToken != "" {
		clone.Notify.Telegram.BotToken = "***"
	}
	out, err := yaml.Marshal(&clone)
	if err != nil {
		return fmt.Sprintf("config render failed: %v", err)
	}
	return string(out)
}
