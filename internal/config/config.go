package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

type Config struct {
	Port               string `json:"port"`
	RequestTimeoutSec  int    `json:"request_timeout_sec"`
	CacheTTLSeconds    int    `json:"cache_ttl_sec"`
	FailureTTLSeconds  int    `json:"failure_ttl_sec"`
	DefaultQuote       string `json:"default_quote"`
	IntermediateAsset  string `json:"intermediate_asset"`
	CoinListTTLSeconds int    `json:"coingecko_list_ttl_sec"`
}

func Default() Config {
	return Config{
		Port:               "8080",
		RequestTimeoutSec:  5,
		CacheTTLSeconds:    300,
		FailureTTLSeconds:  600,
		DefaultQuote:       "USDT",
		IntermediateAsset:  "USDT",
		CoinListTTLSeconds: 86400,
	}
}

// Load reads JSON config from path. If path is empty or the file does not
// exist, it returns defaults. Environment variables override file values.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	cfg.DefaultQuote = strings.ToUpper(cfg.DefaultQuote)
	cfg.IntermediateAsset = strings.ToUpper(cfg.IntermediateAsset)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.RequestTimeoutSec = x
		}
	}
	if v := os.Getenv("CACHE_TTL_SECONDS"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.CacheTTLSeconds = x
		}
	}
	if v := os.Getenv("FAILURE_TTL"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.FailureTTLSeconds = x
		}
	}
	if v := os.Getenv("DEFAULT_QUOTE"); v != "" {
		cfg.DefaultQuote = v
	}
	if v := os.Getenv("INTERMEDIATE_ASSET"); v != "" {
		cfg.IntermediateAsset = v
	}
	if v := os.Getenv("COINGECKO_LIST_TTL"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.CoinListTTLSeconds = x
		}
	}
}
