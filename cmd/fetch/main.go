// Command fetch resolves one asset pair from the command line and prints
// the result as JSON, useful for poking at sources without running the
// server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"pricefeed/internal/config"
	"pricefeed/internal/httpx"
	"pricefeed/internal/pricecache"
	"pricefeed/internal/resolve"
	"pricefeed/internal/source"
	"pricefeed/internal/source/binance"
	"pricefeed/internal/source/coinbase"
	"pricefeed/internal/source/coingecko"
	"pricefeed/internal/source/kraken"
	"pricefeed/internal/source/mexc"
	"pricefeed/internal/source/okx"
)

func main() {
	_ = godotenv.Load()

	var token, quote, requested, intermediate, configPath string
	var timeout int
	flag.StringVar(&token, "token", getenv("TOKEN", "BTC"), "base asset symbol")
	flag.StringVar(&quote, "quote", getenv("DEFAULT_QUOTE", ""), "quote asset symbol (default from config)")
	flag.StringVar(&requested, "source", "", "restrict to one source")
	flag.StringVar(&intermediate, "intermediate", "", "override the triangulation pivot")
	flag.IntVar(&timeout, "timeout", 0, "request timeout seconds (default from config)")
	flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.json (optional)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if quote == "" {
		quote = cfg.DefaultQuote
	}
	if timeout > 0 {
		cfg.RequestTimeoutSec = timeout
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	httpClient := httpx.New(time.Duration(cfg.RequestTimeoutSec) * time.Second)
	gecko := coingecko.NewClient(coingecko.WithHTTPClient(httpClient.HTTP))
	geckoIDs := coingecko.NewResolver(gecko, time.Duration(cfg.CoinListTTLSeconds)*time.Second, logger)

	sources := []source.Source{
		binance.New(httpClient),
		okx.New(httpClient),
		kraken.New(httpClient),
		coinbase.New(httpClient),
		mexc.New(httpClient),
		coingecko.New(gecko, geckoIDs),
	}

	resolver := resolve.New(resolve.Config{
		Sources:      sources,
		Aggregator:   coingecko.Name,
		Prices:       pricecache.NewPrices(time.Duration(cfg.CacheTTLSeconds) * time.Second),
		Failures:     pricecache.NewFailures(time.Duration(cfg.FailureTTLSeconds) * time.Second),
		Intermediate: cfg.IntermediateAsset,
		Logger:       logger,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := resolver.Resolve(ctx, token, quote, requested, intermediate)
	if err != nil {
		log.Fatalf("resolve %s/%s: %v", token, quote, err)
	}

	out := struct {
		Best   source.Quote   `json:"best"`
		Quotes []source.Quote `json:"quotes"`
	}{Best: res.Best, Quotes: res.Quotes}
	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
