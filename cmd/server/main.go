package main

import (
	"compress/gzip"
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
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

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	httpClient := httpx.New(time.Duration(cfg.RequestTimeoutSec) * time.Second)

	gecko := coingecko.NewClient(coingecko.WithHTTPClient(httpClient.HTTP))
	geckoIDs := coingecko.NewResolver(gecko, time.Duration(cfg.CoinListTTLSeconds)*time.Second, logger)

	// Priority order: exchanges first, the aggregator last.
	sources := []source.Source{
		binance.New(httpClient),
		okx.New(httpClient),
		kraken.New(httpClient),
		coinbase.New(httpClient),
		mexc.New(httpClient),
		coingecko.New(gecko, geckoIDs),
	}

	prices := pricecache.NewPrices(time.Duration(cfg.CacheTTLSeconds) * time.Second)
	failures := pricecache.NewFailures(time.Duration(cfg.FailureTTLSeconds) * time.Second)

	resolver := resolve.New(resolve.Config{
		Sources:      sources,
		Aggregator:   coingecko.Name,
		Prices:       prices,
		Failures:     failures,
		Intermediate: cfg.IntermediateAsset,
		Logger:       logger,
	})

	handler := &priceHandler{
		resolver:     resolver,
		prices:       prices,
		defaultQuote: cfg.DefaultQuote,
		logger:       logger,
	}

	mux := http.NewServeMux()
	mux.Handle("/price", handler)
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/healthz", handleHealth)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           withGzip(recoverPanic(mux)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// withGzip compresses the response when the client supports gzip.
func withGzip(next http.Handler) http.Handler {
	var gzPool = sync.Pool{New: func() any {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
		return w
	}}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}
		gz := gzPool.Get().(*gzip.Writer)
		gz.Reset(w)
		defer func() {
			_ = gz.Close()
			gz.Reset(io.Discard)
			gzPool.Put(gz)
		}()
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
		next.ServeHTTP(gzipResponseWriter{ResponseWriter: w, Writer: gz}, r)
	})
}

type gzipResponseWriter struct {
	http.ResponseWriter
	Writer io.Writer
}

func (g gzipResponseWriter) Write(b []byte) (int, error) {
	return g.Writer.Write(b)
}

// recoverPanic protects handlers from panics.
func recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
