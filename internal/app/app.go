// Package app wires the quote service from configuration.
package app

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"quoteservice/internal/config"
	"quoteservice/internal/httpx"
	"quoteservice/internal/metrics"
	"quoteservice/internal/provider"
	"quoteservice/internal/provider/cache"
	"quoteservice/internal/provider/yahoo"
	"quoteservice/internal/provider/yahooadapter"
	"quoteservice/internal/quote"
)

// NewProvider builds the upstream quote provider described by cfg.Upstream.
func NewProvider(cfg config.Config) (provider.Provider, error) {
	httpClient := httpx.New(cfg.UpstreamTimeout())

	client, err := yahoo.NewYahooAPIClient(
		yahoo.WithBaseURL(cfg.Upstream.BaseURL),
		yahoo.WithHTTPClient(httpClient),
		yahoo.WithHeader(http.Header{
			"User-Agent": []string{cfg.Upstream.UserAgent},
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("yahoo client: %w", err)
	}
	return yahooadapter.New(yahooadapter.Config{Name: "Yahoo"}, client), nil
}

// NewQuoteService builds a quote.Service with its own cache. log and m may be nil.
func NewQuoteService(cfg config.Config, log *zap.Logger, m *metrics.Metrics) (*quote.Service, error) {
	if log == nil {
		log = zap.NewNop()
	}
	p, err := NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	c := cache.New(cfg.TTL(), cfg.Cache.MaxItems)
	return quote.NewService(p, c,
		quote.WithTimeout(cfg.UpstreamTimeout()),
		quote.WithLogger(log.Named("quote")),
		quote.WithMetrics(m),
	), nil
}
