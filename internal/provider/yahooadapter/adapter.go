package yahooadapter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quoteservice/internal/provider"
	"quoteservice/internal/provider/yahoo"
)

type Config struct {
	Name string // display name, default: Yahoo
}

// Adapter exposes a YahooAPIClient as a provider.Provider.
type Adapter struct {
	cfg    Config
	client *yahoo.YahooAPIClient
	now    func() time.Time
}

func New(cfg Config, client *yahoo.YahooAPIClient) *Adapter {
	if cfg.Name == "" {
		cfg.Name = "Yahoo"
	}
	return &Adapter{cfg: cfg, client: client, now: time.Now}
}

func (a *Adapter) Name() string { return a.cfg.Name }

// Fetch returns one quote per upstream result, in upstream order. A result
// without a price is treated as a malformed upstream response.
func (a *Adapter) Fetch(ctx context.Context, symbols []string) ([]provider.Quote, error) {
	results, err := a.client.GetQuotes(ctx, symbols)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", strings.ToLower(a.cfg.Name), err)
	}

	received := a.now()
	out := make([]provider.Quote, 0, len(results))
	for i, r := range results {
		sym := r.Symbol
		// some deployments omit the symbol; results then follow request order
		if sym == "" && i < len(symbols) {
			sym = symbols[i]
		}
		if r.RegularMarketPrice == nil {
			return nil, fmt.Errorf("%s: missing regularMarketPrice for %q", strings.ToLower(a.cfg.Name), sym)
		}
		ts := received
		if r.RegularMarketTime != nil && *r.RegularMarketTime > 0 {
			ts = time.Unix(*r.RegularMarketTime, 0)
		}
		out = append(out, provider.Quote{
			Symbol:     strings.ToUpper(sym),
			Price:      *r.RegularMarketPrice,
			Currency:   r.Currency,
			Source:     a.cfg.Name,
			ReceivedAt: ts,
		})
	}
	return out, nil
}
