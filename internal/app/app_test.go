package app

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"quoteservice/internal/config"
	"quoteservice/internal/quote"
)

func TestNewQuoteService_EndToEnd(t *testing.T) {
	var hits atomic.Int32
	var ua, symbols, path string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		ua = r.Header.Get("User-Agent")
		symbols = r.URL.Query().Get("symbols")
		path = r.URL.Path
		_, _ = w.Write([]byte(`{"quoteResponse":{"result":[{"regularMarketPrice": 225.37}]}}`))
	}))
	defer upstream.Close()

	cfg := config.Default()
	cfg.Upstream.BaseURL = upstream.URL
	cfg.Upstream.UserAgent = "quote-service/test"

	svc, err := NewQuoteService(cfg, nil, nil)
	require.NoError(t, err)

	res, err := svc.Lookup(t.Context(), "msft")
	require.NoError(t, err)
	require.Equal(t, 225.37, res.Price)
	require.Equal(t, "quote-service/test", ua)
	require.Equal(t, "MSFT", symbols)
	require.Equal(t, "/v7/finance/quote", path)

	// second lookup inside the default 60s TTL is served from cache
	_, err = svc.Lookup(t.Context(), "MSFT")
	require.NoError(t, err)
	require.Equal(t, int32(1), hits.Load())
}

func TestNewQuoteService_UpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	url := upstream.URL
	upstream.Close()

	cfg := config.Default()
	cfg.Upstream.BaseURL = url

	svc, err := NewQuoteService(cfg, nil, nil)
	require.NoError(t, err)

	_, err = svc.Lookup(t.Context(), "MSFT")
	require.ErrorIs(t, err, quote.ErrUpstream)
}
