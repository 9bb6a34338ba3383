package yahooadapter

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quoteservice/internal/httpx"
	"quoteservice/internal/provider/yahoo"
)

func newAdapter(t *testing.T, handler http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := yahoo.NewYahooAPIClient(
		yahoo.WithBaseURL(srv.URL),
		yahoo.WithHTTPClient(httpx.New(time.Second)),
	)
	require.NoError(t, err)
	return New(Config{}, client)
}

func TestFetch_MapsResults(t *testing.T) {
	var ua string
	a := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{"quoteResponse":{"result":[{"symbol":"msft","currency":"USD","regularMarketPrice":225.37,"regularMarketTime":1752088324}]}}`))
	})

	qs, err := a.Fetch(t.Context(), []string{"MSFT"})
	require.NoError(t, err)
	require.Equal(t, "quote-service/1.0", ua)
	require.Len(t, qs, 1)
	require.Equal(t, "MSFT", qs[0].Symbol)
	require.Equal(t, 225.37, qs[0].Price)
	require.Equal(t, "USD", qs[0].Currency)
	require.Equal(t, "Yahoo", qs[0].Source)
	require.True(t, qs[0].ReceivedAt.Equal(time.Unix(1752088324, 0)))
}

func TestFetch_SymbollessResultUsesRequestOrder(t *testing.T) {
	a := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"quoteResponse":{"result":[{"regularMarketPrice": 225.37}]}}`))
	})
	fixed := time.Date(2025, 7, 9, 15, 12, 4, 0, time.UTC)
	a.now = func() time.Time { return fixed }

	qs, err := a.Fetch(t.Context(), []string{"MSFT"})
	require.NoError(t, err)
	require.Len(t, qs, 1)
	require.Equal(t, "MSFT", qs[0].Symbol)
	require.Equal(t, 225.37, qs[0].Price)
	require.True(t, qs[0].ReceivedAt.Equal(fixed))
}

func TestFetch_EmptyResult(t *testing.T) {
	a := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"quoteResponse":{"result":[]}}`))
	})

	qs, err := a.Fetch(t.Context(), []string{"ZZZZ"})
	require.NoError(t, err)
	require.Empty(t, qs)
}

func TestFetch_MissingPrice(t *testing.T) {
	a := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"quoteResponse":{"result":[{"symbol":"MSFT"}]}}`))
	})

	_, err := a.Fetch(t.Context(), []string{"MSFT"})
	require.ErrorContains(t, err, "missing regularMarketPrice")
}

func TestFetch_UpstreamStatus(t *testing.T) {
	a := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := a.Fetch(t.Context(), []string{"MSFT"})
	var statusErr *yahoo.StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
}
