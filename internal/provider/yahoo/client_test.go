package yahoo_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	yahoo "quoteservice/internal/provider/yahoo"
)

func okResponse(t *testing.T, body any) *http.Response {
	t.Helper()
	buffer := &bytes.Buffer{}
	require.NoError(t, json.NewEncoder(buffer).Encode(body))
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(buffer),
	}
}

func emptyQuoteResponse() map[string]any {
	return map[string]any{"quoteResponse": map[string]any{"result": []any{}}}
}

func TestNewYahooAPIClient(t *testing.T) {
	t.Parallel()

	// Assert: the client builds without options.
	client, err := yahoo.NewYahooAPIClient()
	require.NoErrorf(t, err, "unexpected error: %v", err)
	require.NotNilf(t, client, "unexpected nil client")
}

func TestWithHTTPClient(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock http client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: the mock receives exactly one call
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			return okResponse(t, emptyQuoteResponse()), nil
		}).
		Times(1)

	// Arrange: create a new client with a custom HTTP client.
	client, err := yahoo.NewYahooAPIClient(yahoo.WithHTTPClient(httpClient))
	require.NoError(t, err)

	// Act: call GetQuotes with the custom HTTP client.
	_, err = client.GetQuotes(t.Context(), []string{"MSFT"})
	require.NoError(t, err)
}

func TestWithBaseURL(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	// Arrange: define a base url with a trailing slash
	baseURL := "http://localhost:8080/"

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Truef(t, strings.HasPrefix(req.URL.String(), "http://localhost:8080/v7/finance/quote"), "expected url to start with base url, received: %s", req.URL.String())
			return okResponse(t, emptyQuoteResponse()), nil
		}).
		Times(1)

	client, err := yahoo.NewYahooAPIClient(yahoo.WithHTTPClient(httpClient), yahoo.WithBaseURL(baseURL))
	require.NoError(t, err)

	// Act: call GetQuotes with the overridden base URL.
	_, err = client.GetQuotes(t.Context(), []string{"MSFT"})
	require.NoError(t, err)
}

func TestWithHeader(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: the header reaches the request
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "quote-service/1.0", req.Header.Get("User-Agent"))
			require.Equal(t, "application/json", req.Header.Get("Accept"))
			return okResponse(t, emptyQuoteResponse()), nil
		}).
		Times(1)

	client, err := yahoo.NewYahooAPIClient(yahoo.WithHTTPClient(httpClient), yahoo.WithHeader(http.Header{
		"User-Agent": []string{"quote-service/1.0"},
	}))
	require.NoError(t, err)

	_, err = client.GetQuotes(t.Context(), []string{"MSFT"})
	require.NoError(t, err)
}

func TestWithQuery(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "US", req.URL.Query().Get("region"))
			return okResponse(t, emptyQuoteResponse()), nil
		}).
		Times(1)

	client, err := yahoo.NewYahooAPIClient(yahoo.WithHTTPClient(httpClient), yahoo.WithQuery(url.Values{"region": {"US"}}))
	require.NoError(t, err)

	_, err = client.GetQuotes(t.Context(), []string{"MSFT"})
	require.NoError(t, err)
}
