package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"strings"
)

// maxBodyBytes caps how much of an upstream response is decoded.
const maxBodyBytes = 1 << 20

// QuoteResult is a single entry of quoteResponse.result.
type QuoteResult struct {
	Symbol             string   `json:"symbol"`
	Currency           string   `json:"currency"`
	RegularMarketPrice *float64 `json:"regularMarketPrice"`
	RegularMarketTime  *int64   `json:"regularMarketTime"`
}

// APIError is the error object Yahoo embeds in an otherwise successful body.
type APIError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("yahoo api error %s: %s", e.Code, e.Description)
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Reason     string
}

func (e *StatusError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unexpected status code: %d (%s)", e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

// ErrMalformedResponse is returned when the body lacks the quoteResponse envelope.
var ErrMalformedResponse = errors.New("malformed quote response")

type quoteEnvelope struct {
	QuoteResponse *struct {
		Result []QuoteResult `json:"result"`
		Error  *APIError     `json:"error"`
	} `json:"quoteResponse"`
}

// GetQuotes retrieves quotes for symbols. An unknown symbol yields an empty
// result rather than an error.
func (c *YahooAPIClient) GetQuotes(ctx context.Context, symbols []string, opts ...YahooAPIClientOption) ([]QuoteResult, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols requested")
	}

	var override = &YahooAPIClient{
		baseURL:    c.baseURL,
		httpClient: c.httpClient,
		header:     c.header.Clone(),
		query:      maps.Clone(c.query),
	}
	for _, opt := range opts {
		opt(override)
	}

	query := maps.Clone(override.query)
	query.Set("symbols", strings.Join(symbols, ","))

	url := fmt.Sprintf("%s/v7/finance/quote?%s", override.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = override.header
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	res, err := override.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
	case res.StatusCode == http.StatusUnauthorized, res.StatusCode == http.StatusForbidden:
		return nil, &StatusError{StatusCode: res.StatusCode, Reason: "unauthorized"}
	case res.StatusCode == http.StatusTooManyRequests:
		return nil, &StatusError{StatusCode: res.StatusCode, Reason: "rate limited"}
	default:
		return nil, &StatusError{StatusCode: res.StatusCode}
	}

	var body quoteEnvelope
	if err := json.NewDecoder(io.LimitReader(res.Body, maxBodyBytes)).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding quote response: %w", err)
	}
	if body.QuoteResponse == nil {
		return nil, ErrMalformedResponse
	}
	if body.QuoteResponse.Error != nil {
		return nil, body.QuoteResponse.Error
	}
	if body.QuoteResponse.Result == nil {
		return []QuoteResult{}, nil
	}
	return body.QuoteResponse.Result, nil
}
