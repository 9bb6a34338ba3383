package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"quoteservice/internal/app"
	"quoteservice/internal/config"
	"quoteservice/internal/logger"
	"quoteservice/internal/quote"
)

// line is one ticker's outcome, printed as a JSON object per line.
type line struct {
	Ticker    string   `json:"ticker"`
	Price     *float64 `json:"price,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
	Error     string   `json:"error,omitempty"`
}

type looker interface {
	Lookup(ctx context.Context, raw string) (quote.Result, error)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var symbolsCSV string
	cmd := &cobra.Command{
		Use:   "quote-fetch [TICKER...]",
		Short: "Fetch quotes once from the upstream and print them as JSON lines",
		Example: `  quote-fetch MSFT AAPL
  quote-fetch --symbols msft,aapl --upstream-url http://localhost:9999`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			tickers := append(append([]string{}, args...), splitCSV(symbolsCSV)...)
			if len(tickers) == 0 {
				return errors.New("no tickers provided")
			}
			cfg, err := config.FromFlags(cmd.Flags())
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			svc, err := app.NewQuoteService(cfg, log, nil)
			if err != nil {
				return err
			}
			failed := printAll(cmd.OutOrStdout(), fetchAll(cmd.Context(), svc, tickers))
			if failed == len(tickers) {
				return errors.New("no quotes received")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&symbolsCSV, "symbols", os.Getenv("SYMBOLS"), "comma-separated tickers, in addition to positional ones")
	config.BindFlags(cmd.Flags())
	return cmd
}

// fetchAll looks every ticker up concurrently and returns results in input order.
func fetchAll(ctx context.Context, svc looker, tickers []string) []line {
	type result struct {
		i int
		l line
	}
	ch := make(chan result, len(tickers))
	for i, t := range tickers {
		go func() {
			l := line{Ticker: strings.ToUpper(t)}
			res, err := svc.Lookup(ctx, t)
			if err != nil {
				l.Error = err.Error()
			} else {
				l.Price = &res.Price
				l.Timestamp = res.FormatTimestamp()
			}
			ch <- result{i: i, l: l}
		}()
	}

	out := make([]line, len(tickers))
	for range tickers {
		r := <-ch
		out[r.i] = r.l
	}
	return out
}

// printAll writes one JSON object per line and reports how many were errors.
func printAll(w io.Writer, lines []line) (failed int) {
	enc := json.NewEncoder(w)
	for _, l := range lines {
		if l.Error != "" {
			failed++
		}
		_ = enc.Encode(l)
	}
	return failed
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
