package provider

import (
	"context"
	"time"
)

// Quote is the normalized shape returned by all providers.
type Quote struct {
	Symbol     string    `json:"symbol"`
	Price      float64   `json:"price"`
	Currency   string    `json:"currency,omitempty"`
	Source     string    `json:"source"`
	ReceivedAt time.Time `json:"received_at"`
}

// Provider looks up quotes for symbols. Symbols the upstream does not know
// are simply absent from the result; an error means the upstream itself failed.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, symbols []string) ([]Quote, error)
}
