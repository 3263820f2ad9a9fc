// Package llm adapts generative model providers to a single text-in,
// text-out contract.
package llm

import (
	"context"
	"errors"
)

// Client sends a prompt to a generative model and returns the raw reply text.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ErrUnavailable is returned by Unavailable.
var ErrUnavailable = errors.New("no generative model configured")

// Unavailable is the Client used when no provider credentials are configured.
type Unavailable struct{}

func (Unavailable) Generate(context.Context, string) (string, error) {
	return "", ErrUnavailable
}

// Fallback tries Primary first; if it returns an error, tries Secondary.
type Fallback struct {
	Primary   Client
	Secondary Client
}

func (f *Fallback) Generate(ctx context.Context, prompt string) (string, error) {
	s, err := f.Primary.Generate(ctx, prompt)
	if err != nil && f.Secondary != nil && ctx.Err() == nil {
		return f.Secondary.Generate(ctx, prompt)
	}
	return s, err
}

// Chain combines the configured clients; nil entries are skipped. With no
// clients it returns Unavailable.
func Chain(clients ...Client) Client {
	var out Client
	for i := len(clients) - 1; i >= 0; i-- {
		c := clients[i]
		if c == nil {
			continue
		}
		if out == nil {
			out = c
			continue
		}
		out = &Fallback{Primary: c, Secondary: out}
	}
	if out == nil {
		return Unavailable{}
	}
	return out
}
