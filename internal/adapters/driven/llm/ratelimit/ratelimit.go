// Package ratelimit wraps an LLM provider with a token-bucket rate
// limiter so fan-out executors cannot overload a provider.
package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.LLMProvider = (*Provider)(nil)

// DefaultBurst is the bucket size when none is configured.
const DefaultBurst = 2

// Provider delegates to an inner LLM provider after acquiring a rate
// token. Waiting respects the request context, so a cancelled request
// never burns quota.
type Provider struct {
	inner   driven.LLMProvider
	limiter *rate.Limiter
}

// Wrap applies a requests-per-second limit to a provider. A zero or
// negative limit returns the provider unwrapped.
func Wrap(inner driven.LLMProvider, requestsPerSecond float64) driven.LLMProvider {
	if requestsPerSecond <= 0 {
		return inner
	}
	burst := DefaultBurst
	if requestsPerSecond < 1 {
		burst = 1
	}
	return &Provider{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Generate waits for a rate token, then delegates.
func (p *Provider) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return p.inner.Generate(ctx, prompt, opts)
}

// GenerateWithReasoning waits for a rate token, then delegates.
func (p *Provider) GenerateWithReasoning(ctx context.Context, prompt string, opts driven.GenerateOptions) (driven.Reasoned, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return driven.Reasoned{}, fmt.Errorf("rate limit wait: %w", err)
	}
	return p.inner.GenerateWithReasoning(ctx, prompt, opts)
}

// ModelName delegates to the inner provider.
func (p *Provider) ModelName() string {
	return p.inner.ModelName()
}

// HealthCheck delegates without consuming a rate token.
func (p *Provider) HealthCheck(ctx context.Context) error {
	return p.inner.HealthCheck(ctx)
}

// Close delegates to the inner provider.
func (p *Provider) Close() error {
	return p.inner.Close()
}
