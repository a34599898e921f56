package ratelimit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

type countingProvider struct {
	calls int
}

func (c *countingProvider) Generate(_ context.Context, _ string, _ driven.GenerateOptions) (string, error) {
	c.calls++
	return "ok", nil
}

func (c *countingProvider) GenerateWithReasoning(_ context.Context, _ string, _ driven.GenerateOptions) (driven.Reasoned, error) {
	c.calls++
	return driven.Reasoned{Text: "ok"}, nil
}

func (c *countingProvider) ModelName() string { return "counting" }

func (c *countingProvider) HealthCheck(_ context.Context) error { return nil }

func (c *countingProvider) Close() error { return nil }

func TestWrap_ZeroLimitIsPassthrough(t *testing.T) {
	inner := &countingProvider{}

	wrapped := Wrap(inner, 0)

	assert.Same(t, driven.LLMProvider(inner), wrapped)
}

func TestWrap_DelegatesWithinLimit(t *testing.T) {
	inner := &countingProvider{}
	wrapped := Wrap(inner, 1000)

	text, err := wrapped.Generate(context.Background(), "prompt", driven.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "ok", text)

	_, err = wrapped.GenerateWithReasoning(context.Background(), "prompt", driven.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, "counting", wrapped.ModelName())
}

func TestWrap_CancelledContext(t *testing.T) {
	inner := &countingProvider{}
	// A tiny limit forces Wait to block past the burst.
	wrapped := Wrap(inner, 0.001)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := wrapped.Generate(ctx, "first", driven.GenerateOptions{})
	require.NoError(t, err)

	cancel()
	_, err = wrapped.Generate(ctx, "second", driven.GenerateOptions{})
	assert.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}
