package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"peoples-bill-be/pkg/apperror"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/errgroup"
)

type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Dims rejects vectors of any other length when set.
	Dims int
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    2 * time.Second,
	}
}

// RetryingProvider retries transient failures of the wrapped provider with
// exponential backoff. Exhausted retries surface as EmbeddingServiceError.
type RetryingProvider struct {
	inner EmbeddingProvider
	name  string
	cfg   RetryConfig
}

func NewRetryingProvider(inner EmbeddingProvider, name string, cfg RetryConfig) *RetryingProvider {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &RetryingProvider{inner: inner, name: name, cfg: cfg}
}

func (p *RetryingProvider) ModelVersion() string {
	return p.inner.ModelVersion()
}

func (p *RetryingProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.cfg.BaseDelay
	b.Multiplier = 2
	b.MaxInterval = p.cfg.MaxDelay
	b.RandomizationFactor = 0

	attempts := 0
	op := func() (*EmbeddingResponse, error) {
		attempts++
		r, err := p.inner.Generate(ctx, text, taskType)
		if err != nil && ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		if err == nil {
			err = p.check(r)
		}
		return r, err
	}

	res, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(p.cfg.MaxAttempts)),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &apperror.EmbeddingServiceError{Provider: p.name, Attempts: attempts, Err: err}
	}
	return res, nil
}

func (p *RetryingProvider) check(r *EmbeddingResponse) error {
	if r == nil || len(r.Embedding.Values) == 0 {
		return errors.New("empty embedding")
	}
	if p.cfg.Dims > 0 && len(r.Embedding.Values) != p.cfg.Dims {
		return fmt.Errorf("embedding has %d dimensions, want %d", len(r.Embedding.Values), p.cfg.Dims)
	}
	for _, v := range r.Embedding.Values {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return errors.New("embedding contains non-finite values")
		}
	}
	return nil
}

// EmbedAll embeds texts concurrently with at most limit requests in flight.
// The result is index-aligned with texts. The first failure cancels the rest.
func EmbedAll(ctx context.Context, p EmbeddingProvider, texts []string, limit int) ([]*EmbeddingResponse, error) {
	out := make([]*EmbeddingResponse, len(texts))
	if limit <= 0 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, text := range texts {
		g.Go(func() error {
			r, err := p.Generate(gctx, text, TaskTypeClustering)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// EmbedEach is EmbedAll without fail-fast: a text that cannot be embedded
// gets a nil response and its error in errs, and the others still complete.
// Only cancellation of ctx aborts the batch.
func EmbedEach(ctx context.Context, p EmbeddingProvider, texts []string, limit int) ([]*EmbeddingResponse, []error, error) {
	out := make([]*EmbeddingResponse, len(texts))
	errs := make([]error, len(texts))
	if limit <= 0 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i, text := range texts {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			r, err := p.Generate(ctx, text, TaskTypeClustering)
			if err != nil {
				errs[i] = err
				return nil
			}
			out[i] = r
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return out, errs, nil
}
