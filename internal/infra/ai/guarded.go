package ai

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/bryanwahyu/finadvisor/internal/domain/advisory"
	"github.com/bryanwahyu/finadvisor/internal/metrics"
)

// GuardConfig bounds calls to an advisory provider.
type GuardConfig struct {
	// Timeout applies to each attempt. Default: 30s.
	Timeout time.Duration
	// MaxAttempts includes the first try. Default: 2.
	MaxAttempts int
	// Backoff is the pause before a retry. Default: 500ms.
	Backoff time.Duration
	// MaxConcurrent caps in-flight upstream calls. Default: 8.
	MaxConcurrent int64
	// QueueTimeout bounds the wait for a free slot. Default: 10s.
	QueueTimeout time.Duration
}

// Budget is the longest a guarded call can take: slot wait, every attempt
// and the backoffs between them.
func (c GuardConfig) Budget() time.Duration {
	c = c.withDefaults()
	return c.QueueTimeout + time.Duration(c.MaxAttempts)*c.Timeout + time.Duration(c.MaxAttempts-1)*c.Backoff
}

func (c GuardConfig) withDefaults() GuardConfig {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 2
	}
	if c.Backoff <= 0 {
		c.Backoff = 500 * time.Millisecond
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 8
	}
	if c.QueueTimeout <= 0 {
		c.QueueTimeout = 10 * time.Second
	}
	return c
}

// Guarded wraps a provider with a per-attempt timeout, retries on
// ErrUpstreamUnavailable and a concurrency cap.
type Guarded struct {
	next     advisory.Client
	provider string
	cfg      GuardConfig
	sem      *semaphore.Weighted
}

func NewGuarded(next advisory.Client, provider string, cfg GuardConfig) *Guarded {
	cfg = cfg.withDefaults()
	return &Guarded{
		next:     next,
		provider: provider,
		cfg:      cfg,
		sem:      semaphore.NewWeighted(cfg.MaxConcurrent),
	}
}

// GetAdvisory never runs longer than the configured Budget.
func (g *Guarded) GetAdvisory(ctx context.Context, req advisory.Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Budget())
	defer cancel()

	if err := g.acquire(ctx); err != nil {
		return "", err
	}
	defer g.sem.Release(1)

	inFlight := metrics.AdvisoryInFlight.WithLabelValues(g.provider)
	inFlight.Inc()
	defer inFlight.Dec()

	var lastErr error
	for attempt := 1; attempt <= g.cfg.MaxAttempts; attempt++ {
		out, err := g.attempt(ctx, req)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if ctx.Err() != nil || !errors.Is(err, advisory.ErrUpstreamUnavailable) || attempt == g.cfg.MaxAttempts {
			break
		}

		zap.L().Warn("advisory attempt failed, retrying",
			zap.String("provider", g.provider),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		timer := time.NewTimer(g.cfg.Backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", lastErr
		case <-timer.C:
		}
	}
	return "", lastErr
}

func (g *Guarded) acquire(ctx context.Context) error {
	qctx, cancel := context.WithTimeout(ctx, g.cfg.QueueTimeout)
	defer cancel()
	if err := g.sem.Acquire(qctx, 1); err != nil {
		zap.L().Warn("advisory slot wait expired",
			zap.String("provider", g.provider),
			zap.Duration("queue_timeout", g.cfg.QueueTimeout),
		)
		metrics.AdvisoryCalls.WithLabelValues(g.provider, "queue_timeout").Inc()
		return eris.Wrapf(advisory.ErrUpstreamUnavailable, "advisory: waiting for slot: %v", err)
	}
	return nil
}

func (g *Guarded) attempt(ctx context.Context, req advisory.Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	start := time.Now()
	out, err := g.next.GetAdvisory(ctx, req)
	if err != nil && !advisory.IsUpstream(err) && ctx.Err() != nil {
		err = eris.Wrapf(advisory.ErrUpstreamUnavailable, "advisory: %v", err)
	}
	metrics.AdvisoryDuration.WithLabelValues(g.provider).Observe(time.Since(start).Seconds())
	metrics.AdvisoryCalls.WithLabelValues(g.provider, Outcome(err)).Inc()
	return out, err
}
