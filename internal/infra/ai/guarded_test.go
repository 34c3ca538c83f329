package ai

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/finadvisor/internal/domain/advisory"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) GetAdvisory(ctx context.Context, req advisory.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func fastGuard(next advisory.Client) *Guarded {
	return NewGuarded(next, "test", GuardConfig{Timeout: time.Second, Backoff: time.Millisecond})
}

func TestGuarded_Success(t *testing.T) {
	m := new(mockClient)
	req := advisory.Request{Industry: "Retail"}
	m.On("GetAdvisory", mock.Anything, req).Return("advice", nil).Once()

	got, err := fastGuard(m).GetAdvisory(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "advice", got)
	m.AssertExpectations(t)
}

func TestGuarded_RetriesUnavailableOnce(t *testing.T) {
	m := new(mockClient)
	m.On("GetAdvisory", mock.Anything, mock.Anything).Return("", advisory.ErrUpstreamUnavailable).Once()
	m.On("GetAdvisory", mock.Anything, mock.Anything).Return("second try", nil).Once()

	got, err := fastGuard(m).GetAdvisory(context.Background(), advisory.Request{})
	require.NoError(t, err)
	assert.Equal(t, "second try", got)
	m.AssertNumberOfCalls(t, "GetAdvisory", 2)
}

func TestGuarded_GivesUpAfterMaxAttempts(t *testing.T) {
	m := new(mockClient)
	m.On("GetAdvisory", mock.Anything, mock.Anything).Return("", advisory.ErrUpstreamUnavailable)

	_, err := fastGuard(m).GetAdvisory(context.Background(), advisory.Request{})
	assert.ErrorIs(t, err, advisory.ErrUpstreamUnavailable)
	m.AssertNumberOfCalls(t, "GetAdvisory", 2)
}

func TestGuarded_NoRetryOnUpstreamError(t *testing.T) {
	for _, sentinel := range []error{advisory.ErrUpstreamError, advisory.ErrQuotaExceeded, advisory.ErrUpstreamMalformed} {
		m := new(mockClient)
		m.On("GetAdvisory", mock.Anything, mock.Anything).Return("", sentinel)

		_, err := fastGuard(m).GetAdvisory(context.Background(), advisory.Request{})
		assert.ErrorIs(t, err, sentinel)
		m.AssertNumberOfCalls(t, "GetAdvisory", 1)
	}
}

type slowClient struct{}

func (slowClient) GetAdvisory(ctx context.Context, _ advisory.Request) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestGuarded_TimeoutBecomesUnavailable(t *testing.T) {
	g := NewGuarded(slowClient{}, "test", GuardConfig{Timeout: 10 * time.Millisecond, MaxAttempts: 1})

	_, err := g.GetAdvisory(context.Background(), advisory.Request{})
	assert.ErrorIs(t, err, advisory.ErrUpstreamUnavailable)
}

type countingClient struct {
	current, peak atomic.Int64
	release       chan struct{}
}

func (c *countingClient) GetAdvisory(ctx context.Context, _ advisory.Request) (string, error) {
	n := c.current.Add(1)
	defer c.current.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	<-c.release
	return "ok", nil
}

func TestGuarded_ConcurrencyCap(t *testing.T) {
	c := &countingClient{release: make(chan struct{})}
	g := NewGuarded(c, "test", GuardConfig{MaxConcurrent: 2, Timeout: time.Second})

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.GetAdvisory(context.Background(), advisory.Request{})
			assert.NoError(t, err)
		}()
	}

	require.Eventually(t, func() bool { return c.current.Load() == 2 }, time.Second, time.Millisecond)
	close(c.release)
	wg.Wait()
	assert.Equal(t, int64(2), c.peak.Load())
}

func TestGuarded_SlotWaitIsBounded(t *testing.T) {
	c := &countingClient{release: make(chan struct{})}
	defer close(c.release)
	g := NewGuarded(c, "test", GuardConfig{MaxConcurrent: 1, Timeout: time.Second, QueueTimeout: 20 * time.Millisecond})

	go func() { _, _ = g.GetAdvisory(context.Background(), advisory.Request{}) }()
	require.Eventually(t, func() bool { return c.current.Load() == 1 }, time.Second, time.Millisecond)

	start := time.Now()
	_, err := g.GetAdvisory(context.Background(), advisory.Request{})
	assert.ErrorIs(t, err, advisory.ErrUpstreamUnavailable)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestGuardConfig_Budget(t *testing.T) {
	assert.Equal(t, 70500*time.Millisecond, GuardConfig{}.Budget())
	assert.Equal(t, 3*time.Second+2*time.Second+50*time.Millisecond, GuardConfig{
		Timeout:      time.Second,
		MaxAttempts:  3,
		Backoff:      25 * time.Millisecond,
		QueueTimeout: 2 * time.Second,
	}.Budget())
}

func TestClassify(t *testing.T) {
	cause := errors.New("boom")
	assert.NoError(t, Classify(nil, 0, "op"))
	assert.ErrorIs(t, Classify(cause, 429, "op"), advisory.ErrQuotaExceeded)
	assert.ErrorIs(t, Classify(cause, 429, "op"), advisory.ErrUpstreamError)
	assert.ErrorIs(t, Classify(cause, 503, "op"), advisory.ErrUpstreamError)
	assert.ErrorIs(t, Classify(context.DeadlineExceeded, 0, "op"), advisory.ErrUpstreamUnavailable)
	assert.ErrorIs(t, Classify(cause, 0, "op"), advisory.ErrUpstreamMalformed)
	assert.Contains(t, Classify(cause, 500, "op").Error(), "boom")
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "quota", Outcome(advisory.ErrQuotaExceeded))
	assert.Equal(t, "unavailable", Outcome(advisory.ErrUpstreamUnavailable))
	assert.Equal(t, "upstream_error", Outcome(advisory.ErrUpstreamError))
	assert.Equal(t, "malformed", Outcome(advisory.ErrUpstreamMalformed))
	assert.Equal(t, "error", Outcome(errors.New("x")))
}
