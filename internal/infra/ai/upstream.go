package ai

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"

	"github.com/rotisserie/eris"

	"github.com/bryanwahyu/finadvisor/internal/domain/advisory"
)

// Classify maps a provider failure onto the advisory sentinels. status is
// the HTTP status the provider answered with, 0 when no response arrived.
func Classify(err error, status int, op string) error {
	if err == nil {
		return nil
	}
	switch {
	case status == http.StatusTooManyRequests:
		return eris.Wrapf(advisory.ErrQuotaExceeded, "%s: %v", op, err)
	case status > 0:
		return eris.Wrapf(advisory.ErrUpstreamError, "%s: status %d: %v", op, status, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return eris.Wrapf(advisory.ErrUpstreamUnavailable, "%s: %v", op, err)
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return eris.Wrapf(advisory.ErrUpstreamUnavailable, "%s: %v", op, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return eris.Wrapf(advisory.ErrUpstreamUnavailable, "%s: %v", op, err)
	}
	return eris.Wrapf(advisory.ErrUpstreamMalformed, "%s: %v", op, err)
}

// Outcome is the metrics label for an advisory result.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, advisory.ErrQuotaExceeded):
		return "quota"
	case errors.Is(err, advisory.ErrUpstreamUnavailable):
		return "unavailable"
	case errors.Is(err, advisory.ErrUpstreamMalformed):
		return "malformed"
	case errors.Is(err, advisory.ErrUpstreamError):
		return "upstream_error"
	default:
		return "error"
	}
}
