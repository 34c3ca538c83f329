package advisory

import "errors"

var (
	// ErrUpstreamUnavailable covers network failures and timeouts.
	ErrUpstreamUnavailable = errors.New("advisory upstream unavailable")
	// ErrUpstreamError is a non-success response from the provider.
	ErrUpstreamError = errors.New("advisory upstream error")
	// ErrUpstreamMalformed is a success response without usable content.
	ErrUpstreamMalformed = errors.New("advisory upstream malformed response")
	// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429).
	ErrQuotaExceeded error = &quotaError{}
)

type quotaError struct{}

func (*quotaError) Error() string { return "ai quota exceeded" }

// Is lets a quota failure also match ErrUpstreamError.
func (*quotaError) Is(target error) bool { return target == ErrUpstreamError }

// IsUpstream reports whether err came from the advisory provider.
func IsUpstream(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable) ||
		errors.Is(err, ErrUpstreamError) ||
		errors.Is(err, ErrUpstreamMalformed)
}
