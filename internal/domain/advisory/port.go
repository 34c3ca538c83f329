package advisory

import "context"

// DefaultLanguage is used when neither the caller nor the record names one.
const DefaultLanguage = "English"

// Request is everything the advisory prompt is built from.
type Request struct {
	Financials any
	Industry   string
	Language   string
}

// Client returns free-text advice from an external chat-completion model.
type Client interface {
	GetAdvisory(ctx context.Context, req Request) (string, error)
}
