package errorutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	neturl "net/url"
)

// FetchError describes a failed fetch attempt with enough context for the
// debug stream. It is diagnostic only: resolvers collapse every failure into
// an absent result, so this error never crosses a component boundary.
type FetchError struct {
	Transport  string // "http" or "command"
	URL        string
	Underlying error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s fetch failed for %s: %v", e.Transport, e.URL, e.Underlying)
}

func (e *FetchError) Unwrap() error {
	return e.Underlying
}

func NewFetchError(transport, url string, err error) *FetchError {
	return &FetchError{
		Transport:  transport,
		URL:        url,
		Underlying: err,
	}
}

// IsTimeout reports whether the error chain indicates a deadline or network
// timeout, so the debug stream can distinguish slow providers from broken ones.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var urlErr *neturl.Error
	if errors.As(err, &urlErr) {
		return urlErr.Timeout()
	}
	return false
}
