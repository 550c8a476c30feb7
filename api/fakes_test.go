package api

import (
	"context"
	"errors"
	"sync"
	"time"
)

// fakeFetcher is a scriptable Fetcher double that records call counts so
// tests can assert which transport paths were exercised, and in what order.
type fakeFetcher struct {
	mu           sync.Mutex
	fetchURLs    []string
	commandURLs  []string
	fetchFunc    func(url string) ([]byte, error)
	commandFunc  func(url, agent string) ([]byte, error)
	fetchDelay   time.Duration
	commandDelay time.Duration
}

var errFakeUnscripted = errors.New("no scripted response")

func (f *fakeFetcher) Fetch(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	f.mu.Lock()
	f.fetchURLs = append(f.fetchURLs, url)
	fn := f.fetchFunc
	delay := f.fetchDelay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fn == nil {
		return nil, errFakeUnscripted
	}
	return fn(url)
}

func (f *fakeFetcher) FetchCommand(ctx context.Context, url string, timeout time.Duration, agent string) ([]byte, error) {
	f.mu.Lock()
	f.commandURLs = append(f.commandURLs, url)
	fn := f.commandFunc
	delay := f.commandDelay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fn == nil {
		return nil, errFakeUnscripted
	}
	return fn(url, agent)
}

func (f *fakeFetcher) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetchURLs)
}

func (f *fakeFetcher) commandCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.commandURLs)
}
