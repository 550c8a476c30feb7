package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"wxnow/internal/errorutil"
	"wxnow/internal/logger"
	"wxnow/internal/runner"
)

// Fetcher is the network-fetch capability shared by the resolvers. Both
// methods return raw JSON bytes on success; every failure mode (network
// error, timeout, non-2xx, empty output, invalid JSON) comes back as an
// error the caller converts to an absent result.
type Fetcher interface {
	// Fetch tries the direct HTTP path first and falls back to the external
	// fetch command when that fails for any reason.
	Fetch(ctx context.Context, url string, timeout time.Duration) ([]byte, error)

	// FetchCommand uses only the external fetch command. Some providers are
	// only reachable this way in proxy-restricted environments.
	FetchCommand(ctx context.Context, url string, timeout time.Duration, agent string) ([]byte, error)
}

// ProxyPolicy describes how the external fetch process is shielded from
// ambient proxy configuration. It is applied per invocation instead of
// mutating the process environment.
type ProxyPolicy struct {
	SuppressVars    []string
	NoProxyWildcard bool
}

// Environ filters the suppressed variables out of base and asserts the
// wildcard no-proxy override.
func (p ProxyPolicy) Environ(base []string) []string {
	suppressed := make(map[string]bool, len(p.SuppressVars)+1)
	for _, v := range p.SuppressVars {
		suppressed[v] = true
	}
	suppressed["no_proxy"] = true

	env := make([]string, 0, len(base)+1)
	for _, kv := range base {
		name, _, ok := strings.Cut(kv, "=")
		if ok && suppressed[name] {
			continue
		}
		env = append(env, kv)
	}
	if p.NoProxyWildcard {
		env = append(env, "no_proxy=*")
	}
	return env
}

// ClientOptions configures the dual-path fetch client.
type ClientOptions struct {
	UserAgent  string
	CurlBinary string
	Proxy      ProxyPolicy
}

// Client implements Fetcher with a resty HTTP client as the primary path and
// a curl-style external process as the secondary.
type Client struct {
	http    *resty.Client
	runner  runner.CommandRunner
	opts    ClientOptions
	baseEnv func() []string
}

// NewClient creates a dual-path fetch client.
func NewClient(opts ClientOptions, run runner.CommandRunner, baseEnv func() []string) *Client {
	client := resty.New().
		SetHeader("User-Agent", opts.UserAgent)

	client.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
		logger.Debug("fetching %s %s", req.Method, req.URL)
		return nil
	})

	client.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		logger.Debug("fetched %s: status=%d bytes=%d in %s",
			resp.Request.URL, resp.StatusCode(), len(resp.Body()), resp.Time())
		return nil
	})

	return &Client{
		http:    client,
		runner:  run,
		opts:    opts,
		baseEnv: baseEnv,
	}
}

func (c *Client) Fetch(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	body, err := c.fetchHTTP(ctx, url, timeout)
	if err == nil {
		return body, nil
	}

	if errorutil.IsTimeout(err) {
		logger.Debug("http fetch timed out for %s, trying %s", url, c.opts.CurlBinary)
	} else {
		logger.Debug("http fetch failed for %s: %v, trying %s", url, err, c.opts.CurlBinary)
	}

	body, cmdErr := c.FetchCommand(ctx, url, timeout, c.opts.UserAgent)
	if cmdErr != nil {
		logger.Warn("failed to fetch %s: %v", url, err)
		return nil, cmdErr
	}
	return body, nil
}

func (c *Client) fetchHTTP(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.http.R().
		SetContext(reqCtx).
		Get(url)
	if err != nil {
		return nil, errorutil.NewFetchError("http", url, err)
	}
	if !resp.IsSuccess() {
		return nil, errorutil.NewFetchError("http", url,
			fmt.Errorf("unexpected status %d", resp.StatusCode()))
	}

	body := resp.Body()
	if !json.Valid(body) {
		return nil, errorutil.NewFetchError("http", url,
			fmt.Errorf("response is not valid JSON"))
	}
	return body, nil
}

func (c *Client) FetchCommand(ctx context.Context, url string, timeout time.Duration, agent string) ([]byte, error) {
	args := []string{
		"-s",
		"-m", strconv.Itoa(int(timeout.Seconds())),
		"-A", agent,
	}
	if c.opts.Proxy.NoProxyWildcard {
		args = append(args, "--noproxy", "*")
	}
	args = append(args, url)

	// Half a second of wall-clock slack over curl's own -m bound.
	out, err := c.runner.Run(ctx, timeout+500*time.Millisecond,
		c.opts.Proxy.Environ(c.baseEnv()), c.opts.CurlBinary, args...)
	if err != nil {
		return nil, errorutil.NewFetchError("command", url, err)
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return nil, errorutil.NewFetchError("command", url,
			fmt.Errorf("empty output from %s", c.opts.CurlBinary))
	}
	if !json.Valid(out) {
		return nil, errorutil.NewFetchError("command", url,
			fmt.Errorf("output is not valid JSON"))
	}
	return out, nil
}
