package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/matzehuels/pzmod/pkg/buildinfo"
	"github.com/matzehuels/pzmod/pkg/errors"
	"github.com/matzehuels/pzmod/pkg/httputil"
	"github.com/matzehuels/pzmod/pkg/observability"
)

const (
	// DefaultBaseURL is the public Steam Web API host.
	DefaultBaseURL = "https://api.steampowered.com"

	// DefaultTimeout bounds a single HTTP round trip.
	DefaultTimeout = 10 * time.Second

	detailsPath = "/IPublishedFileService/GetDetails/v1/"
)

// Client provides access to the published file details endpoint.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	retry   httputil.Policy
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at another host (used by tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}

// WithRetryPolicy overrides [httputil.DefaultPolicy].
func WithRetryPolicy(p httputil.Policy) Option {
	return func(c *Client) { c.retry = p }
}

// NewClient creates a Client authenticating with apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: DefaultTimeout},
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		retry:   httputil.DefaultPolicy,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetDetails issues one batch request for ids and returns the records in the
// order the service lists them.
//
// Returns:
//   - FETCH_ERROR for a non-200 status (message carries the status text) or
//     an envelope without publishedfiledetails (message carries the
//     service's error field)
//   - NETWORK_ERROR wrapped in [httputil.RetryableError] if every transport
//     attempt failed
func (c *Client) GetDetails(ctx context.Context, ids []string) ([]PublishedFile, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	u, err := c.detailsURL(ids)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "invalid base URL %q", c.baseURL)
	}

	var env detailsEnvelope
	err = httputil.Retry(ctx, c.retry, func() error {
		return c.get(ctx, u, &env)
	})
	if err != nil {
		return nil, err
	}

	if env.Response.PublishedFileDetails == nil {
		msg := env.Response.Error
		if msg == "" {
			msg = "Unknown error"
		}
		return nil, errors.New(errors.ErrCodeFetch, "failed to fetch workshop items: %s", msg)
	}
	return env.Response.PublishedFileDetails, nil
}

func (c *Client) detailsURL(ids []string) (*url.URL, error) {
	u, err := url.Parse(c.baseURL + detailsPath)
	if err != nil {
		return nil, err
	}

	q := u.Query()
	q.Set("key", c.apiKey)
	q.Set("includetags", "true")
	q.Set("includechildren", "true")
	for i, id := range ids {
		q.Set("publishedfileids["+strconv.Itoa(i)+"]", id)
	}
	u.RawQuery = q.Encode()
	return u, nil
}

func (c *Client) get(ctx context.Context, u *url.URL, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, u.Host, u.Path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		// The URL carries the API key.
		if ue, ok := err.(*url.Error); ok {
			err = ue.Err
		}
		hooks.OnError(ctx, req.Method, u.Host, u.Path, err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "workshop request failed"))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, u.Host, u.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeFetch, err, "failed to fetch workshop items: malformed response")
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return errors.New(errors.ErrCodeFetch, "failed to fetch workshop items: %s (is the Steam API key valid?)", statusText(resp))
	case code == http.StatusTooManyRequests || code >= 500:
		return httputil.Retryable(errors.New(errors.ErrCodeFetch, "failed to fetch workshop items: %s", statusText(resp)))
	default:
		return errors.New(errors.ErrCodeFetch, "failed to fetch workshop items: %s", statusText(resp))
	}
}

// statusText mirrors the reason phrase of resp.Status, e.g. "Not Found".
func statusText(resp *http.Response) string {
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return fmt.Sprintf("status %d", resp.StatusCode)
}
