// Package llmclient implements the LLM HTTP client: a JSON-over-HTTP
// request helper with merged timeout/cancel signals, jittered exponential
// backoff retries, and a normalized error taxonomy.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/acta-run/acta-core/internal/acterr"
)

const (
	// DefaultTimeout is the per-attempt request timeout.
	DefaultTimeout = 30 * time.Second
	// DefaultBaseDelay is the first retry's sleep floor.
	DefaultBaseDelay = 250 * time.Millisecond
	// DefaultMaxDelay caps the exponential backoff sleep.
	DefaultMaxDelay = 2000 * time.Millisecond
	// maxBodySnippet bounds the preserved body text on parse failure.
	maxBodySnippet = 2000
)

// scrubbedParams is the case-sensitive set of query keys redacted from any
// URL placed in debug/log fields.
var scrubbedParams = map[string]bool{
	"key": true, "api_key": true, "apikey": true, "access_token": true,
	"token": true, "auth": true, "authorization": true,
}

// Options configures a single requestJson call.
type Options struct {
	Method    string
	Headers   map[string]string
	Body      any
	TimeoutMs int
	Retries   int
	Provider  string
	RequestID string
}

// Client issues JSON HTTP requests with retry and normalized errors.
type Client struct {
	httpClient *http.Client
}

// New returns a Client using a fresh http.Client with no overall deadline
// (per-request timeouts are enforced via context instead).
func New() *Client {
	return &Client{httpClient: &http.Client{}}
}

// RequestJSON performs a single logical request (with retries per opts),
// decoding a 2xx JSON response body into a value of type T.
func RequestJSON[T any](ctx context.Context, c *Client, rawURL string, opts Options) (T, error) {
	var zero T

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	timeout := DefaultTimeout
	if opts.TimeoutMs > 0 {
		timeout = time.Duration(opts.TimeoutMs) * time.Millisecond
	}

	var bodyBytes []byte
	if opts.Body != nil {
		b, err := json.Marshal(opts.Body)
		if err != nil {
			return zero, acterr.Wrap(acterr.CodeHTTPBadRequest, err)
		}
		bodyBytes = b
	}

	attempts := opts.Retries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleepWithBackoff(ctx, attempt-1); err != nil {
				return zero, err
			}
		}

		if err := ctx.Err(); err != nil {
			return zero, acterr.New(acterr.CodeLLMCancelled, "request cancelled before attempt")
		}

		result, err := c.attempt(ctx, method, rawURL, bodyBytes, opts, timeout)
		if err == nil {
			return decode[T](result)
		}
		lastErr = err

		var actErr *acterr.Error
		if e, ok := err.(*acterr.Error); ok {
			actErr = e
		}
		if actErr == nil || !actErr.Retryable {
			return zero, err
		}
	}
	return zero, lastErr
}

type rawResult struct {
	body []byte
}

func decode[T any](r rawResult) (T, error) {
	var v T
	if err := json.Unmarshal(r.body, &v); err != nil {
		snippet := string(r.body)
		if len(snippet) > maxBodySnippet {
			snippet = snippet[:maxBodySnippet]
		}
		return v, acterr.New(acterr.CodeHTTPInvalidJSON, fmt.Sprintf("invalid JSON body: %s", snippet))
	}
	return v, nil
}

func (c *Client) attempt(ctx context.Context, method, rawURL string, body []byte, opts Options, timeout time.Duration) (rawResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, rawURL, reader)
	if err != nil {
		return rawResult{}, acterr.Wrap(acterr.CodeHTTPBadRequest, err)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return rawResult{}, classifyTransportError(attemptCtx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return rawResult{}, classifyTransportError(attemptCtx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return rawResult{}, classifyStatus(resp.StatusCode)
	}
	return rawResult{body: data}, nil
}

func classifyTransportError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return acterr.New(acterr.CodeLLMCancelled, "request aborted")
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out") || strings.Contains(msg, "etimedout") {
		return acterr.Retryable(acterr.CodeHTTPTimeout, err.Error())
	}
	return acterr.Retryable(acterr.CodeHTTPConnectionFailed, err.Error())
}

func classifyStatus(status int) error {
	switch status {
	case 400:
		return acterr.New(acterr.CodeHTTPBadRequest, "bad request")
	case 401:
		return acterr.New(acterr.CodeHTTPUnauthorized, "unauthorized")
	case 403:
		return acterr.New(acterr.CodeHTTPForbidden, "forbidden")
	case 404:
		return acterr.New(acterr.CodeHTTPNotFound, "not found")
	case 429:
		return acterr.Retryable(acterr.CodeHTTPRateLimited, "rate limited")
	}
	if status >= 500 {
		return acterr.Retryable(acterr.CodeHTTPServerError, fmt.Sprintf("server error %d", status))
	}
	if status >= 408 && status <= 499 {
		return acterr.Retryable(acterr.CodeHTTPBadStatus, fmt.Sprintf("status %d", status))
	}
	return acterr.New(acterr.CodeHTTPBadStatus, fmt.Sprintf("status %d", status))
}

// sleepWithBackoff sleeps min(maxDelay, baseDelay*2^attempt) + jitter(0..50ms),
// returning early with an acterr.CodeLLMCancelled error if ctx is cancelled
// during the sleep.
func sleepWithBackoff(ctx context.Context, attempt int) error {
	delay := DefaultBaseDelay << attempt
	if delay > DefaultMaxDelay {
		delay = DefaultMaxDelay
	}
	jitter := time.Duration(rand.Intn(50)) * time.Millisecond
	timer := time.NewTimer(delay + jitter)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return acterr.New(acterr.CodeLLMCancelled, "cancelled during retry backoff")
	}
}

// ScrubURL redacts known-sensitive query parameters from rawURL for use in
// debug/log fields.
func ScrubURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	changed := false
	for key := range q {
		if scrubbedParams[key] {
			q.Set(key, "REDACTED")
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}
