package categorize

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"google.golang.org/genai"
)

// Default retry policy for service submissions.
const (
	DefaultMaxAttempts = 6
	DefaultBaseDelay   = time.Second
)

// generate submits the prompt with bounded retries on transient failures:
// transport errors, rate limiting and server-side 5xx. The wait between
// attempts honors a service-supplied retry hint when one is present, and
// falls back to exponential backoff with a small random jitter otherwise.
// Once the attempt ceiling is reached the last error is surfaced.
func (c *Categorizer) generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxAttempts(); attempt++ {
		if attempt > 0 {
			c.sleep(c.wait(lastErr, attempt-1))
		}
		out, err := c.Gen.Generate(ctx, prompt)
		if err == nil {
			return out, nil
		}
		if !retryable(err) {
			return "", err
		}
		lastErr = err
	}
	return "", lastErr
}

// retryable reports whether a submission failure is worth another attempt.
// API errors are retried only on rate limiting and server-side failures;
// anything non-API is treated as a transport hiccup, except an expired or
// canceled context.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	return true
}

// wait computes the delay before the next attempt.
func (c *Categorizer) wait(err error, attempt int) time.Duration {
	if hint, ok := retryHint(err); ok {
		return hint
	}
	base := c.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	jitter := rand.Float64
	if c.Jitter != nil {
		jitter = c.Jitter
	}
	d := base * time.Duration(1<<attempt)
	return d + time.Duration(jitter()*float64(base))
}

// retryHint extracts a service-supplied retry delay from the loosely typed
// detail payloads of an API error ("retryDelay": "17s" in a RetryInfo
// detail). The details are free-shaped JSON objects, probed with jsonpath
// rather than dedicated structs.
func retryHint(err error) (time.Duration, bool) {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return 0, false
	}
	for _, detail := range apiErr.Details {
		kind, _ := detail["@type"].(string)
		if !strings.Contains(kind, "RetryInfo") {
			continue
		}
		jval, perr := jsonpath.Get("$.retryDelay", map[string]interface{}(detail))
		if perr != nil {
			continue
		}
		raw, ok := jval.(string)
		if !ok {
			continue
		}
		if d, perr := time.ParseDuration(raw); perr == nil && d > 0 {
			return d, true
		}
	}
	return 0, false
}

func (c *Categorizer) maxAttempts() int {
	if c.MaxAttempts > 0 {
		return c.MaxAttempts
	}
	return DefaultMaxAttempts
}

func (c *Categorizer) sleep(d time.Duration) {
	if c.Sleep != nil {
		c.Sleep(d)
		return
	}
	time.Sleep(d)
}
