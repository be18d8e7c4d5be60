// Package httpx executes outbound HTTP calls with bounded retries.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// HTTPError carries status and body for non-2xx responses.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: %s %s status=%d body=%s", e.Method, e.URL, e.StatusCode, snippet(e.Body, 512))
}

// RetryConfig controls retry behaviour.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Jitter is the upper bound of random delay added to computed backoff.
	Jitter        time.Duration
	RetryStatuses map[int]bool
	Retry5xx      bool
}

// DefaultRetryConfig retries throttling, timeouts and server errors.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 4,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
		Jitter:      250 * time.Millisecond,
		Retry5xx:    true,
		RetryStatuses: map[int]bool{
			http.StatusTooManyRequests: true,
			http.StatusRequestTimeout:  true,
		},
	}
}

// Do executes the request built by buildReq, retrying transient failures. The
// body is always drained so connections can be reused.
func Do(ctx context.Context, client *http.Client, buildReq func(context.Context) (*http.Request, error), cfg RetryConfig) ([]byte, error) {
	cfg = normalise(cfg)

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		req, err := buildReq(ctx)
		if err != nil {
			return nil, err
		}

		resp, err := client.Do(req)
		if err != nil {
			if !isRetryableNetErr(err) {
				return nil, err
			}
			lastErr = err
			if err := backoff(ctx, attempt, cfg, 0); err != nil {
				return nil, err
			}
			continue
		}

		body, readErr := readAndClose(resp.Body)
		if readErr != nil {
			lastErr = readErr
			if !isRetryableNetErr(readErr) {
				return nil, readErr
			}
			if err := backoff(ctx, attempt, cfg, 0); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}

		herr := &HTTPError{Method: req.Method, URL: req.URL.String(), StatusCode: resp.StatusCode, Body: body}
		if !isRetryableStatus(resp.StatusCode, cfg) {
			return nil, herr
		}
		lastErr = herr
		if err := backoff(ctx, attempt, cfg, ParseRetryAfter(resp)); err != nil {
			return nil, err
		}
	}

	if lastErr == nil {
		lastErr = errors.New("httpx: request failed")
	}
	return nil, lastErr
}

// DoJSON runs Do and decodes a JSON body into out.
func DoJSON(ctx context.Context, client *http.Client, buildReq func(context.Context) (*http.Request, error), out any, cfg RetryConfig) error {
	body, err := Do(ctx, client, buildReq, cfg)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode json: %w body=%s", err, snippet(body, 512))
	}
	return nil
}

// ParseRetryAfter parses Retry-After as seconds or an HTTP date; 0 when absent.
func ParseRetryAfter(resp *http.Response) time.Duration {
	v := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func normalise(cfg RetryConfig) RetryConfig {
	def := DefaultRetryConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if cfg.RetryStatuses == nil {
		cfg.RetryStatuses = def.RetryStatuses
	}
	return cfg
}

// backoff sleeps before the next attempt; no sleep follows the final attempt.
func backoff(ctx context.Context, attempt int, cfg RetryConfig, retryAfter time.Duration) error {
	if attempt >= cfg.MaxAttempts {
		return nil
	}
	sleep := retryAfter
	if sleep <= 0 {
		sleep = cfg.BaseDelay * time.Duration(1<<(attempt-1))
		if sleep > cfg.MaxDelay {
			sleep = cfg.MaxDelay
		}
		if cfg.Jitter > 0 {
			sleep += time.Duration(rand.Int63n(int64(cfg.Jitter)))
		}
	}

	t := time.NewTimer(sleep)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func isRetryableStatus(code int, cfg RetryConfig) bool {
	if cfg.RetryStatuses[code] {
		return true
	}
	return cfg.Retry5xx && code >= 500 && code <= 599
}

func isRetryableNetErr(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return nerr.Timeout()
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") || strings.Contains(msg, "broken pipe")
}

func readAndClose(rc io.ReadCloser) ([]byte, error) {
	defer rc.Close()
	return io.ReadAll(rc)
}

func snippet(b []byte, max int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
