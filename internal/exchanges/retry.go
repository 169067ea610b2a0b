package exchanges

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	maxAttempts  = 3
	retryBase    = 1 * time.Second
	retryCeiling = 30 * time.Second
)

// retryable reports whether a response status warrants another attempt.
// Rate limits and server-side failures are transient; 4xx auth and
// validation errors are not.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// doWithRetry issues the request up to maxAttempts times, backing off
// exponentially between attempts. The request body must be rebuildable, so
// callers pass a factory instead of a request.
func doWithRetry(ctx context.Context, client *http.Client, build func() (*http.Request, error)) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := retryBase << (attempt - 1)
			if backoff > retryCeiling {
				backoff = retryCeiling
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := build()
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if retryable(resp.StatusCode) {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			lastErr = fmt.Errorf("exchange returned status %d: %s", resp.StatusCode, string(body))
			continue
		}
		return resp, nil
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", maxAttempts, lastErr)
}
