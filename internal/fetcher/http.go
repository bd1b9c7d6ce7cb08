package fetcher

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// httpClient is shared across downloads; the limiter keeps repeated
// scheduled runs polite toward the workbook host.
type httpClient struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	retries   int
}

func newHTTPClient(timeout time.Duration, requestsPerSec float64) *httpClient {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if requestsPerSec <= 0 {
		requestsPerSec = 2
	}
	return &httpClient{
		client:    &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Limit(requestsPerSec), 1),
		userAgent: "shop-dedupe/1.0",
		retries:   3,
	}
}

// openHTTP downloads a URL, retrying transient failures with a simple
// linear backoff. The caller must close the returned reader.
func (h *httpClient) openHTTP(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	var lastErr error
	for attempt := 0; attempt < h.retries; attempt++ {
		if err := h.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "http: rate limit wait")
		}
		if attempt > 0 {
			zap.L().Debug("http: retrying download",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt+1),
			)
			select {
			case <-ctx.Done():
				return nil, eris.Wrap(ctx.Err(), "http: cancelled")
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "http: build request")
		}
		req.Header.Set("User-Agent", h.userAgent)

		resp, err := h.client.Do(req)
		if err != nil {
			lastErr = eris.Wrapf(err, "http: get %s", rawURL)
			continue
		}
		if resp.StatusCode == http.StatusOK {
			return resp.Body, nil
		}
		_ = resp.Body.Close()
		lastErr = eris.Errorf("http: get %s: status %d", rawURL, resp.StatusCode)
		if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
			break // client errors won't heal on retry
		}
	}
	return nil, lastErr
}
