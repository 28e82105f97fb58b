package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/mmcdole/cineverse/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "Cineverse/1.0"
)

// HTTPError is a non-2xx response that has no dedicated sentinel
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

// HTTPFetcher performs the network GET behind the batcher
type HTTPFetcher struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPFetcher creates a fetcher. A zero timeout selects the default.
func NewHTTPFetcher(timeout time.Duration, logger *slog.Logger) *HTTPFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPFetcher{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Fetch performs a GET and maps failure statuses to domain errors
func (f *HTTPFetcher) Fetch(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	logURL := redact(reqURL)
	f.logger.Debug("tmdb request", "url", logURL)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		f.logger.Error("tmdb request failed", "url", logURL, "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, domain.ErrAuthFailed
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, domain.ErrRateLimited
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		f.logger.Error("tmdb request error", "status", resp.StatusCode, "body", string(body))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

// redact hides the api_key query parameter for logging
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has("api_key") {
		q.Set("api_key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
