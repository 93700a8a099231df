package utils

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// HTTPFetcher downloads source files. Requests are not retried.
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher creates a fetcher using the default HTTP client
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{Client: http.DefaultClient}
}

// Fetch issues a GET request and returns the status code with the body.
// The caller must close the body.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (int, io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid request for %s: %w", url, err)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return 0, nil, err
	}

	return resp.StatusCode, resp.Body, nil
}
