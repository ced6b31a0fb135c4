package internal

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Fetcher retrieves the raw content of a dataset. The returned stream is
// single-pass and forward-only; the caller closes it.
type Fetcher interface {
	Fetch(ctx context.Context, sourceID string) (io.ReadCloser, error)
}

// HTTPFetcher fetches datasets over HTTP using one shared client for all
// requests. The client is injected so tests can swap transports and so the
// whole run reuses connections.
type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, sourceID string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceID, nil)
	if err != nil {
		// A bad source URL is a per-dataset problem, like any other fetch
		// failure.
		return nil, &FetchError{URL: sourceID, Err: fmt.Errorf("building request: %w", err)}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: sourceID, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, &FetchError{URL: sourceID, StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}
