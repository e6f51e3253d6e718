package wkd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client fetches raw credential bytes over the directory protocol.
type Client struct {
	http *http.Client
}

// NewClient builds a client whose requests are bounded by timeout; a zero
// timeout leaves requests unbounded.
func NewClient(timeout time.Duration) *Client {
	return &Client{http: &http.Client{Timeout: timeout}}
}

// Fetch derives the lookup URL for email and retrieves the credential.
func (c *Client) Fetch(ctx context.Context, email string) ([]byte, error) {
	u, err := AdvancedURL(email)
	if err != nil {
		return nil, err
	}
	return c.FetchURL(ctx, u)
}

// FetchURL retrieves raw credential bytes from an already derived URL. Any
// non-2xx status is a failure.
func (c *Client) FetchURL(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building wkd request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending wkd request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("wkd server returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading wkd response: %w", err)
	}
	return body, nil
}
