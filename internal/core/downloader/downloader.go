// Package downloader retrieves remote content over HTTP(S) with retries.
package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Client wraps a retrying HTTP client.
type Client struct {
	http *retryablehttp.Client
}

// New returns a Client that retries transient failures up to retries times.
func New(retries int) *Client {
	c := retryablehttp.NewClient()
	c.RetryMax = retries
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 5 * time.Second
	c.Logger = nil
	// Hand the final response back so status codes are reported by us.
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return &Client{http: c}
}

// Fetch returns the body of url.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	body, err := c.open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	content, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body from %s: %w", url, err)
	}
	return content, nil
}

// DownloadToFile streams url into destPath, creating or truncating it.
func (c *Client) DownloadToFile(ctx context.Context, url, destPath string) (err error) {
	body, err := c.open(ctx, url)
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }()

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", destPath, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close file %s: %w", destPath, cerr)
		}
	}()

	if _, err := io.Copy(out, body); err != nil {
		return fmt.Errorf("failed to read response body from %s: %w", url, err)
	}
	return nil
}

func (c *Client) open(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", url, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		return nil, fmt.Errorf("failed to perform GET request to %s: %w", url, err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("failed to download from %s: received status code %d", url, resp.StatusCode)
	}
	return resp.Body, nil
}
