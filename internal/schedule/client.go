// Package schedule fetches the upcoming shows once and formats them for display.
package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	ErrTimeout  = errors.New("schedule request timed out")
	ErrCanceled = errors.New("schedule request aborted")
	ErrDecode   = errors.New("schedule response is not valid JSON")
)

type HTTPStatusError struct {
	Code int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP error %d", e.Code)
}

// Fetcher returns display-ready shows.
type Fetcher interface {
	Fetch(ctx context.Context) ([]Item, error)
}

type Client struct {
	URL      string
	Timeout  time.Duration
	Location *time.Location
	HTTP     *http.Client
}

func (c *Client) Fetch(ctx context.Context) ([]Item, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPStatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(ctx, err)
	}
	var shows []RawShow
	if err := json.Unmarshal(body, &shows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return FormatShows(shows, loc), nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ErrTimeout
	case errors.Is(ctx.Err(), context.Canceled):
		return ErrCanceled
	default:
		return fmt.Errorf("schedule request failed: %w", err)
	}
}
