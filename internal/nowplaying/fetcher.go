package nowplaying

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Fetcher is one way of getting the current track.
type Fetcher interface {
	FetchNowPlaying(ctx context.Context) (StreamMetadata, error)
}

type HTTPStatusError struct {
	Code int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP error %d", e.Code)
}

// HTTPFetcher reads the now-playing document with a plain GET. It is the
// default; JSONPFetcher is the compatibility path.
type HTTPFetcher struct {
	URL       string
	Mount     string
	StatusURL string // listener count source; empty keeps the payload's count
	Timeout   time.Duration
	Client    *http.Client
}

func (f *HTTPFetcher) FetchNowPlaying(ctx context.Context) (StreamMetadata, error) {
	ctx, cancel := withTimeout(ctx, f.Timeout)
	defer cancel()

	body, err := get(ctx, f.client(), f.URL)
	if err != nil {
		return StreamMetadata{}, fmt.Errorf("fetch now playing: %w", err)
	}
	meta, err := Parse(string(body), f.Mount)
	if err != nil {
		return StreamMetadata{}, err
	}
	if f.StatusURL != "" {
		meta.Listeners = Listeners(ctx, f.client(), f.StatusURL)
	}
	return meta, nil
}

func (f *HTTPFetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
