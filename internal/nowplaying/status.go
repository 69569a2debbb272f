package nowplaying

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
)

type statusDoc struct {
	Icestats struct {
		Source json.RawMessage `json:"source"`
	} `json:"icestats"`
}

type statusSource struct {
	Listeners count `json:"listeners"`
}

// ParseListeners reads the first source's listener count from an Icecast
// status-json document. source may be an object or an array of objects.
func ParseListeners(data []byte) (int, error) {
	var doc statusDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("decode status: %w", err)
	}
	raw := bytes.TrimSpace(doc.Icestats.Source)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, fmt.Errorf("status: no source")
	}

	var src statusSource
	if raw[0] == '[' {
		var list []statusSource
		if err := json.Unmarshal(raw, &list); err != nil {
			return 0, fmt.Errorf("decode status sources: %w", err)
		}
		if len(list) == 0 {
			return 0, fmt.Errorf("status: empty source list")
		}
		src = list[0]
	} else if err := json.Unmarshal(raw, &src); err != nil {
		return 0, fmt.Errorf("decode status source: %w", err)
	}
	if src.Listeners < 0 {
		return 0, nil
	}
	return int(src.Listeners), nil
}

// Listeners fetches the listener count. Any failure counts as zero listeners.
func Listeners(ctx context.Context, client *http.Client, statusURL string) int {
	n, err := fetchListeners(ctx, client, statusURL)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to fetch listener count")
		return 0
	}
	return n
}

func fetchListeners(ctx context.Context, client *http.Client, statusURL string) (int, error) {
	body, err := get(ctx, client, statusURL)
	if err != nil {
		return 0, err
	}
	return ParseListeners(body)
}

func get(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "*/*")
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPStatusError{Code: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}
