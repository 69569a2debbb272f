package schedule

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatShowItem(t *testing.T) {
	// 2023-11-14 22:13:20 UTC, a Tuesday
	const start = int64(1700000000000)
	item := FormatShowItem(start, start+2*int64(time.Hour/time.Millisecond), "Rock &amp; Roll", time.UTC)

	assert.Equal(t, Item{
		DatePart:  "Tue 11-14",
		StartTime: "10:13p",
		EndTime:   "12:13a",
		ShowName:  "Rock & Roll",
	}, item)
	assert.Equal(t, "Tue 11-14 10:13p – 12:13a — Rock & Roll", item.String())
}

func TestFormatShowItemTimezone(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	item := FormatShowItem(1700000000000, 1700000000000, "DJ&#039;s Mix", loc)
	assert.Equal(t, "Tue 11-14", item.DatePart)
	assert.Equal(t, "05:13p", item.StartTime)
	assert.Equal(t, "DJ's Mix", item.ShowName)
}

func TestClock(t *testing.T) {
	tests := []struct {
		h, m int
		want string
	}{
		{0, 0, "12:00a"},
		{0, 5, "12:05a"},
		{9, 7, "09:07a"},
		{11, 59, "11:59a"},
		{12, 0, "12:00p"},
		{13, 30, "01:30p"},
		{23, 59, "11:59p"},
	}
	for _, tt := range tests {
		got := clock(time.Date(2024, 1, 1, tt.h, tt.m, 0, 0, time.UTC))
		assert.Equal(t, tt.want, got)
	}
}

func TestFormatShowsKeepsOrder(t *testing.T) {
	shows := []RawShow{
		{StartTimestamp: 1700090000000, EndTimestamp: 1700093600000, Name: "Later"},
		{StartTimestamp: 1700000000000, EndTimestamp: 1700003600000, Name: "Earlier"},
	}
	items := FormatShows(shows, time.UTC)
	require.Len(t, items, 2)
	assert.Equal(t, "Later", items[0].ShowName)
	assert.Equal(t, "Earlier", items[1].ShowName)

	assert.Empty(t, FormatShows(nil, time.UTC))
}

func TestClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"start_timestamp":1700000000000,"end_timestamp":1700007200000,"name":"Night &amp; Day","url":"https://radio.spaz.org/x"}]`)
	}))
	defer srv.Close()

	items, err := (&Client{URL: srv.URL, Location: time.UTC}).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Night & Day", items[0].ShowName)
	assert.Equal(t, "12:13a", items[0].EndTime)
}

func TestClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/busy":
			w.WriteHeader(http.StatusServiceUnavailable)
		case "/garbage":
			fmt.Fprint(w, "<html>")
		case "/slow":
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
			}
		}
	}))
	defer srv.Close()

	_, err := (&Client{URL: srv.URL + "/busy"}).Fetch(context.Background())
	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 503, statusErr.Code)
	assert.Contains(t, err.Error(), "503")

	_, err = (&Client{URL: srv.URL + "/garbage"}).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrDecode)

	_, err = (&Client{URL: srv.URL + "/slow", Timeout: 30 * time.Millisecond}).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)
	_, err = (&Client{URL: srv.URL + "/slow"}).Fetch(ctx)
	assert.ErrorIs(t, err, ErrCanceled)

	_, err = (&Client{URL: "http://127.0.0.1:1/droid"}).Fetch(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrTimeout)
}

type delayedFetcher struct {
	delay   time.Duration
	items   []Item
	err     error
	aborted chan struct{}
}

func (d *delayedFetcher) Fetch(ctx context.Context) ([]Item, error) {
	select {
	case <-time.After(d.delay):
		return d.items, d.err
	case <-ctx.Done():
		if d.aborted != nil {
			close(d.aborted)
		}
		return nil, ErrCanceled
	}
}

func drain(t *testing.T, ch <-chan State) []State {
	t.Helper()
	var states []State
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s, ok := <-ch:
			if !ok {
				return states
			}
			states = append(states, s)
		case <-timeout:
			t.Fatal("loader never finished")
		}
	}
}

func TestLoaderPublishesLoadingThenLoaded(t *testing.T) {
	l := NewLoader(&delayedFetcher{items: []Item{{ShowName: "A"}}})
	states := drain(t, l.Start(context.Background()))

	require.Len(t, states, 2)
	assert.True(t, states[0].Loading())
	assert.Equal(t, StatusLoaded, states[1].Status)
	assert.Equal(t, "A", states[1].Items[0].ShowName)
	assert.Empty(t, states[1].Reason())
}

func TestLoaderEmptyAndFailed(t *testing.T) {
	states := drain(t, NewLoader(&delayedFetcher{items: []Item{}}).Start(context.Background()))
	require.Len(t, states, 2)
	assert.Equal(t, StatusLoaded, states[1].Status)
	assert.Empty(t, states[1].Items)

	states = drain(t, NewLoader(&delayedFetcher{err: &HTTPStatusError{Code: 503}}).Start(context.Background()))
	require.Len(t, states, 2)
	assert.Equal(t, StatusFailed, states[1].Status)
	assert.Equal(t, "HTTP error 503", states[1].Reason())
}

func TestLoaderStopBeforeResponse(t *testing.T) {
	f := &delayedFetcher{delay: time.Second, items: []Item{{ShowName: "late"}}, aborted: make(chan struct{})}
	l := NewLoader(f)
	ch := l.Start(context.Background())
	l.Stop()

	select {
	case <-f.aborted:
	case <-time.After(time.Second):
		t.Fatal("request not aborted")
	}

	states := drain(t, ch)
	require.Len(t, states, 1)
	assert.True(t, states[0].Loading())
}
