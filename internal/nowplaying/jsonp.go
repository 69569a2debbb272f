package nowplaying

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrNoCallback = errors.New("jsonp: payload is not a registered callback")
	ErrClosed     = errors.New("jsonp: callbacks closed")
)

var callRe = regexp.MustCompile(`^\s*([A-Za-z_$][\w$]*)\s*\(`)

// Callbacks is the registry JSONP responses are dispatched through. Each poll
// registers a single-use name, and the name is dropped after the grace period
// following the response, right away on error, or on Close.
type Callbacks struct {
	grace time.Duration

	mu     sync.Mutex
	slots  map[string]func(string)
	timers map[string]*time.Timer
	closed bool
}

func NewCallbacks(grace time.Duration) *Callbacks {
	return &Callbacks{
		grace:  grace,
		slots:  make(map[string]func(string)),
		timers: make(map[string]*time.Timer),
	}
}

// Register returns a fresh callback name bound to fn.
func (c *Callbacks) Register(prefix string, fn func(payload string)) (string, error) {
	name := prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return "", ErrClosed
	}
	c.slots[name] = fn
	return name, nil
}

// Dispatch runs the callback named by the script with its argument text.
func (c *Callbacks) Dispatch(script string) error {
	m := callRe.FindStringSubmatch(script)
	if m == nil {
		return ErrNoCallback
	}
	end := strings.LastIndexByte(script, ')')
	if end < len(m[0]) {
		return ErrNoCallback
	}

	c.mu.Lock()
	fn, ok := c.slots[m[1]]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoCallback, m[1])
	}
	fn(script[len(m[0]):end])
	return nil
}

// Release drops name after the grace period.
func (c *Callbacks) Release(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.slots[name]; !ok || c.closed {
		return
	}
	if t, ok := c.timers[name]; ok {
		t.Stop()
	}
	c.timers[name] = time.AfterFunc(c.grace, func() { c.Remove(name) })
}

// Remove drops name immediately.
func (c *Callbacks) Remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.slots, name)
	if t, ok := c.timers[name]; ok {
		t.Stop()
		delete(c.timers, name)
	}
}

func (c *Callbacks) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.slots)
}

// Close drops every registration and refuses new ones.
func (c *Callbacks) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for name, t := range c.timers {
		t.Stop()
		delete(c.timers, name)
	}
	clear(c.slots)
}

// JSONPFetcher polls the playing-jsonp endpoint through Callbacks.
type JSONPFetcher struct {
	URL       string
	Mount     string
	StatusURL string
	Timeout   time.Duration
	Client    *http.Client
	Callbacks *Callbacks

	now func() time.Time
}

func (f *JSONPFetcher) FetchNowPlaying(ctx context.Context) (StreamMetadata, error) {
	ctx, cancel := withTimeout(ctx, f.Timeout)
	defer cancel()

	var (
		meta   StreamMetadata
		parsed error = ErrParse
	)
	name, err := f.Callbacks.Register("update_meta", func(payload string) {
		meta, parsed = Parse(payload, f.Mount)
	})
	if err != nil {
		return StreamMetadata{}, err
	}

	script, err := get(ctx, f.client(), f.scriptURL(name))
	if err != nil {
		f.Callbacks.Remove(name)
		return StreamMetadata{}, fmt.Errorf("load jsonp: %w", err)
	}
	if err := f.Callbacks.Dispatch(string(script)); err != nil {
		f.Callbacks.Remove(name)
		return StreamMetadata{}, err
	}
	f.Callbacks.Release(name)
	if parsed != nil {
		return StreamMetadata{}, parsed
	}

	if f.StatusURL != "" {
		meta.Listeners = Listeners(ctx, f.client(), f.StatusURL)
	}
	log.Debug().Str("callback", name).Str("title", meta.Title).Msg("JSONP metadata")
	return meta, nil
}

func (f *JSONPFetcher) scriptURL(name string) string {
	now := time.Now
	if f.now != nil {
		now = f.now
	}
	q := url.Values{}
	q.Set("callback", name)
	q.Set("_", strconv.FormatInt(now().UnixMilli(), 10))
	sep := "?"
	if strings.Contains(f.URL, "?") {
		sep = "&"
	}
	return f.URL + sep + q.Encode()
}

func (f *JSONPFetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}
