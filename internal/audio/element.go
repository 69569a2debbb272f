package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/babycommando/spazradio-cli/internal/config"
	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
	"github.com/rs/zerolog/log"
)

var ErrNotAttached = errors.New("audio: element not attached to a graph")

const (
	userAgent  = "spazradio-cli"
	retryDelay = 250 * time.Millisecond
)

type Decoder func(io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

var decoders = map[string]Decoder{
	"audio/ogg":  vorbis.Decode,
	"audio/mpeg": mp3.Decode,
	"audio/wav": func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
		return wav.Decode(rc)
	},
}

type EventKind int

const (
	Ended EventKind = iota
	Failed
)

func (k EventKind) String() string {
	if k == Failed {
		return "error"
	}
	return "ended"
}

// Event reports how the current stream stopped on its own.
type Event struct {
	Kind EventKind
	Err  error
}

// Element is the media element: it dials the station sources in order and
// feeds the first one that decodes into the attached graph.
type Element struct {
	sources  []config.Source
	client   *http.Client
	attempts int

	mu      sync.Mutex
	sink    Sink
	stream  beep.StreamSeekCloser
	cancel  context.CancelFunc
	session uint64
	events  chan Event
}

func NewElement(sources []config.Source, attempts int) *Element {
	if attempts < 1 {
		attempts = 1
	}
	return &Element{
		sources:  sources,
		attempts: attempts,
		client: &http.Client{
			Timeout: 0, // streams are long-lived
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 15 * time.Second,
				DisableCompression:    true,
			},
		},
		events: make(chan Event, 4),
	}
}

// Attach wires the element into a graph. Later calls replace the sink.
func (e *Element) Attach(s Sink) {
	e.mu.Lock()
	e.sink = s
	e.mu.Unlock()
}

func (e *Element) Events() <-chan Event {
	return e.events
}

// Play stops whatever is playing and starts the first working source.
// ctx bounds connecting only; the stream itself lives until Pause.
func (e *Element) Play(ctx context.Context) error {
	e.mu.Lock()
	sink := e.sink
	e.stopLocked()
	e.mu.Unlock()
	if sink == nil {
		return ErrNotAttached
	}

	var errs []error
	for _, src := range e.sources {
		streamCtx, cancel := context.WithCancel(context.Background())
		stop := context.AfterFunc(ctx, cancel)
		s, format, err := e.dial(ctx, streamCtx, src)
		stop()
		if err != nil {
			cancel()
			log.Warn().Err(err).Str("url", src.URL).Msg("Source failed, trying next")
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		var playing beep.Streamer = s
		if format.SampleRate != sink.SampleRate() {
			playing = beep.Resample(4, format.SampleRate, sink.SampleRate(), s)
		}

		e.mu.Lock()
		e.session++
		id := e.session
		e.stream, e.cancel = s, cancel
		sink.Connect(playing, func(err error) { e.finish(id, err) })
		e.mu.Unlock()

		log.Info().Str("url", src.URL).Int("rate", int(format.SampleRate)).Msg("Stream connected")
		return nil
	}
	return fmt.Errorf("no playable source: %w", errors.Join(errs...))
}

// Pause drops the connection; a live stream resumes at the live edge on the next Play.
func (e *Element) Pause() {
	e.mu.Lock()
	e.stopLocked()
	e.mu.Unlock()
}

func (e *Element) stopLocked() {
	e.session++
	if e.sink != nil {
		e.sink.Disconnect()
	}
	if e.stream != nil {
		_ = e.stream.Close()
		e.stream = nil
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

func (e *Element) finish(id uint64, err error) {
	e.mu.Lock()
	if id != e.session {
		e.mu.Unlock()
		return
	}
	e.stopLocked()
	e.mu.Unlock()

	ev := Event{Kind: Ended}
	if err != nil {
		ev = Event{Kind: Failed, Err: err}
	}
	select {
	case e.events <- ev:
	default:
	}
}

func (e *Element) dial(ctx, streamCtx context.Context, src config.Source) (beep.StreamSeekCloser, beep.Format, error) {
	decode, ok := decoders[src.MediaType()]
	if !ok {
		return nil, beep.Format{}, fmt.Errorf("unsupported media type %q", src.MediaType())
	}

	var err error
	for i := 0; i < e.attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, beep.Format{}, ctx.Err()
			case <-time.After(retryDelay):
			}
		}

		var req *http.Request
		req, err = http.NewRequestWithContext(streamCtx, http.MethodGet, src.URL, nil)
		if err != nil {
			return nil, beep.Format{}, err
		}
		req.Header.Set("User-Agent", userAgent)

		var resp *http.Response
		resp, err = e.client.Do(req)
		if err != nil {
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			resp.Body.Close()
			err = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
			continue
		}

		var s beep.StreamSeekCloser
		var format beep.Format
		s, format, err = decode(resp.Body)
		if err == nil {
			return s, format, nil
		}
		resp.Body.Close()
	}
	return nil, beep.Format{}, err
}
