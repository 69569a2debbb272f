package visualizer

import (
	"fmt"
	"strings"
)

// Source is the read-only analyser the renderer pulls samples from.
type Source interface {
	FFTSize() int
	ByteTimeDomainData(dst []byte)
	ByteFrequencyData(dst []byte)
}

type Mode int

const (
	ModeOff Mode = iota
	ModeOscilloscope
	ModeSpectrum
)

func (m Mode) String() string {
	switch m {
	case ModeOscilloscope:
		return "oscilloscope"
	case ModeSpectrum:
		return "spectrum"
	default:
		return "off"
	}
}

// Next cycles oscilloscope -> spectrum -> off -> oscilloscope.
func (m Mode) Next() Mode {
	switch m {
	case ModeOscilloscope:
		return ModeSpectrum
	case ModeSpectrum:
		return ModeOff
	default:
		return ModeOscilloscope
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "oscilloscope", "on", "":
		return ModeOscilloscope, nil
	case "spectrum":
		return ModeSpectrum, nil
	case "off":
		return ModeOff, nil
	}
	return ModeOff, fmt.Errorf("unknown visualizer mode %q", s)
}

// Fade is the alpha erased from the previous frames on every frame.
const Fade = 0.2

type Renderer struct {
	surface Surface
	source  Source
	mode    Mode

	top, bottom float64
	data        []byte
}

func NewRenderer(s Surface, mode Mode) *Renderer {
	return &Renderer{surface: s, mode: mode}
}

func (r *Renderer) SetSource(src Source) {
	r.source = src
	if src != nil {
		r.data = make([]byte, src.FFTSize())
	}
}

func (r *Renderer) Source() Source { return r.source }
func (r *Renderer) SetMode(m Mode) { r.mode = m }
func (r *Renderer) Mode() Mode     { return r.mode }
func (r *Renderer) Enabled() bool  { return r.mode != ModeOff }

func (r *Renderer) Margins() (float64, float64) { return r.top, r.bottom }

// SetMargins keeps the trace out of the top and bottom pixel bands.
func (r *Renderer) SetMargins(top, bottom float64) {
	r.top, r.bottom = max(top, 0), max(bottom, 0)
}

// Active reports whether frames draw anything.
func (r *Renderer) Active() bool {
	return r.Enabled() && r.source != nil
}

// Frame draws one frame and reports whether it did.
func (r *Renderer) Frame() bool {
	if !r.Active() {
		return false
	}
	width, height := r.surface.Size()
	if width == 0 || height == 0 {
		return false
	}

	r.surface.FadeOut(Fade)

	w, h := float64(width), float64(height)
	band := max(0, h-r.top-r.bottom)
	center := r.top + band/2

	switch r.mode {
	case ModeSpectrum:
		r.spectrum(w, band)
	default:
		r.oscilloscope(w, center, band/2)
	}
	return true
}

func (r *Renderer) oscilloscope(width, center, amplitude float64) {
	r.source.ByteTimeDomainData(r.data)
	n := len(r.data)
	slice := width / float64(n)

	r.surface.BeginPath()
	for i, b := range r.data {
		v := float64(b) / 128.0
		y := (v-1)*amplitude + center
		x := float64(i) * slice
		if i == 0 {
			r.surface.MoveTo(x, y)
		} else {
			r.surface.LineTo(x, y)
		}
	}
	r.surface.LineTo(width, center)
	r.surface.Stroke()
}

// spectrum draws one bar per pixel column over the lower half of the bins,
// where most of the music is.
func (r *Renderer) spectrum(width, band float64) {
	bins := r.data[:len(r.data)/2]
	r.source.ByteFrequencyData(bins)
	base := r.top + band
	cols := int(width)
	used := max(len(bins)/2, 1)

	r.surface.BeginPath()
	for x := 0; x < cols; x++ {
		v := float64(bins[x*used/cols]) / 255
		if v == 0 {
			continue
		}
		r.surface.MoveTo(float64(x), base)
		r.surface.LineTo(float64(x), base-v*band)
	}
	r.surface.Stroke()
}
