package audio

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/faiface/beep"
	"github.com/mjibson/go-dsp/fft"
)

const (
	// FFTSize is the number of samples captured per frame.
	FFTSize = 2048

	minDecibels = -100.0
	maxDecibels = -30.0
)

// Analysis is the read-only view of the analyser handed to consumers.
type Analysis interface {
	FFTSize() int
	ByteTimeDomainData(dst []byte)
	ByteFrequencyData(dst []byte)
}

// Analyser sits between the source and the output and copies a mono mix of
// everything that passes through into a ring buffer.
type Analyser struct {
	s beep.Streamer

	mu   sync.Mutex
	buf  []float64
	pos  int
	size int
}

func NewAnalyser(s beep.Streamer, size int) *Analyser {
	return &Analyser{
		s:    s,
		buf:  make([]float64, size),
		size: size,
	}
}

func (a *Analyser) Stream(samples [][2]float64) (int, bool) {
	n, ok := a.s.Stream(samples)
	a.mu.Lock()
	for i := range n {
		a.buf[a.pos] = (samples[i][0] + samples[i][1]) * 0.5
		a.pos = (a.pos + 1) % a.size
	}
	a.mu.Unlock()
	return n, ok
}

func (a *Analyser) Err() error {
	return a.s.Err()
}

func (a *Analyser) FFTSize() int {
	return a.size
}

// FrequencyBinCount is half the FFT size.
func (a *Analyser) FrequencyBinCount() int {
	return a.size / 2
}

// samples copies the last len(dst) samples in chronological order.
func (a *Analyser) samples(dst []float64) {
	n := len(dst)
	if n > a.size {
		n = a.size
	}
	a.mu.Lock()
	start := (a.pos - n + a.size) % a.size
	for i := range n {
		dst[i] = a.buf[(start+i)%a.size]
	}
	a.mu.Unlock()
}

// ByteTimeDomainData fills dst with the most recent samples scaled to 0..255,
// where 128 is silence.
func (a *Analyser) ByteTimeDomainData(dst []byte) {
	tmp := make([]float64, len(dst))
	a.samples(tmp)
	for i, v := range tmp {
		dst[i] = sampleToByte(v)
	}
}

// ByteFrequencyData fills dst with magnitudes per frequency bin scaled to 0..255
// between minDecibels and maxDecibels.
func (a *Analyser) ByteFrequencyData(dst []byte) {
	window := make([]float64, a.size)
	a.samples(window)
	for i := range window {
		window[i] *= hann(i, a.size)
	}

	spectrum := fft.FFTReal(window)
	bins := a.FrequencyBinCount()
	for i := range dst {
		if i >= bins {
			dst[i] = 0
			continue
		}
		mag := cmplx.Abs(spectrum[i]) / float64(a.size)
		dst[i] = decibelsToByte(20 * math.Log10(mag))
	}
}

func sampleToByte(v float64) byte {
	b := math.Round(128 * (1 + v))
	switch {
	case b < 0:
		return 0
	case b > 255:
		return 255
	}
	return byte(b)
}

func decibelsToByte(db float64) byte {
	if math.IsInf(db, -1) || math.IsNaN(db) || db <= minDecibels {
		return 0
	}
	if db >= maxDecibels {
		return 255
	}
	return byte(255 * (db - minDecibels) / (maxDecibels - minDecibels))
}

func hann(i, n int) float64 {
	return 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
}
