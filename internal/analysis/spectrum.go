// Package analysis provides frequency-domain checks on recorded telemetry,
// mainly for judging sensor noise before identification.
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// Spectrum is a one-sided power spectrum. Power[0] is the DC bin.
type Spectrum struct {
	Freqs []float64 // Hz
	Power []float64
}

// PowerSpectrum computes the one-sided spectrum of a uniformly sampled
// signal. The mean is removed and a Hann window applied before the
// transform; the input is zero-padded to a power of two.
func PowerSpectrum(data []float64, sampleRate float64) (*Spectrum, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("need at least 8 samples, got %d", len(data))
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate %g must be > 0", sampleRate)
	}

	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	n := 1
	for n < len(data) {
		n *= 2
	}
	buf := make([]float64, n)
	for i, v := range data {
		buf[i] = v - mean
	}
	window.Apply(buf[:len(data)], window.Hann)

	bins := fft.FFTReal(buf)

	half := n / 2
	s := &Spectrum{
		Freqs: make([]float64, half),
		Power: make([]float64, half),
	}
	for i := 0; i < half; i++ {
		s.Freqs[i] = float64(i) * sampleRate / float64(n)
		mag := cmplx.Abs(bins[i])
		s.Power[i] = mag * mag / float64(n)
	}
	return s, nil
}

// Dominant returns the strongest non-DC component.
func (s *Spectrum) Dominant() (freq, power float64) {
	for i := 1; i < len(s.Power); i++ {
		if s.Power[i] > power {
			power = s.Power[i]
			freq = s.Freqs[i]
		}
	}
	return freq, power
}

// NoiseRMS is the standard deviation of the signal about its mean, a quick
// figure for how noisy a sensor channel is at rest.
func NoiseRMS(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	ss := 0.0
	for _, v := range data {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(data)))
}

// SampleRate estimates the rate of a timestamped series from the mean
// spacing.
func SampleRate(times []float64) float64 {
	if len(times) < 2 {
		return 0
	}
	span := times[len(times)-1] - times[0]
	if span <= 0 {
		return 0
	}
	return float64(len(times)-1) / span
}
