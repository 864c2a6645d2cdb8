package analysis

import (
	"math"
	"testing"
)

func TestPowerSpectrumFindsTone(t *testing.T) {
	const (
		rate = 100.0 // Hz
		tone = 12.5  // sits exactly on a bin for n = 256
	)
	data := make([]float64, 256)
	for i := range data {
		ti := float64(i) / rate
		data[i] = 3.0 + 2.0*math.Sin(2*math.Pi*tone*ti)
	}

	s, err := PowerSpectrum(data, rate)
	if err != nil {
		t.Fatalf("spectrum: %v", err)
	}

	freq, power := s.Dominant()
	if math.Abs(freq-tone) > rate/float64(len(data)) {
		t.Errorf("dominant at %.2f Hz, want %.2f", freq, tone)
	}
	if power <= 0 {
		t.Errorf("dominant power = %v", power)
	}
	// Mean removal keeps the offset out of the DC bin.
	if s.Power[0] > power/100 {
		t.Errorf("dc leakage: %v vs peak %v", s.Power[0], power)
	}
}

func TestPowerSpectrumRejectsShortInput(t *testing.T) {
	if _, err := PowerSpectrum([]float64{1, 2, 3}, 100); err == nil {
		t.Error("short input accepted")
	}
	if _, err := PowerSpectrum(make([]float64, 64), 0); err == nil {
		t.Error("zero sample rate accepted")
	}
}

func TestNoiseRMS(t *testing.T) {
	flat := []float64{5, 5, 5, 5}
	if got := NoiseRMS(flat); got != 0 {
		t.Errorf("flat rms = %v", got)
	}

	// Alternating +-1 about a mean of 10 has rms 1.
	alt := []float64{11, 9, 11, 9, 11, 9}
	if got := NoiseRMS(alt); math.Abs(got-1) > 1e-12 {
		t.Errorf("alternating rms = %v, want 1", got)
	}
}

func TestSampleRate(t *testing.T) {
	times := []float64{0, 0.01, 0.02, 0.03, 0.04}
	if got := SampleRate(times); math.Abs(got-100) > 1e-9 {
		t.Errorf("rate = %v, want 100", got)
	}
	if got := SampleRate([]float64{1}); got != 0 {
		t.Errorf("single sample rate = %v", got)
	}
}
