package analysis

import (
	"math"
	"testing"
)

func TestPeakFrequencyOfSine(t *testing.T) {
	const sr = 34687
	for _, freq := range []float64{55, 440, 1234.5, 5000} {
		x := makeDecaySine(sr, freq, 1.0, 100)
		got, err := PeakFrequency(x, sr)
		if err != nil {
			t.Fatalf("PeakFrequency: %v", err)
		}
		if math.Abs(got-freq) > 1.0 {
			t.Fatalf("unexpected peak: got=%f want=%f", got, freq)
		}
	}
}

func TestPeakFrequencyRejectsShortInput(t *testing.T) {
	if _, err := PeakFrequency(make([]float64, 10), 48000); err == nil {
		t.Fatalf("expected error for short input")
	}
	if _, err := PeakFrequency(make([]float64, 1024), 0); err == nil {
		t.Fatalf("expected error for invalid rate")
	}
}

func TestSpectrumBinOfSine(t *testing.T) {
	const n = 1024
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Sin(2 * math.Pi * 64 * float64(i) / n)
	}
	mag, err := Spectrum(x, n)
	if err != nil {
		t.Fatalf("Spectrum: %v", err)
	}
	if len(mag) != n/2+1 {
		t.Fatalf("unexpected bin count: got=%d want=%d", len(mag), n/2+1)
	}
	best := 0
	for k := range mag {
		if mag[k] > mag[best] {
			best = k
		}
	}
	if best != 64 {
		t.Fatalf("unexpected peak bin: got=%d want=%d", best, 64)
	}
}

func TestSpectrumRejectsBadSize(t *testing.T) {
	if _, err := Spectrum(make([]float64, 100), 100); err == nil {
		t.Fatalf("expected error for non power of two size")
	}
}
