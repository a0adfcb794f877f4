package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
)

// Spectrum returns the magnitude spectrum (fftSize/2+1 bins) of the first
// fftSize samples of x under a Hann window. Shorter input is zero padded.
// fftSize must be a power of two.
func Spectrum(x []float64, fftSize int) ([]float64, error) {
	sa, err := newSpectrumAnalyzer(fftSize)
	if err != nil {
		return nil, err
	}
	mag := make([]float64, fftSize/2+1)
	sa.magnitude(mag, x)
	return mag, nil
}

// spectrumAnalyzer owns an FFT plan and scratch buffers for repeated
// transforms of one size.
type spectrumAnalyzer struct {
	forward func()
	buf     []float64
	spec    []complex128
}

func newSpectrumAnalyzer(fftSize int) (*spectrumAnalyzer, error) {
	if fftSize < 2 || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("fft size %d is not a power of two", fftSize)
	}
	plan, err := algofft.NewPlanReal64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("fft plan: %w", err)
	}
	sa := &spectrumAnalyzer{
		buf:  make([]float64, fftSize),
		spec: make([]complex128, fftSize/2+1),
	}
	sa.forward = func() { plan.Forward(sa.spec, sa.buf) }
	return sa, nil
}

func (sa *spectrumAnalyzer) magnitude(dst []float64, x []float64) {
	n := len(x)
	if n > len(sa.buf) {
		n = len(sa.buf)
	}
	for i := range sa.buf {
		sa.buf[i] = 0
	}
	hannInto(sa.buf[:n], x[:n])
	sa.forward()
	for k, c := range sa.spec {
		dst[k] = cmplx.Abs(c)
	}
}

// PeakFrequency estimates the strongest partial of x in Hz, refined by
// parabolic interpolation of the log magnitudes around the peak bin. The
// analysis length is the largest power of two not exceeding len(x), capped
// at 32768.
func PeakFrequency(x []float64, sampleRate int) (float64, error) {
	if sampleRate <= 0 {
		return 0, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	n := prevPow2(len(x))
	if n > 32768 {
		n = 32768
	}
	if n < 64 {
		return 0, fmt.Errorf("need at least 64 samples, got %d", len(x))
	}
	mag, err := Spectrum(x, n)
	if err != nil {
		return 0, err
	}

	best := 1
	for k := 2; k < len(mag)-1; k++ {
		if mag[k] > mag[best] {
			best = k
		}
	}
	if mag[best] <= 0 {
		return 0, nil
	}

	offset := 0.0
	if best > 0 && best < len(mag)-1 {
		a := linToDB(mag[best-1])
		b := linToDB(mag[best])
		c := linToDB(mag[best+1])
		if den := a - 2*b + c; math.Abs(den) > 1e-12 {
			offset = 0.5 * (a - c) / den
		}
	}
	return (float64(best) + offset) * float64(sampleRate) / float64(n), nil
}

func hannInto(dst, src []float64) {
	n := len(src)
	if n == 1 {
		dst[0] = src[0]
		return
	}
	for i := 0; i < n; i++ {
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
		dst[i] = src[i] * w
	}
}

func prevPow2(n int) int {
	if n < 1 {
		return 0
	}
	p := 1
	for p*2 <= n {
		p *= 2
	}
	return p
}
