// Package wavio reads and writes the WAV files used by the command line
// tools and moves audio between the engine rate and host rates.
package wavio

import (
	"fmt"
	"os"
	"path/filepath"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// ReadWAVMono reads path and downmixes all channels to mono.
func ReadWAVMono(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, 0, fmt.Errorf("invalid wav buffer: %s", path)
	}
	scale := 1.0
	if bits := buf.SourceBitDepth; bits > 1 {
		scale = 1.0 / float64(int64(1)<<(bits-1))
	}
	ch := buf.Format.NumChannels
	frames := len(buf.Data) / ch
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < ch; c++ {
			sum += float64(buf.Data[i*ch+c])
		}
		out[i] = sum / float64(ch) * scale
	}
	return out, buf.Format.SampleRate, nil
}

// Resample converts in from fromRate to toRate. Equal rates return in
// unchanged.
func Resample(in []float64, fromRate int, toRate int) ([]float64, error) {
	if fromRate <= 0 || toRate <= 0 {
		return nil, fmt.Errorf("invalid rates %d -> %d", fromRate, toRate)
	}
	if fromRate == toRate {
		return in, nil
	}
	r, err := dspresample.NewForRates(
		float64(fromRate),
		float64(toRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, err
	}
	return r.Process(in), nil
}

// ResampleStereo resamples an interleaved stereo buffer channel by channel.
func ResampleStereo(interleaved []float32, fromRate int, toRate int) ([]float32, error) {
	n := len(interleaved) / 2
	left := make([]float64, n)
	right := make([]float64, n)
	for i := 0; i < n; i++ {
		left[i] = float64(interleaved[i*2])
		right[i] = float64(interleaved[i*2+1])
	}
	l, err := Resample(left, fromRate, toRate)
	if err != nil {
		return nil, err
	}
	r, err := Resample(right, fromRate, toRate)
	if err != nil {
		return nil, err
	}
	frames := len(l)
	if len(r) < frames {
		frames = len(r)
	}
	out := make([]float32, frames*2)
	for i := 0; i < frames; i++ {
		out[i*2] = float32(l[i])
		out[i*2+1] = float32(r[i])
	}
	return out, nil
}

// WriteStereoWAV writes interleaved stereo samples as 16-bit PCM.
func WriteStereoWAV(path string, interleaved []float32, sampleRate int) error {
	return writeWAV(path, interleaved, sampleRate, 2)
}

// WriteMonoWAV writes mono samples as 16-bit PCM.
func WriteMonoWAV(path string, data []float32, sampleRate int) error {
	return writeWAV(path, data, sampleRate, 1)
}

func writeWAV(path string, data []float32, sampleRate int, channels int) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)

	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: channels,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}

// StereoToMono64 averages interleaved stereo frames.
func StereoToMono64(st []float32) []float64 {
	n := len(st) / 2
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = 0.5 * (float64(st[i*2]) + float64(st[i*2+1]))
	}
	return out
}

// Peak returns the largest absolute sample.
func Peak(samples []float32) float32 {
	var p float32
	for _, s := range samples {
		if s < 0 {
			s = -s
		}
		if s > p {
			p = s
		}
	}
	return p
}
