package wavio

import (
	"math"
	"path/filepath"
	"testing"
)

func correlation(a []float64, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var ab, aa, bb float64
	for i := 0; i < n; i++ {
		ab += a[i] * b[i]
		aa += a[i] * a[i]
		bb += b[i] * b[i]
	}
	if aa == 0 || bb == 0 {
		return 0
	}
	return ab / math.Sqrt(aa*bb)
}

func TestMonoRoundTrip(t *testing.T) {
	const sr = 34687
	data := make([]float32, 4000)
	want := make([]float64, len(data))
	for i := range data {
		data[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/sr))
		want[i] = float64(data[i])
	}
	path := filepath.Join(t.TempDir(), "out", "mono.wav")
	if err := WriteMonoWAV(path, data, sr); err != nil {
		t.Fatalf("WriteMonoWAV: %v", err)
	}
	got, gotSR, err := ReadWAVMono(path)
	if err != nil {
		t.Fatalf("ReadWAVMono: %v", err)
	}
	if gotSR != sr || len(got) != len(data) {
		t.Fatalf("format mismatch: sr=%d frames=%d", gotSR, len(got))
	}
	if c := correlation(got, want); c < 0.999 {
		t.Fatalf("expected read back to match written signal: corr=%f", c)
	}
}

func TestStereoDownmix(t *testing.T) {
	const sr = 48000
	st := make([]float32, 2000)
	for i := 0; i < len(st)/2; i++ {
		v := float32(0.3 * math.Sin(2*math.Pi*300*float64(i)/sr))
		st[i*2] = v
		st[i*2+1] = v
	}
	path := filepath.Join(t.TempDir(), "stereo.wav")
	if err := WriteStereoWAV(path, st, sr); err != nil {
		t.Fatalf("WriteStereoWAV: %v", err)
	}
	got, _, err := ReadWAVMono(path)
	if err != nil {
		t.Fatalf("ReadWAVMono: %v", err)
	}
	if len(got) != len(st)/2 {
		t.Fatalf("unexpected frame count: got=%d want=%d", len(got), len(st)/2)
	}
	if c := correlation(got, StereoToMono64(st)); c < 0.999 {
		t.Fatalf("expected downmix to match: corr=%f", c)
	}
}

func TestResampleLength(t *testing.T) {
	in := make([]float64, 34687)
	for i := range in {
		in[i] = math.Sin(2 * math.Pi * 100 * float64(i) / 34687)
	}
	out, err := Resample(in, 34687, 48000)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	if math.Abs(float64(len(out))-48000) > 256 {
		t.Fatalf("unexpected resampled length: got=%d want~%d", len(out), 48000)
	}
	same, err := Resample(in, 48000, 48000)
	if err != nil || len(same) != len(in) {
		t.Fatalf("expected identity for equal rates")
	}
	if _, err := Resample(in, 0, 48000); err == nil {
		t.Fatalf("expected error for invalid rate")
	}
}

func TestResampleStereoKeepsChannels(t *testing.T) {
	in := make([]float32, 2*8000)
	for i := 0; i < 8000; i++ {
		in[i*2] = float32(math.Sin(2 * math.Pi * 200 * float64(i) / 34687))
	}
	out, err := ResampleStereo(in, 34687, 44100)
	if err != nil {
		t.Fatalf("ResampleStereo: %v", err)
	}
	var left, right float64
	for i := 0; i < len(out)/2; i++ {
		left += math.Abs(float64(out[i*2]))
		right += math.Abs(float64(out[i*2+1]))
	}
	if left == 0 || right > left*1e-3 {
		t.Fatalf("expected channels kept apart: left=%f right=%f", left, right)
	}
}

func TestPeak(t *testing.T) {
	if got := Peak([]float32{0.1, -0.7, 0.3}); got != 0.7 {
		t.Fatalf("unexpected peak: got=%f want=%f", got, 0.7)
	}
}
