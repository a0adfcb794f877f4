package main

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/algo-gs1/analysis"
	"github.com/cwbudde/algo-gs1/fm"
	"github.com/cwbudde/algo-gs1/internal/cli"
	"github.com/cwbudde/algo-gs1/internal/wavio"
)

func TestComponentsSumToScore(t *testing.T) {
	m := analysis.Metrics{EnvelopeNorm: 0.5, SpectralNorm: 0.2, DecayNorm: 1, PitchNorm: 0.1}
	var sum float64
	for _, c := range components(m) {
		sum += c.norm * c.weight
	}
	want := 0.30*0.5 + 0.35*0.2 + 0.15*1 + 0.20*0.1
	if math.Abs(sum-want) > 1e-12 {
		t.Fatalf("unexpected contribution sum: got=%f want=%f", sum, want)
	}
}

func TestPrintReportMarksDominant(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, cli.NewStyles(), analysis.Metrics{SampleRate: fm.SampleRate, Score: 0.3, Dominant: "spectral"})
	out := buf.String()
	if !strings.Contains(out, "spectral *") {
		t.Fatalf("expected dominant marker:\n%s", out)
	}
	if !strings.Contains(out, "contribution") {
		t.Fatalf("expected component table:\n%s", out)
	}
}

func TestLoadMonoResamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	n := 48000
	x := make([]float32, n)
	for i := range x {
		x[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/48000))
	}
	if err := wavio.WriteMonoWAV(path, x, 48000); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := loadMono(path, fm.SampleRate)
	if err != nil {
		t.Fatalf("loadMono: %v", err)
	}
	if d := len(got) - fm.SampleRate; d < -256 || d > 256 {
		t.Fatalf("unexpected resampled length: got=%d want~%d", len(got), fm.SampleRate)
	}
}

func TestPrintBandsTable(t *testing.T) {
	var buf bytes.Buffer
	printBands(&buf, cli.NewStyles(), []analysis.BandDiff{{Window: "attack", Band: "bass", Frames: 1, RMSEDB: 3, LevelDiff: -1.5}})
	out := buf.String()
	for _, want := range []string{"attack", "bass", "-1.5 dB"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}
