package fm

import (
	"math"
	"testing"
)

func newTestEngine(t *testing.T, patch int) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Patch = patch
	e, err := NewEngine(NewTables(), nil, cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

// sineOnlyPatch is a patch with a single audible carrier (C1) and both
// modulators fully attenuated, so each voice renders a plain sine.
func sineOnlyPatch() *PatchConfig {
	p := newFactoryPatch()
	p.Name = "sine"
	for i := 0; i < CurveLen; i++ {
		p.Curves[C1][i] = 1
	}
	p.Curves[C2][1] = 1
	p.Curves[M1][1] = 1
	p.Curves[M2][1] = 1
	p.SustainLevel[C1] = 200
	return p
}

func renderMono(e *Engine, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = e.RenderSample()
	}
	return out
}

func windowRMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func maxAbs(samples []float32) float64 {
	m := 0.0
	for _, s := range samples {
		if a := math.Abs(float64(s)); a > m {
			m = a
		}
	}
	return m
}
