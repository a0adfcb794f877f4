package dsp

import (
	"math"
	"testing"
)

func rampSource() StereoSource {
	n := float32(0)
	return func() (float32, float32) {
		v := n
		n++
		return v, -v
	}
}

func TestRateConverterUnityPassesFrames(t *testing.T) {
	c := NewRateConverter(rampSource(), 48000, 48000)
	for i := 0; i < 10; i++ {
		l, r := c.Next()
		if l != float32(i) || r != -float32(i) {
			t.Fatalf("unexpected frame %d: got=(%f,%f)", i, l, r)
		}
	}
}

func TestRateConverterUpsampleInterpolates(t *testing.T) {
	c := NewRateConverter(rampSource(), 1, 2)
	want := []float32{0, 0.5, 1, 1.5, 2, 2.5}
	for i, w := range want {
		l, _ := c.Next()
		if math.Abs(float64(l-w)) > 1e-6 {
			t.Fatalf("unexpected frame %d: got=%f want=%f", i, l, w)
		}
	}
}

func TestRateConverterDownsampleConsumesSource(t *testing.T) {
	pulled := 0
	src := func() (float32, float32) {
		pulled++
		return 0, 0
	}
	c := NewRateConverter(src, 34687, 48000)
	buf := make([]float32, 2*48000)
	c.Fill(buf)
	// Two priming frames plus roughly one source second.
	if d := pulled - 34687; d < 0 || d > 3 {
		t.Fatalf("unexpected source frames pulled: got=%d want~%d", pulled, 34687)
	}
}
