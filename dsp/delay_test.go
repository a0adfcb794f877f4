package dsp

import (
	"math"
	"testing"
)

func TestDelayLineReadCountsFromNewestSample(t *testing.T) {
	d := NewDelayLine(8)
	for i := 1; i <= 5; i++ {
		d.Write(float32(i))
	}
	for delay, want := range []float32{5, 4, 3, 2, 1, 0} {
		if got := d.Read(delay); got != want {
			t.Fatalf("Read(%d) = %f, want %f", delay, got, want)
		}
	}
}

func TestDelayLineWrapsAroundCapacity(t *testing.T) {
	d := NewDelayLine(4)
	for i := 1; i <= 10; i++ {
		d.Write(float32(i))
	}
	if got := d.Read(0); got != 10 {
		t.Fatalf("expected newest sample 10, got %f", got)
	}
	if got := d.Read(3); got != 7 {
		t.Fatalf("expected oldest retained sample 7, got %f", got)
	}
}

func TestDelayLineFractionalInterpolatesLinearly(t *testing.T) {
	d := NewDelayLine(16)
	d.Write(0)
	d.Write(1)
	d.Write(2)
	// Read(0)=2, Read(1)=1
	got := d.ReadFractional(0.25)
	if math.Abs(float64(got-1.75)) > 1e-6 {
		t.Fatalf("ReadFractional(0.25) = %f, want 1.75", got)
	}
}

func TestDelayLineFractionalClampsDelay(t *testing.T) {
	d := NewDelayLine(8)
	for i := 0; i < 8; i++ {
		d.Write(float32(i + 1))
	}
	if got, want := d.ReadFractional(-3), d.Read(0); got != want {
		t.Fatalf("negative delay: got=%f want=%f", got, want)
	}
	if got, want := d.ReadFractional(100), d.Read(int(d.MaxDelay())); got != want {
		t.Fatalf("oversized delay: got=%f want=%f", got, want)
	}
}

func TestDelayLineResetClearsHistory(t *testing.T) {
	d := NewDelayLine(8)
	for i := 0; i < 8; i++ {
		d.Write(1)
	}
	d.Reset()
	for i := 0; i < 8; i++ {
		if v := d.Read(i); v != 0 {
			t.Fatalf("expected silence after reset, found %f at delay %d", v, i)
		}
	}
}
