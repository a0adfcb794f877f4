package fm

import "testing"

func TestLogSinEndpoints(t *testing.T) {
	tb := NewTables()
	if got := tb.LogSin(0); got != 1881 {
		t.Fatalf("expected LogSin(0) near the zero crossing: got=%d want=%d", got, 1881)
	}
	if got := tb.LogSin(255); got != 0 {
		t.Fatalf("expected LogSin(255) at the crest: got=%d want=%d", got, 0)
	}
	for p := 0; p < 256; p++ {
		v := tb.LogSin(p)
		if v < 0 || v > 1881 {
			t.Fatalf("LogSin(%d)=%d outside [0,1881]", p, v)
		}
	}
}

func TestLogSinSymmetry(t *testing.T) {
	tb := NewTables()
	for p := 0; p < 256; p++ {
		if a, b := tb.LogSin(p), tb.LogSin(511-p); a != b {
			t.Fatalf("expected quarter-wave mirror at %d: got=%d want=%d", p, b, a)
		}
	}
	for p := 0; p < 512; p++ {
		if got, want := tb.LogSin(p+512), tb.LogSin(p)|0x8000; got != want {
			t.Fatalf("expected negative half wave at %d: got=%#x want=%#x", p, got, want)
		}
		if got, want := tb.LogSin(p+1024), tb.LogSin(p); got != want {
			t.Fatalf("expected 1024-periodic phase at %d: got=%d want=%d", p, got, want)
		}
	}
}

func TestExpKnownValues(t *testing.T) {
	tb := NewTables()
	if got := tb.Exp(0); got != 8169 {
		t.Fatalf("unexpected full-scale output: got=%d want=%d", got, 8169)
	}
	if got := tb.Exp(4094); got != 0 {
		t.Fatalf("expected near-silent output at high attenuation: got=%d", got)
	}
}

func TestExpSignSymmetry(t *testing.T) {
	tb := NewTables()
	for v := 0; v < 0x2000; v++ {
		pos := tb.Exp(v)
		neg := tb.Exp(v | 0x8000)
		if neg != -pos-1 {
			t.Fatalf("expected Exp(%#x|sign) = -Exp-1: got=%d want=%d", v, neg, -pos-1)
		}
	}
}

func TestExpMonotonic(t *testing.T) {
	tb := NewTables()
	prev := tb.Exp(0)
	for v := 1; v < 0x2000; v++ {
		cur := tb.Exp(v)
		if cur > prev {
			t.Fatalf("expected Exp to be non-increasing at %d: prev=%d cur=%d", v, prev, cur)
		}
		prev = cur
	}
}

func TestOperatorPeakAndSign(t *testing.T) {
	tb := NewTables()
	if got := tb.operator(255, 0); got != 8169 {
		t.Fatalf("expected positive crest: got=%d want=%d", got, 8169)
	}
	if got := tb.operator(255+512, 0); got != -8170 {
		t.Fatalf("expected negative crest: got=%d want=%d", got, -8170)
	}
	louder := tb.operator(255, 0)
	quieter := tb.operator(255, 512)
	if quieter >= louder {
		t.Fatalf("expected attenuation to reduce output: amp0=%d amp512=%d", louder, quieter)
	}
}

func TestExpLinearIdentityAndClamp(t *testing.T) {
	tb := NewTables()
	for _, i := range []int{0, 1, 2048, 4095} {
		if got := tb.ExpLinear(i); got != i {
			t.Fatalf("expected identity shape at %d: got=%d", i, got)
		}
	}
	if got := tb.ExpLinear(-3); got != 0 {
		t.Fatalf("expected low clamp: got=%d", got)
	}
	if got := tb.ExpLinear(5000); got != 4095 {
		t.Fatalf("expected high clamp: got=%d", got)
	}
}
