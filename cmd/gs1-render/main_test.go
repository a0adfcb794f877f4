package main

import "testing"

func TestTrimTailStopsAfterQuietBlocks(t *testing.T) {
	loud := make([]float32, 2*128*4)
	for i := range loud {
		loud[i] = 0.5
	}
	quiet := make([]float32, 2*128*20)
	in := append(loud, quiet...)
	out := trimTail(in, -90, 128, 6)
	if want := len(loud) + 2*128*6; len(out) != want {
		t.Fatalf("unexpected trimmed length: got=%d want=%d", len(out), want)
	}
	if got := trimTail(loud, -90, 128, 6); len(got) != len(loud) {
		t.Fatalf("expected loud signal untouched")
	}
}
