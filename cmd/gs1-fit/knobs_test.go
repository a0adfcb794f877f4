package main

import (
	"testing"

	"github.com/cwbudde/algo-gs1/fm"
)

func TestParseOptimizeGroups(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[string]bool
		wantErr bool
	}{
		{
			name:  "single group",
			input: "pitch",
			want:  map[string]bool{"pitch": true},
		},
		{
			name:  "all groups",
			input: "pitch,level,time,render",
			want:  map[string]bool{"pitch": true, "level": true, "time": true, "render": true},
		},
		{
			name:  "with whitespace",
			input: " level , time ",
			want:  map[string]bool{"level": true, "time": true},
		},
		{
			name:    "invalid group",
			input:   "pitch,bogus",
			wantErr: true,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
		{
			name:    "only whitespace",
			input:   "  ,  ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseOptimizeGroups(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseOptimizeGroups(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseOptimizeGroups(%q) unexpected error: %v", tt.input, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseOptimizeGroups(%q) returned %d groups, want %d", tt.input, len(got), len(tt.want))
			}
			for k := range tt.want {
				if !got[k] {
					t.Fatalf("parseOptimizeGroups(%q) missing group %q", tt.input, k)
				}
			}
		})
	}
}

func knobNameSet(defs []knobDef) map[string]bool {
	m := make(map[string]bool, len(defs))
	for _, d := range defs {
		m[d.Name] = true
	}
	return m
}

func allGroups() map[string]bool {
	return map[string]bool{"pitch": true, "level": true, "time": true, "render": true}
}

func TestInitCandidateAllGroups(t *testing.T) {
	defs, cand := initCandidate(fm.PatchEP22(), 100, allGroups())

	// pitch: 3 ratios + 4 detunes, level: 12, time: 12, render: 1
	if len(defs) != 32 {
		t.Fatalf("defs len = %d, want 32", len(defs))
	}
	if len(cand.Vals) != len(defs) {
		t.Fatalf("vals len = %d, want %d", len(cand.Vals), len(defs))
	}
	names := knobNameSet(defs)
	for _, name := range []string{"ratio.M2", "detune.C1", "curve_lo.M1", "sustain.C2", "attack.M2", "release.C1", "render.velocity"} {
		if !names[name] {
			t.Fatalf("expected knob %q", name)
		}
	}
	if names["ratio.C1"] {
		t.Fatal("carrier C1 ratio should stay fixed")
	}
}

func TestInitCandidateTimeOnly(t *testing.T) {
	defs, _ := initCandidate(fm.PatchEP11(), 100, map[string]bool{"time": true})
	if len(defs) != 12 {
		t.Fatalf("defs len = %d, want 12", len(defs))
	}
	names := knobNameSet(defs)
	if names["render.velocity"] || names["ratio.M1"] {
		t.Fatal("unexpected knob outside the time group")
	}
}

func TestApplyInitialCandidateKeepsPatch(t *testing.T) {
	for _, base := range []*fm.PatchConfig{fm.PatchEP11(), fm.PatchEP22()} {
		defs, cand := initCandidate(base, 90, allGroups())
		got, vel := applyCandidate(base, 90, defs, cand)
		if *got != *base {
			t.Fatalf("expected %s unchanged by its own initial candidate", base.Name)
		}
		if vel != 90 {
			t.Fatalf("expected velocity: got=%d want=90", vel)
		}
	}
}

func TestApplyCandidateSetsFields(t *testing.T) {
	base := fm.PatchEP11()
	defs, cand := initCandidate(base, 100, allGroups())
	set := func(name string, v float64) {
		for i, d := range defs {
			if d.Name == name {
				cand.Vals[i] = v
				return
			}
		}
		t.Fatalf("knob %q not found", name)
	}
	set("ratio.M2", 7)
	set("detune.M1", -4)
	set("curve_hi.C2", 0.5)
	set("sustain.C1", 128)
	set("attack.M1", 1234)
	set("decay.C2", 0.75)
	set("release.M2", 42)
	set("render.velocity", 64)

	got, vel := applyCandidate(base, 100, defs, cand)
	if got.Ratio[fm.M2] != 7 || got.DetuneCents[fm.M1] != -4 || got.Curves[fm.C2][1] != 0.5 {
		t.Fatalf("expected pitch/level knobs applied: ratio=%f detune=%d curve=%f", got.Ratio[fm.M2], got.DetuneCents[fm.M1], got.Curves[fm.C2][1])
	}
	if got.SustainLevel[fm.C1] != 128 || got.AttackTime[fm.M1] != 1234 || got.DecayTime[fm.C2] != 0.75 || got.ReleaseTime[fm.M2] != 42 {
		t.Fatal("expected envelope knobs applied")
	}
	if vel != 64 {
		t.Fatalf("expected velocity: got=%d want=64", vel)
	}
	if base.Ratio[fm.M2] != 1 {
		t.Fatal("applyCandidate mutated the base patch")
	}
	if err := got.Validate(); err != nil {
		t.Fatalf("expected valid patch: %v", err)
	}
}

func TestFromNormalizedBounds(t *testing.T) {
	defs := []knobDef{
		{Name: "ratio.M1", Min: 1, Max: 16, IsInt: true},
		{Name: "decay.C1", Min: 0.05, Max: 8},
	}
	lo := fromNormalized([]float64{-1, -1}, defs)
	if lo.Vals[0] != 1 || lo.Vals[1] != 0.05 {
		t.Fatalf("expected lower bounds: got=%v", lo.Vals)
	}
	hi := fromNormalized([]float64{2, 2}, defs)
	if hi.Vals[0] != 16 || hi.Vals[1] != 8 {
		t.Fatalf("expected upper bounds: got=%v", hi.Vals)
	}
	mid := fromNormalized([]float64{0.5}, defs)
	if mid.Vals[0] != 9 {
		t.Fatalf("expected rounded midpoint: got=%f want=9", mid.Vals[0])
	}
	if mid.Vals[1] != 0.05 {
		t.Fatalf("expected missing position to map to min: got=%f", mid.Vals[1])
	}
}
