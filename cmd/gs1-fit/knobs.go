package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-gs1/fm"
)

type knobDef struct {
	Name  string
	Min   float64
	Max   float64
	IsInt bool
}

type candidate struct {
	Vals []float64
}

var optimizeGroups = []string{"pitch", "level", "time", "render"}

// parseOptimizeGroups parses a comma-separated string of group names.
func parseOptimizeGroups(raw string) (map[string]bool, error) {
	valid := make(map[string]bool, len(optimizeGroups))
	for _, g := range optimizeGroups {
		valid[g] = true
	}
	groups := make(map[string]bool)
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if !valid[s] {
			return nil, fmt.Errorf("unknown optimize group %q (valid: %s)", s, strings.Join(optimizeGroups, ", "))
		}
		groups[s] = true
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("no optimize groups specified")
	}
	return groups, nil
}

func initCandidate(base *fm.PatchConfig, baseVelocity int, groups map[string]bool) ([]knobDef, candidate) {
	defs := make([]knobDef, 0, 32)
	vals := make([]float64, 0, 32)
	addKnob := func(def knobDef, val float64) {
		defs = append(defs, def)
		vals = append(vals, val)
	}

	for op := fm.C1; op < fm.NumOperators; op++ {
		name := op.String()
		if groups["pitch"] {
			// Carrier C1 stays at ratio 1 so the fundamental is anchored.
			if op != fm.C1 {
				addKnob(knobDef{Name: "ratio." + name, Min: 1, Max: 16, IsInt: true}, float64(base.Ratio[op]))
			}
			addKnob(knobDef{Name: "detune." + name, Min: -20, Max: 20, IsInt: true}, float64(base.DetuneCents[op]))
		}
		if groups["level"] {
			addKnob(knobDef{Name: "curve_lo." + name, Min: 0, Max: 1}, float64(base.Curves[op][0]))
			addKnob(knobDef{Name: "curve_hi." + name, Min: 0, Max: 1}, float64(base.Curves[op][1]))
			addKnob(knobDef{Name: "sustain." + name, Min: 0, Max: 255, IsInt: true}, float64(base.SustainLevel[op]))
		}
		if groups["time"] {
			addKnob(knobDef{Name: "attack." + name, Min: 200, Max: 8000}, float64(base.AttackTime[op]))
			addKnob(knobDef{Name: "decay." + name, Min: 0.05, Max: 8}, float64(base.DecayTime[op]))
			addKnob(knobDef{Name: "release." + name, Min: 10, Max: 400}, float64(base.ReleaseTime[op]))
		}
	}
	if groups["render"] {
		addKnob(knobDef{Name: "render.velocity", Min: 40, Max: 127, IsInt: true}, float64(baseVelocity))
	}

	for i := range vals {
		vals[i] = clamp(vals[i], defs[i].Min, defs[i].Max)
		if defs[i].IsInt {
			vals[i] = math.Round(vals[i])
		}
	}
	return defs, candidate{Vals: vals}
}

// applyCandidate returns a copy of base with the candidate's knob values
// and the render velocity.
func applyCandidate(base *fm.PatchConfig, baseVelocity int, defs []knobDef, c candidate) (*fm.PatchConfig, int) {
	p := base.Clone()
	velocity := baseVelocity
	for i, def := range defs {
		v := c.Vals[i]
		group, opName, _ := strings.Cut(def.Name, ".")
		if group == "render" {
			if opName == "velocity" {
				velocity = int(math.Round(v))
			}
			continue
		}
		op, ok := operatorByName(opName)
		if !ok {
			continue
		}
		switch group {
		case "ratio":
			p.Ratio[op] = float32(v)
		case "detune":
			p.DetuneCents[op] = int(math.Round(v))
		case "curve_lo":
			p.Curves[op][0] = float32(v)
		case "curve_hi":
			p.Curves[op][1] = float32(v)
		case "sustain":
			p.SustainLevel[op] = int(math.Round(v))
		case "attack":
			p.AttackTime[op] = float32(v)
		case "decay":
			p.DecayTime[op] = float32(v)
		case "release":
			p.ReleaseTime[op] = float32(v)
		}
	}
	if velocity < 1 {
		velocity = 1
	}
	if velocity > 127 {
		velocity = 127
	}
	return p, velocity
}

func operatorByName(name string) (fm.Operator, bool) {
	for op := fm.C1; op < fm.NumOperators; op++ {
		if op.String() == name {
			return op, true
		}
	}
	return 0, false
}

func fromNormalized(pos []float64, defs []knobDef) candidate {
	vals := make([]float64, len(defs))
	for i := range defs {
		x := 0.0
		if i < len(pos) {
			x = clamp(pos[i], 0, 1)
		}
		v := defs[i].Min + x*(defs[i].Max-defs[i].Min)
		if defs[i].IsInt {
			v = math.Round(v)
		}
		vals[i] = v
	}
	return candidate{Vals: vals}
}

func knobMap(defs []knobDef, c candidate) map[string]float64 {
	m := make(map[string]float64, len(defs))
	for i, d := range defs {
		m[d.Name] = c.Vals[i]
	}
	return m
}

func cloneCandidate(c candidate) candidate {
	return candidate{Vals: append([]float64(nil), c.Vals...)}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
