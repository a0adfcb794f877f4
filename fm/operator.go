package fm

import (
	"fmt"
	"strings"
)

// Operator indexes the four operators of a voice. Stack 1 is C1 modulated
// by M1, stack 2 is C2 modulated by M2.
type Operator int

const (
	C1 Operator = iota
	C2
	M1
	M2

	NumOperators = 4
)

func (o Operator) String() string {
	switch o {
	case C1:
		return "C1"
	case C2:
		return "C2"
	case M1:
		return "M1"
	case M2:
		return "M2"
	}
	return fmt.Sprintf("Operator(%d)", int(o))
}

// RoutingMode selects how a stack's modulator is driven.
type RoutingMode int

const (
	// RoutingNorm runs the modulator free; the carrier phase is offset by
	// its output.
	RoutingNorm RoutingMode = iota
	// RoutingHalfPi feeds the averaged last two modulator outputs back into
	// the modulator phase, shifted down by 3 bits.
	RoutingHalfPi
	// RoutingPi is RoutingHalfPi with a 2-bit shift (stronger feedback).
	RoutingPi
	// RoutingCross offsets the modulator phase by the other stack's
	// modulator output.
	RoutingCross
)

var routingNames = [...]string{"norm", "pi/2", "pi", "cross"}

func (m RoutingMode) String() string {
	if m >= 0 && int(m) < len(routingNames) {
		return routingNames[m]
	}
	return fmt.Sprintf("RoutingMode(%d)", int(m))
}

// ParseRoutingMode parses "norm", "pi/2" (or "halfpi"), "pi" or "cross".
func ParseRoutingMode(s string) (RoutingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "norm", "normal", "":
		return RoutingNorm, nil
	case "pi/2", "halfpi", "half-pi":
		return RoutingHalfPi, nil
	case "pi":
		return RoutingPi, nil
	case "cross":
		return RoutingCross, nil
	}
	return RoutingNorm, fmt.Errorf("unknown routing mode %q (valid: norm, pi/2, pi, cross)", s)
}

const (
	ampMax = 4095
	// modSilent is the phase offset a fully attenuated modulator applies.
	modSilent = 4095
)

// operatorAmp combines the inverted shaped envelope, the per-key scale and
// the velocity attenuation into a 12-bit attenuation.
func operatorAmp(eax float32, scale, velAtt int) int {
	a := ((int(eax) >> 8) ^ 0xFFF) & 0xFFF
	a += scale + velAtt<<3
	if a >= ampMax {
		return ampMax
	}
	return a
}

// runStacks evaluates both FM stacks of v for one tick and returns the
// carrier outputs. Stack 1 is evaluated first; in cross mode stack 1 sees
// stack 2's modulator output from the previous tick.
func runStacks(t *Tables, v *Voice, routing [2]RoutingMode) (int, int) {
	c1, m1 := &v.ops[C1], &v.ops[M1]
	c2, m2 := &v.ops[C2], &v.ops[M2]

	switch routing[0] {
	case RoutingNorm:
		v.mod1 = freeModulator(t, m1)
	case RoutingHalfPi:
		v.mod1 = feedbackModulator(t, m1, &v.fb1, 3)
	case RoutingPi:
		v.mod1 = feedbackModulator(t, m1, &v.fb1, 2)
	case RoutingCross:
		v.mod1 = crossModulator(t, m1, v.mod2)
	}
	v.out1 = carrier(t, c1, v.mod1)

	switch routing[1] {
	case RoutingNorm:
		v.mod2 = freeModulator(t, m2)
		v.out2 = carrier(t, c2, v.mod2)
	case RoutingHalfPi:
		// Gated on M2's own amplitude, as in the other modes.
		v.mod2 = feedbackModulator(t, m2, &v.fb2, 3)
		v.out2 = carrier(t, c2, v.mod1)
	case RoutingPi:
		v.mod2 = feedbackModulator(t, m2, &v.fb2, 2)
		v.out2 = carrier(t, c2, v.mod1)
	case RoutingCross:
		v.mod2 = crossModulator(t, m2, v.mod1)
		v.out2 = carrier(t, c2, v.mod2)
	}
	return v.out1, v.out2
}

func freeModulator(t *Tables, m *operator) int {
	if m.amp > ampMax-1 {
		return modSilent
	}
	return ((t.operator(m.phase, m.amp) + 8192) >> 2) & 1023
}

func crossModulator(t *Tables, m *operator, other int) int {
	if m.amp > ampMax-1 {
		return modSilent
	}
	return ((t.operator(m.phase+other, m.amp) + 8192) >> 2) & 1023
}

// feedbackModulator mixes the average of the two previous outputs into the
// modulator phase.
func feedbackModulator(t *Tables, m *operator, fb *feedback, shift uint) int {
	out := modSilent
	if m.amp <= ampMax-1 {
		avg := (fb.old1 + fb.old2) / 2
		out = (t.operator(m.phase+(avg>>shift), m.amp) + 8192) >> 4
	}
	fb.old2 = fb.old1
	fb.old1 = out
	return out
}

// carrier returns the signed 14-bit output of carrier c phase-offset by mod.
func carrier(t *Tables, c *operator, mod int) int {
	if c.amp > ampMax-1 {
		return 0
	}
	return t.operator(c.phase+mod, c.amp)
}
