package fm

import "math"

const (
	// SampleRate is the fixed internal rate of the engine in Hz. Pitch,
	// envelope times and the chorus are all defined at this rate.
	SampleRate = 34687

	// MinKey and MaxKey bound the key index (88 keys, key 1 = 27.5 Hz).
	MinKey = 1
	MaxKey = 88

	baseFreq  = 27.50
	phaseBits = 28
	phaseMask = 1<<phaseBits - 1
	// phaseShift leaves the top 10 bits of the accumulator.
	phaseShift = phaseBits - 10
)

// NoteConstants are the per-operator values derived from a patch when a
// key is triggered.
type NoteConstants struct {
	Frequency   float64
	ControlWord [NumOperators]uint32
	Attack      [NumOperators]float32
	Decay       [NumOperators]float32
	Release     [NumOperators]float32
	Scale       [NumOperators]int
}

// Derive computes the note constants of key under patch p. The key is not
// range checked; callers outside the engine should stay within
// [MinKey, MaxKey].
func Derive(p *PatchConfig, key int) NoteConstants {
	// Key numbers are single precision.
	k := float64(float32(key - 1))
	n := NoteConstants{Frequency: baseFreq * math.Pow(2, k/12)}
	for i := 0; i < NumOperators; i++ {
		n.ControlWord[i] = controlWord(k, p.DetuneCents[i], p.Ratio[i])
		n.Attack[i] = float32(float64(p.AttackTime[i]) * mapRange(k+1, MinKey, MaxKey, 1, 4))
		n.Decay[i] = float32(float64(p.DecayTime[i]) * mapRange(k+1, MinKey, MaxKey, 0.5, float64(p.DecayScaling[i])))
		n.Release[i] = float32(float64(p.ReleaseTime[i]) * mapRange(k+1, MinKey, MaxKey, 1, 2))
		n.Scale[i] = keyScale(&p.Curves[i], k)
	}
	return n
}

// controlWord returns the phase increment per tick for the operator
// frequency 27.5 * 2^((k + cents/100)/12) * ratio. The quotient is
// truncated.
func controlWord(k float64, cents int, ratio float32) uint32 {
	freq := baseFreq * math.Pow(2, (k+float64(cents)*0.01)/12) * float64(ratio)
	return uint32(int64(math.Pow(2, phaseBits) / (SampleRate / freq)))
}

// keyScale reads the curve entry for key pair k/2, remaps it between the
// curve's calibration bounds and converts the result into a 12-bit
// attenuation offset.
func keyScale(curve *[CurveLen]float32, k float64) int {
	idx := clampInt(int(math.Floor(k/2)+2), 2, CurveLen-1)
	lo, hi := float64(curve[0]), float64(curve[1])
	x := mapRange(1, 0, 1, lo, mapRange(float64(curve[idx]), 0, 1, lo, hi))
	x = clampf(x, 0, 1)
	return int(math.Floor(mapRange(math.Pow(x, 0.1), 0, 1, 1, 0) * ampMax))
}

type operator struct {
	env Envelope

	acc   uint32 // 28-bit phase accumulator
	phase int    // top 10 bits of acc before this tick's increment
	cw    uint32
	amp   int
	scale int
}

type feedback struct {
	old1, old2 int
}

// Voice is one polyphonic slot: four operators in two stacks.
type Voice struct {
	key      int
	velocity int
	velAtt   int
	freq     float64

	held       bool
	sustaining bool
	gate       GateEdge

	ops [NumOperators]operator

	mod1, mod2 int
	out1, out2 int
	fb1, fb2   feedback
}

// Key returns the key the voice was last triggered with (0 if never).
func (v Voice) Key() int { return v.key }

// Velocity returns the trigger velocity.
func (v Voice) Velocity() int { return v.velocity }

// Frequency returns the fundamental of the triggered key in Hz.
func (v Voice) Frequency() float64 { return v.freq }

// Held reports whether the key is still down.
func (v Voice) Held() bool { return v.held }

// Sustaining reports whether the sustain pedal holds the voice.
func (v Voice) Sustaining() bool { return v.sustaining }

// Gate returns the gate state.
func (v Voice) Gate() GateEdge { return v.gate }

// Envelope returns a copy of the envelope of op.
func (v Voice) Envelope(op Operator) Envelope { return v.ops[op].env }

// Amp returns the attenuation of op computed on the last tick.
func (v Voice) Amp(op Operator) int { return v.ops[op].amp }

// Phase returns the 10-bit phase of op used on the last tick.
func (v Voice) Phase(op Operator) int { return v.ops[op].phase }

// ControlWord returns the phase increment of op.
func (v Voice) ControlWord(op Operator) uint32 { return v.ops[op].cw }

// Output returns the carrier outputs of both stacks from the last tick.
func (v Voice) Output() (int, int) { return v.out1, v.out2 }

// trigger restarts the voice on key with all state silenced and requests
// the gate.
func (v *Voice) trigger(p *PatchConfig, key, velocity int) {
	n := Derive(p, key)
	v.key = key
	v.velocity = velocity
	v.velAtt = 127 - velocity
	v.freq = n.Frequency
	v.held = true
	v.gate.Reset()

	for i := range v.ops {
		op := &v.ops[i]
		op.env.reset()
		op.env.attack = n.Attack[i]
		op.env.decay = n.Decay[i]
		op.env.release = n.Release[i]
		op.env.initial = p.InitialLevel[i] << 12
		op.env.sustain = p.SustainLevel[i] << 12
		op.acc = 0
		op.phase = 0
		op.cw = n.ControlWord[i]
		op.scale = n.Scale[i]
	}

	v.mod1, v.mod2 = 0, 0
	v.out1, v.out2 = 0, 0
	v.fb1, v.fb2 = feedback{}, feedback{}
	v.gate.Request(true)
}

// release drops the gate request unless the pedal holds the voice.
func (v *Voice) release() {
	if !v.sustaining {
		v.gate.Request(false)
	}
	v.held = false
}

// tick advances envelopes, gate, amplitudes and phases by one sample and
// returns the sum of both stacks.
func (v *Voice) tick(t *Tables, routing [2]RoutingMode) int {
	for i := range v.ops {
		v.ops[i].env.step(v.gate, t)
	}
	v.gate.Latch()

	for i := range v.ops {
		op := &v.ops[i]
		op.amp = operatorAmp(op.env.eax, op.scale, v.velAtt)
	}
	for i := range v.ops {
		op := &v.ops[i]
		op.acc &= phaseMask
		op.phase = int(op.acc >> phaseShift)
		op.acc += op.cw
	}

	out1, out2 := runStacks(t, v, routing)
	return out1 + out2
}
