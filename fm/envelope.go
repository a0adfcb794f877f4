package fm

import "math"

// EnvelopeStage is the state of an operator envelope.
type EnvelopeStage int

const (
	StageIdle EnvelopeStage = iota // idle or releasing
	StageAttack
	StageDecay // decay towards and hold at the sustain level
)

func (s EnvelopeStage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAttack:
		return "attack"
	case StageDecay:
		return "decay"
	}
	return "unknown"
}

// EnvelopeMax is the ceiling of the 20-bit envelope accumulator.
const EnvelopeMax = 0xFFFFF

// GateEdge holds the gate of a voice in three parts: the gate applied on
// the previous tick, the gate applied on this tick, and the gate requested
// by note events. Latch moves the request into the current gate and must
// run only after the envelopes have stepped, so a request becomes audible
// one tick later. Edge detection compares previous and current.
type GateEdge struct {
	previous  bool
	current   bool
	requested bool
}

// Request sets the gate to apply at the next latch.
func (g *GateEdge) Request(on bool) { g.requested = on }

// Latch shifts the gate history by one tick.
func (g *GateEdge) Latch() {
	g.previous = g.current
	g.current = g.requested
}

// Reset clears the applied gate history; the request is left alone.
func (g *GateEdge) Reset() {
	g.previous = false
	g.current = false
}

func (g GateEdge) Previous() bool  { return g.previous }
func (g GateEdge) Current() bool   { return g.current }
func (g GateEdge) Requested() bool { return g.requested }
func (g GateEdge) Rising() bool    { return !g.previous && g.current }
func (g GateEdge) Falling() bool   { return g.previous && !g.current }

// Envelope is the amplitude automaton of one operator. The accumulator
// ea is linear; eax is the shaped value the operator amplitude reads.
// Arithmetic is single precision on purpose: rates have fractional parts
// and rounding at the 20-bit scale is part of the sound.
type Envelope struct {
	stage EnvelopeStage

	ea  float32
	eax float32
	eao float32 // ea of the previous tick

	// release start snapshot
	rs  float32
	rsx float32

	attack  float32
	decay   float32
	release float32

	initial int // 20-bit
	sustain int // 20-bit
}

// Stage returns the current stage.
func (e Envelope) Stage() EnvelopeStage { return e.stage }

// Level returns the raw accumulator.
func (e Envelope) Level() float32 { return e.ea }

// Shaped returns the shaped accumulator.
func (e Envelope) Shaped() float32 { return e.eax }

// Rates returns the per-tick attack, decay and release increments.
func (e Envelope) Rates() (attack, decay, release float32) {
	return e.attack, e.decay, e.release
}

func (e *Envelope) reset() {
	e.stage = StageIdle
	e.ea, e.eax, e.eao = 0, 0, 0
	e.rs, e.rsx = 0, 0
}

// step advances the envelope by one tick under gate g. The rules run in
// order and several may fire in the same tick (attack reaching the ceiling
// starts the decay immediately).
func (e *Envelope) step(g GateEdge, t *Tables) {
	if g.Rising() {
		e.stage = StageAttack
		e.ea = float32(e.initial)
	}

	if g.current && e.stage == StageAttack && e.ea < EnvelopeMax {
		e.ea += e.attack
		e.eax = e.ea
		if e.ea > EnvelopeMax {
			e.ea = EnvelopeMax
		}
	}
	if g.current && e.stage == StageAttack && e.ea >= EnvelopeMax {
		e.stage = StageDecay
	}

	sustain := float32(e.sustain)
	if g.current && e.stage == StageDecay && e.ea > sustain {
		e.ea -= e.decay
		if e.ea < sustain {
			e.ea = sustain
		}
		pos := int(mapRange(float64(e.ea), float64(e.sustain), EnvelopeMax, 0, expLinearSize-1))
		e.eax = float32(int(mapRange(float64(t.ExpLinear(pos)), 0, expLinearSize-1, float64(e.sustain), EnvelopeMax)))
	}

	if g.Falling() {
		e.rs = e.ea
		e.rsx = e.eax
	}

	if !g.current && e.ea > 0 {
		e.ea -= e.release
		e.stage = StageIdle
		if e.ea <= 0 {
			e.ea = 0
		}
		pos := 0
		if top := math.Floor(float64(e.rs)); top > 0 {
			pos = int(mapRange(float64(e.ea), 0, top, 0, expLinearSize-1))
		}
		e.eax = float32(int(mapRange(float64(t.ExpLinear(pos)), 0, expLinearSize-1, 0, float64(e.rsx))))
	}

	// A rising accumulator while ungated can only come from a wrapped
	// value; drop it to silence.
	if !g.current && e.eao < float32(int(e.ea)&EnvelopeMax) {
		e.ea = 0
	}
	e.eao = e.ea
}
