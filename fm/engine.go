package fm

import (
	"errors"
	"fmt"
)

// NumVoices is the size of the voice pool.
const NumVoices = 32

var (
	ErrNoTables      = errors.New("lookup tables not initialized")
	ErrUnknownPatch  = errors.New("unknown patch")
	ErrKeyRange      = errors.New("key out of range")
	ErrVelocityRange = errors.New("velocity out of range")
	ErrStack         = errors.New("stack out of range")
)

// Config holds the engine-wide settings.
type Config struct {
	// Routing selects the routing mode of stack 1 (C1/M1) and stack 2
	// (C2/M2).
	Routing [2]RoutingMode
	// Patch is the patch id selected at construction.
	Patch int
}

// DefaultConfig returns normal routing on both stacks and patch 0.
func DefaultConfig() Config {
	return Config{
		Routing: [2]RoutingMode{RoutingNorm, RoutingNorm},
		Patch:   0,
	}
}

// Engine is the polyphonic FM engine: a fixed pool of voices allocated
// round robin, a patch registry and the chorus output stage. An Engine is
// not safe for concurrent use; events and rendering must come from the
// same goroutine or be serialized by the caller.
type Engine struct {
	tables   *Tables
	registry *Registry

	patchID int
	patch   *PatchConfig
	routing [2]RoutingMode

	voices       [NumVoices]Voice
	next         int
	sustainPedal bool

	chorus *Chorus
}

// NewEngine creates an engine. A nil registry selects the factory patches.
func NewEngine(tables *Tables, registry *Registry, cfg Config) (*Engine, error) {
	if tables == nil {
		return nil, ErrNoTables
	}
	if registry == nil {
		registry = NewDefaultRegistry()
	}
	e := &Engine{
		tables:   tables,
		registry: registry,
		chorus:   NewChorus(),
	}
	for stack, mode := range cfg.Routing {
		if err := e.SetRouting(stack, mode); err != nil {
			return nil, err
		}
	}
	if err := e.SelectPatch(cfg.Patch); err != nil {
		return nil, err
	}
	return e, nil
}

// SelectPatch sets the patch used by subsequent TriggerNote calls.
// Sounding voices keep the constants they were triggered with.
func (e *Engine) SelectPatch(id int) error {
	p, ok := e.registry.Get(id)
	if !ok {
		return fmt.Errorf("select patch %d: %w", id, ErrUnknownPatch)
	}
	e.patchID = id
	e.patch = p
	return nil
}

// Patch returns the selected patch id and its constants.
func (e *Engine) Patch() (int, *PatchConfig) { return e.patchID, e.patch }

// Registry returns the patch registry.
func (e *Engine) Registry() *Registry { return e.registry }

// SetRouting sets the routing mode of stack 0 or 1.
func (e *Engine) SetRouting(stack int, mode RoutingMode) error {
	if stack < 0 || stack > 1 {
		return fmt.Errorf("set routing for stack %d: %w", stack, ErrStack)
	}
	if mode < RoutingNorm || mode > RoutingCross {
		return fmt.Errorf("invalid routing mode %d", int(mode))
	}
	e.routing[stack] = mode
	return nil
}

// Routing returns the routing modes of both stacks.
func (e *Engine) Routing() [2]RoutingMode { return e.routing }

// TriggerNote starts key on the next voice slot and returns the slot. The
// slot is taken even if it is still sounding. velocity is MIDI style
// (127 loudest).
func (e *Engine) TriggerNote(key, velocity int) (int, error) {
	if key < MinKey || key > MaxKey {
		return -1, fmt.Errorf("trigger key %d (valid %d..%d): %w", key, MinKey, MaxKey, ErrKeyRange)
	}
	if velocity < 0 || velocity > 127 {
		return -1, fmt.Errorf("trigger velocity %d: %w", velocity, ErrVelocityRange)
	}
	slot := e.next
	v := &e.voices[slot]
	v.trigger(e.patch, key, velocity)
	v.sustaining = e.sustainPedal
	e.next = (e.next + 1) % NumVoices
	return slot, nil
}

// ReleaseNote releases every voice playing key. Voices held by the sustain
// pedal keep their gate until the pedal is lifted.
func (e *Engine) ReleaseNote(key int) {
	for i := range e.voices {
		if e.voices[i].key == key {
			e.voices[i].release()
		}
	}
}

// SetSustainPedal sets sustain pedal state (true = down, false = up).
// Lifting the pedal releases every voice whose key is no longer held.
func (e *Engine) SetSustainPedal(down bool) {
	e.sustainPedal = down
	for i := range e.voices {
		v := &e.voices[i]
		v.sustaining = down
		if !down && !v.held {
			v.gate.Request(false)
		}
	}
}

// SustainPedal reports the pedal state.
func (e *Engine) SustainPedal() bool { return e.sustainPedal }

// TickAll advances every voice by one sample and returns the summed voice
// output.
func (e *Engine) TickAll() int {
	sum := 0
	for i := range e.voices {
		sum += e.voices[i].tick(e.tables, e.routing)
	}
	return sum
}

// RenderSample advances all voices by one tick, feeds the normalized mono
// mix into the chorus and returns it.
func (e *Engine) RenderSample() float32 {
	s := NormalizeSum(e.TickAll())
	e.chorus.Push(s)
	return s
}

// RenderStereoTick runs the chorus on the most recently pushed samples and
// returns one stereo frame.
func (e *Engine) RenderStereoTick() (float32, float32) {
	return e.chorus.Tick()
}

// Process renders a block of audio samples (stereo interleaved).
func (e *Engine) Process(numFrames int) []float32 {
	out := make([]float32, numFrames*2)
	e.ProcessInto(out)
	return out
}

// ProcessInto fills dst with interleaved stereo frames without allocating.
// A trailing odd sample is left untouched.
func (e *Engine) ProcessInto(dst []float32) {
	for i := 0; i+1 < len(dst); i += 2 {
		e.RenderSample()
		dst[i], dst[i+1] = e.RenderStereoTick()
	}
}

// Voice returns a copy of the voice in slot i.
func (e *Engine) Voice(i int) Voice { return e.voices[i] }

// NextSlot returns the slot the next TriggerNote will use.
func (e *Engine) NextSlot() int { return e.next }

// ActiveVoices counts voices that are gated or still have envelope energy.
func (e *Engine) ActiveVoices() int {
	n := 0
	for i := range e.voices {
		v := &e.voices[i]
		if v.gate.requested || v.gate.current {
			n++
			continue
		}
		for j := range v.ops {
			if v.ops[j].env.ea > 0 {
				n++
				break
			}
		}
	}
	return n
}

// Reset silences all voices, clears the chorus and the pedal, and rewinds
// the round-robin index. The patch and routing are kept.
func (e *Engine) Reset() {
	e.voices = [NumVoices]Voice{}
	e.next = 0
	e.sustainPedal = false
	e.chorus.Reset()
}
