package fm

import (
	"fmt"
	"sort"
)

// CurveLen is the length of a key scaling curve: two calibration bounds
// followed by one entry per pair of keys.
const CurveLen = 46

// PatchConfig holds the static per-patch constants. Arrays are indexed by
// Operator (C1, C2, M1, M2). A patch is read once at note trigger; changing
// it never affects sounding voices.
type PatchConfig struct {
	Name string `json:"name"`

	Ratio       [NumOperators]float32 `json:"ratio"`
	DetuneCents [NumOperators]int     `json:"detune_cents"`

	// Curves maps key pairs to an amplitude scale in [0,1]. Entries 0 and 1
	// are the lower and upper bounds the remaining entries are remapped into.
	Curves [NumOperators][CurveLen]float32 `json:"curves"`

	AttackTime   [NumOperators]float32 `json:"attack_time"`
	DecayTime    [NumOperators]float32 `json:"decay_time"`
	DecayScaling [NumOperators]float32 `json:"decay_scaling"`
	ReleaseTime  [NumOperators]float32 `json:"release_time"`

	// Levels are 8-bit values, shifted into the 20-bit envelope range.
	InitialLevel [NumOperators]int `json:"initial_level"`
	SustainLevel [NumOperators]int `json:"sustain_level"`
}

// Validate reports the first constant that would make the derived voice
// state meaningless.
func (p *PatchConfig) Validate() error {
	if p == nil {
		return fmt.Errorf("nil patch")
	}
	for i := 0; i < NumOperators; i++ {
		op := Operator(i)
		if p.Ratio[i] <= 0 {
			return fmt.Errorf("%s ratio must be > 0", op)
		}
		if p.AttackTime[i] <= 0 {
			return fmt.Errorf("%s attack time must be > 0", op)
		}
		if p.DecayTime[i] < 0 || p.ReleaseTime[i] <= 0 {
			return fmt.Errorf("%s decay/release times out of range", op)
		}
		if p.InitialLevel[i] < 0 || p.InitialLevel[i] > 255 {
			return fmt.Errorf("%s initial level must be in [0,255]", op)
		}
		if p.SustainLevel[i] < 0 || p.SustainLevel[i] > 255 {
			return fmt.Errorf("%s sustain level must be in [0,255]", op)
		}
		for j, v := range p.Curves[i] {
			if v < 0 || v > 1 {
				return fmt.Errorf("%s curve[%d] must be in [0,1]", op, j)
			}
		}
	}
	return nil
}

// Clone returns a deep copy.
func (p *PatchConfig) Clone() *PatchConfig {
	c := *p
	return &c
}

// Registry maps patch ids to patch constants.
type Registry struct {
	patches map[int]*PatchConfig
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{patches: make(map[int]*PatchConfig)}
}

// NewDefaultRegistry returns a registry holding the factory patches.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register(0, PatchEP11())
	_ = r.Register(1, PatchEP22())
	return r
}

// Register validates p and stores a copy under id, replacing any patch
// with the same id.
func (r *Registry) Register(id int, p *PatchConfig) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("patch %d: %w", id, err)
	}
	r.patches[id] = p.Clone()
	return nil
}

// Get returns the patch registered under id.
func (r *Registry) Get(id int) (*PatchConfig, bool) {
	p, ok := r.patches[id]
	return p, ok
}

// IDs returns the registered ids in ascending order.
func (r *Registry) IDs() []int {
	ids := make([]int, 0, len(r.patches))
	for id := range r.patches {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func newFactoryPatch() *PatchConfig {
	return &PatchConfig{
		Ratio:        [NumOperators]float32{1, 1, 1, 1},
		AttackTime:   [NumOperators]float32{2000, 2000, 4400, 4400},
		DecayTime:    [NumOperators]float32{2, 2, 1, 1},
		DecayScaling: [NumOperators]float32{3, 3, 3, 3},
		ReleaseTime:  [NumOperators]float32{100, 100, 100, 100},
	}
}

// PatchEP11 is the first factory electric piano.
func PatchEP11() *PatchConfig {
	p := newFactoryPatch()
	p.Name = "EP11"
	p.DetuneCents = [NumOperators]int{0, 12, 3, 12}
	p.Curves[C1] = [CurveLen]float32{
		0.0, 0.65, 0.9, 0.9, 0.9, 0.9, 0.9, 0.9, 0.9, 0.9, 0.9, 0.9,
		0.9, 0.9, 0.9, 1, 1, 1, 1, 1, 1, 1, 1, 1,
		1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
		0.9, 0.9, 0.8, 0.8, 0.8, 0.8, 0.8, 0.8, 0.8, 0.8,
	}
	p.Curves[C2] = [CurveLen]float32{
		0.0, 0.35, 0.2, 0.3, 0.3, 0.4, 0.5, 0.5, 0.6, 0.6, 0.7, 0.7,
		0.8, 0.8, 0.9, 0.9, 1, 1, 1, 1, 0.9, 0.9, 0.8, 0.7,
		0.6, 0.5, 0.4, 0.3, 0.2, 0.2, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1,
		0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1,
	}
	p.Curves[M1] = [CurveLen]float32{
		0.0, 0.7, 0.9, 0.9, 0.6, 0.6, 0.6, 0.6, 0.7, 0.7,
		0.7, 0.8, 0.8, 0.9, 0.9, 1, 0.9, 0.8, 0.8, 0.7,
		0.7, 0.7, 0.7, 0.6, 0.6, 0.5, 0.5, 0.4, 0.4, 0.3,
		0.3, 0.2, 0.2, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1,
		0.05, 0.05, 0.05, 0.05, 0.05, 0.05,
	}
	p.Curves[M2] = [CurveLen]float32{
		0.1, 0.55, 0.9, 0.9, 1, 1, 1, 1, 1, 1,
		1, 1, 1, 0.9, 0.9, 0.8, 0.8, 0.7, 0.7, 0.7,
		0.6, 0.6, 0.6, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.4,
		0.3, 0.2, 0.1, 0.1, 0.1, 0.05, 0.01, 0.0, 0.0, 0.0,
		0.0, 0.0, 0.0, 0.0, 0.0, 0.0,
	}
	return p
}

// PatchEP22 is the second factory electric piano, brighter with 7:1 and
// 15:1 carrier/modulator ratios on stack 2.
func PatchEP22() *PatchConfig {
	p := newFactoryPatch()
	p.Name = "EP22"
	p.Ratio = [NumOperators]float32{1, 7, 1, 15}
	p.DetuneCents = [NumOperators]int{0, 0, 5, 0}
	p.AttackTime = [NumOperators]float32{2000, 2000, 1800, 3000}
	p.DecayScaling[C2] = 15
	p.Curves[C1] = [CurveLen]float32{
		0.0, 1, 0.5, 0.5, 0.5, 0.5, 0.6, 0.6, 0.7, 0.7, 0.8, 0.8,
		0.9, 0.9, 0.9, 1, 1, 1, 1, 1, 1, 1, 1, 1,
		1, 1, 1, 1, 1, 1, 1, 1, 1, 0.9, 0.9, 0.9,
		0.8, 0.8, 0.7, 0.7, 0.6, 0.6, 0.5, 0.5, 0.4, 0.4,
	}
	p.Curves[C2] = [CurveLen]float32{
		0.0, 0.06, 0.6, 0.6, 0.6, 0.6, 0.6, 0.6, 0.7, 0.7,
		0.7, 0.7, 0.7, 0.7, 0.6, 0.6, 0.5, 0.5, 0.4, 0.4,
		0.4, 0.4, 0.4, 0.4, 0.4, 0.4, 0.4, 0.3, 0.3, 0.3,
		0.3, 0.3, 0.2, 0.2, 0.2, 0.2, 0.1, 0.1, 0.1, 0.1,
		0.1, 0.05, 0.05, 0.05, 0.05, 0.05,
	}
	p.Curves[M1] = [CurveLen]float32{
		0.0, 0.27, 1, 1, 1, 1, 1, 1, 0.9, 0.9,
		0.8, 0.8, 0.7, 0.7, 0.6, 0.6, 0.6, 0.6, 0.6, 0.6,
		0.6, 0.5, 0.5, 0.5, 0.4, 0.4, 0.3, 0.3, 0.3, 0.2,
		0.2, 0.1, 0.1, 0.1, 0.05, 0.05, 0.05, 0.01, 0.01, 0.01,
		0.01, 0.01, 0.01, 0.01, 0.01, 0.01,
	}
	p.Curves[M2] = [CurveLen]float32{
		0.0, 0.3, 1, 1, 1, 1, 1, 0.9, 0.9, 0.8, 0.8, 0.7,
		0.7, 0.6, 0.5, 0.4, 0.3, 0.2, 0.1, 0.05, 0.0, 0.0, 0.0, 0.0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
	return p
}
