package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/cwbudde/algo-gs1/fm"
)

// CurrentVersion is written by SaveJSON.
const CurrentVersion = "1.0.0"

// SupportedVersions is the constraint a patch file version must satisfy.
const SupportedVersions = "^1.0.0"

// UserPatchID is the registry id used for files without an "id".
const UserPatchID = 2

// File is the JSON schema for patch files.
type File struct {
	Version   string                     `json:"version,omitempty"`
	ID        *int                       `json:"id,omitempty"`
	Name      string                     `json:"name,omitempty"`
	Base      *int                       `json:"base,omitempty"`
	Operators map[string]OperatorSetting `json:"operators,omitempty"`
}

// OperatorSetting is a partial operator override entry in a patch file.
// Keys of File.Operators are operator names (C1, C2, M1, M2).
type OperatorSetting struct {
	Ratio        *float32  `json:"ratio,omitempty"`
	DetuneCents  *int      `json:"detune_cents,omitempty"`
	AttackTime   *float32  `json:"attack_time,omitempty"`
	DecayTime    *float32  `json:"decay_time,omitempty"`
	DecayScaling *float32  `json:"decay_scaling,omitempty"`
	ReleaseTime  *float32  `json:"release_time,omitempty"`
	InitialLevel *int      `json:"initial_level,omitempty"`
	SustainLevel *int      `json:"sustain_level,omitempty"`
	Curve        []float32 `json:"curve,omitempty"`
}

// LoadJSON loads a patch file and applies it on top of its base factory
// patch (EP11 unless "base" says otherwise). It returns the registry id
// the file asks for.
func LoadJSON(path string) (int, *fm.PatchConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return 0, nil, err
	}
	if err := CheckVersion(f.Version); err != nil {
		return 0, nil, fmt.Errorf("%s: %w", path, err)
	}

	baseID := 0
	if f.Base != nil {
		baseID = *f.Base
	}
	base, ok := fm.NewDefaultRegistry().Get(baseID)
	if !ok {
		return 0, nil, fmt.Errorf("base patch %d: %w", baseID, fm.ErrUnknownPatch)
	}
	p := base.Clone()
	if err := ApplyFile(p, &f); err != nil {
		return 0, nil, err
	}
	if err := p.Validate(); err != nil {
		return 0, nil, err
	}

	id := UserPatchID
	if f.ID != nil {
		id = *f.ID
	}
	return id, p, nil
}

// RegisterFile loads path and registers the patch in r.
func RegisterFile(r *fm.Registry, path string) (int, error) {
	id, p, err := LoadJSON(path)
	if err != nil {
		return 0, err
	}
	if err := r.Register(id, p); err != nil {
		return 0, err
	}
	return id, nil
}

// CheckVersion verifies a file version against SupportedVersions. An empty
// version is read as 1.0.0.
func CheckVersion(version string) error {
	if strings.TrimSpace(version) == "" {
		version = CurrentVersion
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", version, err)
	}
	c, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return err
	}
	if !c.Check(v) {
		return fmt.Errorf("unsupported patch version %s (want %s)", v, SupportedVersions)
	}
	return nil
}

// ApplyFile applies a parsed patch file onto an existing patch.
func ApplyFile(dst *fm.PatchConfig, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination patch")
	}
	if f == nil {
		return nil
	}
	if name := strings.TrimSpace(f.Name); name != "" {
		dst.Name = name
	}

	keys := make([]string, 0, len(f.Operators))
	for k := range f.Operators {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		op, err := parseOperator(k)
		if err != nil {
			return err
		}
		if err := applyOperator(dst, op, f.Operators[k]); err != nil {
			return err
		}
	}
	return nil
}

func applyOperator(dst *fm.PatchConfig, op fm.Operator, s OperatorSetting) error {
	if s.Ratio != nil {
		if *s.Ratio <= 0 {
			return fmt.Errorf("operators[%s].ratio must be > 0", op)
		}
		dst.Ratio[op] = *s.Ratio
	}
	if s.DetuneCents != nil {
		if *s.DetuneCents < -1200 || *s.DetuneCents > 1200 {
			return fmt.Errorf("operators[%s].detune_cents must be in [-1200,1200]", op)
		}
		dst.DetuneCents[op] = *s.DetuneCents
	}
	if s.AttackTime != nil {
		if *s.AttackTime <= 0 {
			return fmt.Errorf("operators[%s].attack_time must be > 0", op)
		}
		dst.AttackTime[op] = *s.AttackTime
	}
	if s.DecayTime != nil {
		if *s.DecayTime < 0 {
			return fmt.Errorf("operators[%s].decay_time must be >= 0", op)
		}
		dst.DecayTime[op] = *s.DecayTime
	}
	if s.DecayScaling != nil {
		if *s.DecayScaling < 0 {
			return fmt.Errorf("operators[%s].decay_scaling must be >= 0", op)
		}
		dst.DecayScaling[op] = *s.DecayScaling
	}
	if s.ReleaseTime != nil {
		if *s.ReleaseTime <= 0 {
			return fmt.Errorf("operators[%s].release_time must be > 0", op)
		}
		dst.ReleaseTime[op] = *s.ReleaseTime
	}
	if s.InitialLevel != nil {
		if *s.InitialLevel < 0 || *s.InitialLevel > 255 {
			return fmt.Errorf("operators[%s].initial_level must be in [0,255]", op)
		}
		dst.InitialLevel[op] = *s.InitialLevel
	}
	if s.SustainLevel != nil {
		if *s.SustainLevel < 0 || *s.SustainLevel > 255 {
			return fmt.Errorf("operators[%s].sustain_level must be in [0,255]", op)
		}
		dst.SustainLevel[op] = *s.SustainLevel
	}
	if s.Curve != nil {
		if len(s.Curve) != fm.CurveLen {
			return fmt.Errorf("operators[%s].curve must have %d entries, got %d", op, fm.CurveLen, len(s.Curve))
		}
		for i, v := range s.Curve {
			if v < 0 || v > 1 {
				return fmt.Errorf("operators[%s].curve[%d] must be in [0,1]", op, i)
			}
		}
		copy(dst.Curves[op][:], s.Curve)
	}
	return nil
}

func parseOperator(name string) (fm.Operator, error) {
	for op := fm.C1; op < fm.NumOperators; op++ {
		if strings.EqualFold(strings.TrimSpace(name), op.String()) {
			return op, nil
		}
	}
	return 0, fmt.Errorf("invalid operator key %q (expected C1, C2, M1 or M2)", name)
}

// FromPatch builds a complete file for a copy of p.
func FromPatch(id int, p *fm.PatchConfig) *File {
	p = p.Clone()
	f := &File{
		Version:   CurrentVersion,
		ID:        &id,
		Name:      p.Name,
		Operators: make(map[string]OperatorSetting, fm.NumOperators),
	}
	for op := fm.C1; op < fm.NumOperators; op++ {
		curve := make([]float32, fm.CurveLen)
		copy(curve, p.Curves[op][:])
		f.Operators[op.String()] = OperatorSetting{
			Ratio:        &p.Ratio[op],
			DetuneCents:  &p.DetuneCents[op],
			AttackTime:   &p.AttackTime[op],
			DecayTime:    &p.DecayTime[op],
			DecayScaling: &p.DecayScaling[op],
			ReleaseTime:  &p.ReleaseTime[op],
			InitialLevel: &p.InitialLevel[op],
			SustainLevel: &p.SustainLevel[op],
			Curve:        curve,
		}
	}
	return f
}

// SaveJSON writes p as a complete patch file.
func SaveJSON(path string, id int, p *fm.PatchConfig) error {
	if p == nil {
		return fmt.Errorf("nil patch")
	}
	b, err := json.MarshalIndent(FromPatch(id, p), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
