package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/algo-gs1/analysis"
	"github.com/cwbudde/algo-gs1/fm"
	"github.com/cwbudde/algo-gs1/internal/wavio"
	"github.com/cwbudde/algo-gs1/preset"
)

type runReport struct {
	ReferencePath  string             `json:"reference_path"`
	BasePatch      string             `json:"base_patch"`
	OutputPatch    string             `json:"output_patch"`
	OutputWAV      string             `json:"output_wav,omitempty"`
	Key            int                `json:"key"`
	Velocity       int                `json:"velocity"`
	HoldSec        float64            `json:"hold_seconds"`
	DurationSec    float64            `json:"elapsed_seconds"`
	Evaluations    int                `json:"evaluations"`
	MayflyVariant  string             `json:"mayfly_variant"`
	BestScore      float64            `json:"best_score"`
	BestSimilarity float64            `json:"best_similarity"`
	BestMetrics    analysis.Metrics   `json:"best_metrics"`
	BestKnobs      map[string]float64 `json:"best_knobs"`
	TopCandidates  []topCandidate     `json:"top_candidates,omitempty"`
}

type outputPaths struct {
	patch     string
	report    string
	wav       string
	wavRate   int
	reference string
	basePatch string
}

// writeOutputs stores the best patch, the run report and, when requested,
// a render of the best patch.
func writeOutputs(paths outputPaths, cfg *optimizationConfig, res *optimizationResult) error {
	if err := preset.SaveJSON(paths.patch, preset.UserPatchID, res.bestPatch); err != nil {
		return fmt.Errorf("write patch: %w", err)
	}

	if paths.wav != "" {
		stereo, err := renderPatch(cfg.tables, res.bestPatch, cfg.routing, cfg.key, res.bestVelocity, cfg.holdFrames, cfg.tailFrames)
		if err != nil {
			return fmt.Errorf("render best: %w", err)
		}
		if paths.wavRate != fm.SampleRate {
			stereo, err = wavio.ResampleStereo(stereo, fm.SampleRate, paths.wavRate)
			if err != nil {
				return fmt.Errorf("resample best: %w", err)
			}
		}
		if err := wavio.WriteStereoWAV(paths.wav, stereo, paths.wavRate); err != nil {
			return fmt.Errorf("write wav: %w", err)
		}
	}

	rep := runReport{
		ReferencePath:  paths.reference,
		BasePatch:      paths.basePatch,
		OutputPatch:    paths.patch,
		OutputWAV:      paths.wav,
		Key:            cfg.key,
		Velocity:       res.bestVelocity,
		HoldSec:        float64(cfg.holdFrames) / fm.SampleRate,
		DurationSec:    res.elapsed,
		Evaluations:    res.evals,
		MayflyVariant:  cfg.mayflyVariant,
		BestScore:      res.bestMetrics.Score,
		BestSimilarity: res.bestMetrics.Similarity,
		BestMetrics:    res.bestMetrics,
		BestKnobs:      knobMap(cfg.defs, res.best),
		TopCandidates:  res.top,
	}
	report := paths.report
	if report == "" {
		report = paths.patch + ".report.json"
	}
	return writeJSON(report, rep)
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(sanitizeJSON(v), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

// sanitizeJSON replaces non-finite metrics, which encoding/json rejects.
func sanitizeJSON(v any) any {
	rep, ok := v.(runReport)
	if !ok {
		return v
	}
	fix := func(x *float64) {
		if math.IsNaN(*x) || math.IsInf(*x, 0) {
			*x = 0
		}
	}
	m := &rep.BestMetrics
	for _, x := range []*float64{&rep.BestScore, &rep.BestSimilarity, &m.EnvelopeRMSEDB, &m.SpectralRMSEDB,
		&m.RefDecayDBPerS, &m.CandDecayDBPerS, &m.DecayDiffDBPerS, &m.RefPeakHz, &m.CandPeakHz, &m.PitchDiffCents,
		&m.Score, &m.Similarity} {
		fix(x)
	}
	return rep
}

// loadCandidateFromReport seeds the search with the best knobs of an
// earlier run. A missing report is not an error.
func loadCandidateFromReport(path string, defs []knobDef, fallback candidate) (candidate, bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fallback, false, nil
		}
		return fallback, false, err
	}
	var rep struct {
		BestKnobs map[string]float64 `json:"best_knobs"`
	}
	if err := json.Unmarshal(b, &rep); err != nil {
		return fallback, false, err
	}
	if len(rep.BestKnobs) == 0 {
		return fallback, false, nil
	}

	out := cloneCandidate(fallback)
	updated := false
	for i, d := range defs {
		if v, ok := rep.BestKnobs[d.Name]; ok {
			out.Vals[i] = clamp(v, d.Min, d.Max)
			if d.IsInt {
				out.Vals[i] = math.Round(out.Vals[i])
			}
			updated = true
		}
	}
	if !updated {
		return fallback, false, nil
	}
	return out, true, nil
}
