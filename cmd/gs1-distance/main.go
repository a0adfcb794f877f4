// Command gs1-distance scores a candidate against a reference recording.
// The candidate is either a WAV file or a note rendered by the engine.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/cwbudde/algo-gs1/analysis"
	"github.com/cwbudde/algo-gs1/fm"
	"github.com/cwbudde/algo-gs1/internal/cli"
	"github.com/cwbudde/algo-gs1/internal/wavio"
	"github.com/cwbudde/algo-gs1/score"
)

func main() {
	var ef cli.EngineFlags
	ef.Register(flag.CommandLine)
	referencePath := flag.String("reference", "reference/a4.wav", "Reference WAV path")
	candidatePath := flag.String("candidate", "", "Candidate WAV path; if empty, render the candidate with the engine")
	key := flag.Int("key", 49, "Key for the rendered candidate")
	velocity := flag.Int("velocity", 100, "MIDI velocity for the rendered candidate")
	hold := flag.Float64("hold", 1.0, "Seconds before the rendered note is released")
	tail := flag.Float64("tail", 1.0, "Seconds rendered after release")
	sampleRate := flag.Int("sample-rate", fm.SampleRate, "Analysis sample rate in Hz")
	writeCandidate := flag.String("write-candidate", "", "Optional path to write the rendered candidate WAV")
	bands := flag.Bool("bands", false, "Also print a per band, per time window spectral comparison")
	jsonOut := flag.Bool("json", false, "Print metrics as JSON")
	flag.Parse()

	ref, err := loadMono(*referencePath, *sampleRate)
	if err != nil {
		die("failed to read reference: %v", err)
	}

	var cand []float64
	if *candidatePath != "" {
		cand, err = loadMono(*candidatePath, *sampleRate)
		if err != nil {
			die("failed to read candidate: %v", err)
		}
	} else {
		e, err := ef.Engine()
		if err != nil {
			die("failed to create engine: %v", err)
		}
		stereo, err := score.Render(e, score.Chord([]int{*key}, *velocity, score.Seconds(*hold)), score.Seconds(*tail))
		if err != nil {
			die("failed to render candidate: %v", err)
		}
		if *sampleRate != fm.SampleRate {
			stereo, err = wavio.ResampleStereo(stereo, fm.SampleRate, *sampleRate)
			if err != nil {
				die("failed to resample candidate: %v", err)
			}
		}
		if *writeCandidate != "" {
			if err := wavio.WriteStereoWAV(*writeCandidate, stereo, *sampleRate); err != nil {
				die("failed to write candidate wav: %v", err)
			}
		}
		cand = wavio.StereoToMono64(stereo)
	}

	metrics := analysis.Compare(ref, cand, *sampleRate)
	var bandDiffs []analysis.BandDiff
	if *bands {
		bandDiffs = compareAlignedBands(ref, cand, *sampleRate)
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		out := struct {
			analysis.Metrics
			Bands []analysis.BandDiff `json:"bands,omitempty"`
		}{metrics, bandDiffs}
		if err := enc.Encode(out); err != nil {
			die("json encode failed: %v", err)
		}
		return
	}
	st := cli.NewStyles()
	printReport(os.Stdout, st, metrics)
	if *bands {
		printBands(os.Stdout, st, bandDiffs)
	}
}

func compareAlignedBands(ref, cand []float64, sampleRate int) []analysis.BandDiff {
	ref, cand, _ = analysis.AlignSignals(ref, cand, sampleRate)
	return analysis.CompareBands(ref, cand, sampleRate, analysis.DefaultBands, analysis.DefaultWindows)
}

func printBands(w io.Writer, st cli.Styles, diffs []analysis.BandDiff) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(st.Dim).
		Headers("window", "band", "frames", "rmse", "ref", "cand", "diff")
	for _, d := range diffs {
		rmse := fmt.Sprintf("%.1f dB", d.RMSEDB)
		switch {
		case d.RMSEDB > 25:
			rmse = st.Err.Render(rmse)
		case d.RMSEDB > 15:
			rmse = st.Warn.Render(rmse)
		}
		t.Row(d.Window, d.Band, fmt.Sprint(d.Frames), rmse,
			fmt.Sprintf("%.1f dB", d.RefDB), fmt.Sprintf("%.1f dB", d.CandDB), fmt.Sprintf("%+.1f dB", d.LevelDiff))
	}
	fmt.Fprintln(w, t.String())
}

func loadMono(path string, rate int) ([]float64, error) {
	x, sr, err := wavio.ReadWAVMono(path)
	if err != nil {
		return nil, err
	}
	return wavio.Resample(x, sr, rate)
}

type component struct {
	name   string
	raw    string
	norm   float64
	weight float64
}

func components(m analysis.Metrics) []component {
	return []component{
		{"envelope", fmt.Sprintf("%.1f dB", m.EnvelopeRMSEDB), m.EnvelopeNorm, analysis.WeightEnvelope},
		{"spectral", fmt.Sprintf("%.1f dB", m.SpectralRMSEDB), m.SpectralNorm, analysis.WeightSpectral},
		{"decay", fmt.Sprintf("%.1f dB/s", m.DecayDiffDBPerS), m.DecayNorm, analysis.WeightDecay},
		{"pitch", fmt.Sprintf("%.1f cents", m.PitchDiffCents), m.PitchNorm, analysis.WeightPitch},
	}
}

func printReport(w io.Writer, st cli.Styles, m analysis.Metrics) {
	fmt.Fprintln(w, st.Title.Render("gs1-distance"))
	fmt.Fprintln(w, st.Field("frames", fmt.Sprintf("ref=%d cand=%d aligned=%d", m.ReferenceFrames, m.CandidateFrames, m.AlignedFrames)))
	lagMS := 0.0
	if m.SampleRate > 0 {
		lagMS = 1000.0 * float64(m.LagSamples) / float64(m.SampleRate)
	}
	fmt.Fprintln(w, st.Field("lag", fmt.Sprintf("%d samples (%.3f ms)", m.LagSamples, lagMS)))

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(st.Dim).
		Headers("component", "raw", "norm", "weight", "contribution")
	for _, c := range components(m) {
		name := c.name
		if c.name == m.Dominant {
			name += " *"
		}
		t.Row(name, c.raw, fmt.Sprintf("%.1f%%", c.norm*100), fmt.Sprintf("%.2f", c.weight), fmt.Sprintf("%.4f", c.norm*c.weight))
	}
	fmt.Fprintln(w, t.String())

	fmt.Fprintln(w, st.Field("score", fmt.Sprintf("%.4f (0 best, 1 worst)", m.Score)))
	fmt.Fprintln(w, st.Field("similarity", fmt.Sprintf("%.2f%%", m.Similarity*100.0)))
	fmt.Fprintln(w, st.Field("pitch", fmt.Sprintf("ref=%.2f Hz cand=%.2f Hz", m.RefPeakHz, m.CandPeakHz)))
	fmt.Fprintln(w, st.Field("decay", fmt.Sprintf("ref=%.1f dB/s cand=%.1f dB/s", m.RefDecayDBPerS, m.CandDecayDBPerS)))
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
