package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-gs1/fm"
	"github.com/cwbudde/algo-gs1/internal/cli"
	"github.com/cwbudde/algo-gs1/internal/wavio"
	"github.com/cwbudde/algo-gs1/preset"
	"github.com/cwbudde/algo-gs1/score"
)

func main() {
	var ef cli.EngineFlags
	ef.Register(flag.CommandLine)
	referencePath := flag.String("reference", "reference/a4.wav", "Reference WAV path")
	outputPatch := flag.String("output-patch", "fitted.json", "Path to write the best patch JSON")
	reportPath := flag.String("report", "", "Optional report JSON path (default: <output-patch>.report.json)")
	outputWAV := flag.String("output-wav", "", "Optional WAV render of the best patch")
	wavRate := flag.Int("wav-sample-rate", 48000, "Sample rate of -output-wav")
	optimize := flag.String("optimize", "pitch,level,time", "Comma-separated knob groups to optimize: pitch, level, time, render")
	key := flag.Int("key", 49, "Key 1..88 to fit (49 = A4)")
	velocity := flag.Int("velocity", 100, "MIDI velocity for rendering during fit")
	hold := flag.Float64("hold", 1.0, "Seconds before the key is released")
	tail := flag.Float64("tail", 1.0, "Seconds rendered after release")
	seed := flag.Int64("seed", 1, "Random seed")
	timeBudget := flag.Float64("time-budget", 60.0, "Optimization time budget in seconds")
	maxEvals := flag.Int("max-evals", 5000, "Maximum objective evaluations")
	reportEvery := flag.Int("report-every", 50, "Print progress every N evaluations")
	topK := flag.Int("top-k", 5, "How many top candidates to keep in report")
	resume := flag.Bool("resume", false, "Resume from the best_knobs of an existing report")
	workers := flag.String("workers", "auto", "Parallel workers running independent Mayfly rounds (number or 'auto')")
	mayflyVariant := flag.String("mayfly-variant", "desma", "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	mayflyPop := flag.Int("mayfly-pop", 10, "Male and female population size per Mayfly run")
	mayflyRoundEvals := flag.Int("mayfly-round-evals", 240, "Target eval budget per Mayfly round")
	flag.Parse()

	groups, err := parseOptimizeGroups(*optimize)
	if err != nil {
		die("invalid -optimize: %v", err)
	}
	if *outputPatch == "" {
		die("output-patch must not be empty")
	}
	if *maxEvals < 1 {
		die("max-evals must be >= 1")
	}
	if *timeBudget <= 0 {
		die("time-budget must be > 0")
	}
	if *key < 1 || *key > 88 {
		die("key must be in 1..88")
	}
	if *hold < 0.01 {
		*hold = 0.01
	}
	if *tail < 0 {
		*tail = 0
	}
	if *reportEvery < 1 {
		*reportEvery = 1
	}
	if *mayflyPop < 2 {
		*mayflyPop = 2
	}
	if *mayflyRoundEvals < *mayflyPop*2 {
		*mayflyRoundEvals = *mayflyPop * 2
	}
	if *topK < 1 {
		*topK = 1
	}
	parsedWorkers, err := parseWorkers(*workers)
	if err != nil {
		die("invalid workers value: %v", err)
	}

	engCfg, reg, err := ef.Config()
	if err != nil {
		die("engine flags: %v", err)
	}
	basePatch, ok := reg.Get(engCfg.Patch)
	if !ok {
		die("patch %d: %v", engCfg.Patch, fm.ErrUnknownPatch)
	}

	refRaw, refSR, err := wavio.ReadWAVMono(*referencePath)
	if err != nil {
		die("failed to read reference: %v", err)
	}
	reference, err := wavio.Resample(refRaw, refSR, fm.SampleRate)
	if err != nil {
		die("failed to resample reference: %v", err)
	}

	defs, initCand := initCandidate(basePatch, *velocity, groups)
	report := *reportPath
	if report == "" {
		report = *outputPatch + ".report.json"
	}
	if *resume {
		if resumed, ok, err := loadCandidateFromReport(report, defs, initCand); err != nil {
			fmt.Fprintf(os.Stderr, "resume skipped (%s): %v\n", report, err)
		} else if ok {
			initCand = resumed
			fmt.Printf("Resumed candidate from %s\n", report)
		}
	}

	cfg := &optimizationConfig{
		reference:        reference,
		tables:           fm.NewTables(),
		basePatch:        basePatch,
		routing:          engCfg.Routing,
		defs:             defs,
		initCandidate:    initCand,
		key:              *key,
		baseVelocity:     *velocity,
		holdFrames:       score.Seconds(*hold),
		tailFrames:       score.Seconds(*tail),
		seed:             *seed,
		timeBudget:       *timeBudget,
		maxEvals:         *maxEvals,
		reportEvery:      *reportEvery,
		mayflyVariant:    strings.ToLower(*mayflyVariant),
		mayflyPop:        *mayflyPop,
		mayflyRoundEvals: *mayflyRoundEvals,
		workers:          parsedWorkers,
		topK:             *topK,
	}

	result, err := runOptimization(cfg)
	if err != nil {
		die("optimization failed: %v", err)
	}

	paths := outputPaths{
		patch:     *outputPatch,
		report:    report,
		wav:       *outputWAV,
		wavRate:   *wavRate,
		reference: *referencePath,
		basePatch: basePatch.Name,
	}
	if err := writeOutputs(paths, cfg, result); err != nil {
		die("failed to write outputs: %v", err)
	}

	st := cli.NewStyles()
	fmt.Println(st.Title.Render("gs1-fit"))
	fmt.Println(st.Field("evals", strconv.Itoa(result.evals)))
	fmt.Println(st.Field("elapsed", fmt.Sprintf("%.1fs", result.elapsed)))
	fmt.Println(st.Field("score", fmt.Sprintf("%.4f", result.bestMetrics.Score)))
	fmt.Println(st.Field("similarity", fmt.Sprintf("%.2f%%", result.bestMetrics.Similarity*100.0)))
	fmt.Println(st.Field("patch", fmt.Sprintf("%s (v%s)", *outputPatch, preset.CurrentVersion)))
}

// parseWorkers accepts a positive count or "auto" (0, one per CPU).
func parseWorkers(raw string) (int, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return 0, fmt.Errorf("empty value (use integer >= 1 or 'auto')")
	}
	if v == "auto" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%q (use integer >= 1 or 'auto')", raw)
	}
	if n < 1 {
		return 0, fmt.Errorf("%d (must be >= 1 or 'auto')", n)
	}
	return n, nil
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
