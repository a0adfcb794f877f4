package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/cwbudde/algo-gs1/analysis"
	"github.com/cwbudde/algo-gs1/fm"
	"github.com/cwbudde/algo-gs1/internal/cli"
	"github.com/cwbudde/algo-gs1/internal/wavio"
	"github.com/cwbudde/algo-gs1/score"
)

func main() {
	var ef cli.EngineFlags
	ef.Register(flag.CommandLine)
	key := flag.Int("key", 49, "Key 1..88 (49 = A4 = 440 Hz)")
	midi := flag.Int("midi", 0, "MIDI note number; overrides -key when > 0 (key = midi - 24)")
	chord := flag.String("chord", "", "Comma separated keys to play together; overrides -key")
	velocity := flag.Int("velocity", 100, "MIDI velocity (0-127)")
	hold := flag.Float64("hold", 1.0, "Seconds before the note is released")
	tail := flag.Float64("tail", 1.5, "Seconds rendered after the last event")
	scorePath := flag.String("score", "", "Lua score file; overrides -key/-chord")
	decayDBFS := flag.Float64("decay-dbfs", math.Inf(-1), "Trim the tail once block RMS stays below this dBFS (e.g. -70). Disabled by default")
	sampleRate := flag.Int("sample-rate", 48000, "Output sample rate in Hz (the engine runs at 34687 Hz)")
	output := flag.String("output", "output.wav", "Output WAV file path")
	flag.Parse()

	st := cli.NewStyles()
	fail := func(what string, err error) {
		fmt.Fprintf(os.Stderr, "%s %s: %v\n", st.Err.Render("Error"), what, err)
		os.Exit(1)
	}

	e, err := ef.Engine()
	if err != nil {
		fail("creating engine", err)
	}

	var events []score.Event
	switch {
	case *scorePath != "":
		events, err = score.LoadLuaFile(*scorePath)
		if err != nil {
			fail("loading score", err)
		}
	default:
		keys := []int{*key}
		if *midi > 0 {
			keys = []int{fm.KeyFromMIDI(*midi)}
		}
		if *chord != "" {
			keys, err = cli.ParseKeys(*chord)
			if err != nil {
				fail("parsing -chord", err)
			}
		}
		events = score.Chord(keys, *velocity, score.Seconds(*hold))
	}

	rendered, err := score.Render(e, events, score.Seconds(*tail))
	if err != nil {
		fail("rendering", err)
	}
	if !math.IsInf(*decayDBFS, -1) {
		rendered = trimTail(rendered, *decayDBFS, 128, 6)
	}

	samples, err := wavio.ResampleStereo(rendered, fm.SampleRate, *sampleRate)
	if err != nil {
		fail("resampling", err)
	}
	if err := wavio.WriteStereoWAV(*output, samples, *sampleRate); err != nil {
		fail("writing WAV file", err)
	}

	id, patch := e.Patch()
	routing := e.Routing()
	frames := len(samples) / 2
	fmt.Println(st.Title.Render("gs1-render"))
	fmt.Println(st.Field("patch", fmt.Sprintf("%d %s", id, patch.Name)))
	fmt.Println(st.Field("routing", fmt.Sprintf("%s / %s", routing[0], routing[1])))
	fmt.Println(st.Field("events", strconv.Itoa(len(events))))
	fmt.Println(st.Field("duration", fmt.Sprintf("%.3fs (%d frames at %d Hz)", float64(frames)/float64(*sampleRate), frames, *sampleRate)))
	peak := wavio.Peak(samples)
	peakLine := fmt.Sprintf("%.4f", peak)
	if peak > 1 {
		peakLine = st.Warn.Render(peakLine + " (clipping)")
	}
	fmt.Println(st.Field("peak", peakLine))
	if f, err := analysis.PeakFrequency(wavio.StereoToMono64(rendered), fm.SampleRate); err == nil && f > 0 {
		fmt.Println(st.Field("strongest", fmt.Sprintf("%.2f Hz", f)))
	}
	fmt.Println(st.Good.Render("wrote " + *output))
}

// parseKeys parses "40,44,47" into keys, checking the key range.
// trimTail cuts interleaved stereo after the first run of holdBlocks blocks
// whose RMS is below thresholdDB.
func trimTail(interleaved []float32, thresholdDB float64, blockFrames int, holdBlocks int) []float32 {
	threshold := math.Pow(10.0, thresholdDB/20.0)
	if holdBlocks < 1 {
		holdBlocks = 1
	}
	below := 0
	step := blockFrames * 2
	for pos := 0; pos < len(interleaved); pos += step {
		end := pos + step
		if end > len(interleaved) {
			end = len(interleaved)
		}
		if stereoRMS(interleaved[pos:end]) < threshold {
			below++
			if below >= holdBlocks {
				return interleaved[:end]
			}
		} else {
			below = 0
		}
	}
	return interleaved
}

func stereoRMS(interleaved []float32) float64 {
	if len(interleaved) == 0 {
		return 0
	}
	var sum float64
	for _, s := range interleaved {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(interleaved)))
}
