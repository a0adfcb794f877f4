package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ebitengine/oto/v3"
	"golang.org/x/term"

	"github.com/cwbudde/algo-gs1/fm"
	"github.com/cwbudde/algo-gs1/internal/cli"
)

func main() {
	var ef cli.EngineFlags
	ef.Register(flag.CommandLine)
	baseKey := flag.Int("base-key", 40, "Engine key of the 'z' note (40 = C4)")
	velocity := flag.Int("velocity", 100, "MIDI velocity (0-127)")
	gate := flag.Duration("gate", 400*time.Millisecond, "How long a key press holds the note")
	deviceRate := flag.Int("device-rate", 48000, "Audio device sample rate in Hz")
	bufferMs := flag.Int("buffer-ms", 40, "Audio device buffer in milliseconds")
	gain := flag.Float64("gain", 1.0, "Output gain")
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
	stream := newSynthStream(e, *deviceRate, float32(*gain))

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   *deviceRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(*bufferMs) * time.Millisecond,
	})
	if err != nil {
		fail("opening audio device", err)
	}
	<-ready
	player := ctx.NewPlayer(stream)
	player.Play()
	defer player.Close()

	printHelp(st, e)

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fail("setting raw mode", err)
	}
	defer func() { _ = term.Restore(fd, oldState) }()

	kb := newKeyboard(*baseKey)
	pedal := false
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil || n == 0 {
			return
		}
		a := kb.handle(buf[0])
		switch a.kind {
		case actionNote:
			if err := stream.play(a.key, *velocity, *gate); err != nil {
				status(st.Warn.Render(err.Error()))
				continue
			}
			status(fmt.Sprintf("key %d", a.key))
		case actionPedal:
			pedal = !pedal
			stream.do(func(e *fm.Engine) { e.SetSustainPedal(pedal) })
			status(fmt.Sprintf("pedal %s", onOff(pedal)))
		case actionPatch:
			var perr error
			var name string
			stream.do(func(e *fm.Engine) {
				perr = e.SelectPatch(a.patch)
				_, p := e.Patch()
				name = p.Name
			})
			if perr != nil {
				status(st.Warn.Render(perr.Error()))
				continue
			}
			status(fmt.Sprintf("patch %d %s", a.patch, name))
		case actionOctave:
			status(fmt.Sprintf("base key %d", kb.base))
		case actionQuit:
			fmt.Print("\r\n")
			return
		}
	}
}

func printHelp(st cli.Styles, e *fm.Engine) {
	id, p := e.Patch()
	r := e.Routing()
	fmt.Println(st.Title.Render("gs1-play"))
	fmt.Println(st.Field("patch", fmt.Sprintf("%d %s", id, p.Name)))
	fmt.Println(st.Field("routing", fmt.Sprintf("%s / %s", r[0], r[1])))
	var keys []string
	for _, k := range []string{"z", "s", "x", "d", "c", "v", "g", "b", "h", "n", "j", "m", ","} {
		keys = append(keys, st.Key.Render(k))
	}
	fmt.Println(strings.Join(keys, " "))
	fmt.Println(st.Dim.Render("space pedal  1-9 patch  [ ] octave  q quit"))
}

// status rewrites the current terminal line; raw mode needs explicit CR.
func status(s string) {
	fmt.Printf("\r\033[K%s", s)
}

func onOff(b bool) string {
	if b {
		return "down"
	}
	return "up"
}
