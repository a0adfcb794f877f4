//go:build js && wasm

package main

import (
	"syscall/js"
	"unsafe"

	"github.com/cwbudde/algo-gs1/dsp"
	"github.com/cwbudde/algo-gs1/fm"
)

const maxBlockFrames = 128

var (
	engine       *fm.Engine
	conv         *dsp.RateConverter
	outputBuffer []float32
)

func main() {
	c := make(chan struct{})

	js.Global().Set("wasmInit", js.FuncOf(wasmInit))
	js.Global().Set("wasmNoteOn", js.FuncOf(wasmNoteOn))
	js.Global().Set("wasmNoteOff", js.FuncOf(wasmNoteOff))
	js.Global().Set("wasmSetSustain", js.FuncOf(wasmSetSustain))
	js.Global().Set("wasmSelectPatch", js.FuncOf(wasmSelectPatch))
	js.Global().Set("wasmSetRouting", js.FuncOf(wasmSetRouting))
	js.Global().Set("wasmProcessBlock", js.FuncOf(wasmProcessBlock))
	js.Global().Set("wasmGetMemoryBuffer", js.FuncOf(wasmGetMemoryBuffer))

	println("WASM gs1 module loaded")
	<-c
}

// wasmInit(sampleRate) builds the engine and a converter to the
// AudioContext rate. Returns an error string or null.
func wasmInit(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return "missing sample rate"
	}
	sampleRate := args[0].Int()

	e, err := fm.NewEngine(fm.NewTables(), fm.NewDefaultRegistry(), fm.DefaultConfig())
	if err != nil {
		return err.Error()
	}
	engine = e
	conv = dsp.NewRateConverter(func() (float32, float32) {
		e.RenderSample()
		return e.RenderStereoTick()
	}, fm.SampleRate, sampleRate)
	outputBuffer = make([]float32, maxBlockFrames*2)

	println("GS1 engine initialized, output at", sampleRate, "Hz")
	return nil
}

// wasmNoteOn(midiNote, velocity) returns the voice slot or -1.
func wasmNoteOn(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 || engine == nil {
		return -1
	}
	slot, err := engine.TriggerNote(fm.KeyFromMIDI(args[0].Int()), args[1].Int())
	if err != nil {
		return -1
	}
	return slot
}

func wasmNoteOff(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || engine == nil {
		return nil
	}
	engine.ReleaseNote(fm.KeyFromMIDI(args[0].Int()))
	return nil
}

func wasmSetSustain(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || engine == nil {
		return nil
	}
	engine.SetSustainPedal(args[0].Bool())
	return nil
}

func wasmSelectPatch(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || engine == nil {
		return "engine not initialized"
	}
	if err := engine.SelectPatch(args[0].Int()); err != nil {
		return err.Error()
	}
	return nil
}

// wasmSetRouting(stack, mode) with stack 0 or 1 and mode "norm", "pi/2",
// "pi" or "cross".
func wasmSetRouting(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 || engine == nil {
		return "engine not initialized"
	}
	mode, err := fm.ParseRoutingMode(args[1].String())
	if err != nil {
		return err.Error()
	}
	if err := engine.SetRouting(args[0].Int(), mode); err != nil {
		return err.Error()
	}
	return nil
}

func wasmProcessBlock(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || engine == nil {
		return 0
	}
	numFrames := args[0].Int()
	if numFrames > maxBlockFrames {
		numFrames = maxBlockFrames
	}
	conv.Fill(outputBuffer[:numFrames*2])

	ptr := &outputBuffer[0]
	return js.ValueOf(uintptr(unsafe.Pointer(ptr)))
}

func wasmGetMemoryBuffer(this js.Value, args []js.Value) interface{} {
	return js.Global().Get("Go").Get("_inst").Get("exports").Get("mem").Get("buffer")
}
