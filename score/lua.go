package score

import (
	"fmt"
	"os"

	"github.com/cwbudde/algo-gs1/fm"
	lua "github.com/yuin/gopher-lua"
)

const defaultVelocity = 100

// LoadLuaFile runs the Lua script at path and returns its events.
func LoadLuaFile(path string) ([]Event, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	events, err := LoadLua(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return events, nil
}

// LoadLua runs a Lua score and returns its events sorted by frame.
//
// The script sees a cursor starting at 0 seconds and these globals:
//
//	note_on(key [, vel])     trigger key (1..88) at the cursor
//	note_off(key)            release key at the cursor
//	note(key, dur [, vel])   note_on now, note_off dur seconds later
//	pedal(down)              sustain pedal
//	patch(id)                select a patch
//	wait(seconds)            advance the cursor
//	at(seconds)              move the cursor
//	now()                    cursor in seconds
//	midi(n)                  MIDI note number to key
//	SAMPLE_RATE              engine rate in Hz
//
// Only the base, table, string and math libraries are loaded.
func LoadLua(src string) ([]Event, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	if err := openSafeLibs(L); err != nil {
		return nil, err
	}

	s := &luaScore{}
	s.register(L)
	if err := L.DoString(src); err != nil {
		return nil, fmt.Errorf("lua score: %w", err)
	}
	Sort(s.events)
	return s.events, nil
}

func openSafeLibs(L *lua.LState) error {
	libs := []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
	for _, lib := range libs {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			return fmt.Errorf("open lua %s: %w", lib.name, err)
		}
	}
	// base pulls in file loaders; scores have no business reading files.
	for _, name := range []string{"dofile", "loadfile"} {
		L.SetGlobal(name, lua.LNil)
	}
	return nil
}

type luaScore struct {
	cursor int
	events []Event
}

func (s *luaScore) register(L *lua.LState) {
	L.SetGlobal("SAMPLE_RATE", lua.LNumber(fm.SampleRate))
	fns := map[string]lua.LGFunction{
		"note_on":  s.noteOn,
		"note_off": s.noteOff,
		"note":     s.note,
		"pedal":    s.pedal,
		"patch":    s.patch,
		"wait":     s.wait,
		"at":       s.at,
		"now":      s.now,
		"midi":     midi,
	}
	for name, fn := range fns {
		L.SetGlobal(name, L.NewFunction(fn))
	}
}

func (s *luaScore) add(e Event) {
	e.Frame = s.cursor
	s.events = append(s.events, e)
}

func checkKey(L *lua.LState, n int) int {
	key := L.CheckInt(n)
	if key < fm.MinKey || key > fm.MaxKey {
		L.ArgError(n, fmt.Sprintf("key %d out of range %d..%d", key, fm.MinKey, fm.MaxKey))
	}
	return key
}

func checkVelocity(L *lua.LState, n int) int {
	vel := L.OptInt(n, defaultVelocity)
	if vel < 0 || vel > 127 {
		L.ArgError(n, fmt.Sprintf("velocity %d out of range 0..127", vel))
	}
	return vel
}

func checkSeconds(L *lua.LState, n int) int {
	sec := float64(L.CheckNumber(n))
	if sec < 0 {
		L.ArgError(n, "time must be >= 0")
	}
	return Seconds(sec)
}

func (s *luaScore) noteOn(L *lua.LState) int {
	s.add(Event{Kind: NoteOn, Key: checkKey(L, 1), Velocity: checkVelocity(L, 2)})
	return 0
}

func (s *luaScore) noteOff(L *lua.LState) int {
	s.add(Event{Kind: NoteOff, Key: checkKey(L, 1)})
	return 0
}

func (s *luaScore) note(L *lua.LState) int {
	key := checkKey(L, 1)
	dur := checkSeconds(L, 2)
	vel := checkVelocity(L, 3)
	s.add(Event{Kind: NoteOn, Key: key, Velocity: vel})
	s.events = append(s.events, Event{Frame: s.cursor + dur, Kind: NoteOff, Key: key})
	return 0
}

func (s *luaScore) pedal(L *lua.LState) int {
	s.add(Event{Kind: Pedal, Down: L.ToBool(1)})
	return 0
}

func (s *luaScore) patch(L *lua.LState) int {
	s.add(Event{Kind: Patch, Patch: L.CheckInt(1)})
	return 0
}

func (s *luaScore) wait(L *lua.LState) int {
	s.cursor += checkSeconds(L, 1)
	return 0
}

func (s *luaScore) at(L *lua.LState) int {
	s.cursor = checkSeconds(L, 1)
	return 0
}

func (s *luaScore) now(L *lua.LState) int {
	L.Push(lua.LNumber(float64(s.cursor) / fm.SampleRate))
	return 1
}

func midi(L *lua.LState) int {
	L.Push(lua.LNumber(fm.KeyFromMIDI(L.CheckInt(1))))
	return 1
}
