package score

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/algo-gs1/fm"
)

type call struct {
	frame int
	what  string
	arg   int
}

type recorder struct {
	frame int
	calls []call
}

func (r *recorder) TriggerNote(key, velocity int) (int, error) {
	r.calls = append(r.calls, call{r.frame, "on", key})
	return 0, nil
}
func (r *recorder) ReleaseNote(key int) { r.calls = append(r.calls, call{r.frame, "off", key}) }
func (r *recorder) SetSustainPedal(down bool) {
	v := 0
	if down {
		v = 1
	}
	r.calls = append(r.calls, call{r.frame, "pedal", v})
}
func (r *recorder) SelectPatch(id int) error {
	r.calls = append(r.calls, call{r.frame, "patch", id})
	return nil
}
func (r *recorder) RenderSample() float32 { return 0 }
func (r *recorder) RenderStereoTick() (float32, float32) {
	r.frame++
	return 0, 0
}

func TestLoadLuaTimeline(t *testing.T) {
	events, err := LoadLua(`
patch(1)
pedal(true)
note_on(midi(72), 90)
wait(0.5)
note_off(48)
at(0.25)
note(40, 1.0)
`)
	if err != nil {
		t.Fatalf("LoadLua: %v", err)
	}
	want := []Event{
		{Frame: 0, Kind: Patch, Patch: 1},
		{Frame: 0, Kind: Pedal, Down: true},
		{Frame: 0, Kind: NoteOn, Key: 48, Velocity: 90},
		{Frame: Seconds(0.25), Kind: NoteOn, Key: 40, Velocity: defaultVelocity},
		{Frame: Seconds(0.5), Kind: NoteOff, Key: 48},
		{Frame: Seconds(1.25), Kind: NoteOff, Key: 40},
	}
	if len(events) != len(want) {
		t.Fatalf("unexpected event count: got=%d want=%d (%+v)", len(events), len(want), events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("event %d mismatch: got=%+v want=%+v", i, events[i], want[i])
		}
	}
}

func TestLoadLuaLoopsAndNow(t *testing.T) {
	events, err := LoadLua(`
for i = 0, 3 do
  note_on(40 + i)
  wait(0.1)
end
if now() < 0.39 then error("cursor did not advance") end
`)
	if err != nil {
		t.Fatalf("LoadLua: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("unexpected event count: got=%d want=%d", len(events), 4)
	}
	if events[3].Frame != 3*Seconds(0.1) {
		t.Fatalf("unexpected frame of last event: got=%d want=%d", events[3].Frame, 3*Seconds(0.1))
	}
}

func TestLoadLuaRejectsBadArguments(t *testing.T) {
	cases := []string{
		`note_on(0)`,
		`note_on(89)`,
		`note_on(40, 200)`,
		`wait(-1)`,
		`note_on(`,
	}
	for _, src := range cases {
		if _, err := LoadLua(src); err == nil {
			t.Fatalf("expected error for %q", src)
		}
	}
}

func TestLoadLuaHasNoFileAccess(t *testing.T) {
	for _, src := range []string{`os.exit(1)`, `io.write("x")`, `dofile("x.lua")`} {
		if _, err := LoadLua(src); err == nil {
			t.Fatalf("expected sandbox to reject %q", src)
		}
	}
}

func TestLoadLuaFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "score.lua")
	if err := os.WriteFile(path, []byte("note(45, 0.2, 110)\n"), 0o644); err != nil {
		t.Fatalf("write score: %v", err)
	}
	events, err := LoadLuaFile(path)
	if err != nil {
		t.Fatalf("LoadLuaFile: %v", err)
	}
	if len(events) != 2 || events[0].Velocity != 110 {
		t.Fatalf("unexpected events: %+v", events)
	}
	if _, err := LoadLuaFile(filepath.Join(t.TempDir(), "missing.lua")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestRenderDispatchesBeforeTick(t *testing.T) {
	r := &recorder{}
	events := []Event{
		{Frame: 10, Kind: NoteOff, Key: 40},
		{Frame: 0, Kind: NoteOn, Key: 40, Velocity: 100},
		{Frame: 5, Kind: Pedal, Down: true},
	}
	out, err := Render(r, events, 20)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(out) != (11+20)*2 {
		t.Fatalf("unexpected output length: got=%d want=%d", len(out), (11+20)*2)
	}
	want := []call{{0, "on", 40}, {5, "pedal", 1}, {10, "off", 40}}
	if len(r.calls) != len(want) {
		t.Fatalf("unexpected calls: %+v", r.calls)
	}
	for i := range want {
		if r.calls[i] != want[i] {
			t.Fatalf("call %d mismatch: got=%+v want=%+v", i, r.calls[i], want[i])
		}
	}
}

func TestRenderWithEngine(t *testing.T) {
	e, err := fm.NewEngine(fm.NewTables(), nil, fm.DefaultConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	hold := Seconds(0.1)
	out, err := Render(e, Chord([]int{40, 44, 47}, 100, hold), Seconds(0.05))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	var energy float64
	for _, s := range out[:hold*2] {
		energy += float64(s) * float64(s)
	}
	if energy == 0 {
		t.Fatalf("expected audible chord")
	}
}

func TestRenderReportsEngineErrors(t *testing.T) {
	e, err := fm.NewEngine(fm.NewTables(), nil, fm.DefaultConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	_, err = Render(e, []Event{{Kind: Patch, Patch: 42}}, 0)
	if !errors.Is(err, fm.ErrUnknownPatch) {
		t.Fatalf("expected ErrUnknownPatch, got %v", err)
	}
	if !strings.Contains(err.Error(), "patch") {
		t.Fatalf("expected event kind in error: %v", err)
	}
}
