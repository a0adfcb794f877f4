// Package score turns note events into rendered audio. Events come from
// Lua scripts or are built directly, and are dispatched sample aligned at
// the engine rate.
package score

import (
	"fmt"
	"math"
	"sort"

	"github.com/cwbudde/algo-gs1/fm"
)

// EventKind identifies a score event.
type EventKind int

const (
	NoteOn EventKind = iota
	NoteOff
	Pedal
	Patch
)

func (k EventKind) String() string {
	switch k {
	case NoteOn:
		return "note_on"
	case NoteOff:
		return "note_off"
	case Pedal:
		return "pedal"
	case Patch:
		return "patch"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is one timed engine command. Frame counts ticks at fm.SampleRate.
type Event struct {
	Frame    int
	Kind     EventKind
	Key      int
	Velocity int
	Down     bool
	Patch    int
}

// Target is the engine surface a score drives.
type Target interface {
	TriggerNote(key, velocity int) (int, error)
	ReleaseNote(key int)
	SetSustainPedal(down bool)
	SelectPatch(id int) error
	RenderSample() float32
	RenderStereoTick() (float32, float32)
}

// Seconds converts a duration to engine ticks.
func Seconds(s float64) int {
	return int(math.Round(s * fm.SampleRate))
}

// Chord returns note-on events for keys at frame 0 and matching note-offs
// after hold frames.
func Chord(keys []int, velocity int, hold int) []Event {
	events := make([]Event, 0, len(keys)*2)
	for _, k := range keys {
		events = append(events, Event{Frame: 0, Kind: NoteOn, Key: k, Velocity: velocity})
	}
	for _, k := range keys {
		events = append(events, Event{Frame: hold, Kind: NoteOff, Key: k})
	}
	return events
}

// Sort orders events by frame, keeping the given order within a frame.
func Sort(events []Event) {
	sort.SliceStable(events, func(i, j int) bool { return events[i].Frame < events[j].Frame })
}

// Length returns the frame after the last event.
func Length(events []Event) int {
	n := 0
	for _, e := range events {
		if e.Frame+1 > n {
			n = e.Frame + 1
		}
	}
	return n
}

// Render plays events into target and returns interleaved stereo at the
// engine rate, running tail frames past the last event. Events at frame n
// are applied before tick n.
func Render(target Target, events []Event, tail int) ([]float32, error) {
	if tail < 0 {
		tail = 0
	}
	sorted := append([]Event(nil), events...)
	Sort(sorted)
	if len(sorted) > 0 && sorted[0].Frame < 0 {
		return nil, fmt.Errorf("event at negative frame %d", sorted[0].Frame)
	}

	frames := Length(sorted) + tail
	out := make([]float32, frames*2)
	next := 0
	for i := 0; i < frames; i++ {
		for next < len(sorted) && sorted[next].Frame == i {
			if err := apply(target, sorted[next]); err != nil {
				return nil, fmt.Errorf("frame %d %s: %w", i, sorted[next].Kind, err)
			}
			next++
		}
		target.RenderSample()
		out[i*2], out[i*2+1] = target.RenderStereoTick()
	}
	return out, nil
}

func apply(target Target, e Event) error {
	switch e.Kind {
	case NoteOn:
		_, err := target.TriggerNote(e.Key, e.Velocity)
		return err
	case NoteOff:
		target.ReleaseNote(e.Key)
	case Pedal:
		target.SetSustainPedal(e.Down)
	case Patch:
		return target.SelectPatch(e.Patch)
	default:
		return fmt.Errorf("unknown event kind %d", int(e.Kind))
	}
	return nil
}
