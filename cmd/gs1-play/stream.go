package main

import (
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/cwbudde/algo-gs1/dsp"
	"github.com/cwbudde/algo-gs1/fm"
)

const bytesPerFrame = 8 // stereo float32

// synthStream renders the engine on demand for the audio device. All
// engine access goes through mu.
type synthStream struct {
	mu     sync.Mutex
	engine *fm.Engine
	conv   *dsp.RateConverter
	gain   float32
	gen    map[int]uint64 // presses per key; a release timer only fires for the latest
}

func newSynthStream(e *fm.Engine, deviceRate int, gain float32) *synthStream {
	s := &synthStream{engine: e, gain: gain, gen: make(map[int]uint64)}
	s.conv = dsp.NewRateConverter(func() (float32, float32) {
		e.RenderSample()
		return e.RenderStereoTick()
	}, fm.SampleRate, deviceRate)
	return s
}

// Read implements io.Reader for the oto player.
func (s *synthStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frames := len(p) / bytesPerFrame
	for i := 0; i < frames; i++ {
		l, r := s.conv.Next()
		binary.LittleEndian.PutUint32(p[i*bytesPerFrame:], math.Float32bits(l*s.gain))
		binary.LittleEndian.PutUint32(p[i*bytesPerFrame+4:], math.Float32bits(r*s.gain))
	}
	return frames * bytesPerFrame, nil
}

// do runs fn with the engine locked.
func (s *synthStream) do(fn func(e *fm.Engine)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.engine)
}

// play triggers key and releases it after gate. Pressing the key again
// before the gate ends extends it.
func (s *synthStream) play(key, velocity int, gate time.Duration) error {
	var (
		err error
		gen uint64
	)
	s.do(func(e *fm.Engine) {
		if _, err = e.TriggerNote(key, velocity); err != nil {
			return
		}
		s.gen[key]++
		gen = s.gen[key]
	})
	if err != nil {
		return err
	}
	time.AfterFunc(gate, func() { s.expire(key, gen) })
	return nil
}

// expire releases key unless it was pressed again after press gen.
func (s *synthStream) expire(key int, gen uint64) {
	s.do(func(e *fm.Engine) {
		if s.gen[key] == gen {
			e.ReleaseNote(key)
		}
	})
}
