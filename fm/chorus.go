package fm

import (
	"math"

	"github.com/cwbudde/algo-gs1/dsp"
)

const chorusCapacity = 1024

// chorusTaps holds the LFO phase offset (in 16-bit counter units, thirds of
// a cycle) and the delay range in samples of each line.
var chorusTaps = [3]struct {
	offset uint16
	depth  float64
}{
	{offset: 0, depth: 61},
	{offset: 21845, depth: 60},
	{offset: 43690, depth: 63},
}

// Chorus spreads the mono mix into stereo with three feed-forward delay
// lines whose delay times are swept by slightly detuned LFO pairs.
type Chorus struct {
	lines  [3]*dsp.DelayLine
	pos    uint16
	delays [3]float32
}

// NewChorus creates a chorus with empty delay lines.
func NewChorus() *Chorus {
	c := &Chorus{}
	for i := range c.lines {
		c.lines[i] = dsp.NewDelayLine(chorusCapacity)
	}
	return c
}

// ChorusDelays returns the delay in samples of each line at counter
// position pos. Each line blends a slow sine (one cycle per counter wrap)
// with one ten times faster at a 2.7:1 ratio.
func ChorusDelays(pos uint16) [3]float32 {
	var out [3]float32
	for i, tap := range chorusTaps {
		p := float64(pos + tap.offset)
		slow := float32(math.Sin(mapRange(p, 0, 65535, 0, 6.28)))
		fast := float32(math.Sin(mapRange(p, 0, 6553.5, 0, 6.28)))
		// Explicit conversion keeps the product rounded before the add.
		blend := float64(float64(slow)*2.7) + float64(fast)
		out[i] = float32(mapRange(blend/3.7, -1, 1, 0, tap.depth))
	}
	return out
}

// Push feeds one mono sample into all delay lines.
func (c *Chorus) Push(sample float32) {
	for _, l := range c.lines {
		l.Write(sample)
	}
}

// Tick advances the LFO counter and reads one stereo frame from the lines.
func (c *Chorus) Tick() (float32, float32) {
	c.pos++
	c.delays = ChorusDelays(c.pos)
	a := c.lines[0].ReadFractional(c.delays[0])
	b := c.lines[1].ReadFractional(c.delays[1])
	cc := c.lines[2].ReadFractional(c.delays[2])
	return a/2 + cc, a/2 + b
}

// Delays returns the delay times used by the last Tick.
func (c *Chorus) Delays() [3]float32 { return c.delays }

// Position returns the LFO counter.
func (c *Chorus) Position() uint16 { return c.pos }

// Reset clears the delay lines and the LFO counter.
func (c *Chorus) Reset() {
	for _, l := range c.lines {
		l.Reset()
	}
	c.pos = 0
	c.delays = [3]float32{}
}
