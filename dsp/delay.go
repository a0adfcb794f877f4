package dsp

import dspcore "github.com/cwbudde/algo-dsp/dsp/core"

// DelayLine implements a fixed-capacity circular buffer for delay. Delays
// are counted from the newest sample: Read(0) returns the last sample
// written.
type DelayLine struct {
	buffer   []float32
	writePos int
	size     int
}

// NewDelayLine creates a new delay line holding size samples (minimum 2).
func NewDelayLine(size int) *DelayLine {
	if size < 2 {
		size = 2
	}
	return &DelayLine{
		buffer: make([]float32, size),
		size:   size,
	}
}

// Size returns the capacity in samples.
func (d *DelayLine) Size() int { return d.size }

// MaxDelay returns the largest delay ReadFractional can interpolate.
func (d *DelayLine) MaxDelay() float32 { return float32(d.size - 2) }

// Write writes a sample to the delay line
func (d *DelayLine) Write(sample float32) {
	d.buffer[d.writePos] = float32(dspcore.FlushDenormals(float64(sample)))
	d.writePos = (d.writePos + 1) % d.size
}

// Read reads a sample from the delay line at the given delay (in samples).
// The delay is wrapped into the buffer.
func (d *DelayLine) Read(delay int) float32 {
	delay %= d.size
	if delay < 0 {
		delay += d.size
	}
	readPos := (d.writePos - 1 - delay + 2*d.size) % d.size
	return d.buffer[readPos]
}

// ReadFractional reads with fractional delay using linear interpolation.
// The delay is clamped to [0, MaxDelay].
func (d *DelayLine) ReadFractional(delay float32) float32 {
	if delay < 0 {
		delay = 0
	}
	if limit := d.MaxDelay(); delay > limit {
		delay = limit
	}
	intDelay := int(delay)
	frac := delay - float32(intDelay)

	sample1 := d.Read(intDelay)
	sample2 := d.Read(intDelay + 1)

	// Linear interpolation
	return sample1 + frac*(sample2-sample1)
}

// Reset clears the delay line
func (d *DelayLine) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.writePos = 0
}
