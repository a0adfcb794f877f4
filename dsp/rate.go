package dsp

// StereoSource produces the next stereo frame at the source rate.
type StereoSource func() (float32, float32)

// RateConverter pulls frames from a StereoSource and emits them at another
// rate by linear interpolation. It keeps no history beyond two frames, so
// it can run inside a streaming audio callback.
type RateConverter struct {
	src  StereoSource
	step float64 // source frames per output frame
	frac float64
	prev [2]float32
	cur  [2]float32
}

// NewRateConverter converts src from fromRate to toRate. It reads two
// source frames up front.
func NewRateConverter(src StereoSource, fromRate, toRate int) *RateConverter {
	if fromRate < 1 {
		fromRate = 1
	}
	if toRate < 1 {
		toRate = 1
	}
	c := &RateConverter{src: src, step: float64(fromRate) / float64(toRate)}
	c.advance()
	c.advance()
	return c
}

func (c *RateConverter) advance() {
	c.prev = c.cur
	c.cur[0], c.cur[1] = c.src()
}

// Next returns the next output frame.
func (c *RateConverter) Next() (float32, float32) {
	for c.frac >= 1 {
		c.advance()
		c.frac--
	}
	t := float32(c.frac)
	l := c.prev[0] + (c.cur[0]-c.prev[0])*t
	r := c.prev[1] + (c.cur[1]-c.prev[1])*t
	c.frac += c.step
	return l, r
}

// Fill writes len(dst)/2 interleaved output frames into dst.
func (c *RateConverter) Fill(dst []float32) {
	for i := 0; i+1 < len(dst); i += 2 {
		dst[i], dst[i+1] = c.Next()
	}
}
