package fm

// mapRange linearly remaps x from [inMin,inMax] to [outMin,outMax]. The
// evaluation order matters: derived constants must match the reference
// hardware model bit for bit.
func mapRange(x, inMin, inMax, outMin, outMax float64) float64 {
	return (x-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// KeyFromMIDI converts a MIDI note number to the engine's key index using
// the GS1 host offset (MIDI 25 sounds key 1 at 27.5 Hz).
func KeyFromMIDI(note int) int {
	return note - 24
}

// NormalizeSum maps the summed integer output of the pool to roughly
// [-1, 1].
func NormalizeSum(sum int) float32 {
	const lo = -262144 / 6
	const hi = 262112 / 6
	return float32(mapRange(float64(sum), lo, hi, -1, 1))
}
