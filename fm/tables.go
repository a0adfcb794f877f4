package fm

import "math"

// Table sizes and bit layout of the log-sine/exp converter.
const (
	logSinSize    = 256
	expSize       = 256
	expLinearSize = 4096

	phaseSignBit   = 0x200
	phaseMirrorBit = 0x100
	logSignBit     = 0x8000
)

// The reference tables were generated with this truncated constant rather
// than math.Pi; the rounded entries depend on it.
const tablePi = 3.1415927

// Tables holds the log-sine and exponential lookup tables shared by every
// voice. A Tables value is immutable once NewTables returns and may be
// shared between engines.
type Tables struct {
	logSin    [logSinSize]int
	exp       [expSize]int
	expLinear [expLinearSize]int
}

// NewTables builds the lookup tables.
func NewTables() *Tables {
	t := &Tables{}
	for i := 0; i < logSinSize; i++ {
		s := math.Sin(math.Ceil(float64(i)+0.5) * tablePi / 256 / 2)
		t.logSin[i] = int(math.Round(-(math.Log(s) / math.Log(2)) * 256.0))
		t.exp[i] = int(math.Round((math.Pow(2, float64(i)/256.0) - 1) * 32768))
	}
	// Identity for now; reserved for a non-linear decay curve.
	for i := range t.expLinear {
		t.expLinear[i] = i
	}
	return t
}

// LogSin returns the attenuation of a sine at a 10-bit phase. Bit 9 selects
// the negative half wave and is carried into bit 15 of the result; bit 8
// mirrors the quarter wave. Higher phase bits are ignored.
func (t *Tables) LogSin(phase int) int {
	idx := phase & 0xFF
	if phase&phaseMirrorBit != 0 {
		idx ^= 0xFF
	}
	v := t.logSin[idx]
	if phase&phaseSignBit != 0 {
		v |= logSignBit
	}
	return v
}

// Exp converts a log-domain attenuation (with sign in bit 15) to a signed
// linear value of roughly 14 bits.
func (t *Tables) Exp(v int) int {
	m := (t.exp[(v&0xFF)^0xFF] | 0x8000) << 1
	r := m >> ((v & 0x7F00) >> 8)
	if v&logSignBit != 0 {
		r = -r - 1
	}
	return r >> 4
}

// ExpLinear shapes a 12-bit envelope position. Out of range indices are
// clamped.
func (t *Tables) ExpLinear(i int) int {
	return t.expLinear[clampInt(i, 0, expLinearSize-1)]
}

// operator evaluates one operator: sine at phase attenuated by amp.
func (t *Tables) operator(phase, amp int) int {
	return t.Exp(t.LogSin(phase) + amp)
}
