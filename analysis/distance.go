package analysis

import (
	"math"

	"github.com/cwbudde/algo-approx"
)

const (
	envelopeFrame = 256
	envelopeHop   = 128
	spectralSize  = 4096
	maxCompareSec = 12
)

// Score weights of the distance components.
const (
	WeightEnvelope = 0.30
	WeightSpectral = 0.35
	WeightDecay    = 0.15
	WeightPitch    = 0.20
)

// Metrics contains distance and similarity measurements between a
// reference recording and a rendered candidate.
type Metrics struct {
	SampleRate int `json:"sample_rate"`

	ReferenceFrames int `json:"reference_frames"`
	CandidateFrames int `json:"candidate_frames"`
	AlignedFrames   int `json:"aligned_frames"`
	LagSamples      int `json:"lag_samples"`

	EnvelopeRMSEDB  float64 `json:"envelope_rmse_db"`
	SpectralRMSEDB  float64 `json:"spectral_rmse_db"`
	RefDecayDBPerS  float64 `json:"ref_decay_db_per_s"`
	CandDecayDBPerS float64 `json:"cand_decay_db_per_s"`
	DecayDiffDBPerS float64 `json:"decay_diff_db_per_s"`
	RefPeakHz       float64 `json:"ref_peak_hz"`
	CandPeakHz      float64 `json:"cand_peak_hz"`
	PitchDiffCents  float64 `json:"pitch_diff_cents"`

	EnvelopeNorm float64 `json:"envelope_norm"`
	SpectralNorm float64 `json:"spectral_norm"`
	DecayNorm    float64 `json:"decay_norm"`
	PitchNorm    float64 `json:"pitch_norm"`
	Dominant     string  `json:"dominant,omitempty"`

	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
}

// Compare returns objective distance metrics and a combined score in [0,1]
// (0 = identical). Both signals must share sampleRate.
func Compare(reference []float64, candidate []float64, sampleRate int) Metrics {
	m := Metrics{
		SampleRate:      sampleRate,
		ReferenceFrames: len(reference),
		CandidateFrames: len(candidate),
		Score:           1,
	}
	if sampleRate <= 0 || len(reference) == 0 || len(candidate) == 0 {
		return m
	}

	ref := normalizeRMS(trimLeadingSilence(reference, 1e-6), 0.1)
	cand := normalizeRMS(trimLeadingSilence(candidate, 1e-6), 0.1)
	if len(ref) == 0 || len(cand) == 0 {
		return m
	}

	m.LagSamples = estimateLag(ref, cand, lagLimit(sampleRate, len(ref), len(cand)))

	refA, candA := alignByLag(ref, cand, m.LagSamples)
	n := len(refA)
	if len(candA) < n {
		n = len(candA)
	}
	if n < envelopeFrame*2 {
		return m
	}
	if limit := sampleRate * maxCompareSec; n > limit {
		n = limit
	}
	refA, candA = refA[:n], candA[:n]
	m.AlignedFrames = n

	refEnv := RMSEnvelope(refA, envelopeFrame, envelopeHop)
	candEnv := RMSEnvelope(candA, envelopeFrame, envelopeHop)
	envN := len(refEnv)
	if len(candEnv) < envN {
		envN = len(candEnv)
	}
	if envN > 0 {
		diff := make([]float64, envN)
		for i := 0; i < envN; i++ {
			diff[i] = linToDB(refEnv[i]) - linToDB(candEnv[i])
		}
		m.EnvelopeRMSEDB = rms1(diff)
	}

	m.SpectralRMSEDB = spectralRMSEDB(refA, candA)

	hopSec := float64(envelopeHop) / float64(sampleRate)
	m.RefDecayDBPerS = DecaySlopeDBPerS(refEnv, hopSec)
	m.CandDecayDBPerS = DecaySlopeDBPerS(candEnv, hopSec)
	if isFinite(m.RefDecayDBPerS) && isFinite(m.CandDecayDBPerS) {
		m.DecayDiffDBPerS = math.Abs(m.RefDecayDBPerS - m.CandDecayDBPerS)
	}

	if f, err := PeakFrequency(refA, sampleRate); err == nil {
		m.RefPeakHz = f
	}
	if f, err := PeakFrequency(candA, sampleRate); err == nil {
		m.CandPeakHz = f
	}
	if m.RefPeakHz > 0 && m.CandPeakHz > 0 {
		m.PitchDiffCents = math.Abs(1200 * math.Log2(m.CandPeakHz/m.RefPeakHz))
	}

	m.EnvelopeNorm = clamp01(m.EnvelopeRMSEDB / 30.0)
	m.SpectralNorm = clamp01(m.SpectralRMSEDB / 30.0)
	m.DecayNorm = clamp01(m.DecayDiffDBPerS / 40.0)
	m.PitchNorm = clamp01(m.PitchDiffCents / 100.0)
	parts := []struct {
		name string
		v    float64
	}{
		{"envelope", WeightEnvelope * m.EnvelopeNorm},
		{"spectral", WeightSpectral * m.SpectralNorm},
		{"decay", WeightDecay * m.DecayNorm},
		{"pitch", WeightPitch * m.PitchNorm},
	}
	var sum, top float64
	for _, c := range parts {
		sum += c.v
		if c.v > top {
			top = c.v
			m.Dominant = c.name
		}
	}
	m.Score = clamp01(sum)
	m.Similarity = clamp01(float64(approx.FastExp(float32(-4.0 * m.Score))))
	return m
}

// RMSEnvelope returns frame RMS values every hop samples.
func RMSEnvelope(x []float64, frame int, hop int) []float64 {
	if frame <= 0 || hop <= 0 || len(x) < frame {
		return nil
	}
	n := 1 + (len(x)-frame)/hop
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		start := i * hop
		out[i] = rms1(x[start : start+frame])
	}
	return out
}

// DecaySlopeDBPerS fits a line to the dB envelope from its peak down to
// 60 dB below it. It returns NaN when the envelope is too short.
func DecaySlopeDBPerS(env []float64, hopSec float64) float64 {
	if len(env) < 8 || hopSec <= 0 {
		return math.NaN()
	}
	peak := -math.MaxFloat64
	peakIdx := 0
	for i, v := range env {
		if db := linToDB(v); db > peak {
			peak = db
			peakIdx = i
		}
	}
	start := peakIdx + 1
	if start >= len(env)-4 {
		return math.NaN()
	}

	threshold := peak - 60.0
	end := len(env)
	for i := start; i < len(env); i++ {
		if linToDB(env[i]) < threshold {
			end = i
			break
		}
	}
	if end-start < 6 {
		return math.NaN()
	}

	var sx, sy, sxx, sxy float64
	n := float64(end - start)
	for i := start; i < end; i++ {
		x := float64(i-start) * hopSec
		y := linToDB(env[i])
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	den := n*sxx - sx*sx
	if math.Abs(den) < 1e-12 {
		return math.NaN()
	}
	return (n*sxy - sx*sy) / den
}

// AlignSignals trims leading silence from both signals and shifts them by
// the lag Compare would estimate. Levels are left untouched.
func AlignSignals(reference []float64, candidate []float64, sampleRate int) ([]float64, []float64, int) {
	ref := trimLeadingSilence(reference, 1e-6)
	cand := trimLeadingSilence(candidate, 1e-6)
	if len(ref) == 0 || len(cand) == 0 || sampleRate <= 0 {
		return ref, cand, 0
	}
	lag := estimateLag(ref, cand, lagLimit(sampleRate, len(ref), len(cand)))
	ref, cand = alignByLag(ref, cand, lag)
	return ref, cand, lag
}

// lagLimit bounds the lag search to 50 ms and the shorter signal.
func lagLimit(sampleRate, nRef, nCand int) int {
	maxLag := sampleRate / 20
	if maxLag > nRef-1 {
		maxLag = nRef - 1
	}
	if maxLag > nCand-1 {
		maxLag = nCand - 1
	}
	if maxLag < 1 {
		maxLag = 1
	}
	return maxLag
}

func trimLeadingSilence(x []float64, threshold float64) []float64 {
	for i := 0; i < len(x); i++ {
		if math.Abs(x[i]) > threshold {
			return x[i:]
		}
	}
	return nil
}

func normalizeRMS(x []float64, target float64) []float64 {
	if len(x) == 0 {
		return x
	}
	r := rms1(x)
	if r <= 1e-12 {
		return append([]float64(nil), x...)
	}
	g := target / r
	out := make([]float64, len(x))
	for i := range x {
		out[i] = x[i] * g
	}
	return out
}

func estimateLag(ref []float64, cand []float64, maxLag int) int {
	if len(ref) == 0 || len(cand) == 0 {
		return 0
	}
	step := 2
	if len(ref) > 200000 || len(cand) > 200000 {
		step = 4
	}
	bestLag := 0
	best := math.Inf(-1)
	for lag := -maxLag; lag <= maxLag; lag++ {
		if s := dotAtLag(ref, cand, lag, step); s > best {
			best = s
			bestLag = lag
		}
	}
	return bestLag
}

func dotAtLag(a []float64, b []float64, lag int, step int) float64 {
	ai, bi := 0, 0
	if lag >= 0 {
		ai = lag
	} else {
		bi = -lag
	}
	n := len(a) - ai
	if len(b)-bi < n {
		n = len(b) - bi
	}
	var sum float64
	for i := 0; i < n; i += step {
		sum += a[ai+i] * b[bi+i]
	}
	return sum
}

func alignByLag(ref []float64, cand []float64, lag int) ([]float64, []float64) {
	if lag >= 0 {
		if lag >= len(ref) {
			return nil, nil
		}
		return ref[lag:], cand
	}
	o := -lag
	if o >= len(cand) {
		return nil, nil
	}
	return ref, cand[o:]
}

// spectralRMSEDB compares the frame-averaged magnitude spectra of a and b
// in dB.
func spectralRMSEDB(a []float64, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	size := spectralSize
	if n < size {
		size = prevPow2(n)
	}
	if size < 512 {
		return 0
	}
	avgA := averageSpectrum(a[:n], size)
	avgB := averageSpectrum(b[:n], size)
	if avgA == nil || avgB == nil {
		return 0
	}
	var sum float64
	bins := len(avgA) - 1
	for k := 1; k < bins; k++ {
		d := linToDB(avgA[k]) - linToDB(avgB[k])
		sum += d * d
	}
	return math.Sqrt(sum / float64(bins-1))
}

func averageSpectrum(x []float64, size int) []float64 {
	sa, err := newSpectrumAnalyzer(size)
	if err != nil {
		return nil
	}
	avg := make([]float64, size/2+1)
	mag := make([]float64, size/2+1)
	frames := 0
	for pos := 0; pos+size <= len(x); pos += size / 2 {
		sa.magnitude(mag, x[pos:pos+size])
		for k, v := range mag {
			avg[k] += v
		}
		frames++
	}
	if frames == 0 {
		return nil
	}
	for k := range avg {
		avg[k] /= float64(frames)
	}
	return avg
}

func rms1(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20.0 * math.Log10(x)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
