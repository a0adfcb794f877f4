package analysis

import "math"

const (
	bandFFTSize = 4096
	bandHop     = 2048
)

// Band is a frequency range in Hz.
type Band struct {
	Name string
	LoHz float64
	HiHz float64
}

// TimeWindow is a range of the aligned signals in milliseconds.
type TimeWindow struct {
	Name    string
	StartMs float64
	EndMs   float64
}

// DefaultBands splits the audible range into seven regions.
var DefaultBands = []Band{
	{"sub-bass", 20, 100},
	{"bass", 100, 300},
	{"low-mid", 300, 1000},
	{"mid", 1000, 3000},
	{"hi-mid", 3000, 6000},
	{"high", 6000, 12000},
	{"air", 12000, 20000},
}

// DefaultWindows follows a note from attack to late decay.
var DefaultWindows = []TimeWindow{
	{"attack", 0, 20},
	{"early", 20, 100},
	{"sustain", 100, 500},
	{"decay", 500, 2000},
	{"late", 2000, 4000},
}

// BandDiff compares one band within one time window.
type BandDiff struct {
	Window    string  `json:"window"`
	Band      string  `json:"band"`
	Frames    int     `json:"frames"`
	RMSEDB    float64 `json:"rmse_db"`
	RefDB     float64 `json:"ref_db"`
	CandDB    float64 `json:"cand_db"`
	LevelDiff float64 `json:"level_diff_db"`
}

// CompareBands averages STFT magnitudes of ref and cand inside each time
// window and reports per band the log-spectral RMSE and the level
// difference (cand minus ref). The signals are compared as given; align
// them first. Bands above Nyquist are clipped or skipped, and windows past
// the shorter signal are skipped.
func CompareBands(ref, cand []float64, sampleRate int, bands []Band, windows []TimeWindow) []BandDiff {
	if sampleRate <= 0 {
		return nil
	}
	n := len(ref)
	if len(cand) < n {
		n = len(cand)
	}
	sa, err := newSpectrumAnalyzer(bandFFTSize)
	if err != nil {
		return nil
	}
	nBins := bandFFTSize / 2
	binHz := float64(sampleRate) / bandFFTSize
	magRef := make([]float64, nBins+1)
	magCand := make([]float64, nBins+1)
	avgRef := make([]float64, nBins+1)
	avgCand := make([]float64, nBins+1)

	var out []BandDiff
	for _, w := range windows {
		start := int(w.StartMs / 1000 * float64(sampleRate))
		end := int(w.EndMs / 1000 * float64(sampleRate))
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		for k := range avgRef {
			avgRef[k], avgCand[k] = 0, 0
		}
		frames := 0
		accumulate := func(pos, length int) {
			sa.magnitude(magRef, ref[pos:pos+length])
			sa.magnitude(magCand, cand[pos:pos+length])
			for k := range avgRef {
				avgRef[k] += magRef[k]
				avgCand[k] += magCand[k]
			}
			frames++
		}
		for pos := start; pos+bandFFTSize <= end; pos += bandHop {
			accumulate(pos, bandFFTSize)
		}
		if frames == 0 {
			// Window shorter than one frame: zero padded single transform.
			accumulate(start, end-start)
		}
		for k := range avgRef {
			avgRef[k] /= float64(frames)
			avgCand[k] /= float64(frames)
		}

		for _, b := range bands {
			lo := int(b.LoHz / binHz)
			hi := int(b.HiHz / binHz)
			if lo < 1 {
				lo = 1
			}
			if hi >= nBins {
				hi = nBins - 1
			}
			if lo > hi {
				continue
			}
			var sumSq, refPow, candPow float64
			cnt := 0
			for k := lo; k <= hi; k++ {
				d := linToDB(avgRef[k]) - linToDB(avgCand[k])
				sumSq += d * d
				refPow += avgRef[k] * avgRef[k]
				candPow += avgCand[k] * avgCand[k]
				cnt++
			}
			refDB := 10 * math.Log10(math.Max(refPow/float64(cnt), 1e-24))
			candDB := 10 * math.Log10(math.Max(candPow/float64(cnt), 1e-24))
			out = append(out, BandDiff{
				Window:    w.Name,
				Band:      b.Name,
				Frames:    frames,
				RMSEDB:    math.Sqrt(sumSq / float64(cnt)),
				RefDB:     refDB,
				CandDB:    candDB,
				LevelDiff: candDB - refDB,
			})
		}
	}
	return out
}
