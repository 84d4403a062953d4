package crowd

import "math"

// Confidence parameters. The sample term saturates around sampleScale
// observations; the variance multiplier never drops below varianceFloor so
// high variance dampens but cannot zero out a strong volume signal.
const (
	sampleScale   = 50.0
	varianceFloor = 0.3
	varianceScale = 100.0
)

// Confidence converts a sample count and consumption standard deviation into
// a [0,1] trust score, rounded to two decimals.
//
//	sampleConfidence   = 1 - e^(-n/50)
//	varianceMultiplier = max(0.3, 1 - stdDev/100)
func Confidence(sampleCount int64, stdDev float64) float64 {
	if sampleCount <= 0 {
		return 0
	}
	sample := 1 - math.Exp(-float64(sampleCount)/sampleScale)
	mult := 1 - stdDev/varianceScale
	if mult < varianceFloor {
		mult = varianceFloor
	}
	c := round2(sample * mult)
	if c > 1 {
		c = 1
	}
	if c < 0 {
		c = 0
	}
	return c
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
