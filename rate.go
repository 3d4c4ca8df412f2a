package ecgreadout

import (
	"errors"
	"time"
)

var (
	// ErrInsufficientSignal is returned when a snapshot does not contain two
	// distinct peaks, including when it is empty.
	ErrInsufficientSignal = errors.New("ecgreadout: insufficient signal")
	// ErrInvalidPeriod is returned for a non-positive sampling period.
	ErrInvalidPeriod = errors.New("ecgreadout: sampling period must be positive")
)

// EstimateRate returns the rate, in beats per minute, implied by the first
// two peaks of s.
//
// A peak is a sample strictly above threshold. After the first one, the next
// refractory samples are ignored so the same peak cannot trigger twice. The
// gap between the two peaks, in samples, times period is one beat interval.
//
// EstimateRate only reads s and can run concurrently with sampling.
func EstimateRate(s Snapshot, threshold Sample, refractory int, period time.Duration) (float64, error) {
	if period <= 0 {
		return 0, ErrInvalidPeriod
	}
	start, finish := findPeaks(s.Samples, threshold, refractory)
	if start < 0 || finish <= start {
		return 0, ErrInsufficientSignal
	}
	interval := time.Duration(finish-start) * period
	return float64(time.Minute) / float64(interval), nil
}

// findPeaks returns the indexes of the first two peaks, or -1.
func findPeaks(samples []Sample, threshold Sample, refractory int) (start, finish int) {
	start, finish = -1, -1
	if refractory < 0 {
		refractory = 0
	}
	for i := 0; i < len(samples); i++ {
		if samples[i] <= threshold {
			continue
		}
		if start < 0 {
			start = i
			i += refractory
			continue
		}
		finish = i
		break
	}
	return start, finish
}
