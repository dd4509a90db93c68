// Package match scores a probe face sample against enrolled profiles.
//
// A profile is represented by its single closest sample to the probe
// (best-of-N), and a candidate is accepted only when that distance is
// strictly below the threshold.
package match

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/amirhossein5/faceauth/internal/biometric"
	"github.com/amirhossein5/faceauth/internal/logger"
)

// DefaultThreshold is the maximum Euclidean distance, exclusive, between a
// probe and the nearest enrolled sample for a positive match.
const DefaultThreshold = 7.0

// Distance returns the Euclidean distance between a and b.
func Distance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", biometric.ErrDimensionMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, nil
	}
	return floats.Distance(widen(a), widen(b), 2), nil
}

// ProfileDistance returns the smallest distance between probe and any of
// samples. Samples whose dimension differs from the probe, or whose distance
// is NaN, are skipped and counted; ok is false when no sample could be
// compared.
func ProfileDistance(probe []float32, samples []biometric.Sample) (distance float64, skipped int, ok bool) {
	distance = math.Inf(1)
	p := widen(probe)
	for _, s := range samples {
		if len(s.Vector) != len(p) || len(p) == 0 {
			skipped++
			continue
		}
		d := floats.Distance(p, widen(s.Vector), 2)
		if math.IsNaN(d) {
			skipped++
			continue
		}
		if !ok || d < distance {
			distance = d
		}
		ok = true
	}
	return distance, skipped, ok
}

// Result is the outcome of a scan. UserID and Distance describe the closest
// comparable profile when Found is set; Accepted additionally requires the
// distance to be below the engine threshold.
type Result struct {
	UserID   biometric.UserID
	Distance float64
	Found    bool
	Accepted bool
	Skipped  int
}

// Engine matches probes against profiles using a fixed threshold.
type Engine struct {
	threshold float64
	logger    *logger.Logger
}

// NewEngine creates an Engine. A non-positive threshold selects
// DefaultThreshold.
func NewEngine(threshold float64, logger *logger.Logger) *Engine {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Engine{threshold: threshold, logger: logger}
}

// Threshold returns the acceptance threshold.
func (e *Engine) Threshold() float64 {
	return e.threshold
}

// Match scans profiles for the one closest to probe. Ties keep the profile
// that appears first.
func (e *Engine) Match(probe biometric.Sample, profiles []biometric.Profile) Result {
	snapshot := make([]biometric.Profile, len(profiles))
	for i, p := range profiles {
		snapshot[i] = p.Clone()
	}

	var res Result
	for _, p := range snapshot {
		d, skipped, ok := ProfileDistance(probe.Vector, p.Samples)
		res.Skipped += skipped
		if skipped > 0 && e.logger != nil {
			e.logger.Debug("Match engine: skipped incomparable samples",
				"user_id", p.UserID,
				"skipped", skipped,
				"probe_dim", len(probe.Vector))
		}
		if !ok {
			continue
		}
		if !res.Found || d < res.Distance {
			res.UserID = p.UserID
			res.Distance = d
			res.Found = true
		}
	}

	res.Accepted = res.Found && res.Distance < e.threshold
	return res
}

func widen(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}
