// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package detect

import "github.com/relabs-tech/gait_guard/internal/motion"

// CadenceEstimator counts acceleration peaks over the trailing
// PeakWindowSeconds and reports steps per second. It is a proxy: beyond the
// minimum spacing rule nothing rejects noise spikes.
type CadenceEstimator struct {
	peaks    []float64
	lastPeak float64
	hasPeak  bool
	cadence  float64
}

// Update inspects the three newest samples of w for a peak at the middle
// one, drops peaks that left the trailing window, and returns the cadence.
func (c *CadenceEstimator) Update(w *motion.Window, sensitivity float64) float64 {
	last := w.Last(3)
	if len(last) == 0 {
		return c.cadence
	}
	now := last[len(last)-1].T

	if len(last) == 3 {
		a0, a1, a2 := last[0], last[1], last[2]
		isPeak := a1.AccelMag > a0.AccelMag &&
			a1.AccelMag > a2.AccelMag &&
			a1.AccelMag >= StepPeakThreshold(sensitivity)
		if isPeak && (!c.hasPeak || a1.T-c.lastPeak >= MinPeakSpacingSeconds) {
			c.peaks = append(c.peaks, a1.T)
			c.lastPeak = a1.T
			c.hasPeak = true
		}
	}

	cutoff := now - PeakWindowSeconds
	i := 0
	for i < len(c.peaks) && c.peaks[i] < cutoff {
		i++
	}
	c.peaks = c.peaks[i:]

	c.cadence = float64(len(c.peaks)) / PeakWindowSeconds
	return c.cadence
}

// Cadence returns the last computed cadence in Hz.
func (c *CadenceEstimator) Cadence() float64 {
	return c.cadence
}

// Peaks returns the recorded peak times inside the trailing window.
func (c *CadenceEstimator) Peaks() []float64 {
	return append([]float64(nil), c.peaks...)
}

// Reset forgets every peak.
func (c *CadenceEstimator) Reset() {
	*c = CadenceEstimator{}
}
