// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package detect

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gait_guard/internal/motion"
)

func TestCadenceMinimumPeakSpacing(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	w := motion.NewWindow(motion.WindowSeconds)
	var c CadenceEstimator

	var recorded []float64
	for i := 0; i < 5000; i++ {
		s := motion.Sample{T: float64(i) / testRateHz, AccelMag: rng.Float64() * 0.6}
		w.Push(s)
		c.Update(w, 1)
		peaks := c.Peaks()
		if n := len(peaks); n > 0 && (len(recorded) == 0 || peaks[n-1] != recorded[len(recorded)-1]) {
			recorded = append(recorded, peaks[n-1])
		}
	}

	require.Greater(t, len(recorded), 10)
	for i := 1; i < len(recorded); i++ {
		assert.GreaterOrEqual(t, recorded[i]-recorded[i-1], MinPeakSpacingSeconds-1e-9)
	}
}

func TestCadenceTracksWalking(t *testing.T) {
	w := motion.NewWindow(motion.WindowSeconds)
	var c CadenceEstimator
	gen := walking(1.8)

	var cadence float64
	for i := 0; i < 4*testRateHz; i++ {
		w.Push(gen(float64(i) / testRateHz))
		cadence = c.Update(w, DefaultSensitivity)
	}
	// 1.8 steps/s over a 2s window yields 3 or 4 peaks
	assert.GreaterOrEqual(t, cadence, 1.5)
	assert.LessOrEqual(t, cadence, 2.0)
}

func TestCadenceIgnoresPeaksBelowThreshold(t *testing.T) {
	w := motion.NewWindow(motion.WindowSeconds)
	var c CadenceEstimator
	for i := 0; i < 4*testRateHz; i++ {
		tt := float64(i) / testRateHz
		s := walking(1.8)(tt)
		s.AccelMag *= 0.3 // peaks at 0.12 g, under the 0.165 g bar
		w.Push(s)
		c.Update(w, DefaultSensitivity)
	}
	assert.Zero(t, c.Cadence())
	assert.Empty(t, c.Peaks())
}

func TestCadenceDecaysAfterWalkingStops(t *testing.T) {
	w := motion.NewWindow(motion.WindowSeconds)
	var c CadenceEstimator
	for i := 0; i < 3*testRateHz; i++ {
		w.Push(walking(1.8)(float64(i) / testRateHz))
		c.Update(w, DefaultSensitivity)
	}
	require.Greater(t, c.Cadence(), WalkingCadenceHz)

	for i := 3 * testRateHz; i < 6*testRateHz; i++ {
		w.Push(motion.Sample{T: float64(i) / testRateHz})
		c.Update(w, DefaultSensitivity)
	}
	assert.Zero(t, c.Cadence())

	c.Reset()
	assert.Empty(t, c.Peaks())
}
