// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package detect

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThresholdsNonIncreasingInSensitivity(t *testing.T) {
	funcs := map[string]func(float64) float64{
		"step peak":       StepPeakThreshold,
		"attempt accel":   AttemptAccThreshold,
		"attempt rot":     AttemptRotThreshold,
		"turn yaw":        TurnYawThreshold,
		"initiation gate": InitiationCadenceGateHz,
		"turn gate":       TurnCadenceGateHz,
	}
	for name, f := range funcs {
		t.Run(name, func(t *testing.T) {
			prev := f(0)
			for i := 1; i <= 100; i++ {
				cur := f(float64(i) / 100)
				assert.LessOrEqual(t, cur, prev+1e-12, "at s=%.2f", float64(i)/100)
				prev = cur
			}
		})
	}
}

func TestThresholdValuesAtDefaultSensitivity(t *testing.T) {
	s := DefaultSensitivity
	assert.InDelta(t, 0.127, AttemptAccThreshold(s), 1e-9)
	assert.InDelta(t, 0.925, AttemptRotThreshold(s), 1e-9)
	assert.InDelta(t, 0.165, StepPeakThreshold(s), 1e-9)
	assert.InDelta(t, 1.0475, TurnYawThreshold(s), 1e-9)
	assert.InDelta(t, 0.595, InitiationCadenceGateHz(s), 1e-9)
	assert.InDelta(t, 0.795, TurnCadenceGateHz(s), 1e-9)
}

func TestThresholdsClampSensitivity(t *testing.T) {
	assert.Equal(t, StepPeakThreshold(1), StepPeakThreshold(3))
	assert.Equal(t, TurnYawThreshold(0), TurnYawThreshold(-2))
	assert.Equal(t, AttemptAccThreshold(DefaultSensitivity), AttemptAccThreshold(math.NaN()))
}
