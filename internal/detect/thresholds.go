// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package detect

import "math"

// Fixed timing and gating constants. Sensitivity-dependent thresholds are
// the functions below; all of them are non-increasing in sensitivity.
const (
	PeakWindowSeconds     = 2.0
	MinPeakSpacingSeconds = 0.28

	// WalkingCadenceHz separates MonitoringStill from MonitoringWalking and
	// clears both freeze hypotheses.
	WalkingCadenceHz = 0.85

	AttemptMinSeconds    = 0.4
	AttemptFizzleSeconds = 1.0
	AttemptFireSeconds   = 1.3
	AttemptMaxSeconds    = 2.2
	FizzleCadenceHz      = 0.4

	TurnWindowSeconds  = 0.45
	TurnMinSamples     = 8
	TurnDensityPercent = 70
	TurnFireSeconds    = 0.6

	StartPulseSeconds = 0.48
	TurnPulseSeconds  = 0.62
)

func clampUnit(s float64) float64 {
	if math.IsNaN(s) {
		return DefaultSensitivity
	}
	return math.Max(0, math.Min(1, s))
}

// StepPeakThreshold is the minimum acceleration (g) for a local maximum to
// count as a step.
func StepPeakThreshold(s float64) float64 {
	return 0.22 - 0.10*clampUnit(s)
}

// AttemptAccThreshold is the acceleration (g) above which a sample looks
// like an attempt to move.
func AttemptAccThreshold(s float64) float64 {
	return 0.16 - 0.06*clampUnit(s)
}

// AttemptRotThreshold is the rotation rate (rad/s) above which a sample
// looks like an attempt to move.
func AttemptRotThreshold(s float64) float64 {
	return 1.2 - 0.5*clampUnit(s)
}

// TurnYawThreshold is the rotation rate (rad/s) a sample needs to count
// toward a sustained turn.
func TurnYawThreshold(s float64) float64 {
	return 1.35 - 0.55*clampUnit(s)
}

// InitiationCadenceGateHz is the cadence below which a persistent attempt
// fires a start assist.
func InitiationCadenceGateHz(s float64) float64 {
	return 0.55 + 0.10*(1-clampUnit(s))
}

// TurnCadenceGateHz is the cadence below which a sustained turn fires a
// turn assist.
func TurnCadenceGateHz(s float64) float64 {
	return 0.75 + 0.10*(1-clampUnit(s))
}
