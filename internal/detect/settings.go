// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package detect

import (
	"errors"
	"fmt"
	"math"
)

const (
	DefaultSensitivity        = 0.55
	DefaultCooldownSeconds    = 10.0
	DefaultCueDurationSeconds = 6.0
)

// ErrInvalidSetting is returned for durations that are not positive and
// finite, or a NaN sensitivity.
var ErrInvalidSetting = errors.New("invalid setting")

// Settings are read once per ingested sample.
type Settings struct {
	Sensitivity        float64 `json:"sensitivity"`
	CooldownSeconds    float64 `json:"cooldown_seconds"`
	CueDurationSeconds float64 `json:"cue_duration_seconds"`
}

// DefaultSettings returns the factory settings.
func DefaultSettings() Settings {
	return Settings{
		Sensitivity:        DefaultSensitivity,
		CooldownSeconds:    DefaultCooldownSeconds,
		CueDurationSeconds: DefaultCueDurationSeconds,
	}
}

// Normalize clamps sensitivity into [0,1] and checks the durations.
func (s Settings) Normalize() (Settings, error) {
	if math.IsNaN(s.Sensitivity) {
		return s, fmt.Errorf("%w: sensitivity is NaN", ErrInvalidSetting)
	}
	s.Sensitivity = clampUnit(s.Sensitivity)
	if !positive(s.CooldownSeconds) {
		return s, fmt.Errorf("%w: cooldown %v s", ErrInvalidSetting, s.CooldownSeconds)
	}
	if !positive(s.CueDurationSeconds) {
		return s, fmt.Errorf("%w: cue duration %v s", ErrInvalidSetting, s.CueDurationSeconds)
	}
	return s, nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
