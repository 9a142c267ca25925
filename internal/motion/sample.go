// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package motion holds the per-tick inertial sample, the rolling window the
// detectors read from, and the sources that produce samples.
package motion

import "math"

// Sample is one derived inertial reading.
//
// T is monotonic seconds on the producer's timeline. AccelMag is the
// gravity-removed acceleration magnitude in g. YawRate is the signed rotation
// rate about the vertical axis and YawRateMag the magnitude of the full
// rotation-rate vector, both in rad/s.
type Sample struct {
	T          float64 `json:"t"`
	AccelMag   float64 `json:"accel_mag"`
	YawRate    float64 `json:"yaw_rate"`
	YawRateMag float64 `json:"yaw_rate_mag"`
}

// YawAbs returns the absolute yaw rate.
func (s Sample) YawAbs() float64 {
	return math.Abs(s.YawRate)
}

// Source is anything that can deliver samples at sensor rate.
// Start must fail (and deliver nothing) if the underlying device cannot be
// acquired. The handler is called from the source's own goroutine.
type Source interface {
	Start(handler func(Sample)) error
	Stop()
}
