// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"

	"github.com/relabs-tech/gait_guard/internal/motion"
)

// Raw is one accelerometer + gyroscope reading in device counts.
type Raw struct {
	Ax, Ay, Az int16
	Gx, Gy, Gz int16
}

// accelCountsPerG returns counts per g for MPU9250 range codes 0-3
// (±2, ±4, ±8, ±16 g).
func accelCountsPerG(rangeCode byte) float64 {
	return 16384.0 / float64(int(1)<<rangeCode)
}

// gyroCountsPerDPS returns counts per °/s for range codes 0-3
// (±250, ±500, ±1000, ±2000 °/s).
func gyroCountsPerDPS(rangeCode byte) float64 {
	return 131.0 / float64(int(1)<<rangeCode)
}

// DefaultGravityAlpha keeps roughly one second of history at 50 Hz.
const DefaultGravityAlpha = 0.98

// Deriver turns raw readings into motion samples. It tracks gravity with a
// first-order low-pass so the acceleration magnitude excludes it, and
// projects the rotation rate onto the gravity axis to get yaw.
type Deriver struct {
	AccelRange byte
	GyroRange  byte
	Alpha      float64

	gravity [3]float64
	ready   bool
}

// Derive converts r taken at time t (seconds).
func (d *Deriver) Derive(t float64, r Raw) motion.Sample {
	aScale := accelCountsPerG(d.AccelRange)
	gScale := gyroCountsPerDPS(d.GyroRange) * 180 / math.Pi

	a := [3]float64{float64(r.Ax) / aScale, float64(r.Ay) / aScale, float64(r.Az) / aScale}
	w := [3]float64{float64(r.Gx) / gScale, float64(r.Gy) / gScale, float64(r.Gz) / gScale}

	alpha := d.Alpha
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultGravityAlpha
	}
	if !d.ready {
		d.gravity = a
		d.ready = true
	} else {
		for i := range a {
			d.gravity[i] = alpha*d.gravity[i] + (1-alpha)*a[i]
		}
	}

	var user [3]float64
	for i := range a {
		user[i] = a[i] - d.gravity[i]
	}

	yaw := 0.0
	if gn := norm(d.gravity); gn > 0 {
		yaw = (w[0]*d.gravity[0] + w[1]*d.gravity[1] + w[2]*d.gravity[2]) / gn
	}

	return motion.Sample{
		T:          t,
		AccelMag:   norm(user),
		YawRate:    yaw,
		YawRateMag: norm(w),
	}
}

// Reset forgets the gravity estimate.
func (d *Deriver) Reset() {
	d.gravity = [3]float64{}
	d.ready = false
}

func norm(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}
