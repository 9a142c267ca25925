// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package detect

import "github.com/relabs-tech/gait_guard/internal/motion"

// hypothesis is a candidate freeze in progress.
type hypothesis struct {
	startedAt float64
	active    bool
}

func (h *hypothesis) begin(t float64) {
	h.startedAt = t
	h.active = true
}

func (h *hypothesis) clear() {
	*h = hypothesis{}
}

// StartedAt returns the onset of the candidate, if one is in progress.
func (h hypothesis) StartedAt() (float64, bool) {
	return h.startedAt, h.active
}

// InitiationDetector watches for someone trying to start walking who
// does not get going: sustained movement energy without steps.
type InitiationDetector struct {
	hyp hypothesis
}

// Evaluate updates the attempt hypothesis with s and reports whether a
// start assist should fire. The hypothesis is cleared when walking is
// detected, when the attempt fizzles, when it goes stale, and on fire.
func (d *InitiationDetector) Evaluate(s motion.Sample, cadence, sensitivity float64) bool {
	if cadence >= WalkingCadenceHz {
		d.hyp.clear()
		return false
	}

	looksLikeAttempt := s.AccelMag > AttemptAccThreshold(sensitivity) ||
		s.YawRateMag > AttemptRotThreshold(sensitivity)

	startedAt, ok := d.hyp.StartedAt()
	if !ok {
		if looksLikeAttempt {
			d.hyp.begin(s.T)
		}
		return false
	}

	elapsed := s.T - startedAt

	// fizzle is checked strictly before fire
	if !looksLikeAttempt && elapsed > AttemptFizzleSeconds && cadence < FizzleCadenceHz {
		d.hyp.clear()
		return false
	}
	if elapsed > AttemptMaxSeconds {
		d.hyp.clear()
		return false
	}

	if elapsed >= AttemptMinSeconds && elapsed >= AttemptFireSeconds &&
		cadence < InitiationCadenceGateHz(sensitivity) {
		d.hyp.clear()
		return true
	}
	return false
}

// StartedAt exposes the attempt onset, if any.
func (d *InitiationDetector) StartedAt() (float64, bool) {
	return d.hyp.StartedAt()
}

// Reset drops any attempt in progress.
func (d *InitiationDetector) Reset() {
	d.hyp.clear()
}

// TurnDetector watches for a turn that keeps going without steps.
type TurnDetector struct {
	hyp hypothesis
}

// turningNow reports whether at least TurnDensityPercent of the samples in
// recent exceed the yaw threshold. Too few samples means no.
func turningNow(recent []motion.Sample, sensitivity float64) bool {
	if len(recent) < TurnMinSamples {
		return false
	}
	threshold := TurnYawThreshold(sensitivity)
	count := 0
	for _, s := range recent {
		if s.YawRateMag >= threshold {
			count++
		}
	}
	return count*100 >= len(recent)*TurnDensityPercent
}

// Evaluate reports whether a turn assist should fire at time now. The
// hypothesis is edge-triggered: it starts when the trailing window first
// qualifies (dated to the oldest sample of that window) and is cleared the
// moment it stops qualifying.
func (d *TurnDetector) Evaluate(w *motion.Window, now, cadence, sensitivity float64) bool {
	if cadence >= WalkingCadenceHz {
		d.hyp.clear()
		return false
	}

	recent := w.RecentSince(now - TurnWindowSeconds)
	if !turningNow(recent, sensitivity) {
		d.hyp.clear()
		return false
	}

	startedAt, ok := d.hyp.StartedAt()
	if !ok {
		startedAt = recent[0].T
		d.hyp.begin(startedAt)
	}

	if now-startedAt >= TurnFireSeconds && cadence < TurnCadenceGateHz(sensitivity) {
		d.hyp.clear()
		return true
	}
	return false
}

// StartedAt exposes the turn onset, if any.
func (d *TurnDetector) StartedAt() (float64, bool) {
	return d.hyp.StartedAt()
}

// Reset drops any turn in progress.
func (d *TurnDetector) Reset() {
	d.hyp.clear()
}
