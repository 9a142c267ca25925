// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package detect

import (
	"github.com/google/uuid"

	"github.com/relabs-tech/gait_guard/internal/sched"
)

// Actuator delivers one haptic pulse. It must not block.
type Actuator interface {
	FirePulse()
}

// CueSession is the cue currently being delivered.
type CueSession struct {
	ID                   string     `json:"id"`
	Kind                 AssistKind `json:"kind"`
	FiredAt              float64    `json:"fired_at"`
	PulseIntervalSeconds float64    `json:"pulse_interval_seconds"`
	TotalDurationSeconds float64    `json:"total_duration_seconds"`
}

// CueController owns GuardState, the cue session timers, the cooldown
// window and the assist counters. Every transition is emitted at once.
type CueController struct {
	sched    sched.Scheduler
	actuator Actuator
	emit     func(Event)

	state         GuardState
	session       *CueSession
	pulseTask     sched.Task
	durationTask  sched.Task
	cooldownFrom  float64
	cooldownUntil float64
	cooldown      float64
	counts        AssistCounts
}

// NewCueController creates a controller in Off.
func NewCueController(s sched.Scheduler, a Actuator, emit func(Event)) *CueController {
	if emit == nil {
		emit = func(Event) {}
	}
	return &CueController{sched: s, actuator: a, emit: emit}
}

func (c *CueController) State() GuardState { return c.state }

// Suppressed reports whether the detectors must stand down.
func (c *CueController) Suppressed() bool {
	return c.state.Cueing() || c.state == Cooldown
}

func (c *CueController) setState(next GuardState, at float64) {
	if next == c.state {
		return
	}
	prev := c.state
	c.state = next
	c.emit(Event{Type: EventStateChanged, At: at, State: next, Prev: prev})
}

// Start moves Off to MonitoringStill. Other states are left alone.
func (c *CueController) Start(at float64) {
	if c.state != Off {
		return
	}
	c.cooldownUntil = 0
	c.setState(MonitoringStill, at)
}

// Stop cancels the session timers and goes to Off. Safe to repeat.
func (c *CueController) Stop(at float64) {
	c.cancelTimers()
	c.session = nil
	c.cooldownUntil = 0
	c.setState(Off, at)
}

// ResolveCooldown ends the cooldown once now reaches its deadline.
func (c *CueController) ResolveCooldown(now float64) {
	if c.state == Cooldown && now >= c.cooldownUntil {
		c.setState(MonitoringStill, now)
	}
}

// Classify flips between still and walking on the cadence threshold. It
// does nothing while cueing, cooling down or off.
func (c *CueController) Classify(cadence, now float64) {
	if !c.state.Monitoring() {
		return
	}
	if cadence >= WalkingCadenceHz {
		c.setState(MonitoringWalking, now)
	} else {
		c.setState(MonitoringStill, now)
	}
}

// Fire opens a cue session of kind at time now. It returns false when the
// controller is not monitoring.
func (c *CueController) Fire(kind AssistKind, now float64, settings Settings) (Assist, bool) {
	if !c.state.Monitoring() {
		return Assist{}, false
	}

	session := &CueSession{
		ID:                   uuid.NewString(),
		Kind:                 kind,
		FiredAt:              now,
		PulseIntervalSeconds: kind.PulseInterval(),
		TotalDurationSeconds: settings.CueDurationSeconds,
	}
	c.cooldown = settings.CooldownSeconds
	c.session = session

	if kind == AssistTurn {
		c.counts.Turn++
	} else {
		c.counts.Start++
	}

	c.pulseTask = c.sched.Every(sched.Seconds(session.PulseIntervalSeconds), c.pulse)
	c.durationTask = c.sched.After(sched.Seconds(session.TotalDurationSeconds), func() {
		c.endSession(session)
	})

	assist := Assist{ID: session.ID, Kind: kind, At: now, Count: c.counts.Total()}
	c.setState(kind.cueingState(), now)
	c.emit(Event{Type: EventAssistFired, At: now, State: c.state, Assist: assist})
	return assist, true
}

func (c *CueController) pulse() {
	if c.actuator != nil {
		c.actuator.FirePulse()
	}
}

func (c *CueController) endSession(s *CueSession) {
	if c.session != s {
		return
	}
	c.cancelTimers()
	c.session = nil
	end := s.FiredAt + s.TotalDurationSeconds
	c.cooldownFrom = end
	c.cooldownUntil = end + c.cooldown
	c.setState(Cooldown, end)
}

// SetCooldown changes the cooldown length. A cooldown in progress moves its
// deadline; ResolveCooldown picks it up on the next sample.
func (c *CueController) SetCooldown(seconds float64) {
	c.cooldown = seconds
	if c.state == Cooldown {
		c.cooldownUntil = c.cooldownFrom + seconds
	}
}

func (c *CueController) cancelTimers() {
	if c.pulseTask != nil {
		c.pulseTask.Cancel()
		c.pulseTask = nil
	}
	if c.durationTask != nil {
		c.durationTask.Cancel()
		c.durationTask = nil
	}
}

// Session returns a copy of the running session, if any.
func (c *CueController) Session() (CueSession, bool) {
	if c.session == nil {
		return CueSession{}, false
	}
	return *c.session, true
}

// CooldownUntil is the sample time the current cooldown ends.
func (c *CueController) CooldownUntil() float64 { return c.cooldownUntil }

func (c *CueController) Counts() AssistCounts { return c.counts }

// ResetCounts starts a new day of assist bookkeeping.
func (c *CueController) ResetCounts() { c.counts = AssistCounts{} }
