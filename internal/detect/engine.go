// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package detect turns a stream of inertial samples into a cadence
// estimate, start-freeze and turn-freeze decisions, and a bounded
// cue/cooldown lifecycle that drives a haptic actuator.
//
// An Engine is not safe for concurrent use. Every method must run on the
// execution context of its sched.Scheduler; the cue timers run there too.
package detect

import (
	"errors"
	"fmt"
	"math"

	"github.com/relabs-tech/gait_guard/internal/motion"
	"github.com/relabs-tech/gait_guard/internal/sched"
)

var (
	// ErrSensorUnavailable is returned by Start when the sample source
	// cannot be acquired. The engine stays Off.
	ErrSensorUnavailable = errors.New("sensor unavailable")

	// ErrNotMonitoring is returned by SimulateAssist when the engine is
	// off, cueing or cooling down.
	ErrNotMonitoring = errors.New("not monitoring")
)

// Options configure a new Engine.
type Options struct {
	Scheduler sched.Scheduler
	// Source may be nil when the host pushes samples through Ingest.
	Source   motion.Source
	Actuator Actuator
	Settings Settings
}

// Engine runs the detection pipeline one sample at a time.
type Engine struct {
	sched    sched.Scheduler
	source   motion.Source
	actuator Actuator
	settings Settings

	window     *motion.Window
	cadence    CadenceEstimator
	initiation InitiationDetector
	turn       TurnDetector
	cue        *CueController

	listeners []Listener

	lastT    float64
	haveLast bool
	rejected int
	// run counts Start and Stop calls; deliveries from an older run are stale.
	run int
}

// NewEngine builds an engine in Off. Invalid settings fall back to the
// defaults.
func NewEngine(opts Options) *Engine {
	settings, err := opts.Settings.Normalize()
	if err != nil {
		Logf("detect: %v, using defaults", err)
		settings = DefaultSettings()
	}
	e := &Engine{
		sched:    opts.Scheduler,
		source:   opts.Source,
		actuator: opts.Actuator,
		settings: settings,
		window:   motion.NewWindow(motion.WindowSeconds),
	}
	e.cue = NewCueController(opts.Scheduler, opts.Actuator, e.publish)
	return e
}

// Subscribe registers l for every state change and assist event.
func (e *Engine) Subscribe(l Listener) {
	e.listeners = append(e.listeners, l)
}

func (e *Engine) publish(ev Event) {
	for _, l := range e.listeners {
		l(ev)
	}
}

// Start acquires the source, resets all evidence and begins monitoring.
// Starting a running engine does nothing.
func (e *Engine) Start() error {
	if e.cue.State() != Off {
		return nil
	}
	e.run++
	if e.source != nil {
		if err := e.source.Start(e.deliverer(e.run)); err != nil {
			return fmt.Errorf("%w: %w", ErrSensorUnavailable, err)
		}
	}
	e.reset()
	e.cue.Start(e.lastT)
	return nil
}

// deliverer builds the handler given to the source for one run. Samples
// hop onto the scheduler and are dropped there once the run has ended.
func (e *Engine) deliverer(run int) func(motion.Sample) {
	return func(s motion.Sample) {
		e.sched.Post(func() {
			if run != e.run {
				e.reject(s, "sample from a stopped run")
				return
			}
			e.Ingest(s)
		})
	}
}

// Stop cancels every timer, stops the source and clears all evidence.
// Safe to call repeatedly.
func (e *Engine) Stop() {
	if e.cue.State() == Off {
		return
	}
	e.run++
	if e.source != nil {
		e.source.Stop()
	}
	e.cue.Stop(e.lastT)
	e.reset()
}

func (e *Engine) reset() {
	e.window.Reset()
	e.cadence.Reset()
	e.initiation.Reset()
	e.turn.Reset()
	e.lastT = 0
	e.haveLast = false
}

// Ingest runs one tick of the pipeline. Samples that arrive while Off,
// that go back in time, or that carry non-finite values are dropped.
func (e *Engine) Ingest(s motion.Sample) {
	if e.cue.State() == Off {
		e.reject(s, "engine off")
		return
	}
	if !finite(s.T, s.AccelMag, s.YawRate, s.YawRateMag) {
		e.reject(s, "non-finite value")
		return
	}
	if e.haveLast && s.T < e.lastT {
		e.reject(s, "timestamp went backwards")
		return
	}
	e.lastT = s.T
	e.haveLast = true

	sens := e.settings.Sensitivity

	e.cue.ResolveCooldown(s.T)
	e.window.Push(s)
	cadence := e.cadence.Update(e.window, sens)
	e.cue.Classify(cadence, s.T)

	if e.cue.Suppressed() {
		return
	}

	if e.initiation.Evaluate(s, cadence, sens) {
		e.fire(AssistStart, s.T)
		return
	}
	if e.turn.Evaluate(e.window, s.T, cadence, sens) {
		e.fire(AssistTurn, s.T)
	}
}

func (e *Engine) fire(kind AssistKind, now float64) bool {
	e.initiation.Reset()
	e.turn.Reset()
	if _, ok := e.cue.Fire(kind, now, e.settings); !ok {
		return false
	}
	Logf("detect: %s assist fired at t=%.2f (cadence %.2f Hz)", kind, now, e.cadence.Cadence())
	return true
}

func (e *Engine) reject(s motion.Sample, reason string) {
	e.rejected++
	if e.rejected == 1 || e.rejected%500 == 0 {
		Logf("detect: dropped sample t=%.3f: %s (%d dropped so far)", s.T, reason, e.rejected)
	}
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// SimulateAssist opens a cue session of kind exactly as a detector would,
// stamped with the last ingested sample time. Before the first sample of a
// run that is t=0 of the new timeline.
func (e *Engine) SimulateAssist(kind AssistKind) error {
	if !e.cue.State().Monitoring() {
		return fmt.Errorf("simulate %s assist in %s: %w", kind, e.cue.State(), ErrNotMonitoring)
	}
	e.fire(kind, e.lastT)
	return nil
}

// TestPulse fires a single haptic pulse without touching state.
func (e *Engine) TestPulse() {
	if e.actuator != nil {
		e.actuator.FirePulse()
	}
}

// SetSensitivity clamps v into [0,1]. NaN is rejected.
func (e *Engine) SetSensitivity(v float64) error {
	if math.IsNaN(v) {
		return fmt.Errorf("%w: sensitivity is NaN", ErrInvalidSetting)
	}
	if v < 0 || v > 1 {
		Logf("detect: sensitivity %.3f clamped to [0,1]", v)
	}
	e.settings.Sensitivity = clampUnit(v)
	return nil
}

// SetCooldownSeconds applies from the next ingested sample. A cooldown
// already running is re-measured from the end of its session.
func (e *Engine) SetCooldownSeconds(v float64) error {
	if !positive(v) {
		return fmt.Errorf("%w: cooldown %v s", ErrInvalidSetting, v)
	}
	e.settings.CooldownSeconds = v
	e.cue.SetCooldown(v)
	return nil
}

// SetCueDurationSeconds applies from the next cue session; a session
// already running keeps the duration it fired with.
func (e *Engine) SetCueDurationSeconds(v float64) error {
	if !positive(v) {
		return fmt.Errorf("%w: cue duration %v s", ErrInvalidSetting, v)
	}
	e.settings.CueDurationSeconds = v
	return nil
}

// SetSettings replaces all settings at once.
func (e *Engine) SetSettings(s Settings) error {
	n, err := s.Normalize()
	if err != nil {
		return err
	}
	e.settings = n
	e.cue.SetCooldown(n.CooldownSeconds)
	return nil
}

func (e *Engine) Settings() Settings { return e.settings }

func (e *Engine) State() GuardState { return e.cue.State() }

// ResetDailyCounts zeroes the assist counters.
func (e *Engine) ResetDailyCounts() { e.cue.ResetCounts() }

// Rejected is the number of samples dropped as contract violations.
func (e *Engine) Rejected() int { return e.rejected }

// Snapshot is a point-in-time view for dashboards.
type Snapshot struct {
	State         GuardState   `json:"state"`
	CadenceHz     float64      `json:"cadence_hz"`
	Settings      Settings     `json:"settings"`
	Assists       AssistCounts `json:"assists"`
	AttemptSince  *float64     `json:"attempt_since,omitempty"`
	TurnSince     *float64     `json:"turn_since,omitempty"`
	CooldownUntil float64      `json:"cooldown_until,omitempty"`
	Session       *CueSession  `json:"session,omitempty"`
	LastSampleT   float64      `json:"last_sample_t"`
	Rejected      int          `json:"rejected"`
}

func (e *Engine) Snapshot() Snapshot {
	snap := Snapshot{
		State:       e.cue.State(),
		CadenceHz:   e.cadence.Cadence(),
		Settings:    e.settings,
		Assists:     e.cue.Counts(),
		LastSampleT: e.lastT,
		Rejected:    e.rejected,
	}
	if t, ok := e.initiation.StartedAt(); ok {
		snap.AttemptSince = &t
	}
	if t, ok := e.turn.StartedAt(); ok {
		snap.TurnSince = &t
	}
	if snap.State == Cooldown {
		snap.CooldownUntil = e.cue.CooldownUntil()
	}
	if s, ok := e.cue.Session(); ok {
		snap.Session = &s
	}
	return snap
}
