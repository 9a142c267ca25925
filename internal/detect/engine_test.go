// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gait_guard/internal/motion"
	"github.com/relabs-tech/gait_guard/internal/sched"
)

func TestStartAssistFiresThenCoolsDown(t *testing.T) {
	h := startedHarness(t)
	h.run(0, 17.5, constant(0.20, 0), nil)

	assists := h.assists()
	require.Len(t, assists, 1)
	assert.Equal(t, AssistStart, assists[0].Kind)
	assert.InDelta(t, 1.3, assists[0].At, 0.03)
	assert.Equal(t, 1, assists[0].Count)

	fired, ok := h.firstEntry(CueingStartAssist)
	require.True(t, ok)
	cool, ok := h.firstEntry(Cooldown)
	require.True(t, ok)
	assert.InDelta(t, fired+6, cool, 1e-9)

	var states []GuardState
	for _, ev := range h.stateChanges() {
		states = append(states, ev.State)
	}
	assert.Equal(t, []GuardState{MonitoringStill, CueingStartAssist, Cooldown, MonitoringStill}, states)

	back := h.stateChanges()[3]
	assert.InDelta(t, fired+16, back.At, 0.03)
	assert.Equal(t, MonitoringStill, h.engine.State())

	// 6s at 0.48s per pulse
	assert.Equal(t, 12, h.pulses.n)
	assert.Equal(t, 0, h.clock.Pending())
}

func TestStartAttemptFizzlesWithoutCue(t *testing.T) {
	h := startedHarness(t)
	gen := func(tt float64) motion.Sample {
		if tt < 0.8 {
			return constant(0.20, 0)(tt)
		}
		return constant(0.0, 0)(tt)
	}

	var clearedAt float64
	h.run(0, 3, gen, func(s motion.Sample) {
		if _, ok := h.engine.initiation.StartedAt(); !ok && clearedAt == 0 && s.T > 0 {
			clearedAt = s.T
		}
	})

	assert.Empty(t, h.assists())
	assert.Equal(t, MonitoringStill, h.engine.State())
	assert.Greater(t, clearedAt, 1.0)
	assert.Less(t, clearedAt, 1.1)
	assert.Zero(t, h.pulses.n)
}

func TestTurnAssistFires(t *testing.T) {
	h := startedHarness(t)
	h.run(0, 0.7, constant(0.02, 1.1), nil)

	assists := h.assists()
	require.Len(t, assists, 1)
	assert.Equal(t, AssistTurn, assists[0].Kind)
	assert.InDelta(t, 0.6, assists[0].At, 0.03)
	assert.Equal(t, CueingTurnAssist, h.engine.State())

	// firing clears both hypotheses
	_, attempt := h.engine.initiation.StartedAt()
	_, turn := h.engine.turn.StartedAt()
	assert.False(t, attempt)
	assert.False(t, turn)

	session, ok := h.engine.cue.Session()
	require.True(t, ok)
	assert.Equal(t, TurnPulseSeconds, session.PulseIntervalSeconds)
}

func TestWalkingSuppressesBothDetectors(t *testing.T) {
	h := startedHarness(t)
	walkingSeen := false
	h.run(0, 8, walking(1.8), func(s motion.Sample) {
		if h.engine.cadence.Cadence() < WalkingCadenceHz {
			require.False(t, walkingSeen, "cadence dropped at t=%.2f", s.T)
			return
		}
		walkingSeen = true
		assert.Equal(t, MonitoringWalking, h.engine.State())
		_, attempt := h.engine.initiation.StartedAt()
		_, turn := h.engine.turn.StartedAt()
		assert.False(t, attempt, "attempt recorded at t=%.2f", s.T)
		assert.False(t, turn, "turn recorded at t=%.2f", s.T)
	})

	assert.True(t, walkingSeen)
	assert.Empty(t, h.assists())
}

func TestWalkingThenStandingReturnsToStill(t *testing.T) {
	h := startedHarness(t)
	h.run(0, 4, walking(1.8), nil)
	require.Equal(t, MonitoringWalking, h.engine.State())

	h.run(4, 7, constant(0, 0), nil)
	assert.Equal(t, MonitoringStill, h.engine.State())
	assert.Empty(t, h.assists())
}

func TestTurnHypothesisIsEdgeTriggered(t *testing.T) {
	h := startedHarness(t)
	// half a second of turning below the fire threshold, then nothing
	h.run(0, 0.3, constant(0.02, 1.2), nil)
	_, ok := h.engine.turn.StartedAt()
	require.True(t, ok)

	h.run(0.3, 0.5, constant(0.02, 0), nil)
	_, ok = h.engine.turn.StartedAt()
	assert.False(t, ok)
	assert.Empty(t, h.assists())
}

func TestNoCueDuringCooldown(t *testing.T) {
	h := startedHarness(t)
	settings := h.engine.Settings()
	h.run(0, 60, constant(0.2, 1.2), nil)

	assists := h.assists()
	require.GreaterOrEqual(t, len(assists), 2)
	gap := settings.CueDurationSeconds + settings.CooldownSeconds
	for i := 1; i < len(assists); i++ {
		assert.GreaterOrEqual(t, assists[i].At-assists[i-1].At, gap-1e-9)
	}
}

func TestOneAssistEventPerSession(t *testing.T) {
	h := startedHarness(t)
	require.NoError(t, h.engine.SimulateAssist(AssistTurn))
	h.clock.AdvanceTo(h.clock.Now() + 30e9)

	assert.Len(t, h.assists(), 1)
	// 6s at 0.62s per pulse
	assert.Equal(t, 9, h.pulses.n)
	assert.Equal(t, Cooldown, h.engine.State())
	assert.Equal(t, AssistCounts{Turn: 1}, h.engine.Snapshot().Assists)
}

func TestStopIsIdempotentAndCancelsTimers(t *testing.T) {
	h := startedHarness(t)
	h.run(0, 0.5, constant(0, 0), nil)
	require.NoError(t, h.engine.SimulateAssist(AssistStart))
	h.clock.Advance(1e9)
	require.Equal(t, 2, h.pulses.n)

	h.engine.Stop()
	h.engine.Stop()
	h.clock.Advance(60e9)

	assert.Equal(t, Off, h.engine.State())
	assert.Equal(t, 2, h.pulses.n, "pulse fired after stop")
	assert.Equal(t, 0, h.clock.Pending())
	assert.Equal(t, 1, h.source.stopped)

	offs := 0
	for _, ev := range h.stateChanges() {
		if ev.State == Off {
			offs++
		}
	}
	assert.Equal(t, 1, offs)
}

func TestStartFailsWhenSensorUnavailable(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	h.source.err = errNoDevice

	err := h.engine.Start()
	require.ErrorIs(t, err, ErrSensorUnavailable)
	assert.ErrorIs(t, err, errNoDevice)
	assert.Equal(t, Off, h.engine.State())
	assert.Empty(t, h.events)
}

func TestStartResetsEvidenceAndDeliversThroughScheduler(t *testing.T) {
	h := startedHarness(t)
	h.run(0, 1, constant(0.2, 0), nil)
	_, ok := h.engine.initiation.StartedAt()
	require.True(t, ok)

	h.engine.Stop()
	require.NoError(t, h.engine.Start())
	assert.Equal(t, 2, h.source.started)
	_, ok = h.engine.initiation.StartedAt()
	assert.False(t, ok)
	assert.Equal(t, 0, h.engine.window.Len())

	// the manual scheduler runs posted work inline
	h.source.handler(motion.Sample{T: 0.1, AccelMag: 0.2})
	assert.Equal(t, 1, h.engine.window.Len())
}

func TestRestartBeginsNewTimeline(t *testing.T) {
	h := startedHarness(t)
	h.run(0, 100, constant(0, 0), nil)
	h.engine.Stop()
	h.events = nil

	require.NoError(t, h.engine.Start())
	started, ok := h.firstEntry(MonitoringStill)
	require.True(t, ok)
	assert.Equal(t, 0.0, started)

	require.NoError(t, h.engine.SimulateAssist(AssistStart))
	require.Len(t, h.assists(), 1)
	assert.Equal(t, 0.0, h.assists()[0].At)

	h.clock.Advance(sched.Seconds(6))
	require.Equal(t, Cooldown, h.engine.State())
	assert.InDelta(t, 16.0, h.engine.Snapshot().CooldownUntil, 1e-9)

	// the clock is already past these times, so ingest directly
	for i := 0; i < 30*testRateHz; i++ {
		h.engine.Ingest(motion.Sample{T: float64(i) / testRateHz})
	}
	assert.Equal(t, MonitoringStill, h.engine.State())
	assert.Zero(t, h.engine.Rejected())

	var back float64
	for _, ev := range h.stateChanges() {
		if ev.State == MonitoringStill && ev.Prev == Cooldown {
			back = ev.At
		}
	}
	assert.InDelta(t, 16.0, back, 1e-9)
}

func TestSamplesFromStoppedRunAreDropped(t *testing.T) {
	h := startedHarness(t)
	stale := h.source.handler
	h.run(0, 5, constant(0, 0), nil)

	h.engine.Stop()
	require.NoError(t, h.engine.Start())

	stale(motion.Sample{T: 4.99})
	assert.Equal(t, 0, h.engine.window.Len())
	assert.Equal(t, 1, h.engine.Rejected())

	h.source.handler(motion.Sample{T: 0.02})
	assert.Equal(t, 1, h.engine.window.Len())
	assert.Equal(t, 1, h.engine.Rejected())
	assert.Equal(t, 0.02, h.engine.Snapshot().LastSampleT)
}

func TestIngestRejectsContractViolations(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	h.engine.Ingest(motion.Sample{T: 1})
	assert.Equal(t, 1, h.engine.Rejected())

	require.NoError(t, h.engine.Start())
	h.engine.Ingest(motion.Sample{T: 2})
	h.engine.Ingest(motion.Sample{T: 1.5})
	assert.Equal(t, 2, h.engine.Rejected())
	assert.Equal(t, 1, h.engine.window.Len())
}

func TestSimulateAssistRequiresMonitoring(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	assert.ErrorIs(t, h.engine.SimulateAssist(AssistStart), ErrNotMonitoring)

	require.NoError(t, h.engine.Start())
	require.NoError(t, h.engine.SimulateAssist(AssistStart))
	assert.ErrorIs(t, h.engine.SimulateAssist(AssistTurn), ErrNotMonitoring)
	assert.Len(t, h.assists(), 1)
}

func TestTestPulseLeavesStateAlone(t *testing.T) {
	h := startedHarness(t)
	before := len(h.events)
	h.engine.TestPulse()
	assert.Equal(t, 1, h.pulses.n)
	assert.Equal(t, MonitoringStill, h.engine.State())
	assert.Len(t, h.events, before)
}

func TestSettingsApplyToNextSession(t *testing.T) {
	h := startedHarness(t)
	require.NoError(t, h.engine.SetCueDurationSeconds(2))
	require.NoError(t, h.engine.SetCooldownSeconds(3))
	require.NoError(t, h.engine.SetSensitivity(1.7))
	assert.Equal(t, 1.0, h.engine.Settings().Sensitivity)

	assert.ErrorIs(t, h.engine.SetCooldownSeconds(0), ErrInvalidSetting)
	assert.ErrorIs(t, h.engine.SetCueDurationSeconds(-1), ErrInvalidSetting)

	h.run(0, 8, constant(0.2, 0), nil)
	fired, ok := h.firstEntry(CueingStartAssist)
	require.True(t, ok)
	cool, _ := h.firstEntry(Cooldown)
	assert.InDelta(t, fired+2, cool, 1e-9)

	var back float64
	for _, ev := range h.stateChanges() {
		if ev.State == MonitoringStill && ev.At > fired {
			back = ev.At
			break
		}
	}
	assert.InDelta(t, fired+5, back, 0.03)
}

func TestCooldownChangeAppliesToRunningCooldown(t *testing.T) {
	h := startedHarness(t)
	require.NoError(t, h.engine.SimulateAssist(AssistTurn))
	h.clock.Advance(sched.Seconds(DefaultCueDurationSeconds))
	require.Equal(t, Cooldown, h.engine.State())

	require.NoError(t, h.engine.SetCooldownSeconds(2))
	assert.InDelta(t, DefaultCueDurationSeconds+2, h.engine.Snapshot().CooldownUntil, 1e-9)

	h.run(DefaultCueDurationSeconds, DefaultCueDurationSeconds+3, constant(0, 0), nil)
	var resolved float64
	for _, ev := range h.stateChanges() {
		if ev.State == MonitoringStill && ev.Prev == Cooldown {
			resolved = ev.At
		}
	}
	assert.InDelta(t, DefaultCueDurationSeconds+2, resolved, 1e-9)

	// a longer cooldown through SetSettings pushes the deadline out
	require.NoError(t, h.engine.SimulateAssist(AssistTurn))
	fired := h.assists()[1].At
	h.clock.Advance(sched.Seconds(DefaultCueDurationSeconds))
	require.Equal(t, Cooldown, h.engine.State())
	settings := h.engine.Settings()
	settings.CooldownSeconds = 20
	require.NoError(t, h.engine.SetSettings(settings))
	assert.InDelta(t, fired+DefaultCueDurationSeconds+20, h.engine.Snapshot().CooldownUntil, 1e-9)
}

func TestSnapshotReportsHypotheses(t *testing.T) {
	h := startedHarness(t)
	h.run(0, 0.3, constant(0.2, 1.2), nil)

	snap := h.engine.Snapshot()
	assert.Equal(t, MonitoringStill, snap.State)
	require.NotNil(t, snap.AttemptSince)
	require.NotNil(t, snap.TurnSince)
	assert.InDelta(t, 0, *snap.AttemptSince, 1e-9)
	assert.Nil(t, snap.Session)
}

func TestResetDailyCounts(t *testing.T) {
	h := startedHarness(t)
	require.NoError(t, h.engine.SimulateAssist(AssistStart))
	assert.Equal(t, 1, h.engine.Snapshot().Assists.Total())
	h.engine.ResetDailyCounts()
	assert.Equal(t, 0, h.engine.Snapshot().Assists.Total())
}
