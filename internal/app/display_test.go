// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relabs-tech/gait_guard/internal/detect"
	"github.com/relabs-tech/gait_guard/internal/gps"
)

func TestStatusLines(t *testing.T) {
	snap := detect.Snapshot{
		State:     detect.MonitoringWalking,
		CadenceHz: 1.75,
		Settings:  detect.DefaultSettings(),
		Assists:   detect.AssistCounts{Start: 2, Turn: 1},
	}
	lines := statusLines(displayStatus{snap: snap})
	assert.Equal(t, []string{"WALKING", "cad 1.75 Hz", "S:2 T:1", "sens 0.55"}, lines)

	snap.State = detect.Cooldown
	snap.LastSampleT = 20
	snap.CooldownUntil = 24.5
	lines = statusLines(displayStatus{snap: snap, fix: gps.Fix{Latitude: 48.1173, Longitude: 11.5167}, hasFix: true})
	assert.Equal(t, "COOLDOWN", lines[0])
	assert.Equal(t, "rest 4.5s", lines[1])
	assert.Equal(t, "48.1173 11.5167", lines[3])

	snap.State = detect.CueingTurnAssist
	snap.Session = &detect.CueSession{Kind: detect.AssistTurn, TotalDurationSeconds: 6}
	lines = statusLines(displayStatus{snap: snap})
	assert.Equal(t, []string{"CUE: TURN", "turn cue 6s", "S:2 T:1", "sens 0.55"}, lines)
}

func TestRenderLinesDrawsPixels(t *testing.T) {
	blank := renderLines(nil)
	for _, b := range blank.Pix {
		assert.Zero(t, b)
	}

	img := renderLines([]string{"A", "B", "C", "D", "E", "overflow"})
	lit := 0
	for _, b := range img.Pix {
		if b != 0 {
			lit++
		}
	}
	assert.Positive(t, lit)
	assert.Equal(t, 128, img.Bounds().Dx())
	assert.Equal(t, 64, img.Bounds().Dy())
}
