// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gait_guard/internal/detect"
	"github.com/relabs-tech/gait_guard/internal/gps"
	"github.com/relabs-tech/gait_guard/internal/mqttbus"
)

func TestConsoleFormats(t *testing.T) {
	state, err := json.Marshal(mqttbus.StateMessage{State: detect.Cooldown, Prev: detect.CueingStartAssist, At: 7.3, Time: time.Now()})
	require.NoError(t, err)
	line, err := formatState(state)
	require.NoError(t, err)
	assert.Contains(t, line, "cooldown")
	assert.Contains(t, line, "<- cueing_start_assist")

	assist, err := json.Marshal(mqttbus.AssistMessage{
		Assist: detect.Assist{ID: "abc", Kind: detect.AssistTurn, At: 0.6, Count: 3},
		Fix:    &gps.Fix{Latitude: 1.5, Longitude: 2.5},
	})
	require.NoError(t, err)
	line, err = formatAssist(assist)
	require.NoError(t, err)
	assert.Contains(t, line, "turn  #3")
	assert.Contains(t, line, "at 1.500000,2.500000")

	line, err = formatSettings([]byte(`{"sensitivity":0.7,"cooldown_seconds":12,"cue_duration_seconds":5}`))
	require.NoError(t, err)
	assert.Equal(t, "[CONFIG] sensitivity=0.70 cooldown=12.0s cue=5.0s", line)

	_, err = formatAssist([]byte("nope"))
	assert.Error(t, err)
}
