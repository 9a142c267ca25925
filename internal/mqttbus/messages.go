// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mqttbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/relabs-tech/gait_guard/internal/detect"
	"github.com/relabs-tech/gait_guard/internal/gps"
)

// StateMessage is published (retained) on every guard state change.
type StateMessage struct {
	State detect.GuardState `json:"state"`
	Prev  detect.GuardState `json:"prev"`
	At    float64           `json:"at"`
	Time  time.Time         `json:"time"`
}

// AssistMessage is published once per cue session.
type AssistMessage struct {
	detect.Assist
	Time time.Time `json:"time"`
	Fix  *gps.Fix  `json:"fix,omitempty"`
}

// SettingsUpdate carries a partial settings change. Missing fields keep
// their current value.
type SettingsUpdate struct {
	Sensitivity        *float64 `json:"sensitivity,omitempty"`
	CooldownSeconds    *float64 `json:"cooldown_seconds,omitempty"`
	CueDurationSeconds *float64 `json:"cue_duration_seconds,omitempty"`
}

// Apply merges u over s.
func (u SettingsUpdate) Apply(s detect.Settings) detect.Settings {
	if u.Sensitivity != nil {
		s.Sensitivity = *u.Sensitivity
	}
	if u.CooldownSeconds != nil {
		s.CooldownSeconds = *u.CooldownSeconds
	}
	if u.CueDurationSeconds != nil {
		s.CueDurationSeconds = *u.CueDurationSeconds
	}
	return s
}

func (u SettingsUpdate) empty() bool {
	return u.Sensitivity == nil && u.CooldownSeconds == nil && u.CueDurationSeconds == nil
}

// Command names accepted on the command topic.
const (
	CmdStart          = "start"
	CmdStop           = "stop"
	CmdSimulateAssist = "simulate_assist"
	CmdTestPulse      = "test_pulse"
)

// Command is a control message from the companion app.
type Command struct {
	Cmd  string `json:"cmd"`
	Kind string `json:"kind,omitempty"` // simulate_assist only
}

// DecodeCommand parses and validates a command payload.
func DecodeCommand(payload []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(payload, &c); err != nil {
		return c, fmt.Errorf("decode command: %w", err)
	}
	switch c.Cmd {
	case CmdStart, CmdStop, CmdTestPulse:
	case CmdSimulateAssist:
		if _, err := detect.ParseAssistKind(c.Kind); err != nil {
			return c, fmt.Errorf("decode command: %w", err)
		}
	default:
		return c, fmt.Errorf("decode command: unknown cmd %q", c.Cmd)
	}
	return c, nil
}

// DecodeSettings parses a settings payload. An update with no fields is an
// error.
func DecodeSettings(payload []byte) (SettingsUpdate, error) {
	var u SettingsUpdate
	if err := json.Unmarshal(payload, &u); err != nil {
		return u, fmt.Errorf("decode settings: %w", err)
	}
	if u.empty() {
		return u, fmt.Errorf("decode settings: no fields set")
	}
	return u, nil
}
