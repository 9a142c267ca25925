// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package detect

import "fmt"

// GuardState is what the guard is doing right now.
type GuardState int

const (
	Off GuardState = iota
	MonitoringStill
	MonitoringWalking
	CueingStartAssist
	CueingTurnAssist
	Cooldown
)

var stateNames = map[GuardState]string{
	Off:               "off",
	MonitoringStill:   "monitoring_still",
	MonitoringWalking: "monitoring_walking",
	CueingStartAssist: "cueing_start_assist",
	CueingTurnAssist:  "cueing_turn_assist",
	Cooldown:          "cooldown",
}

func (s GuardState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Cueing reports whether a cue session is running.
func (s GuardState) Cueing() bool {
	return s == CueingStartAssist || s == CueingTurnAssist
}

// Monitoring reports whether the detectors are live.
func (s GuardState) Monitoring() bool {
	return s == MonitoringStill || s == MonitoringWalking
}

func (s GuardState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *GuardState) UnmarshalText(b []byte) error {
	for st, name := range stateNames {
		if name == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown guard state %q", b)
}

// AssistKind is the flavour of cue delivered.
type AssistKind int

const (
	AssistStart AssistKind = iota
	AssistTurn
)

func (k AssistKind) String() string {
	if k == AssistTurn {
		return "turn"
	}
	return "start"
}

// PulseInterval is the cue rhythm in seconds. Start and turn cues use
// different rhythms so the wearer can tell them apart.
func (k AssistKind) PulseInterval() float64 {
	if k == AssistTurn {
		return TurnPulseSeconds
	}
	return StartPulseSeconds
}

func (k AssistKind) cueingState() GuardState {
	if k == AssistTurn {
		return CueingTurnAssist
	}
	return CueingStartAssist
}

func (k AssistKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *AssistKind) UnmarshalText(b []byte) error {
	kind, err := ParseAssistKind(string(b))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// ParseAssistKind accepts "start" or "turn".
func ParseAssistKind(s string) (AssistKind, error) {
	switch s {
	case "start":
		return AssistStart, nil
	case "turn":
		return AssistTurn, nil
	default:
		return 0, fmt.Errorf("unknown assist kind %q", s)
	}
}

// EventType tells listeners which field of Event is populated.
type EventType int

const (
	EventStateChanged EventType = iota
	EventAssistFired
)

// Event is pushed to every registered listener at the moment of change.
// At is on the sample timeline.
type Event struct {
	Type   EventType
	At     float64
	State  GuardState
	Prev   GuardState
	Assist Assist
}

// Assist describes one cue session as it fires.
type Assist struct {
	ID    string     `json:"id"`
	Kind  AssistKind `json:"kind"`
	At    float64    `json:"at"`
	Count int        `json:"count"`
}

// Listener receives events synchronously on the engine's context.
type Listener func(Event)

// AssistCounts are the assists delivered since the last daily reset.
type AssistCounts struct {
	Start int `json:"start"`
	Turn  int `json:"turn"`
}

func (c AssistCounts) Total() int {
	return c.Start + c.Turn
}
