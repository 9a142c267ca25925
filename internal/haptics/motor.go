// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package haptics drives the vibration motor that delivers cue pulses.
package haptics

import (
	"fmt"
	"log"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// DefaultPulseWidth is how long the motor is held on per pulse.
const DefaultPulseWidth = 80 * time.Millisecond

// Motor switches a vibration motor (through a transistor or driver board)
// on a GPIO pin. FirePulse returns immediately; the pin is released by a
// timer.
type Motor struct {
	pin   gpio.PinOut
	width time.Duration

	mu      sync.Mutex
	release *time.Timer
}

// NewMotor wraps an already-acquired output pin.
func NewMotor(pin gpio.PinOut, width time.Duration) (*Motor, error) {
	if width <= 0 {
		width = DefaultPulseWidth
	}
	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("haptic motor: drive %s low: %w", pin.Name(), err)
	}
	return &Motor{pin: pin, width: width}, nil
}

// OpenGPIOMotor initializes periph and opens the named pin.
func OpenGPIOMotor(pinName string, width time.Duration) (*Motor, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("haptic motor: periph host init: %w", err)
	}
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("haptic motor: pin %q not found", pinName)
	}
	m, err := NewMotor(pin, width)
	if err != nil {
		return nil, err
	}
	log.Printf("haptic motor: using %s, pulse width %s", pin.Name(), m.width)
	return m, nil
}

// FirePulse switches the motor on for one pulse width. A pulse that
// arrives while the motor is on extends it.
func (m *Motor) FirePulse() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.pin.Out(gpio.High); err != nil {
		log.Printf("haptic motor: pulse on %s: %v", m.pin.Name(), err)
		return
	}
	if m.release != nil {
		m.release.Stop()
	}
	m.release = time.AfterFunc(m.width, m.off)
}

func (m *Motor) off() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.pin.Out(gpio.Low); err != nil {
		log.Printf("haptic motor: release %s: %v", m.pin.Name(), err)
	}
}

// Close cancels a pending release and leaves the pin low.
func (m *Motor) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.release != nil {
		m.release.Stop()
		m.release = nil
	}
	return m.pin.Out(gpio.Low)
}

// LogActuator stands in when no motor is wired.
type LogActuator struct {
	Name string
}

func (l LogActuator) FirePulse() {
	name := l.Name
	if name == "" {
		name = "haptic"
	}
	log.Printf("%s: pulse", name)
}
