// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package mqttbus publishes guard events to MQTT and takes settings and
// commands from the companion app.
package mqttbus

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gait_guard/internal/detect"
	"github.com/relabs-tech/gait_guard/internal/gps"
)

const tokenTimeout = 5 * time.Second

// Client is the subset of the paho client the bus needs.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
}

// Controller is what inbound commands drive. *detect.Engine satisfies it.
type Controller interface {
	Start() error
	Stop()
	SimulateAssist(kind detect.AssistKind) error
	TestPulse()
	Settings() detect.Settings
	SetSettings(s detect.Settings) error
}

// Topics names the four topics the bus uses.
type Topics struct {
	State    string
	Assist   string
	Settings string
	Command  string
}

// Options configures a Bus.
type Options struct {
	Topics     Topics
	Controller Controller
	// Post runs fn on the engine's execution context.
	Post func(fn func())
	// Fix, if set, supplies the last GPS fix for assist messages.
	Fix func() (gps.Fix, bool)
	// Now defaults to time.Now.
	Now func() time.Time
}

// Bus bridges the engine and the broker.
type Bus struct {
	client Client
	opts   Options
}

// Connect dials the broker. onConnect runs after every (re)connect.
func Connect(broker, clientID string, onConnect mqtt.OnConnectHandler) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetOnConnectHandler(onConnect)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}
	log.Printf("mqtt: connected to %s as %s", broker, clientID)
	return client, nil
}

// New returns a bus with no client attached. Attach one before the engine
// starts emitting.
func New(opts Options) *Bus {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Bus{opts: opts}
}

// Attach sets the client used for publishing.
func (b *Bus) Attach(c Client) { b.client = c }

// OnConnect subscribes the inbound topics. Pass it to Connect.
func (b *Bus) OnConnect(c mqtt.Client) {
	b.subscribe(c)
}

func (b *Bus) subscribe(c Client) {
	subs := map[string]func([]byte) error{
		b.opts.Topics.Settings: b.HandleSettings,
		b.opts.Topics.Command:  b.HandleCommand,
	}
	for topic, handle := range subs {
		if topic == "" {
			continue
		}
		handle := handle
		tok := c.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
			if err := handle(msg.Payload()); err != nil {
				log.Printf("mqtt: %s: %v", msg.Topic(), err)
			}
		})
		go waitToken(tok, "subscribe "+topic)
	}
}

// OnEvent is a detect.Listener. It runs on the engine's context and never
// waits on the broker.
func (b *Bus) OnEvent(ev detect.Event) {
	switch ev.Type {
	case detect.EventStateChanged:
		b.publish(b.opts.Topics.State, true, StateMessage{
			State: ev.State,
			Prev:  ev.Prev,
			At:    ev.At,
			Time:  b.opts.Now(),
		})
	case detect.EventAssistFired:
		msg := AssistMessage{Assist: ev.Assist, Time: b.opts.Now()}
		if b.opts.Fix != nil {
			if fix, ok := b.opts.Fix(); ok {
				msg.Fix = &fix
			}
		}
		b.publish(b.opts.Topics.Assist, false, msg)
	}
}

// HandleSettings decodes a settings update and applies it on the engine's
// context. The resulting settings are published retained under
// <settings topic>/current.
func (b *Bus) HandleSettings(payload []byte) error {
	u, err := DecodeSettings(payload)
	if err != nil {
		return err
	}
	b.opts.Post(func() {
		next := u.Apply(b.opts.Controller.Settings())
		if err := b.opts.Controller.SetSettings(next); err != nil {
			log.Printf("mqtt: settings rejected: %v", err)
			return
		}
		b.publish(b.opts.Topics.Settings+"/current", true, b.opts.Controller.Settings())
	})
	return nil
}

// HandleCommand decodes a command and runs it on the engine's context.
func (b *Bus) HandleCommand(payload []byte) error {
	c, err := DecodeCommand(payload)
	if err != nil {
		return err
	}
	ctl := b.opts.Controller
	b.opts.Post(func() {
		switch c.Cmd {
		case CmdStart:
			if err := ctl.Start(); err != nil {
				log.Printf("mqtt: start: %v", err)
			}
		case CmdStop:
			ctl.Stop()
		case CmdTestPulse:
			ctl.TestPulse()
		case CmdSimulateAssist:
			kind, _ := detect.ParseAssistKind(c.Kind)
			if err := ctl.SimulateAssist(kind); err != nil {
				log.Printf("mqtt: %v", err)
			}
		}
	})
	return nil
}

func (b *Bus) publish(topic string, retained bool, v any) {
	if b.client == nil || topic == "" {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("mqtt: marshal for %s: %v", topic, err)
		return
	}
	tok := b.client.Publish(topic, 1, retained, payload)
	go waitToken(tok, "publish "+topic)
}

func waitToken(tok mqtt.Token, what string) {
	if !tok.WaitTimeout(tokenTimeout) {
		log.Printf("mqtt: %s timed out", what)
		return
	}
	if err := tok.Error(); err != nil {
		log.Printf("mqtt: %s: %v", what, err)
	}
}
