// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gait_guard/internal/config"
	"github.com/relabs-tech/gait_guard/internal/detect"
	"github.com/relabs-tech/gait_guard/internal/mqttbus"
)

// RunConsoleMQTT prints every guard message seen on the broker until ctx is
// done. If command is non-empty it is published to the command topic first.
func RunConsoleMQTT(ctx context.Context, out io.Writer, command string) error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientID + "-console")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	subs := map[string]func([]byte) (string, error){
		cfg.TopicState:                 formatState,
		cfg.TopicAssist:                formatAssist,
		cfg.TopicSettings + "/current": formatSettings,
	}
	for topic, format := range subs {
		format := format
		token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			line, err := format(msg.Payload())
			if err != nil {
				log.Printf("console: %s: %v", msg.Topic(), err)
				return
			}
			fmt.Fprintln(out, line)
		})
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("console: subscribed to %s", topic)
	}

	if command != "" {
		if _, err := mqttbus.DecodeCommand([]byte(command)); err != nil {
			return err
		}
		token := client.Publish(cfg.TopicCommand, 1, false, []byte(command))
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("console: sent %s", command)
	}

	<-ctx.Done()
	log.Println("console: shutting down")
	return nil
}

func formatState(payload []byte) (string, error) {
	var m mqttbus.StateMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return "", fmt.Errorf("state unmarshal error: %w", err)
	}
	return fmt.Sprintf("[STATE ] t=%8.2f  %-20s <- %s", m.At, m.State, m.Prev), nil
}

func formatAssist(payload []byte) (string, error) {
	var m mqttbus.AssistMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return "", fmt.Errorf("assist unmarshal error: %w", err)
	}
	line := fmt.Sprintf("[ASSIST] t=%8.2f  %-5s #%d  id=%s", m.At, m.Kind, m.Count, m.ID)
	if m.Fix != nil {
		line += fmt.Sprintf("  at %.6f,%.6f", m.Fix.Latitude, m.Fix.Longitude)
	}
	return line, nil
}

func formatSettings(payload []byte) (string, error) {
	var s detect.Settings
	if err := json.Unmarshal(payload, &s); err != nil {
		return "", fmt.Errorf("settings unmarshal error: %w", err)
	}
	return fmt.Sprintf("[CONFIG] sensitivity=%.2f cooldown=%.1fs cue=%.1fs",
		s.Sensitivity, s.CooldownSeconds, s.CueDurationSeconds), nil
}
