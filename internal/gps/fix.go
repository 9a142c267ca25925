// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"fmt"

	nmea "github.com/adrianmo/go-nmea"
)

// Fix is the last known position, attached to assist events.
type Fix struct {
	Time       string  `json:"time"`        // e.g. "12:34:56"
	Date       string  `json:"date"`        // e.g. "06/12/25"
	Latitude   float64 `json:"lat"`         // decimal degrees
	Longitude  float64 `json:"lon"`         // decimal degrees
	SpeedKnots float64 `json:"speed_knots"` // speed over ground
	Validity   string  `json:"validity"`    // "A" valid, "V" void
}

// Valid reports whether the receiver had a position lock.
func (f Fix) Valid() bool { return f.Validity == nmea.ValidRMC }

// ParseRMC parses one NMEA line. ok is false for any sentence that is not
// an RMC; err is set when the line is malformed.
func ParseRMC(line string) (fix Fix, ok bool, err error) {
	sentence, err := nmea.Parse(line)
	if err != nil {
		return Fix{}, false, fmt.Errorf("parse nmea: %w", err)
	}
	if sentence.DataType() != nmea.TypeRMC {
		return Fix{}, false, nil
	}
	m := sentence.(nmea.RMC)
	return Fix{
		Time:       m.Time.String(),
		Date:       m.Date.String(),
		Latitude:   m.Latitude,
		Longitude:  m.Longitude,
		SpeedKnots: m.Speed,
		Validity:   string(m.Validity),
	}, true, nil
}
