// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"io"
	"log"
	"os"
	"testing"

	"github.com/relabs-tech/gait_guard/internal/detect"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	detect.SetLogger(nil)
	os.Exit(m.Run())
}
