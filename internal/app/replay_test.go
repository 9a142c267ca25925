// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gait_guard/internal/detect"
	"github.com/relabs-tech/gait_guard/internal/motion"
)

func synthRecording(program []motion.Phase, seconds float64) []motion.Sample {
	var out []motion.Sample
	for i := 0; float64(i)/50 < seconds; i++ {
		out = append(out, motion.Synth(program, float64(i)/50))
	}
	return out
}

func TestReplayTurnFreeze(t *testing.T) {
	program := []motion.Phase{
		{Activity: motion.ActivityStill, Seconds: 2},
		{Activity: motion.ActivityTurnFreeze, Seconds: 2},
		{Activity: motion.ActivityStill, Seconds: 14},
	}
	var csv bytes.Buffer
	require.NoError(t, WriteSamples(&csv, synthRecording(program, 18)))

	var out bytes.Buffer
	sum, err := RunReplay(&csv, detect.DefaultSettings(), &out)
	require.NoError(t, err)

	assert.Equal(t, 900, sum.Samples)
	assert.Zero(t, sum.Rejected)
	assert.Equal(t, detect.AssistCounts{Turn: 1}, sum.Assists)
	assert.Positive(t, sum.Pulses)
	assert.Zero(t, sum.WalkingShare)
	assert.Contains(t, out.String(), "assist turn #1")
	assert.Contains(t, out.String(), "monitoring_still -> cueing_turn_assist")
}

func TestReplayWalkingStatistics(t *testing.T) {
	program := []motion.Phase{{Activity: motion.ActivityWalking, Seconds: 10}}
	var csv bytes.Buffer
	require.NoError(t, WriteSamples(&csv, synthRecording(program, 10)))

	sum, err := RunReplay(&csv, detect.DefaultSettings(), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Zero(t, sum.Assists.Total())
	assert.Greater(t, sum.WalkingShare, 0.5)
	assert.InDelta(t, 1.5, sum.CadenceMean, 0.5)
}

func TestReadSamples(t *testing.T) {
	samples, err := readSamples(strings.NewReader("# recorded on the bench\n0,0.1,0.2,0.2\n0.02, 0.1, -0.3, 0.3\n"))
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, motion.Sample{T: 0.02, AccelMag: 0.1, YawRate: -0.3, YawRateMag: 0.3}, samples[1])

	_, err = readSamples(strings.NewReader("t,accel_mag,yaw_rate,yaw_rate_mag\n0,x,0,0\n"))
	assert.ErrorContains(t, err, "line 2 column 2")

	_, err = readSamples(strings.NewReader("0,1,2\n"))
	assert.Error(t, err)

	_, err = RunReplay(strings.NewReader("t,accel_mag,yaw_rate,yaw_rate_mag\n"), detect.DefaultSettings(), &bytes.Buffer{})
	assert.Error(t, err)
}
