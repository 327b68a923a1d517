// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rlct

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/devinterp-automata/pkg/config"
)

func testRLCTConfig() config.RLCTConfig {
	cfg := config.DefaultRLCTConfig()
	cfg.LossType = config.LossCE
	cfg.BatchSize = 1024
	cfg.NumChains = 4
	cfg.NumDraws = 200
	cfg.NumSamples = 6400
	return cfg
}

func TestAssembleBatchEstimatorFirst(t *testing.T) {
	cfg := testRLCTConfig()
	cfg.Online = false

	callbacks, names, err := Assemble(cfg)
	require.NoError(t, err)
	require.NotEmpty(t, callbacks)

	primary, ok := callbacks[0].(LLCEstimator)
	require.True(t, ok, "batch estimator leads when online is off")
	assert.Equal(t, 4, primary.NumChains())
	assert.Equal(t, 200, primary.NumDraws())
	assert.Equal(t, 6400, primary.NumSamples)
	assert.Equal(t, "LLCEstimator", names[0])
}

func TestAssembleOnlineEstimatorFirst(t *testing.T) {
	cfg := testRLCTConfig()
	cfg.Online = true

	callbacks, names, err := Assemble(cfg)
	require.NoError(t, err)

	primary, ok := callbacks[0].(OnlineLLCEstimator)
	require.True(t, ok, "streaming estimator leads when online is on")
	assert.Equal(t, 6400, primary.NumSamples)
	assert.Equal(t, "OnlineLLCEstimator", names[0])
}

func TestAssembleDiagnosticsOrder(t *testing.T) {
	cfg := testRLCTConfig()
	cfg.UseDiagnostics = true

	_, names, err := Assemble(cfg)
	require.NoError(t, err)

	want := []string{"LLCEstimator", "OnlineWBICEstimator", "WeightNorm", "NoiseNorm", "GradientNorm"}
	assert.Equal(t, want, names)
}

func TestAssembleWithoutDiagnostics(t *testing.T) {
	cfg := testRLCTConfig()
	cfg.UseDiagnostics = false

	callbacks, names, err := Assemble(cfg)
	require.NoError(t, err)
	assert.Len(t, callbacks, 1)
	assert.Equal(t, []string{"LLCEstimator"}, names)
}

func TestAssembleSharedExpectations(t *testing.T) {
	cfg := testRLCTConfig()

	callbacks, _, err := Assemble(cfg)
	require.NoError(t, err)
	for _, cb := range callbacks {
		assert.Equal(t, cfg.NumChains, cb.NumChains(), cb.Name())
		assert.Equal(t, cfg.NumDraws, cb.NumDraws(), cb.Name())
	}
}

func TestValidateCallbacksRejectsConflicts(t *testing.T) {
	anchor := LLCEstimator{expectations: expectations{Chains: 4, Draws: 200}}
	conflicting := WeightNorm{expectations: expectations{Chains: 8, Draws: 200}, PNorm: 2}

	err := validateCallbacks([]Callback{anchor, conflicting})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIncompatibleCallbacks)

	var ierr *IncompatibleCallbacksError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, "LLCEstimator", ierr.Anchor)
	assert.Equal(t, "WeightNorm", ierr.Conflicting)
	assert.Equal(t, 4, ierr.AnchorChains)
	assert.Equal(t, 8, ierr.GotChains)
}

func TestValidateCallbacksEmptyAndSingleton(t *testing.T) {
	require.NoError(t, validateCallbacks(nil))
	require.NoError(t, validateCallbacks([]Callback{
		GradientNorm{expectations: expectations{Chains: 1, Draws: 1}, PNorm: 2},
	}))
}
