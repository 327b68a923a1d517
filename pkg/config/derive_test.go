// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/devinterp-automata/pkg/task"
)

// newRaw builds a minimal valid raw config around a task mapping.
func newRaw(t *testing.T, taskYAML string) RawConfig {
	t.Helper()

	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(taskYAML), &doc))
	require.NotEmpty(t, doc.Content)

	raw := DefaultRawConfig()
	raw.ModelType = ModelNanoGPT
	raw.TaskConfig = *doc.Content[0]
	raw.RLCT.LossType = LossCE
	raw.RLCT.BatchSize = 1024
	return raw
}

func TestDeriveParityDefaults(t *testing.T) {
	raw := newRaw(t, `{dataset_type: parity}`)
	cfg, err := Derive(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, task.TypeParity, cfg.Task.Type())

	// Model dimensions follow the task: seqlen 100 plus one block slot.
	assert.Equal(t, 101, cfg.NanoGPT.BlockSize)
	assert.Equal(t, 2, cfg.NanoGPT.VocabSize)
	assert.Equal(t, 2, cfg.NanoGPT.OutputVocabSize)

	assert.Equal(t, "parity_NANO_GPT_LR0.001_its10000_layers12_seqlen100", cfg.RunName)

	// eval_frequency unset defaults to the task dataset size.
	assert.Equal(t, 600000, cfg.EvalFrequency)
	assert.Equal(t, 1, cfg.NumEpochs)

	assert.Equal(t, "rlct_data", cfg.RLCT.DataDir)

	// 100 draws * 1 step between draws * train_bs 64, far below 2^100.
	assert.Equal(t, 6400, cfg.RLCT.NumSamples)
	assert.Equal(t, 6400, cfg.RLCT.SGLD.NumSamples)
	assert.Equal(t, 6400, cfg.RLCT.SGNHT.NumSamples)
}

func TestDeriveDeterministic(t *testing.T) {
	raw := newRaw(t, `{dataset_type: dihedral, n: 4, label_type: position}`)

	first, err := Derive(context.Background(), raw)
	require.NoError(t, err)
	second, err := Derive(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDeriveRunName(t *testing.T) {
	raw := newRaw(t, `{dataset_type: cyclic, n: 5, length: 25}`)
	raw.Optimizer.DefaultLR = 0.01
	raw.NumTrainingIter = 5000
	raw.NanoGPT.NLayers = 2

	cfg, err := Derive(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "cyclic_NANO_GPT_LR0.01_its5000_layers2_seqlen25", cfg.RunName)

	raw.WandB.RunNameSuffix = "debug"
	cfg, err = Derive(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "cyclic_NANO_GPT_LR0.01_its5000_layers2_seqlen25_debug", cfg.RunName)
}

func TestDeriveEvalFrequency(t *testing.T) {
	raw := newRaw(t, `{dataset_type: parity}`)
	raw.EvalFrequency = 3000
	cfg, err := Derive(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.EvalFrequency)
	assert.Equal(t, 4, cfg.NumEpochs, "10000 iterations over 3000-step epochs rounds up")

	raw.EvalFrequency = -1
	_, err = Derive(context.Background(), raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEvalFrequency)

	var derr *DerivationError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "eval_frequency", derr.Step)
}

func TestDeriveDistillDataDir(t *testing.T) {
	raw := newRaw(t, `{dataset_type: parity}`)
	raw.RLCT.UseDistillLoss = true

	cfg, err := Derive(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "rlct_data_distill", cfg.RLCT.DataDir)
}

func TestDeriveSampleBudgetCappedByPopulation(t *testing.T) {
	// Binary inputs of length 5: only 2^5 = 32 distinct sequences exist.
	raw := newRaw(t, `{dataset_type: parity, length: 5}`)
	cfg, err := Derive(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, 32, cfg.RLCT.NumSamples)
	assert.Equal(t, 32, cfg.RLCT.SGLD.NumSamples)
	assert.Equal(t, 32, cfg.RLCT.SGNHT.NumSamples)
}

func TestDeriveSampleBudgetUsesTrainBatchSize(t *testing.T) {
	// The budget multiplier is the dataloader train batch size, not the
	// sampler batch size.
	raw := newRaw(t, `{dataset_type: parity}`)
	raw.DataLoader.TrainBatchSize = 16
	raw.RLCT.BatchSize = 4096

	cfg, err := Derive(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, 100*1*16, cfg.RLCT.NumSamples)
}

func TestDeriveRejectsBurnIn(t *testing.T) {
	raw := newRaw(t, `{dataset_type: parity}`)
	raw.RLCT.NumBurninSteps = 10

	_, err := Derive(context.Background(), raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBurnInUnsupported)

	var derr *DerivationError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "constraints", derr.Step)
}

func TestDeriveSweepRequiresSweepNum(t *testing.T) {
	raw := newRaw(t, `{dataset_type: parity}`)
	raw.WandB.Sweep = true

	_, err := Derive(context.Background(), raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSweepNumRequired)

	n := 5
	raw.WandB.SweepNum = &n
	_, err = Derive(context.Background(), raw)
	require.NoError(t, err)
}

func TestDeriveSeedCount(t *testing.T) {
	raw := newRaw(t, `{dataset_type: parity}`)
	raw.RLCT.Seeds = []int64{1, 2, 3}

	_, err := Derive(context.Background(), raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSeedCount)

	raw.RLCT.Seeds = make([]int64, raw.RLCT.NumChains)
	_, err = Derive(context.Background(), raw)
	require.NoError(t, err)
}

func TestDeriveUnknownTask(t *testing.T) {
	raw := newRaw(t, `{dataset_type: markov_chain}`)

	_, err := Derive(context.Background(), raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, task.ErrUnknownTask)

	var derr *DerivationError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "resolve_task", derr.Step)
}

func TestDeriveRejectsOutOfRangeTaskParameters(t *testing.T) {
	tests := []struct {
		name     string
		taskYAML string
	}{
		{"negative state count", `{dataset_type: gridworld, n: -5, label_type: state}`},
		{"probability and length out of range", `{dataset_type: parity, prob1: 7.5, length: -3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := newRaw(t, tt.taskYAML)
			_, err := Derive(context.Background(), raw)
			require.Error(t, err)

			var derr *DerivationError
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, "resolve_task", derr.Step)

			var cerr *task.ConstraintError
			assert.ErrorAs(t, err, &cerr)
		})
	}
}

func TestDeriveInvalidRawConfig(t *testing.T) {
	raw := newRaw(t, `{dataset_type: parity}`)
	raw.RLCT.BatchSize = 0

	_, err := Derive(context.Background(), raw)
	require.Error(t, err)

	var derr *DerivationError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "validate_input", derr.Step)
}

func TestDeriveSamplerParamRanges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RawConfig)
	}{
		{"negative sgld lr", func(r *RawConfig) { r.RLCT.SGLD.LR = -1 }},
		{"negative sgld noise level", func(r *RawConfig) { r.RLCT.SGLD.NoiseLevel = -0.5 }},
		{"negative sgld elasticity", func(r *RawConfig) { r.RLCT.SGLD.Elasticity = -10 }},
		{"negative sgnht diffusion factor", func(r *RawConfig) { r.RLCT.SGNHT.DiffusionFactor = -0.01 }},
		{"zero sgld bounding box", func(r *RawConfig) {
			box := 0.0
			r.RLCT.SGLD.BoundingBoxSize = &box
		}},
		{"negative sgnht bounding box", func(r *RawConfig) {
			box := -2.0
			r.RLCT.SGNHT.BoundingBoxSize = &box
		}},
		{"zero sweep num", func(r *RawConfig) {
			r.WandB.Sweep = true
			n := 0
			r.WandB.SweepNum = &n
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := newRaw(t, `{dataset_type: parity}`)
			tt.mutate(&raw)

			_, err := Derive(context.Background(), raw)
			require.Error(t, err)

			var derr *DerivationError
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, "validate_input", derr.Step)
		})
	}

	t.Run("positive bounding box accepted", func(t *testing.T) {
		raw := newRaw(t, `{dataset_type: parity}`)
		box := 1.5
		raw.RLCT.SGLD.BoundingBoxSize = &box

		_, err := Derive(context.Background(), raw)
		require.NoError(t, err)
	})
}

func TestDeriveDoesNotMutateInput(t *testing.T) {
	raw := newRaw(t, `{dataset_type: parity}`)
	before := raw.RLCT.SGLD.NumSamples

	_, err := Derive(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, before, raw.RLCT.SGLD.NumSamples)
}
