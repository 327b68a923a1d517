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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/devinterp-automata/pkg/task"
)

const experimentYAML = `
model_type: NANO_GPT
task_config:
  dataset_type: adder
  n_addends: 2
  label_type: state
  length: 50
dataloader_config:
  train_bs: 32
  test_bs: 16
  num_workers: 2
  train_fraction: 0.9
  shuffle_train: true
optimizer_config:
  optimizer_type: ADAMW
  default_lr: 0.0005
  global_lr: 1.0
  final_lr: 0.0001
  weight_decay: 0.01
nano_gpt_config:
  n_layers: 4
  n_heads: 4
  embed_dim: 128
  dropout: 0.0
rlct_config:
  rlct_loss_type: ce
  sampling_method: SGNHT
  batch_size: 512
  num_chains: 4
  num_draws: 200
  online: true
wandb_config:
  log_to_wandb: false
num_training_iter: 20000
eval_frequency: 5000
`

func writeExperiment(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "experiment.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadRaw(t *testing.T) {
	raw, err := LoadRaw(writeExperiment(t, experimentYAML))
	require.NoError(t, err)

	assert.Equal(t, ModelNanoGPT, raw.ModelType)
	assert.Equal(t, 32, raw.DataLoader.TrainBatchSize)
	assert.Equal(t, OptimizerAdamW, raw.Optimizer.Type)
	assert.Equal(t, 4, raw.NanoGPT.NLayers)
	assert.Equal(t, SamplerSGNHT, raw.RLCT.SamplingMethod)
	assert.True(t, raw.RLCT.Online)
	assert.False(t, raw.WandB.LogToWandB)

	// Groups absent from the file keep their defaults.
	assert.Equal(t, ParameterisationMUP, raw.Parameterisation)
	assert.Equal(t, DistributionNormal, raw.Initialisation.InitDistribution)
	assert.Equal(t, 1.0, raw.RLCT.SGLD.Elasticity)
}

func TestLoad(t *testing.T) {
	cfg, err := Load(context.Background(), writeExperiment(t, experimentYAML))
	require.NoError(t, err)

	assert.Equal(t, task.TypeAdder, cfg.Task.Type())
	assert.Equal(t, 51, cfg.NanoGPT.BlockSize)
	assert.Equal(t, 4, cfg.NanoGPT.VocabSize)
	assert.Equal(t, 6, cfg.NanoGPT.OutputVocabSize)
	assert.Equal(t, 5000, cfg.EvalFrequency)
	assert.Equal(t, 4, cfg.NumEpochs)
	assert.False(t, cfg.WandBEnabled)

	// 200 draws * 1 step between draws * train_bs 32.
	assert.Equal(t, 6400, cfg.RLCT.NumSamples)
	assert.Equal(t, cfg.RLCT.NumSamples, cfg.RLCT.SGNHT.NumSamples)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsOversizedFile(t *testing.T) {
	body := append([]byte(experimentYAML), bytes.Repeat([]byte("# padding\n"), MaxYAMLFileSize/10+1)...)
	_, err := LoadRaw(writeExperiment(t, string(body)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestLoadInvalidExperiment(t *testing.T) {
	t.Run("malformed yaml", func(t *testing.T) {
		_, err := LoadRaw(writeExperiment(t, "model_type: [unclosed"))
		require.Error(t, err)
	})

	t.Run("missing model type", func(t *testing.T) {
		_, err := LoadRaw(writeExperiment(t, `
task_config:
  dataset_type: parity
rlct_config:
  rlct_loss_type: ce
  batch_size: 512
`))
		require.Error(t, err)
	})

	t.Run("negative sgld noise level", func(t *testing.T) {
		_, err := LoadRaw(writeExperiment(t, `
model_type: NANO_GPT
task_config:
  dataset_type: parity
rlct_config:
  rlct_loss_type: ce
  batch_size: 512
  sgld_kwargs:
    noise_level: -0.1
`))
		require.Error(t, err)
	})

	t.Run("bad loss type", func(t *testing.T) {
		_, err := LoadRaw(writeExperiment(t, `
model_type: NANO_GPT
task_config:
  dataset_type: parity
rlct_config:
  rlct_loss_type: mse
  batch_size: 512
`))
		require.Error(t, err)
	})
}
