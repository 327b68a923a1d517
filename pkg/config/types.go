// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads raw experiment files and derives the validated
// configuration that every downstream subsystem (model builder, sampler
// driver, training loop, tracking client) reads.
//
// # Description
//
// A raw experiment file is a YAML mapping with per-concern groups (task,
// dataloader, optimizer, model dimensions, RLCT sampling, tracking). The
// derivation pipeline in derive.go resolves the task variant and computes
// every dependent field in a fixed order, enforcing cross-field invariants
// as it goes. The result is a MainConfig, built atomically: any violated
// invariant aborts the whole construction.
//
// # Thread Safety
//
// MainConfig is immutable after Derive returns and safe to share by
// reference across concurrent workers. Nothing in this package mutates it
// afterwards.
package config

import (
	"math"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/devinterp-automata/pkg/task"
)

// confValidate is the validator instance for config types.
var confValidate *validator.Validate

func init() {
	confValidate = validator.New()
}

// =============================================================================
// Enums
// =============================================================================

// ModelType selects the sequence model architecture.
type ModelType string

const (
	// ModelNanoGPT is the small GPT trained from scratch.
	ModelNanoGPT ModelType = "NANO_GPT"
	// ModelTFLGPT2 is the TransformerLens GPT-2 small variant.
	ModelTFLGPT2 ModelType = "TRANSFORMERLENS_GPT2_SMALL"
)

// OptimizerType selects the training optimizer.
type OptimizerType string

const (
	OptimizerSGD   OptimizerType = "SGD"
	OptimizerAdam  OptimizerType = "ADAM"
	OptimizerAdamW OptimizerType = "ADAMW"
)

// DistributionType selects the initialisation distribution.
type DistributionType string

const (
	DistributionNormal  DistributionType = "NORMAL"
	DistributionUniform DistributionType = "UNIFORM"
)

// ParameterisationType determines how initialisation scales and learning
// rates scale with network width. SP and PYTORCH apply no learning-rate
// scaling; they differ in how bias initialisation is scaled. MUP applies
// mu-parameterisation scaling to both.
type ParameterisationType string

const (
	ParameterisationMUP     ParameterisationType = "MUP"
	ParameterisationSP      ParameterisationType = "SP"
	ParameterisationPyTorch ParameterisationType = "PYTORCH"
	// ParameterisationNone keeps default initialisation and applies init
	// scales in place.
	ParameterisationNone ParameterisationType = "NONE"
)

// =============================================================================
// Config groups
// =============================================================================

// DataLoaderConfig holds batch and split parameters for the data loaders.
type DataLoaderConfig struct {
	// TrainBatchSize is the training batch size. It also enters the RLCT
	// sample-budget derivation.
	TrainBatchSize int `yaml:"train_bs" validate:"gt=0"`

	// TestBatchSize is the evaluation batch size.
	TestBatchSize int `yaml:"test_bs" validate:"gt=0"`

	// NumWorkers is the number of loader workers.
	NumWorkers int `yaml:"num_workers" validate:"gte=0"`

	// TrainFraction is the fraction of the dataset used for training.
	TrainFraction float64 `yaml:"train_fraction" validate:"gt=0,lte=1"`

	// ShuffleTrain shuffles the training split.
	ShuffleTrain bool `yaml:"shuffle_train"`
}

// DefaultDataLoaderConfig returns the default loader parameters.
func DefaultDataLoaderConfig() DataLoaderConfig {
	return DataLoaderConfig{
		TrainBatchSize: 64,
		TestBatchSize:  32,
		NumWorkers:     1,
		TrainFraction:  0.95,
		ShuffleTrain:   true,
	}
}

// InitialisationConfig controls model parameter initialisation. Scale is
// the base standard deviation of the distribution; under SP the standard
// deviation of a weight matrix becomes scale / sqrt(fan_in).
type InitialisationConfig struct {
	// DefaultInitScale applies when no per-parameter scale is given.
	DefaultInitScale float64 `yaml:"default_init_scale" validate:"gt=0"`

	// GlobalInitScale multiplies every init scale, including the default.
	GlobalInitScale float64 `yaml:"global_init_scale" validate:"gt=0"`

	// InitScalesPerParam overrides the default scale per named parameter.
	InitScalesPerParam map[string]float64 `yaml:"init_scales_per_param"`

	// InitDistribution is the sampling distribution.
	InitDistribution DistributionType `yaml:"init_distribution" validate:"oneof=NORMAL UNIFORM"`
}

// DefaultInitialisationConfig returns the default initialisation.
// To recover PyTorch defaults: scale 1/sqrt(3), UNIFORM, PYTORCH
// parameterisation.
func DefaultInitialisationConfig() InitialisationConfig {
	return InitialisationConfig{
		DefaultInitScale: 1.0,
		GlobalInitScale:  1.0,
		InitDistribution: DistributionNormal,
	}
}

// OptimizerConfig holds optimizer and schedule parameters.
type OptimizerConfig struct {
	Type OptimizerType `yaml:"optimizer_type" validate:"oneof=SGD ADAM ADAMW"`

	// DefaultLR applies when no per-parameter learning rate is given.
	// It also enters the derived run name.
	DefaultLR float64 `yaml:"default_lr" validate:"gt=0"`

	// GlobalLR multiplies all learning rates.
	GlobalLR float64 `yaml:"global_lr" validate:"gt=0"`

	// FinalLR is the end point of the custom LR schedule.
	FinalLR float64 `yaml:"final_lr" validate:"gte=0"`

	// PerParamLR overrides the default learning rate per named parameter.
	PerParamLR map[string]float64 `yaml:"per_param_lr"`

	WeightDecay float64 `yaml:"weight_decay" validate:"gte=0"`

	// ClipGrad is the gradient clipping threshold; +Inf disables clipping.
	ClipGrad float64 `yaml:"clip_grad"`

	CosineLRSchedule bool    `yaml:"cosine_lr_schedule"`
	Dropout          float64 `yaml:"dropout" validate:"gte=0,lt=1"`
}

// DefaultOptimizerConfig returns the default optimizer parameters.
func DefaultOptimizerConfig() OptimizerConfig {
	return OptimizerConfig{
		Type:      OptimizerAdam,
		DefaultLR: 1e-3,
		GlobalLR:  1.0,
		FinalLR:   1e-4,
		ClipGrad:  math.Inf(1),
	}
}

// NanoGPTConfig holds the model dimensions. BlockSize, VocabSize and
// OutputVocabSize are owned by the derivation pipeline: they are computed
// from the resolved task and must never be set independently, so values in
// the raw file for those three fields are overwritten.
type NanoGPTConfig struct {
	// BlockSize is the sequence block size, task length plus one slot
	// reserved for the adder carry token.
	BlockSize int `yaml:"block_size"`

	// VocabSize is the input vocabulary size, copied from the task.
	VocabSize int `yaml:"vocab_size"`

	// OutputVocabSize is the output vocabulary size for the
	// non-autoregressive head, copied from the task.
	OutputVocabSize int `yaml:"output_vocab_size"`

	NLayers  int `yaml:"n_layers" validate:"gt=0"`
	NHeads   int `yaml:"n_heads" validate:"gt=0"`
	EmbedDim int `yaml:"embed_dim" validate:"gt=0"`

	// Dropout stabilises training for some automata; see Appendix B of the
	// automata paper.
	Dropout  float64 `yaml:"dropout" validate:"gte=0,lt=1"`
	IsCausal bool    `yaml:"is_causal"`

	// Bias enables biases in Linears and LayerNorms, like GPT-2.
	Bias bool `yaml:"bias"`
}

// DefaultNanoGPTConfig returns the default model dimensions.
func DefaultNanoGPTConfig() NanoGPTConfig {
	return NanoGPTConfig{
		BlockSize: 1024,
		VocabSize: 50304,
		NLayers:   12,
		NHeads:    8,
		EmbedDim:  512,
		Dropout:   0.1,
		Bias:      true,
	}
}

// WandBConfig holds experiment-tracking parameters.
type WandBConfig struct {
	// LogToWandB enables tracking; set false for local test runs.
	LogToWandB bool `yaml:"log_to_wandb"`

	// SaveModelAsArtifact uploads checkpoints as tracking artifacts
	// instead of saving state dicts locally.
	SaveModelAsArtifact bool `yaml:"save_model_as_artifact"`

	ProjectName string `yaml:"wandb_project_name"`

	// EntityName is the tracking username or team name.
	EntityName string `yaml:"entity_name"`

	// Sweep marks this run as part of a hyperparameter sweep.
	Sweep bool `yaml:"sweep"`

	// SweepNum is the number of repeats per sweep. Required when Sweep is
	// set; enforced by the derivation pipeline.
	SweepNum *int `yaml:"sweep_num" validate:"omitnil,gt=0"`

	// RunNameSuffix is an optional suffix for temporary or test runs.
	RunNameSuffix string `yaml:"wandb_run_name_suffix"`
}

// DefaultWandBConfig returns the default tracking parameters.
func DefaultWandBConfig() WandBConfig {
	return WandBConfig{
		LogToWandB:          true,
		SaveModelAsArtifact: true,
		ProjectName:         "devinterp-automata",
	}
}

// EssentialDynamicsConfig controls the logit checkpointing used for the
// essential-dynamics PCA, which runs far more often than other metrics.
type EssentialDynamicsConfig struct {
	// BatchesPerCheckpoint is the number of batches in the fixed dataset
	// subset the logits are taken from.
	BatchesPerCheckpoint int `yaml:"batches_per_checkpoint" validate:"gt=0"`

	// EvalFrequency is the checkpoint cadence in training steps.
	EvalFrequency int `yaml:"eval_frequency" validate:"gt=0"`
}

// DefaultEssentialDynamicsConfig returns the default cadence.
func DefaultEssentialDynamicsConfig() EssentialDynamicsConfig {
	return EssentialDynamicsConfig{
		BatchesPerCheckpoint: 500,
		EvalFrequency:        10,
	}
}

// =============================================================================
// Raw input
// =============================================================================

// RawConfig is the partially-specified experiment file as written by the
// experimenter. Derivation-owned fields (run name, epochs, sample budgets,
// model dimensions) are either absent here or overwritten by Derive.
type RawConfig struct {
	ModelType ModelType `yaml:"model_type" validate:"required,oneof=NANO_GPT TRANSFORMERLENS_GPT2_SMALL"`

	// TaskConfig is the raw task mapping, resolved against the variant
	// registry by the derivation pipeline. Kept as a yaml.Node because the
	// concrete shape depends on the dataset_type tag inside it.
	TaskConfig yaml.Node `yaml:"task_config" validate:"-"`

	DataLoader     DataLoaderConfig     `yaml:"dataloader_config"`
	Initialisation InitialisationConfig `yaml:"initialisation"`
	Optimizer      OptimizerConfig      `yaml:"optimizer_config"`
	NanoGPT        NanoGPTConfig        `yaml:"nano_gpt_config"`
	RLCT           RLCTConfig           `yaml:"rlct_config"`
	WandB          WandBConfig          `yaml:"wandb_config"`

	// LLCTrain estimates the local learning coefficient during training.
	LLCTrain bool `yaml:"llc_train"`

	// LLCCheckpoints estimates the LLC from saved checkpoints outside of
	// training.
	LLCCheckpoints bool `yaml:"llc_cp"`

	// EDTrain collects essential-dynamics (logit PCA) checkpoints.
	EDTrain bool `yaml:"ed_train"`

	UseEMA   bool    `yaml:"use_ema"`
	EMADecay float64 `yaml:"ema_decay" validate:"gte=0,lte=1"`

	Parameterisation ParameterisationType `yaml:"parameterisation" validate:"oneof=MUP SP PYTORCH NONE"`

	NumTrainingIter int     `yaml:"num_training_iter" validate:"gt=0"`
	NumEvalBatches  int     `yaml:"num_eval_batches" validate:"gte=0"`
	LossThreshold   float64 `yaml:"loss_threshold" validate:"gte=0"`

	// EvalFrequency is the number of training steps between evaluations.
	// Zero means "default to the task dataset size". An epoch is the
	// period of training between evaluations, which keeps epoch counting
	// compatible with infinite train loaders.
	EvalFrequency int `yaml:"eval_frequency"`
}

// DefaultRawConfig returns a raw config with every optional group at its
// defaults. Required fields (model type, task, RLCT loss type and batch
// size) are left zero and enforced by Validate.
func DefaultRawConfig() RawConfig {
	return RawConfig{
		DataLoader:       DefaultDataLoaderConfig(),
		Initialisation:   DefaultInitialisationConfig(),
		Optimizer:        DefaultOptimizerConfig(),
		NanoGPT:          DefaultNanoGPTConfig(),
		RLCT:             DefaultRLCTConfig(),
		WandB:            DefaultWandBConfig(),
		LLCTrain:         true,
		EDTrain:          true,
		UseEMA:           true,
		EMADecay:         0.9,
		Parameterisation: ParameterisationMUP,
		NumTrainingIter:  10000,
		NumEvalBatches:   20,
		LossThreshold:    1e-5,
	}
}

// Validate checks field-level constraints with go-playground/validator
// tags. Cross-field invariants are enforced by the derivation pipeline.
func (r *RawConfig) Validate() error {
	return confValidate.Struct(r)
}

// =============================================================================
// Validated aggregate
// =============================================================================

// MainConfig is the validated experiment configuration. It is constructed
// exactly once per run by Derive and read-only afterwards: the model
// builder reads NanoGPT, the sampler driver reads RLCT, the training loop
// reads EvalFrequency/NumEpochs/RunName, and the tracking client reads
// WandBEnabled and RunName.
type MainConfig struct {
	ModelType ModelType

	// Task is the resolved automaton task variant.
	Task task.Spec

	DataLoader     DataLoaderConfig
	Initialisation InitialisationConfig
	Optimizer      OptimizerConfig

	// NanoGPT carries the derived model dimensions, consistent with Task
	// by construction.
	NanoGPT NanoGPTConfig

	// RLCT carries the derived sample budget and both sampler parameter
	// records, kept numerically synchronized.
	RLCT RLCTConfig

	WandB WandBConfig

	LLCTrain       bool
	LLCCheckpoints bool
	EDTrain        bool
	UseEMA         bool
	EMADecay       float64

	Parameterisation ParameterisationType

	NumTrainingIter int
	NumEvalBatches  int
	LossThreshold   float64

	// RunName is the deterministic human-readable run identifier,
	// reproducible byte-for-byte from the same raw input.
	RunName string

	// WandBEnabled reports whether experiment tracking is active.
	WandBEnabled bool

	// EvalFrequency is the resolved evaluation cadence in steps.
	EvalFrequency int

	// NumEpochs is ceil(NumTrainingIter / EvalFrequency).
	NumEpochs int
}
