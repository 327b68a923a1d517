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
	"fmt"
	"math/big"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/devinterp-automata/pkg/task"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	derivations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "diauto_config_derivations_total",
		Help: "Total successful configuration derivations",
	})

	derivationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diauto_config_derivation_errors_total",
		Help: "Total configuration derivation failures by step",
	}, []string{"step"})

	derivationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "diauto_config_derivation_duration_seconds",
		Help:    "Configuration derivation latency",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01},
	})
)

// =============================================================================
// Pipeline
// =============================================================================

// step is one derivation stage. Each stage reads the raw input and the
// already-derived fields, and returns the extended configuration or an
// error; it never mutates shared state.
type step struct {
	name string
	run  func(raw *RawConfig, cfg MainConfig) (MainConfig, error)
}

// pipeline executes in strict order: later steps are pure functions of
// earlier *derived* fields, not just of the raw input.
var pipeline = []step{
	{"validate_input", stepValidateInput},
	{"resolve_task", stepResolveTask},
	{"model_dimensions", stepModelDimensions},
	{"run_name", stepRunName},
	{"eval_frequency", stepEvalFrequency},
	{"num_epochs", stepNumEpochs},
	{"rlct_data_dir", stepRLCTDataDir},
	{"sample_budget", stepSampleBudget},
	{"sampler_params", stepSamplerParams},
	{"constraints", stepConstraints},
}

// Derive builds the validated experiment configuration from a raw input.
//
// The construction is atomic: any failing step aborts with a
// *DerivationError naming the step, and no partially derived configuration
// is observable. The returned MainConfig is immutable and safe to share.
func Derive(ctx context.Context, raw RawConfig) (*MainConfig, error) {
	tracer := otel.Tracer("diauto/config")
	_, span := tracer.Start(ctx, "config.Derive")
	defer span.End()

	start := time.Now()
	var cfg MainConfig
	for _, s := range pipeline {
		next, err := s.run(&raw, cfg)
		if err != nil {
			derivationErrors.WithLabelValues(s.name).Inc()
			span.SetStatus(codes.Error, s.name)
			span.RecordError(err)
			return nil, &DerivationError{Step: s.name, Err: err}
		}
		cfg = next
		span.AddEvent("step", trace.WithAttributes(attribute.String("name", s.name)))
	}

	derivations.Inc()
	derivationDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.String("task", string(cfg.Task.Type())),
		attribute.String("run_name", cfg.RunName),
		attribute.Int("num_samples", cfg.RLCT.NumSamples),
	)
	return &cfg, nil
}

// stepValidateInput checks field-level constraints on the raw input and
// seeds the configuration with the raw groups that pass through verbatim.
func stepValidateInput(raw *RawConfig, cfg MainConfig) (MainConfig, error) {
	if err := raw.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid raw config: %w", err)
	}
	cfg.ModelType = raw.ModelType
	cfg.DataLoader = raw.DataLoader
	cfg.Initialisation = raw.Initialisation
	cfg.Optimizer = raw.Optimizer
	cfg.NanoGPT = raw.NanoGPT
	cfg.RLCT = raw.RLCT
	cfg.WandB = raw.WandB
	cfg.LLCTrain = raw.LLCTrain
	cfg.LLCCheckpoints = raw.LLCCheckpoints
	cfg.EDTrain = raw.EDTrain
	cfg.UseEMA = raw.UseEMA
	cfg.EMADecay = raw.EMADecay
	cfg.Parameterisation = raw.Parameterisation
	cfg.NumTrainingIter = raw.NumTrainingIter
	cfg.NumEvalBatches = raw.NumEvalBatches
	cfg.LossThreshold = raw.LossThreshold
	cfg.WandBEnabled = raw.WandB.LogToWandB
	return cfg, nil
}

// stepResolveTask resolves the task mapping against the variant registry.
func stepResolveTask(raw *RawConfig, cfg MainConfig) (MainConfig, error) {
	spec, err := task.Decode(&raw.TaskConfig)
	if err != nil {
		return cfg, err
	}
	cfg.Task = spec
	return cfg, nil
}

// stepModelDimensions sizes the model from the resolved task: one block
// slot beyond the sequence length is reserved for the adder carry token,
// and both vocabulary sizes are copied verbatim from the task.
func stepModelDimensions(_ *RawConfig, cfg MainConfig) (MainConfig, error) {
	cfg.NanoGPT.BlockSize = cfg.Task.Common().Length + 1
	cfg.NanoGPT.VocabSize = cfg.Task.VocabSize()
	cfg.NanoGPT.OutputVocabSize = cfg.Task.OutputVocabSize()
	return cfg, nil
}

// stepRunName derives the deterministic run identifier. The same raw input
// must reproduce the identifier byte-for-byte, so only already-derived
// fields and plain formatting enter here.
func stepRunName(_ *RawConfig, cfg MainConfig) (MainConfig, error) {
	cfg.RunName = fmt.Sprintf("%s_%s_LR%v_its%d_layers%d_seqlen%d",
		cfg.Task.Type(),
		cfg.ModelType,
		cfg.Optimizer.DefaultLR,
		cfg.NumTrainingIter,
		cfg.NanoGPT.NLayers,
		cfg.Task.Common().Length,
	)
	if cfg.WandB.RunNameSuffix != "" {
		cfg.RunName += "_" + cfg.WandB.RunNameSuffix
	}
	return cfg, nil
}

// stepEvalFrequency resolves the evaluation cadence, defaulting to the
// task's declared dataset size when unset.
func stepEvalFrequency(raw *RawConfig, cfg MainConfig) (MainConfig, error) {
	freq := raw.EvalFrequency
	if freq == 0 {
		freq = cfg.Task.Common().Size
	}
	if freq <= 0 {
		return cfg, fmt.Errorf("%w, got %d", ErrEvalFrequency, freq)
	}
	cfg.EvalFrequency = freq
	return cfg, nil
}

// stepNumEpochs derives the epoch count from the resolved cadence.
func stepNumEpochs(_ *RawConfig, cfg MainConfig) (MainConfig, error) {
	cfg.NumEpochs = (cfg.NumTrainingIter + cfg.EvalFrequency - 1) / cfg.EvalFrequency
	return cfg, nil
}

// stepRLCTDataDir selects the estimator storage tag by loss flavour.
func stepRLCTDataDir(_ *RawConfig, cfg MainConfig) (MainConfig, error) {
	if cfg.RLCT.UseDistillLoss {
		cfg.RLCT.DataDir = rlctDataDirDistill
	} else {
		cfg.RLCT.DataDir = rlctDataDir
	}
	return cfg, nil
}

// stepSampleBudget derives the total number of unique datapoints the
// sampler may see, capped by the task's population bound vocab^length.
func stepSampleBudget(_ *RawConfig, cfg MainConfig) (MainConfig, error) {
	r := cfg.RLCT
	steps := r.NumDraws*r.NumStepsBwDraws + r.NumBurninSteps
	candidate := steps * cfg.DataLoader.TrainBatchSize
	if candidate <= 0 {
		return cfg, fmt.Errorf("sample budget must be positive, got %d", candidate)
	}
	cfg.RLCT.NumSamples = capToPopulation(candidate, cfg.Task)
	return cfg, nil
}

// stepSamplerParams propagates the derived budget into both sampler-family
// records. The inactive family is force-populated too: downstream code may
// construct either estimator, and a stale count there breaks it.
func stepSamplerParams(_ *RawConfig, cfg MainConfig) (MainConfig, error) {
	cfg.RLCT.SGLD.NumSamples = cfg.RLCT.NumSamples
	cfg.RLCT.SGNHT.NumSamples = cfg.RLCT.NumSamples
	return cfg, nil
}

// stepConstraints enforces the remaining cross-field invariants.
func stepConstraints(_ *RawConfig, cfg MainConfig) (MainConfig, error) {
	if cfg.RLCT.NumBurninSteps != 0 {
		return cfg, fmt.Errorf("%w, got %d", ErrBurnInUnsupported, cfg.RLCT.NumBurninSteps)
	}
	if cfg.WandB.Sweep && cfg.WandB.SweepNum == nil {
		return cfg, ErrSweepNumRequired
	}
	if n := len(cfg.RLCT.Seeds); n != 0 && n != cfg.RLCT.NumChains {
		return cfg, fmt.Errorf("%w: %d seeds for %d chains", ErrSeedCount, n, cfg.RLCT.NumChains)
	}
	return cfg, nil
}

// capToPopulation returns min(candidate, vocab^length) using exact
// arithmetic; the bound overflows fixed-width integers for realistic
// sequence lengths.
func capToPopulation(candidate int, spec task.Spec) int {
	vocab := big.NewInt(int64(spec.VocabSize()))
	length := big.NewInt(int64(spec.Common().Length))
	bound := new(big.Int).Exp(vocab, length, nil)
	if bound.Cmp(big.NewInt(int64(candidate))) < 0 {
		return int(bound.Int64())
	}
	return candidate
}
