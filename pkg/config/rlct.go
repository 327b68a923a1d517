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

// RLCTLossType selects the loss the sampler runs against.
type RLCTLossType string

const (
	// LossCE is plain cross-entropy against the dataset labels.
	LossCE RLCTLossType = "ce"
	// LossDistill is distillation loss against a teacher checkpoint.
	LossDistill RLCTLossType = "distill"
)

// SamplerType selects the Monte-Carlo update rule family.
type SamplerType string

const (
	// SamplerSGLD is stochastic gradient Langevin dynamics.
	SamplerSGLD SamplerType = "SGLD"
	// SamplerSGLDMA is SGLD with a Metropolis adjustment.
	SamplerSGLDMA SamplerType = "SGLD_MA"
	// SamplerSGNHT is the stochastic gradient Nosé-Hoover thermostat.
	SamplerSGNHT SamplerType = "SGNHT"
)

// Fixed storage-location tags for estimator outputs, selected by the
// distillation-loss flag.
const (
	rlctDataDir        = "rlct_data"
	rlctDataDirDistill = "rlct_data_distill"
)

// SGLDParams parameterises the Langevin-family sampler.
type SGLDParams struct {
	LR float64 `yaml:"lr" validate:"gte=0"`

	// NoiseLevel is the standard deviation of the injected Gaussian noise.
	// It should not dominate the gradient norm.
	NoiseLevel float64 `yaml:"noise_level" validate:"gte=0"`

	// WeightDecay is typically in [1e-7, 1e-5].
	WeightDecay float64 `yaml:"weight_decay" validate:"gte=0"`

	// Elasticity is the localisation strength, typically 1, 10 or 100.
	Elasticity float64 `yaml:"elasticity" validate:"gte=0"`

	// BoundingBoxSize, when set, stops the estimator chain from wandering
	// too far from the trained point.
	BoundingBoxSize *float64 `yaml:"bounding_box_size" validate:"omitnil,gt=0"`

	// Temperature is "adaptive" to compute the inverse temperature from
	// NumSamples.
	Temperature string `yaml:"temperature"`

	// NumSamples is derivation-owned: it always equals the RLCT sample
	// budget, whichever sampler family is selected.
	NumSamples int `yaml:"num_samples"`
}

// DefaultSGLDParams returns the default Langevin parameters.
func DefaultSGLDParams() SGLDParams {
	return SGLDParams{
		NoiseLevel:  1.0,
		WeightDecay: 1e-6,
		Elasticity:  1.0,
		Temperature: "adaptive",
	}
}

// SGNHTParams parameterises the diffusion-family (thermostat) sampler.
type SGNHTParams struct {
	LR float64 `yaml:"lr" validate:"gte=0"`

	DiffusionFactor float64 `yaml:"diffusion_factor" validate:"gte=0"`

	// BoundingBoxSize, when set, stops the estimator chain from wandering
	// too far from the trained point.
	BoundingBoxSize *float64 `yaml:"bounding_box_size" validate:"omitnil,gt=0"`

	// NumSamples is derivation-owned: it always equals the RLCT sample
	// budget, whichever sampler family is selected.
	NumSamples int `yaml:"num_samples"`
}

// DefaultSGNHTParams returns the default thermostat parameters.
func DefaultSGNHTParams() SGNHTParams {
	return SGNHTParams{}
}

// RLCTConfig parameterises local-learning-coefficient estimation: the
// sampler family, the chain/draw budget, and both per-family parameter
// records.
//
// Both SGLD and SGNHT records are always populated, not just the selected
// family's, because downstream code may construct either estimator; the
// derivation pipeline keeps both NumSamples fields equal to the top-level
// budget.
type RLCTConfig struct {
	LossType RLCTLossType `yaml:"rlct_loss_type" validate:"required,oneof=ce distill"`

	// SamplingMethod is the default sampler family. Callers may override
	// it per estimation call, which is why both kwargs records below stay
	// synchronized.
	SamplingMethod SamplerType `yaml:"sampling_method" validate:"oneof=SGLD SGLD_MA SGNHT"`

	// Sigma is the width of the Gaussian prior around the trained point.
	Sigma float64 `yaml:"sigma" validate:"gte=0"`

	NumChains int `yaml:"num_chains" validate:"gt=0"`
	NumDraws  int `yaml:"num_draws" validate:"gt=0"`

	// NumSamples is derivation-owned: the total number of unique
	// datapoints the sampler may see, never exceeding the task's
	// population bound vocab^length.
	NumSamples int `yaml:"num_samples"`

	// NumBurninSteps must be zero; burn-in is declared but unsupported.
	NumBurninSteps int `yaml:"num_burnin_steps" validate:"gte=0"`

	NumStepsBwDraws int `yaml:"num_steps_bw_draws" validate:"gt=0"`

	// BatchSize is the sampler batch size; it multiplies into the sample
	// budget.
	BatchSize int `yaml:"batch_size" validate:"required,gt=0"`

	Cores int `yaml:"cores" validate:"gt=0"`

	// Seeds pins each chain's RNG. Either empty or one seed per chain.
	Seeds []int64 `yaml:"seed"`

	// Verbose enables sampler progress output.
	Verbose bool `yaml:"verbose"`

	// Online selects the streaming LLC estimator over the
	// batch-accumulating one.
	Online bool `yaml:"online"`

	UseDistillLoss bool `yaml:"use_distill_loss"`

	// UseDiagnostics adds norm, WBIC and gradient diagnostics to the
	// estimation callbacks.
	UseDiagnostics bool `yaml:"use_diagnostics"`

	SaveResults bool `yaml:"save_results"`

	SGLD  SGLDParams  `yaml:"sgld_kwargs"`
	SGNHT SGNHTParams `yaml:"sgnht_kwargs"`

	ED EssentialDynamicsConfig `yaml:"ed_config"`

	ModelSaveDir string `yaml:"rlct_model_save_dir"`

	// DataDir is the derivation-owned storage-location tag for estimator
	// outputs.
	DataDir string `yaml:"-"`
}

// DefaultRLCTConfig returns the default sampling parameters. LossType and
// BatchSize have no defaults and must come from the raw file.
func DefaultRLCTConfig() RLCTConfig {
	return RLCTConfig{
		SamplingMethod:  SamplerSGLD,
		NumChains:       10,
		NumDraws:        100,
		NumStepsBwDraws: 1,
		Cores:           1,
		Verbose:         true,
		UseDiagnostics:  true,
		SGLD:            DefaultSGLDParams(),
		SGNHT:           DefaultSGNHTParams(),
		ED:              DefaultEssentialDynamicsConfig(),
	}
}
