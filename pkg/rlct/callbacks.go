// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rlct assembles the estimator and diagnostic callbacks consumed
// by the Monte-Carlo sampler driver.
//
// The callbacks produced here are configuration handles: they fix each
// estimator's chain/draw/sample expectations so the driver can allocate
// and checkpoint its state. The sampler update rules and the estimator
// numerics themselves live outside this module.
//
// # Ordering
//
// The primary LLC estimator is always first in the assembled list. The
// driver relies on that position for checkpoint and state management, so
// it is part of the contract even though the list is otherwise opaque.
package rlct

import (
	"github.com/AleutianAI/devinterp-automata/pkg/config"
)

// Callback is one estimator or diagnostic handle. Every callback declares
// the chain and draw counts it expects; the assembler rejects sets whose
// declarations disagree.
type Callback interface {
	// Name returns the display name used in logs and result tables.
	Name() string

	// NumChains returns the number of independent chains the callback
	// expects to observe.
	NumChains() int

	// NumDraws returns the number of recorded draws per chain the
	// callback expects.
	NumDraws() int
}

// expectations carries the shared chain/draw declaration.
type expectations struct {
	Chains int
	Draws  int
}

func (e expectations) NumChains() int { return e.Chains }
func (e expectations) NumDraws() int  { return e.Draws }

// LLCEstimator accumulates all draws and estimates the local learning
// coefficient in one batch at the end of sampling.
type LLCEstimator struct {
	expectations

	// NumSamples is the unique-datapoint budget entering the inverse
	// temperature.
	NumSamples int
}

func (LLCEstimator) Name() string { return "LLCEstimator" }

// OnlineLLCEstimator maintains a running LLC estimate updated draw by
// draw, for use when traces are monitored during sampling.
type OnlineLLCEstimator struct {
	expectations
	NumSamples int
}

func (OnlineLLCEstimator) Name() string { return "OnlineLLCEstimator" }

// OnlineWBICEstimator tracks the widely applicable Bayesian information
// criterion alongside the LLC as a secondary complexity statistic.
type OnlineWBICEstimator struct {
	expectations
	NumSamples int
}

func (OnlineWBICEstimator) Name() string { return "OnlineWBICEstimator" }

// WeightNorm tracks the p-norm of the sampled parameters per draw.
type WeightNorm struct {
	expectations

	// PNorm is the norm order.
	PNorm int
}

func (WeightNorm) Name() string { return "WeightNorm" }

// NoiseNorm tracks the p-norm of the injected sampler noise per draw.
type NoiseNorm struct {
	expectations
	PNorm int
}

func (NoiseNorm) Name() string { return "NoiseNorm" }

// GradientNorm tracks the p-norm of the loss gradient per draw.
type GradientNorm struct {
	expectations
	PNorm int
}

func (GradientNorm) Name() string { return "GradientNorm" }

// Assemble builds the ordered callback list for a validated RLCT
// configuration and returns it together with the display names.
//
// The primary LLC estimator (streaming when cfg.Online is set, batch
// otherwise) is always first. When cfg.UseDiagnostics is set, exactly four
// diagnostics follow in fixed order: WBIC, weight norm, noise norm,
// gradient norm. The assembled set is checked for mutually consistent
// chain/draw expectations before anything is returned.
func Assemble(cfg config.RLCTConfig) ([]Callback, []string, error) {
	exp := expectations{Chains: cfg.NumChains, Draws: cfg.NumDraws}

	var primary Callback
	if cfg.Online {
		primary = OnlineLLCEstimator{expectations: exp, NumSamples: cfg.NumSamples}
	} else {
		primary = LLCEstimator{expectations: exp, NumSamples: cfg.NumSamples}
	}

	callbacks := []Callback{primary}
	if cfg.UseDiagnostics {
		callbacks = append(callbacks,
			OnlineWBICEstimator{expectations: exp, NumSamples: cfg.NumSamples},
			WeightNorm{expectations: exp, PNorm: 2},
			NoiseNorm{expectations: exp, PNorm: 2},
			GradientNorm{expectations: exp, PNorm: 2},
		)
	}

	if err := validateCallbacks(callbacks); err != nil {
		return nil, nil, err
	}

	names := make([]string, len(callbacks))
	for i, cb := range callbacks {
		names[i] = cb.Name()
	}
	return callbacks, names, nil
}

// validateCallbacks rejects sets whose members declare conflicting chain
// or draw expectations. The first callback anchors the comparison.
func validateCallbacks(callbacks []Callback) error {
	if len(callbacks) == 0 {
		return nil
	}
	anchor := callbacks[0]
	for _, cb := range callbacks[1:] {
		if cb.NumChains() != anchor.NumChains() || cb.NumDraws() != anchor.NumDraws() {
			return &IncompatibleCallbacksError{
				Anchor:       anchor.Name(),
				Conflicting:  cb.Name(),
				AnchorChains: anchor.NumChains(),
				AnchorDraws:  anchor.NumDraws(),
				GotChains:    cb.NumChains(),
				GotDraws:     cb.NumDraws(),
			}
		}
	}
	return nil
}
