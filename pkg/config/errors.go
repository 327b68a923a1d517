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
	"errors"
	"fmt"
)

// Sentinel errors for cross-field derivation constraints.
var (
	// ErrBurnInUnsupported is returned when num_burnin_steps is nonzero.
	// Burn-in is declared in the config surface but not implemented by the
	// samplers; accepting it would silently skew the sample budget.
	ErrBurnInUnsupported = errors.New("burn-in is not supported, set num_burnin_steps to 0")

	// ErrSweepNumRequired is returned when the sweep flag is set without a
	// sweep repeat count.
	ErrSweepNumRequired = errors.New("sweep_num must be set when sweep is enabled")

	// ErrEvalFrequency is returned when eval_frequency resolves to a
	// non-positive value.
	ErrEvalFrequency = errors.New("eval_frequency must be positive")

	// ErrSeedCount is returned when per-chain seeds are supplied but their
	// count does not match num_chains.
	ErrSeedCount = errors.New("seed list length must equal num_chains")
)

// DerivationError reports which pipeline step rejected the configuration.
// The construction attempt is fatal: no partially derived configuration is
// ever returned alongside one of these.
type DerivationError struct {
	// Step is the derivation step that failed.
	Step string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *DerivationError) Error() string {
	return fmt.Sprintf("derive %s: %v", e.Step, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *DerivationError) Unwrap() error {
	return e.Err
}
