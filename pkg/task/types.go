// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package task defines the closed family of automaton sequence tasks and
// their vocabulary-size formulas.
//
// Each task variant is an immutable value type describing one automaton
// (parity, adder, dihedral group, ...) together with the two quantities the
// model builder needs: the input vocabulary size and the output vocabulary
// size. Several variants branch the output formula on a label sub-selector
// choosing which derived quantity of the automaton the model must predict.
//
// The variant set is closed: Spec has an unexported marker method, so new
// variants can only be added inside this package, and every dispatch over
// the set is exhaustive by construction.
//
// # Thread Safety
//
// Specs are immutable values once constructed and safe to share across
// goroutines.
package task

import (
	"fmt"
)

// Type identifies one automaton family.
type Type string

// The closed set of automaton families.
const (
	TypeABAB             Type = "abab"
	TypeAdder            Type = "adder"
	TypeAlternating      Type = "alternating"
	TypeCyclic           Type = "cyclic"
	TypeDihedral         Type = "dihedral"
	TypeFlipFlop         Type = "flipflop"
	TypeGridworld        Type = "gridworld"
	TypeParity           Type = "parity"
	TypeQuaternion       Type = "quaternion"
	TypeSymmetric        Type = "symmetric"
	TypePermutationReset Type = "permutation_reset"
)

// Types returns every known task type in sorted order.
//
// The slice is freshly allocated on each call; callers may modify it.
func Types() []Type {
	return []Type{
		TypeABAB,
		TypeAdder,
		TypeAlternating,
		TypeCyclic,
		TypeDihedral,
		TypeFlipFlop,
		TypeGridworld,
		TypeParity,
		TypePermutationReset,
		TypeQuaternion,
		TypeSymmetric,
	}
}

// Label selects which derived quantity of an automaton the model predicts.
// Each variant accepts its own closed subset of labels.
type Label string

const (
	// LabelState predicts the full automaton state id.
	LabelState Label = "state"
	// LabelParity predicts the state id mod 2 (gridworld).
	LabelParity Label = "parity"
	// LabelBoundary predicts whether the state is on the boundary
	// (gridworld: state in {0, n-1}; abab: state 3).
	LabelBoundary Label = "boundary"
	// LabelDigit predicts the current output digit without the carry (adder).
	LabelDigit Label = "digit"
	// LabelPosition predicts the carry bit (adder) or the position on the
	// n-cycle (dihedral).
	LabelPosition Label = "position"
	// LabelToggle predicts the reflection toggle bit (dihedral).
	LabelToggle Label = "toggle"
	// LabelFirstChair predicts the element in the first position of the
	// current permutation (symmetric, alternating).
	LabelFirstChair Label = "first_chair"
)

// Params carries the dataset fields shared by every task variant.
type Params struct {
	// Size is the declared dataset size in sequences.
	Size int `yaml:"size" validate:"gt=0"`

	// Length is the sequence length. The automata paper uses 100.
	Length int `yaml:"length" validate:"gt=0"`

	// RandomLength samples sequence lengths up to Length instead of
	// using Length exactly.
	RandomLength bool `yaml:"random_length"`

	// Seed pins the dataset RNG when set.
	Seed *int64 `yaml:"seed"`
}

// Common returns the shared dataset parameters.
func (p Params) Common() Params { return p }

func (Params) sealedSpec() {}

// defaultParams mirrors the defaults used across the automata experiments.
func defaultParams() Params {
	return Params{Size: 600000, Length: 100}
}

// Spec is one automaton task: its parameters plus the two pure vocabulary
// queries consumed by the model builder. Implementations are the variant
// structs in this package; the unexported marker method keeps the set
// closed.
type Spec interface {
	// Type returns the automaton family tag.
	Type() Type

	// VocabSize returns the input vocabulary size of the transformer.
	VocabSize() int

	// OutputVocabSize returns the output vocabulary size, branching on the
	// variant's label selector where one exists.
	OutputVocabSize() int

	// Common returns the dataset parameters shared by all variants.
	Common() Params

	sealedSpec()
}

// DatasetFilename returns the canonical dataset artifact name for a spec,
// shared with the (external) dataset generator.
func DatasetFilename(s Spec) string {
	c := s.Common()
	return fmt.Sprintf("%s_%d_%d_%t", s.Type(), c.Size, c.Length, c.RandomLength)
}

// PopulationSize reports vocab^length, the number of distinct input
// sequences the task can produce, as a float64. It overflows to +Inf for
// realistic lengths; use config's exact bound arithmetic when comparing
// against sample budgets.
func PopulationSize(s Spec) float64 {
	c := s.Common()
	out := 1.0
	for i := 0; i < c.Length; i++ {
		out *= float64(s.VocabSize())
	}
	return out
}

// factorial is only called with n <= maxPermutationDegree, so the result
// always fits in an int.
func factorial(n int) int {
	out := 1
	for i := 2; i <= n; i++ {
		out *= i
	}
	return out
}

// maxPermutationDegree bounds n for the permutation-group variants so that
// n! state counts stay inside the int range used for vocabulary sizes.
const maxPermutationDegree = 12
