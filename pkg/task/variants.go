// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package task

// =============================================================================
// Binary-input automata (parity, gridworld, abab, adder)
// =============================================================================

// BinaryParams extends Params for automata driven by a biased coin input.
type BinaryParams struct {
	Params `yaml:",inline"`

	// Prob1 is the probability of emitting token 1.
	Prob1 float64 `yaml:"prob1" validate:"gte=0,lte=1"`
}

func defaultBinaryParams() BinaryParams {
	return BinaryParams{Params: defaultParams(), Prob1: 0.5}
}

// Parity is the two-state parity automaton over a binary input stream.
type Parity struct {
	BinaryParams `yaml:",inline"`
}

func (Parity) Type() Type           { return TypeParity }
func (Parity) VocabSize() int       { return 2 }
func (Parity) OutputVocabSize() int { return 2 }

func (p Parity) validate() error { return nil }

// Gridworld is a bounded 1-D random walk over n states.
type Gridworld struct {
	BinaryParams `yaml:",inline"`

	// N is the number of states.
	N int `yaml:"n" validate:"gt=0"`

	// LabelType selects the predicted quantity:
	// state (the state id 0..n-1), parity (state mod 2), or boundary
	// (whether the state is in {0, n-1}).
	LabelType Label `yaml:"label_type"`
}

func (Gridworld) Type() Type     { return TypeGridworld }
func (Gridworld) VocabSize() int { return 2 }

func (g Gridworld) OutputVocabSize() int {
	switch g.LabelType {
	case LabelState:
		return g.N
	case LabelParity, LabelBoundary:
		return 2
	}
	return 0 // unreachable: label checked at construction
}

func (g Gridworld) validate() error {
	return checkLabel(TypeGridworld, g.LabelType, LabelState, LabelParity, LabelBoundary)
}

// ABAB recognizes the alternating pattern 0101... over a binary stream.
// Its four states track how far the prefix follows the pattern.
type ABAB struct {
	BinaryParams `yaml:",inline"`

	// ProbPosSample is the probability of generating a "positive" sequence,
	// i.e. a perfect 0101... alternation.
	ProbPosSample float64 `yaml:"prob_abab_pos_sample" validate:"gte=0,lte=1"`

	// LabelType selects state (0..3) or boundary (state 3 or not).
	LabelType Label `yaml:"label_type"`
}

func (ABAB) Type() Type     { return TypeABAB }
func (ABAB) VocabSize() int { return 2 }

func (a ABAB) OutputVocabSize() int {
	switch a.LabelType {
	case LabelState:
		return 4
	case LabelBoundary:
		return 2
	}
	return 0 // unreachable: label checked at construction
}

func (a ABAB) validate() error {
	return checkLabel(TypeABAB, a.LabelType, LabelState, LabelBoundary)
}

// Adder adds k binary numbers position by position. The input token encodes
// the column sum (0..3 for the default two addends), so the input vocabulary
// stays 4 even though each addend is binary.
type Adder struct {
	BinaryParams `yaml:",inline"`

	// NAddends is the number of binary numbers being added.
	NAddends int `yaml:"n_addends" validate:"gt=0"`

	// LabelType selects state (the (carry, digit) pair id), digit (the
	// output digit without the carry), or position (the carry bit).
	LabelType Label `yaml:"label_type"`
}

func (Adder) Type() Type     { return TypeAdder }
func (Adder) VocabSize() int { return 4 }

func (a Adder) OutputVocabSize() int {
	switch a.LabelType {
	case LabelState:
		// Max column sum with k addends is 2^k - 1 and the carry adds one
		// bit, so there are 2 * (2^k - 1) reachable (carry, digit) pairs.
		return 2 * ((1 << a.NAddends) - 1)
	case LabelDigit:
		return a.NAddends
	case LabelPosition:
		return 2
	}
	return 0 // unreachable: label checked at construction
}

func (a Adder) validate() error {
	if a.NAddends > 62 {
		return constraintf(TypeAdder, "n_addends %d overflows the state count", a.NAddends)
	}
	return checkLabel(TypeAdder, a.LabelType, LabelState, LabelDigit, LabelPosition)
}

// =============================================================================
// Memory and group automata
// =============================================================================

// FlipFlop is the n-cell flip-flop memory automaton. The extra input token
// is the read action.
type FlipFlop struct {
	Params `yaml:",inline"`

	// N is the number of storable symbols.
	N int `yaml:"n" validate:"gt=0"`
}

func (FlipFlop) Type() Type { return TypeFlipFlop }

func (f FlipFlop) VocabSize() int       { return f.N + 1 }
func (f FlipFlop) OutputVocabSize() int { return f.N + 1 }

func (f FlipFlop) validate() error { return nil }

// PermutationParams carries the fields shared by Symmetric and Alternating.
type PermutationParams struct {
	Params `yaml:",inline"`

	// N is the symmetry group degree; the group acts on n objects.
	N int `yaml:"n" validate:"gt=0"`

	// LabelType selects state (the permutation id, n! values) or
	// first_chair (the element in the first position of the permutation).
	LabelType Label `yaml:"label_type"`
}

func (g PermutationParams) VocabSize() int { return g.N }

func (g PermutationParams) OutputVocabSize() int {
	switch g.LabelType {
	case LabelState:
		return factorial(g.N)
	case LabelFirstChair:
		return g.N
	}
	return 0 // unreachable: label checked at construction
}

func (g PermutationParams) validate(t Type) error {
	if g.N > maxPermutationDegree {
		return constraintf(t, "n must be at most %d, got %d", maxPermutationDegree, g.N)
	}
	return checkLabel(t, g.LabelType, LabelState, LabelFirstChair)
}

// Symmetric walks the symmetric group S_n with a fixed generator set
// (identity, shift-by-1, swap-first-two by default).
type Symmetric struct {
	PermutationParams `yaml:",inline"`

	// NActions is the number of generator permutations in the action set.
	NActions int `yaml:"n_actions" validate:"gt=0"`
}

func (Symmetric) Type() Type { return TypeSymmetric }

func (s Symmetric) validate() error { return s.PermutationParams.validate(TypeSymmetric) }

// Alternating walks the alternating group A_n. It shares the permutation
// group parameter shape with Symmetric.
type Alternating struct {
	PermutationParams `yaml:",inline"`
}

func (Alternating) Type() Type { return TypeAlternating }

func (a Alternating) validate() error { return a.PermutationParams.validate(TypeAlternating) }

// Cyclic walks the cyclic group Z_n; action i shifts by i positions.
type Cyclic struct {
	Params `yaml:",inline"`

	// N is the number of states.
	N int `yaml:"n" validate:"gt=0"`

	// NActions is the number of shift actions, i = 0..NActions-1.
	NActions int `yaml:"n_actions" validate:"gt=0"`
}

func (Cyclic) Type() Type { return TypeCyclic }

func (c Cyclic) VocabSize() int       { return c.N }
func (c Cyclic) OutputVocabSize() int { return c.N }

func (c Cyclic) validate() error {
	if c.NActions > c.N {
		return constraintf(TypeCyclic, "n_actions %d exceeds the number of distinct shifts %d", c.NActions, c.N)
	}
	return nil
}

// Dihedral walks the dihedral group D_n: a position on the n-cycle plus a
// reflection toggle bit, driven by a binary input.
type Dihedral struct {
	Params `yaml:",inline"`

	// N is the cycle size; there are 2n states including the toggle.
	N int `yaml:"n" validate:"gt=0"`

	// LabelType selects state (toggle and position together, 2n values),
	// toggle (the reflection bit), or position (the cycle position).
	LabelType Label `yaml:"label_type"`
}

func (Dihedral) Type() Type     { return TypeDihedral }
func (Dihedral) VocabSize() int { return 2 }

func (d Dihedral) OutputVocabSize() int {
	switch d.LabelType {
	case LabelState:
		return 2 * d.N
	case LabelToggle:
		return 2
	case LabelPosition:
		return d.N
	}
	return 0 // unreachable: label checked at construction
}

func (d Dihedral) validate() error {
	return checkLabel(TypeDihedral, d.LabelType, LabelState, LabelToggle, LabelPosition)
}

// Quaternion walks the quaternion group Q_8: four generator actions over
// eight states.
type Quaternion struct {
	Params `yaml:",inline"`
}

func (Quaternion) Type() Type           { return TypeQuaternion }
func (Quaternion) VocabSize() int       { return 4 }
func (Quaternion) OutputVocabSize() int { return 8 }

func (q Quaternion) validate() error { return nil }

// PermutationReset acts on S_n with a generator set plus one reset action
// per state. A generator composes with the current permutation; a reset
// jumps directly to a specific permutation.
type PermutationReset struct {
	Params `yaml:",inline"`

	// N is the permutation degree.
	N int `yaml:"n" validate:"gt=0"`

	// Generators are the generator permutations; each must be a
	// permutation of 0..N-1.
	Generators [][]int `yaml:"generators" validate:"min=1"`

	// PermProbs is the sampling probability of each generator. Defaults to
	// uniform when omitted.
	PermProbs []float64 `yaml:"perm_probs"`
}

func (PermutationReset) Type() Type { return TypePermutationReset }

// VocabSize counts one reset action per reachable state (n! permutations)
// plus the generator actions.
func (p PermutationReset) VocabSize() int { return factorial(p.N) + len(p.Generators) }

func (p PermutationReset) OutputVocabSize() int { return factorial(p.N) }

func (p PermutationReset) validate() error {
	if p.N > maxPermutationDegree {
		return constraintf(TypePermutationReset, "n must be at most %d, got %d", maxPermutationDegree, p.N)
	}
	for i, g := range p.Generators {
		if len(g) != p.N {
			return constraintf(TypePermutationReset, "generator %d has arity %d, must equal n=%d", i, len(g), p.N)
		}
	}
	if len(p.PermProbs) != 0 && len(p.PermProbs) != len(p.Generators) {
		return constraintf(TypePermutationReset, "perm_probs has %d entries for %d generators", len(p.PermProbs), len(p.Generators))
	}
	for _, pr := range p.PermProbs {
		if pr < 0 || pr > 1 {
			return constraintf(TypePermutationReset, "perm_probs entries must be in [0,1], got %v", pr)
		}
	}
	return nil
}

// checkLabel verifies a label selector against a variant's allowed set.
func checkLabel(t Type, got Label, allowed ...Label) error {
	for _, l := range allowed {
		if got == l {
			return nil
		}
	}
	return constraintf(t, "label_type %q not in %v", got, allowed)
}
