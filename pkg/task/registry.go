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

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gopkg.in/yaml.v3"
)

// taskValidate enforces the numeric range tags on the variant structs.
var taskValidate = validator.New()

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	taskResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diauto_task_resolutions_total",
		Help: "Total task spec resolutions by task type",
	}, []string{"task"})

	taskResolutionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diauto_task_resolution_errors_total",
		Help: "Total task spec resolution failures by reason",
	}, []string{"reason"})
)

// =============================================================================
// Registry
// =============================================================================

// builder constructs one variant from an optional raw YAML mapping laid
// over that variant's defaults.
type builder func(node *yaml.Node) (Spec, error)

// registry maps each tag to exactly one variant constructor. The map is
// populated once at init time and read-only afterwards.
var registry = map[Type]builder{
	TypeParity: func(n *yaml.Node) (Spec, error) {
		v := Parity{BinaryParams: defaultBinaryParams()}
		if err := decodeInto(n, &v); err != nil {
			return nil, err
		}
		return v, v.validate()
	},
	TypeGridworld: func(n *yaml.Node) (Spec, error) {
		v := Gridworld{BinaryParams: defaultBinaryParams(), N: 9, LabelType: LabelState}
		if err := decodeInto(n, &v); err != nil {
			return nil, err
		}
		return v, v.validate()
	},
	TypeABAB: func(n *yaml.Node) (Spec, error) {
		v := ABAB{BinaryParams: defaultBinaryParams(), ProbPosSample: 0.25, LabelType: LabelState}
		if err := decodeInto(n, &v); err != nil {
			return nil, err
		}
		return v, v.validate()
	},
	TypeAdder: func(n *yaml.Node) (Spec, error) {
		v := Adder{BinaryParams: defaultBinaryParams(), NAddends: 2, LabelType: LabelState}
		if err := decodeInto(n, &v); err != nil {
			return nil, err
		}
		return v, v.validate()
	},
	TypeFlipFlop: func(n *yaml.Node) (Spec, error) {
		v := FlipFlop{Params: defaultParams(), N: 2}
		if err := decodeInto(n, &v); err != nil {
			return nil, err
		}
		return v, v.validate()
	},
	TypeSymmetric: func(n *yaml.Node) (Spec, error) {
		v := Symmetric{
			PermutationParams: PermutationParams{Params: defaultParams(), N: 5, LabelType: LabelState},
			NActions:          3,
		}
		if err := decodeInto(n, &v); err != nil {
			return nil, err
		}
		return v, v.validate()
	},
	TypeAlternating: func(n *yaml.Node) (Spec, error) {
		v := Alternating{
			PermutationParams: PermutationParams{Params: defaultParams(), N: 5, LabelType: LabelState},
		}
		if err := decodeInto(n, &v); err != nil {
			return nil, err
		}
		return v, v.validate()
	},
	TypeCyclic: func(n *yaml.Node) (Spec, error) {
		v := Cyclic{Params: defaultParams(), N: 5, NActions: 2}
		if err := decodeInto(n, &v); err != nil {
			return nil, err
		}
		return v, v.validate()
	},
	TypeDihedral: func(n *yaml.Node) (Spec, error) {
		v := Dihedral{Params: defaultParams(), N: 4, LabelType: LabelState}
		if err := decodeInto(n, &v); err != nil {
			return nil, err
		}
		return v, v.validate()
	},
	TypeQuaternion: func(n *yaml.Node) (Spec, error) {
		v := Quaternion{Params: defaultParams()}
		if err := decodeInto(n, &v); err != nil {
			return nil, err
		}
		return v, v.validate()
	},
	TypePermutationReset: func(n *yaml.Node) (Spec, error) {
		v := PermutationReset{
			Params:     defaultParams(),
			N:          4,
			Generators: [][]int{{1, 0, 2, 3}, {3, 0, 1, 2}},
		}
		if err := decodeInto(n, &v); err != nil {
			return nil, err
		}
		if err := v.validate(); err != nil {
			return nil, err
		}
		if len(v.PermProbs) == 0 {
			uniform := 1.0 / float64(len(v.Generators))
			v.PermProbs = make([]float64, len(v.Generators))
			for i := range v.PermProbs {
				v.PermProbs[i] = uniform
			}
		}
		return v, nil
	},
}

// Resolve constructs the task variant for a tag from a raw YAML mapping.
//
// The mapping is laid over the variant's defaults; a nil node constructs
// the variant with defaults only. Returns ErrUnknownTask (wrapped) for a
// tag outside the closed set, or a *ConstraintError when the variant's own
// parameters are inconsistent.
func Resolve(tag Type, node *yaml.Node) (Spec, error) {
	build, ok := registry[tag]
	if !ok {
		taskResolutionErrors.WithLabelValues("unknown_task").Inc()
		return nil, fmt.Errorf("%w: %q", ErrUnknownTask, tag)
	}
	spec, err := build(node)
	if err != nil {
		taskResolutionErrors.WithLabelValues("constraint").Inc()
		return nil, err
	}
	if err := checkRanges(spec); err != nil {
		taskResolutionErrors.WithLabelValues("constraint").Inc()
		return nil, err
	}
	taskResolutions.WithLabelValues(string(tag)).Inc()
	return spec, nil
}

// checkRanges runs the struct-tag range validation over a constructed
// variant. Every vocabulary formula assumes positive counts and in-range
// probabilities, so violations fail construction like any other
// constraint.
func checkRanges(s Spec) error {
	if err := taskValidate.Struct(s); err != nil {
		return constraintf(s.Type(), "parameters out of range: %v", err)
	}
	return nil
}

// Decode resolves a task from a raw YAML mapping that carries its own
// dataset_type tag, as found in the task_config group of an experiment
// file.
func Decode(node *yaml.Node) (Spec, error) {
	if node == nil || node.Kind == 0 {
		return nil, fmt.Errorf("task_config is required")
	}
	var head struct {
		Type Type `yaml:"dataset_type"`
	}
	if err := node.Decode(&head); err != nil {
		return nil, fmt.Errorf("decode task_config: %w", err)
	}
	if head.Type == "" {
		return nil, fmt.Errorf("task_config.dataset_type is required")
	}
	return Resolve(head.Type, node)
}

func decodeInto(node *yaml.Node, v any) error {
	if node == nil || node.Kind == 0 {
		return nil
	}
	if err := node.Decode(v); err != nil {
		return fmt.Errorf("decode task parameters: %w", err)
	}
	return nil
}
