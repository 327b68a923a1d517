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
	"errors"
	"fmt"
)

// Sentinel errors for task resolution.
var (
	// ErrUnknownTask is returned when a dataset_type tag is not in the
	// closed variant set.
	ErrUnknownTask = errors.New("unknown task type")
)

// ConstraintError reports a task variant whose own parameters are
// self-inconsistent, e.g. a generator whose arity does not match the
// declared permutation degree.
type ConstraintError struct {
	// Task is the variant that failed.
	Task Type

	// Msg describes the violated constraint.
	Msg string
}

// Error implements the error interface.
func (e *ConstraintError) Error() string {
	return fmt.Sprintf("task %s: %s", e.Task, e.Msg)
}

func constraintf(t Type, format string, args ...any) error {
	return &ConstraintError{Task: t, Msg: fmt.Sprintf(format, args...)}
}
