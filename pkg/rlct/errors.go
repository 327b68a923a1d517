// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rlct

import (
	"errors"
	"fmt"
)

// ErrIncompatibleCallbacks is the sentinel wrapped by
// IncompatibleCallbacksError, for errors.Is checks.
var ErrIncompatibleCallbacks = errors.New("incompatible callback set")

// IncompatibleCallbacksError reports two assembled callbacks that declare
// conflicting chain or draw expectations.
type IncompatibleCallbacksError struct {
	// Anchor is the first callback in the set; its expectations win.
	Anchor string

	// Conflicting is the callback that disagrees with the anchor.
	Conflicting string

	AnchorChains int
	AnchorDraws  int
	GotChains    int
	GotDraws     int
}

// Error implements the error interface.
func (e *IncompatibleCallbacksError) Error() string {
	return fmt.Sprintf("%v: %s expects %d chains / %d draws, %s expects %d chains / %d draws",
		ErrIncompatibleCallbacks,
		e.Anchor, e.AnchorChains, e.AnchorDraws,
		e.Conflicting, e.GotChains, e.GotDraws)
}

// Unwrap returns the sentinel for errors.Is support.
func (e *IncompatibleCallbacksError) Unwrap() error {
	return ErrIncompatibleCallbacks
}
