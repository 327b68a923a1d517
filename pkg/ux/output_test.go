// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"io"
	"os"
	"strings"
	"testing"
)

// captureStdout runs fn with stdout redirected to a pipe and returns what
// was written.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fn()
	w.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read pipe: %v", err)
	}
	return string(out)
}

func TestPlainOutput(t *testing.T) {
	SetStyled(false)

	out := captureStdout(t, func() { Title("Derived Configuration") })
	if out != "Derived Configuration\n" {
		t.Errorf("Title plain output = %q", out)
	}

	out = captureStdout(t, func() { Success("validated %s", "experiment.yaml") })
	if out != "OK validated experiment.yaml\n" {
		t.Errorf("Success plain output = %q", out)
	}

	out = captureStdout(t, func() { KeyValue("run_name", "parity_NANO_GPT") })
	if !strings.HasPrefix(out, "run_name") || !strings.Contains(out, "parity_NANO_GPT") {
		t.Errorf("KeyValue plain output = %q", out)
	}
}

func TestKeyValueAlignment(t *testing.T) {
	SetStyled(false)

	short := captureStdout(t, func() { KeyValue("task", "parity") })
	long := captureStdout(t, func() { KeyValue("output_vocab_size", 6) })

	shortIdx := strings.Index(short, "parity")
	longIdx := strings.Index(long, "6")
	if shortIdx != longIdx {
		t.Errorf("values not aligned: %d vs %d", shortIdx, longIdx)
	}
}

func TestStyledOutputContainsText(t *testing.T) {
	SetStyled(true)
	defer SetStyled(false)

	out := captureStdout(t, func() { Title("Tasks") })
	if !strings.Contains(out, "Tasks") {
		t.Errorf("styled Title lost text: %q", out)
	}

	out = captureStdout(t, func() { Success("done") })
	if !strings.Contains(out, "done") {
		t.Errorf("styled Success lost text: %q", out)
	}
}
