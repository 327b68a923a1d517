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
	"os"

	"gopkg.in/yaml.v3"
)

// MaxYAMLFileSize is the maximum allowed experiment file size (1MB).
// Prevents memory issues from malformed or hostile files.
const MaxYAMLFileSize = 1024 * 1024

// LoadRaw reads a raw experiment file, laying it over the package
// defaults and checking field-level constraints. The result still needs
// Derive to become a usable configuration.
func LoadRaw(path string) (*RawConfig, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat experiment file: %w", err)
	}
	if info.Size() > MaxYAMLFileSize {
		return nil, fmt.Errorf("experiment file %s exceeds %d bytes", path, MaxYAMLFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read experiment file: %w", err)
	}

	raw := DefaultRawConfig()
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse experiment file: %w", err)
	}
	if err := raw.Validate(); err != nil {
		return nil, fmt.Errorf("invalid experiment file: %w", err)
	}
	return &raw, nil
}

// Load reads a raw experiment file and derives the validated
// configuration in one call.
func Load(ctx context.Context, path string) (*MainConfig, error) {
	raw, err := LoadRaw(path)
	if err != nil {
		return nil, err
	}
	return Derive(ctx, *raw)
}
