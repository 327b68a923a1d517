// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal output styling for the diauto CLI.
//
// Styling is automatically disabled when stdout is not a terminal, so
// piped output stays machine-readable.
package ux

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// diauto color palette - singular spectra
var (
	ColorViolet  = lipgloss.Color("#8E6FD8") // Primary - headings, highlights
	ColorLilac   = lipgloss.Color("#B39DDB") // Secondary - subtitles
	ColorSlate   = lipgloss.Color("#5C6B7A") // Muted text, borders
	ColorSuccess = lipgloss.Color("#4CC38A") // Green for success
	ColorWarning = lipgloss.Color("#F4D03F") // Amber for warnings
	ColorError   = lipgloss.Color("#E74C3C") // Red for errors
)

// Styles provides pre-configured lipgloss styles.
var Styles = struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Bold     lipgloss.Style
	Muted    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Key      lipgloss.Style

	Box lipgloss.Style
}{
	Title:    lipgloss.NewStyle().Bold(true).Foreground(ColorViolet),
	Subtitle: lipgloss.NewStyle().Foreground(ColorLilac),
	Bold:     lipgloss.NewStyle().Bold(true),
	Muted:    lipgloss.NewStyle().Foreground(ColorSlate),
	Success:  lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:  lipgloss.NewStyle().Foreground(ColorWarning),
	Error:    lipgloss.NewStyle().Foreground(ColorError),
	Key:      lipgloss.NewStyle().Foreground(ColorLilac).Width(24),

	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorViolet).
		Padding(0, 1),
}

// styled reports whether styled output should be emitted.
var styled = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

// SetStyled overrides TTY detection, e.g. for --no-color flags or tests.
func SetStyled(enabled bool) { styled = enabled }

// Title prints a styled section title.
func Title(text string) {
	if !styled {
		fmt.Println(text)
		return
	}
	fmt.Println(Styles.Title.Render(text))
}

// Success prints a check-marked success line.
func Success(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if !styled {
		fmt.Println("OK " + msg)
		return
	}
	fmt.Println(Styles.Success.Render("✓") + " " + msg)
}

// Failure prints a cross-marked error line to stderr.
func Failure(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if !styled {
		fmt.Fprintln(os.Stderr, "ERROR "+msg)
		return
	}
	fmt.Fprintln(os.Stderr, Styles.Error.Render("✗")+" "+msg)
}

// KeyValue prints an aligned key/value row for describe-style output.
func KeyValue(key string, value any) {
	if !styled {
		fmt.Printf("%-24s %v\n", key, value)
		return
	}
	fmt.Printf("%s %v\n", Styles.Key.Render(key), value)
}
