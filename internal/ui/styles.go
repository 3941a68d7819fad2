// Package ui renders CLI output with optional ANSI colors.
package ui

import (
	"fmt"

	"github.com/alfredjeanlab/synclog/internal/model"
)

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent = 74  // blue
	colorCmd    = 250 // light gray
	colorMuted  = 245 // medium gray
	colorOK     = 114 // green
	colorWarn   = 215 // orange
)

var noColor bool

func render(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return render(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return render(colorMuted, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return render(colorCmd, s) }

// RenderWarn returns s in the warning (orange) color.
func RenderWarn(s string) string { return render(colorWarn, s) }

// RenderState colors a logging state: green when enabled, gray otherwise.
func RenderState(st model.State) string {
	if st == model.StateEnabled {
		return render(colorOK, st.String())
	}
	return render(colorMuted, st.String())
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
