// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the mixer UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// NewModel creates a new TUI model
func NewModel(mixer Mixer, devices Devices) Model {
	return Model{
		mixer:    mixer,
		devices:  devices,
		settings: mixer.Snapshot(),
		state:    "idle",
	}
}

// Run creates the mixer program; the caller starts it with Run
func Run(mixer Mixer, devices Devices) *tea.Program {
	return tea.NewProgram(NewModel(mixer, devices), tea.WithAltScreen())
}
