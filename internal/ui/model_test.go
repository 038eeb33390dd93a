// ABOUTME: Tests for the mixer TUI model
// ABOUTME: Tests key handling, device cycling and status updates
package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/voxroute/voxroute/internal/channel"
	"github.com/voxroute/voxroute/internal/device"
	"github.com/voxroute/voxroute/internal/logging"
)

func newTestModel(t *testing.T) (Model, *channel.Table) {
	t.Helper()
	table := channel.New(3, nil, logging.Discard())
	registry := device.NewRegistry(device.Static(
		device.Device{ID: "a", Label: "Speakers", Default: true},
		device.Device{ID: "b", Label: "Headphones"},
	), logging.Discard())
	registry.Refresh(t.Context())

	model := NewModel(table, registry)
	model.outputs = registry.ListOutputs()
	return model, table
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(Model)
	}
	return m
}

func TestNewModel(t *testing.T) {
	model, _ := newTestModel(t)

	if len(model.settings) != 3 {
		t.Fatalf("expected 3 channels, got %d", len(model.settings))
	}
	if model.selected != 0 {
		t.Errorf("expected first channel selected, got %d", model.selected)
	}
	if model.state != "idle" {
		t.Errorf("expected idle state, got %s", model.state)
	}
}

func TestSelectionBounds(t *testing.T) {
	model, _ := newTestModel(t)

	model = press(model, "up")
	if model.selected != 0 {
		t.Errorf("expected selection to stay at 0, got %d", model.selected)
	}

	model = press(model, "down", "down", "down", "down")
	if model.selected != 2 {
		t.Errorf("expected selection to stop at 2, got %d", model.selected)
	}
}

func TestVolumeKeys(t *testing.T) {
	model, table := newTestModel(t)

	model = press(model, "down", "right", "right")
	s, _ := table.Setting(1)
	if s.Volume != 60 {
		t.Errorf("expected volume 60, got %d", s.Volume)
	}
	if model.settings[1].Volume != 60 {
		t.Errorf("expected model to reflect volume 60, got %d", model.settings[1].Volume)
	}

	for range 20 {
		model = press(model, "left")
	}
	s, _ = table.Setting(1)
	if s.Volume != 0 {
		t.Errorf("expected volume clamped at 0, got %d", s.Volume)
	}
}

func TestMuteKey(t *testing.T) {
	model, table := newTestModel(t)

	model = press(model, "m")
	s, _ := table.Setting(0)
	if !s.IsMute {
		t.Error("expected channel 0 muted")
	}

	press(model, "m")
	s, _ = table.Setting(0)
	if s.IsMute {
		t.Error("expected channel 0 unmuted")
	}
}

func TestDeviceCycle(t *testing.T) {
	model, table := newTestModel(t)

	want := []string{"a", "b", "default"}
	for _, id := range want {
		model = press(model, "d")
		if got := table.Device(0); got != id {
			t.Fatalf("expected device %s, got %s", id, got)
		}
	}
}

func TestNextDeviceUnknownFallsBackToDefault(t *testing.T) {
	model, _ := newTestModel(t)

	if got := model.nextDevice("gone"); got != device.DefaultID {
		t.Errorf("expected default, got %s", got)
	}
}

func TestRefreshKeyReturnsCommand(t *testing.T) {
	model, _ := newTestModel(t)

	_, cmd := model.Update(key("r"))
	if cmd == nil {
		t.Fatal("expected refresh command")
	}

	msg := cmd()
	devices, ok := msg.(devicesMsg)
	if !ok {
		t.Fatalf("expected devicesMsg, got %T", msg)
	}
	if len(devices) != 2 {
		t.Errorf("expected 2 devices, got %d", len(devices))
	}
}

func TestQuitKey(t *testing.T) {
	model, _ := newTestModel(t)

	_, cmd := model.Update(key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestStatusMsg(t *testing.T) {
	model, table := newTestModel(t)

	table.SetVolume(2, 150)

	next, _ := model.Update(StatusMsg{
		ServerName: "kitchen",
		Listen:     ":8686",
		State:      "draining",
		Queue:      4,
		Received:   10,
		Played:     7,
		Failed:     1,
		TimedOut:   2,
	})
	model = next.(Model)

	if model.serverName != "kitchen" || model.state != "draining" || model.queue != 4 {
		t.Errorf("unexpected status fields: %+v", model)
	}
	if model.played != 7 || model.timedOut != 2 {
		t.Errorf("unexpected stats: played=%d timedOut=%d", model.played, model.timedOut)
	}
	if model.settings[2].Volume != 150 {
		t.Errorf("expected status tick to resync settings, got %d", model.settings[2].Volume)
	}
}

func TestView(t *testing.T) {
	model, _ := newTestModel(t)

	if model.View() != "Loading..." {
		t.Error("expected loading view before window size")
	}

	next, _ := model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	model = next.(Model)
	model = press(model, "d")

	view := model.View()
	for _, want := range []string{"voxroute mixer", "Speakers", "RX: 0"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		value int
		want  string
	}{
		{0, "░░░░"},
		{100, "██░░"},
		{200, "████"},
		{400, "████"},
	}

	for _, tt := range tests {
		if got := renderBar(tt.value, 200, 4); got != tt.want {
			t.Errorf("renderBar(%d) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("unexpected %q", got)
	}
	if got := truncate("a very long device name", 10); got != "a very ..." {
		t.Errorf("unexpected %q", got)
	}
}
