// ABOUTME: Bubbletea model for the channel mixer TUI
// ABOUTME: Shows per-channel volume, mute and device with live queue stats
package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/voxroute/voxroute/internal/channel"
	"github.com/voxroute/voxroute/internal/device"
	"github.com/voxroute/voxroute/pkg/audio"
)

const volumeStep = 5

// Mixer is the channel table as seen by the TUI
type Mixer interface {
	Snapshot() []channel.Setting
	SetVolume(ch, volume int) error
	SetMute(ch int, muted bool) error
	SetDevice(ch int, deviceID string) error
}

// Devices lists output devices
type Devices interface {
	Refresh(ctx context.Context) []device.Device
	ListOutputs() []device.Device
}

// Model represents the TUI state
type Model struct {
	mixer   Mixer
	devices Devices

	// Mixer
	settings []channel.Setting
	outputs  []device.Device
	selected int

	// Status
	serverName string
	listen     string
	state      string
	queue      int
	bound      string

	// Stats
	received  int64
	played    int64
	failed    int64
	timedOut  int64
	cancelled int64

	lastErr string

	// Dimensions
	width  int
	height int
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return m.refreshDevices
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
		m.settings = m.mixer.Snapshot()
	case devicesMsg:
		m.outputs = msg
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString(m.renderChannels())
	b.WriteString(m.renderStats())
	b.WriteString(m.renderHelp())

	return b.String()
}

// renderHeader renders server identity and queue state
func (m Model) renderHeader() string {
	return fmt.Sprintf(`┌─ voxroute mixer ─────────────────────────────────────┐
│ Server: %-45s │
│ Queue:  %-45s │
│ Output: %-45s │
├──────────────────────────────────────────────────────┤
`, truncate(m.serverName+" "+m.listen, 45),
		fmt.Sprintf("%s (%d waiting)", m.state, m.queue),
		truncate(m.bound, 45))
}

// renderChannels renders one row per channel
func (m Model) renderChannels() string {
	if len(m.settings) == 0 {
		return "│ No channels                                          │\n"
	}

	var b strings.Builder
	for i, s := range m.settings {
		cursor := " "
		if i == m.selected {
			cursor = ">"
		}
		mute := "  "
		if s.IsMute {
			mute = "M "
		}
		fmt.Fprintf(&b, "│%s%2d [%s] %3d %s%-24s │\n",
			cursor, s.Channel,
			renderBar(s.Volume, audio.MaxVolume, 10),
			s.Volume, mute,
			truncate(m.deviceLabel(s.DeviceID), 24))
	}
	return b.String()
}

// renderStats renders playback statistics
func (m Model) renderStats() string {
	s := fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ RX: %d  Played: %d  Failed: %d  Timeout: %d%-6s │
`, m.received, m.played, m.failed, m.timedOut, "")
	if m.lastErr != "" {
		s += fmt.Sprintf("│ Error: %-46s │\n", truncate(m.lastErr, 46))
	}
	return s
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ ↑/↓:Channel  ←/→:Volume  m:Mute  d:Device  r:Rescan  │
│ q:Quit                                               │
└──────────────────────────────────────────────────────┘
`
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.settings)-1 {
			m.selected++
		}
	case "right", "l", "+":
		m.adjustVolume(volumeStep)
	case "left", "h", "-":
		m.adjustVolume(-volumeStep)
	case "m":
		if s, ok := m.current(); ok {
			m.apply(m.mixer.SetMute(s.Channel, !s.IsMute))
		}
	case "d":
		if s, ok := m.current(); ok {
			m.apply(m.mixer.SetDevice(s.Channel, m.nextDevice(s.DeviceID)))
		}
	case "r":
		return m, m.refreshDevices
	}

	return m, nil
}

func (m *Model) adjustVolume(delta int) {
	s, ok := m.current()
	if !ok {
		return
	}
	m.apply(m.mixer.SetVolume(s.Channel, s.Volume+delta))
}

func (m *Model) apply(err error) {
	if err != nil {
		m.lastErr = err.Error()
	} else {
		m.lastErr = ""
	}
	m.settings = m.mixer.Snapshot()
}

func (m Model) current() (channel.Setting, bool) {
	if m.selected < 0 || m.selected >= len(m.settings) {
		return channel.Setting{}, false
	}
	return m.settings[m.selected], true
}

// nextDevice cycles default followed by every enumerated output
func (m Model) nextDevice(currentID string) string {
	ids := []string{device.DefaultID}
	for _, d := range m.outputs {
		if d.ID != device.DefaultID {
			ids = append(ids, d.ID)
		}
	}

	for i, id := range ids {
		if id == currentID {
			return ids[(i+1)%len(ids)]
		}
	}
	return ids[0]
}

func (m Model) deviceLabel(id string) string {
	for _, d := range m.outputs {
		if d.ID == id {
			return d.Label
		}
	}
	return id
}

func (m Model) refreshDevices() tea.Msg {
	if m.devices == nil {
		return devicesMsg(nil)
	}
	return devicesMsg(m.devices.Refresh(context.Background()))
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.ServerName != "" {
		m.serverName = msg.ServerName
	}
	if msg.Listen != "" {
		m.listen = msg.Listen
	}
	if msg.State != "" {
		m.state = msg.State
	}
	if msg.Bound != "" {
		m.bound = msg.Bound
	}
	m.queue = msg.Queue
	m.received = msg.Received
	m.played = msg.Played
	m.failed = msg.Failed
	m.timedOut = msg.TimedOut
	m.cancelled = msg.Cancelled
}

// StatusMsg updates TUI state
type StatusMsg struct {
	ServerName string
	Listen     string
	State      string
	Bound      string
	Queue      int
	Received   int64
	Played     int64
	Failed     int64
	TimedOut   int64
	Cancelled  int64
}

type devicesMsg []device.Device

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
