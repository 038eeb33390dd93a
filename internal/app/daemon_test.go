// ABOUTME: Tests for daemon orchestration
// ABOUTME: Runs the full stack on the null backend and plays through HTTP
package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/voxroute/voxroute/internal/channel"
	"github.com/voxroute/voxroute/internal/config"
	"github.com/voxroute/voxroute/pkg/audio"
	"github.com/voxroute/voxroute/pkg/audio/encode"
	"github.com/voxroute/voxroute/pkg/protocol"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Listen:         "127.0.0.1:0",
		Channels:       3,
		Timeout:        5 * time.Second,
		IngressTimeout: 5 * time.Second,
		Backend:        "null",
		SampleRate:     48000,
		BitDepth:       16,
		SettingsFile:   filepath.Join(t.TempDir(), "settings.json"),
		Name:           "test-daemon",
		Metrics:        true,
	}
}

func startDaemon(t *testing.T, cfg *config.Config) (*Daemon, context.CancelFunc, <-chan error) {
	t.Helper()

	d := New(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)
	go func() { errChan <- d.Run(ctx) }()

	select {
	case <-d.Ready():
	case err := <-errChan:
		cancel()
		t.Fatalf("daemon exited early: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("daemon did not become ready")
	}

	return d, cancel, errChan
}

func stopDaemon(t *testing.T, cancel context.CancelFunc, errChan <-chan error) {
	t.Helper()
	cancel()
	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not stop")
	}
}

func toneWAV(t *testing.T) []byte {
	t.Helper()
	data, err := encode.WAV(audio.Tone(440, 50*time.Millisecond, 48000, 2), 16)
	if err != nil {
		t.Fatalf("encode tone: %v", err)
	}
	return data
}

func TestDaemonPlaysOverHTTP(t *testing.T) {
	d, cancel, errChan := startDaemon(t, testConfig(t))
	defer stopDaemon(t, cancel, errChan)

	client := protocol.NewClient(d.Addr().String())

	ctx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()

	if err := client.Play(ctx, 1, toneWAV(t)); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	if got := d.scheduler.Stats().Received; got != 1 {
		t.Errorf("expected 1 received, got %d", got)
	}

	// Stats are recorded just after the caller is released
	deadline := time.Now().Add(2 * time.Second)
	for d.scheduler.Stats().Played != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("expected 1 played, got %+v", d.scheduler.Stats())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestDaemonSettingsPersist(t *testing.T) {
	cfg := testConfig(t)
	d, cancel, errChan := startDaemon(t, cfg)

	if err := d.table.SetVolume(2, 120); err != nil {
		t.Fatalf("set volume: %v", err)
	}
	stopDaemon(t, cancel, errChan)

	if _, err := os.Stat(cfg.SettingsFile); err != nil {
		t.Fatalf("expected settings file: %v", err)
	}

	d, cancel, errChan = startDaemon(t, cfg)
	defer stopDaemon(t, cancel, errChan)

	s, err := d.table.Setting(2)
	if err != nil {
		t.Fatalf("setting: %v", err)
	}
	if s.Volume != 120 {
		t.Errorf("expected persisted volume 120, got %d", s.Volume)
	}
}

func TestDaemonStatus(t *testing.T) {
	d, cancel, errChan := startDaemon(t, testConfig(t))
	defer stopDaemon(t, cancel, errChan)

	status := d.status()
	if status.ServerName != "test-daemon" {
		t.Errorf("unexpected server name %s", status.ServerName)
	}
	if status.State != "idle" {
		t.Errorf("expected idle, got %s", status.State)
	}
	if status.Bound != channel.DefaultDevice {
		t.Errorf("expected default bound, got %s", status.Bound)
	}
}

func TestDaemonUnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backend = "jack"

	if err := New(cfg).Run(context.Background()); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestDaemonListenFailure(t *testing.T) {
	d, cancel, errChan := startDaemon(t, testConfig(t))
	defer stopDaemon(t, cancel, errChan)

	cfg := testConfig(t)
	cfg.Listen = d.Addr().String()

	err := New(cfg).Run(context.Background())
	if err == nil {
		t.Fatal("expected listen error on a bound port")
	}
}

func TestListDevicesNull(t *testing.T) {
	devices, err := ListDevices(context.Background(), "null")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(devices) != 0 {
		t.Errorf("expected no devices, got %d", len(devices))
	}

	_, err = ListDevices(context.Background(), "jack")
	if err == nil || errors.Is(err, context.Canceled) {
		t.Errorf("expected backend error, got %v", err)
	}
}
