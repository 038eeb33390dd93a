// ABOUTME: Tests for the channel routing table
// ABOUTME: Covers defaults, mutation, clamping, resolution and persistence calls
package channel

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
)

type memPersister struct {
	mu      sync.Mutex
	stored  []Setting
	saves   int
	loadErr error
}

func (m *memPersister) Load() ([]Setting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Setting(nil), m.stored...), m.loadErr
}

func (m *memPersister) Save(settings []Setting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored = append([]Setting(nil), settings...)
	m.saves++
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewTableDefaults(t *testing.T) {
	table := New(0, nil, testLogger())

	if table.Count() != DefaultCount {
		t.Fatalf("expected %d channels, got %d", DefaultCount, table.Count())
	}

	for i, s := range table.Snapshot() {
		want := Setting{Channel: i, Volume: 50, IsMute: false, DeviceID: "default"}
		if s != want {
			t.Errorf("channel %d: expected %+v, got %+v", i, want, s)
		}
	}
}

func TestSetDevice(t *testing.T) {
	table := New(5, nil, testLogger())

	if err := table.SetDevice(1, "D2"); err != nil {
		t.Fatalf("set device failed: %v", err)
	}
	if got := table.Device(1); got != "D2" {
		t.Errorf("expected D2, got %s", got)
	}
	if got := table.Device(0); got != "default" {
		t.Errorf("expected default, got %s", got)
	}
	if got := table.Device(99); got != "default" {
		t.Errorf("expected default for unknown channel, got %s", got)
	}

	if err := table.SetDevice(5, "D2"); !errors.Is(err, ErrUnknownChannel) {
		t.Errorf("expected ErrUnknownChannel, got %v", err)
	}
}

func TestSetVolumeClamps(t *testing.T) {
	table := New(5, nil, testLogger())

	tests := []struct {
		in, want int
	}{
		{-10, 0},
		{0, 0},
		{75, 75},
		{200, 200},
		{500, 200},
	}

	for _, tt := range tests {
		if err := table.SetVolume(2, tt.in); err != nil {
			t.Fatalf("set volume failed: %v", err)
		}
		s, _ := table.Setting(2)
		if s.Volume != tt.want {
			t.Errorf("volume %d: expected %d, got %d", tt.in, tt.want, s.Volume)
		}
	}
}

func TestResolve(t *testing.T) {
	table := New(5, nil, testLogger())
	_ = table.Update(Setting{Channel: 0, Volume: 100, DeviceID: "A"})
	_ = table.Update(Setting{Channel: 1, Volume: 80, IsMute: true, DeviceID: "B"})

	tests := []struct {
		name       string
		ch         int
		wantVolume int
		wantDevice string
	}{
		{"configured", 0, 100, "A"},
		{"muted", 1, 0, "B"},
		{"untouched", 2, 50, "default"},
		{"unknown", 7, 50, "default"},
		{"negative", -1, 50, "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, d := table.Resolve(tt.ch)
			if v != tt.wantVolume || d != tt.wantDevice {
				t.Errorf("expected (%d, %s), got (%d, %s)", tt.wantVolume, tt.wantDevice, v, d)
			}
		})
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	p := &memPersister{}
	table := New(5, p, testLogger())

	_ = table.SetVolume(0, 120)
	_ = table.SetMute(3, true)
	_ = table.SetDevice(4, "usb")

	table.Reset()

	for i, s := range table.Snapshot() {
		if s != defaultSetting(i) {
			t.Errorf("channel %d not reset: %+v", i, s)
		}
	}
	if len(p.stored) != 5 || p.stored[0].Volume != 50 {
		t.Errorf("expected defaults persisted, got %+v", p.stored)
	}
}

func TestMutationsPersist(t *testing.T) {
	p := &memPersister{}
	table := New(3, p, testLogger())

	_ = table.SetVolume(0, 10)
	_ = table.SetMute(1, true)
	_ = table.SetDevice(2, "x")
	_ = table.SetVolume(9, 10)

	if p.saves != 3 {
		t.Errorf("expected 3 saves, got %d", p.saves)
	}
	if !p.stored[1].IsMute || p.stored[2].DeviceID != "x" {
		t.Errorf("unexpected stored settings %+v", p.stored)
	}
}

func TestOpenLoadsStored(t *testing.T) {
	p := &memPersister{stored: []Setting{
		{Channel: 1, Volume: 300, DeviceID: ""},
		{Channel: 9, Volume: 10},
	}}

	table, err := Open(5, p, testLogger())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	s, _ := table.Setting(1)
	if s.Volume != 200 || s.DeviceID != "default" {
		t.Errorf("expected normalized setting, got %+v", s)
	}
	if p.saves != 0 {
		t.Errorf("loading should not save, got %d saves", p.saves)
	}
}

func TestOpenLoadError(t *testing.T) {
	p := &memPersister{loadErr: errors.New("disk gone")}
	if _, err := Open(5, p, testLogger()); err == nil {
		t.Fatal("expected load error")
	}
}

func TestUpdateUnknownChannel(t *testing.T) {
	table := New(5, nil, testLogger())
	if err := table.Update(Setting{Channel: 5}); !errors.Is(err, ErrUnknownChannel) {
		t.Errorf("expected ErrUnknownChannel, got %v", err)
	}
	if _, err := table.Setting(-1); !errors.Is(err, ErrUnknownChannel) {
		t.Errorf("expected ErrUnknownChannel, got %v", err)
	}
}

func TestConcurrentAccess(t *testing.T) {
	table := New(5, &memPersister{}, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = table.SetVolume(i%5, i*10)
		}(i)
		go func(i int) {
			defer wg.Done()
			v, _ := table.Resolve(i % 5)
			if v < 0 || v > 200 {
				t.Errorf("volume out of range: %d", v)
			}
		}(i)
	}
	wg.Wait()
}

// slowPersister blocks the first Save until release is closed
type slowPersister struct {
	memPersister
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *slowPersister) Save(settings []Setting) error {
	first := false
	s.once.Do(func() { first = true })
	if first {
		close(s.entered)
		<-s.release
	}
	return s.memPersister.Save(settings)
}

func TestConcurrentSavesPersistLatest(t *testing.T) {
	p := &slowPersister{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	table := New(2, p, testLogger())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = table.SetVolume(0, 10)
	}()
	<-p.entered

	go func() {
		defer wg.Done()
		_ = table.SetVolume(1, 20)
	}()

	// Reads stay available while a save is in flight
	if v, _ := table.Resolve(0); v != 10 {
		t.Errorf("expected in-memory volume 10, got %d", v)
	}

	close(p.release)
	wg.Wait()

	stored, _ := p.Load()
	if stored[0].Volume != 10 || stored[1].Volume != 20 {
		t.Errorf("persisted state is stale: %+v", stored)
	}
}

type resetPersister struct {
	memPersister
	resets int
}

func (r *resetPersister) Reset() error {
	r.resets++
	return r.memPersister.Save(Defaults(len(r.stored)))
}

func TestResetUsesPersisterReset(t *testing.T) {
	p := &resetPersister{}
	table := New(3, p, testLogger())
	_ = table.SetVolume(0, 120)

	table.Reset()

	if p.resets != 1 {
		t.Errorf("expected persister reset once, got %d", p.resets)
	}
	if p.saves != 2 {
		t.Errorf("expected save from mutation and reset, got %d", p.saves)
	}
	if p.stored[0].Volume != 50 {
		t.Errorf("expected defaults stored, got %+v", p.stored)
	}
}
