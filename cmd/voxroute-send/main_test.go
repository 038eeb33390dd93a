// ABOUTME: Tests for the voxroute-send command
// ABOUTME: Covers payload selection and submission against a stub ingress
package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/voxroute/voxroute/pkg/audio/decode"
)

func TestPayloadsTone(t *testing.T) {
	items, err := payloads(nil, 440, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	clip, err := decode.Decode(items[0].data)
	if err != nil {
		t.Fatalf("tone should decode: %v", err)
	}
	if clip.Format.SampleRate != 48000 || clip.Format.Channels != 2 {
		t.Errorf("unexpected format %+v", clip.Format)
	}
	if clip.Frames() != 4800 {
		t.Errorf("expected 4800 frames, got %d", clip.Frames())
	}
}

func TestPayloadsFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.wav")
	b := filepath.Join(dir, "b.mp3")
	os.WriteFile(a, []byte("first"), 0o644)
	os.WriteFile(b, []byte("second"), 0o644)

	items, err := payloads([]string{a, b}, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 || items[0].name != "a.wav" || string(items[1].data) != "second" {
		t.Errorf("unexpected items %+v", items)
	}
}

func TestPayloadsErrors(t *testing.T) {
	if _, err := payloads(nil, 0, 0); err == nil {
		t.Error("expected error with no input")
	}
	if _, err := payloads([]string{"x.wav"}, 440, time.Second); err == nil {
		t.Error("expected error mixing tone and files")
	}
	if _, err := payloads([]string{filepath.Join(t.TempDir(), "missing.wav")}, 0, 0); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSendHTTP(t *testing.T) {
	var (
		mu       sync.Mutex
		channels []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		mu.Lock()
		channels = append(channels, r.URL.Query().Get("channel"))
		mu.Unlock()
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "clip.wav")
	os.WriteFile(path, []byte("data"), 0o644)

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--server", strings.TrimPrefix(srv.URL, "http://"), "--channel", "3", path, path})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(channels) != 2 || channels[0] != "3" {
		t.Errorf("unexpected submissions %v", channels)
	}
	if strings.Count(out.String(), "played on channel 3") != 2 {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestSendHTTPRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad channel", http.StatusBadRequest)
	}))
	defer srv.Close()

	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--server", strings.TrimPrefix(srv.URL, "http://"), "--tone", "440", "--duration", "10ms"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error from rejecting server")
	}
}
