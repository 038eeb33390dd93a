// ABOUTME: HTTP ingress for playback requests and settings
// ABOUTME: Accepts audio buffers per channel and serves the settings API
package ingress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/voxroute/voxroute/internal/channel"
	"github.com/voxroute/voxroute/internal/device"
	"github.com/voxroute/voxroute/internal/playback"
)

const (
	// MaxBodyBytes bounds one submitted buffer
	MaxBodyBytes = 64 << 20

	shutdownTimeout = 5 * time.Second
)

// Settings is the channel table as seen by the settings API
type Settings interface {
	Count() int
	Snapshot() []channel.Setting
	Update(setting channel.Setting) error
	Reset()
}

// Devices refreshes and lists output devices
type Devices interface {
	Refresh(ctx context.Context) []device.Device
}

// Config configures the ingress server
type Config struct {
	Name           string
	IngressTimeout time.Duration
	Scheduler      playback.Enqueuer
	Settings       Settings
	Devices        Devices
	Metrics        http.Handler
	Logger         *slog.Logger

	// MaxBodyBytes bounds one audio buffer on either ingress; 0 means the default
	MaxBodyBytes int64
}

// Server serves the HTTP and WebSocket ingress
type Server struct {
	config   Config
	serverID string
	logger   *slog.Logger

	upgrader   websocket.Upgrader
	mux        *http.ServeMux
	httpServer *http.Server

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates an ingress server
func New(config Config) *Server {
	if config.IngressTimeout <= 0 {
		config.IngressTimeout = playback.DefaultTimeout
	}
	if config.Name == "" {
		config.Name = "voxroute"
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = MaxBodyBytes
	}

	s := &Server{
		config:   config,
		serverID: uuid.New().String(),
		logger:   config.Logger,
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{
			// Producers run on the local network; any origin is accepted
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		stopChan: make(chan struct{}),
	}

	s.mux.HandleFunc("GET /{$}", s.handleHello)
	s.mux.HandleFunc("POST /{$}", s.handlePlay)
	s.mux.HandleFunc("GET /settings", s.handleGetSettings)
	s.mux.HandleFunc("PUT /settings/{channel}", s.handlePutSetting)
	s.mux.HandleFunc("POST /settings/reset", s.handleReset)
	s.mux.HandleFunc("GET /devices", s.handleDevices)
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
	if config.Metrics != nil {
		s.mux.Handle("GET /metrics", config.Metrics)
	}

	return s
}

// Handler returns the request router
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Serve accepts connections on ln until ctx is done, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("ingress listening", "addr", ln.Addr().String())

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("ingress shutting down")
	case err := <-errChan:
		return fmt.Errorf("ingress server failed: %w", err)
	}

	s.stopOnce.Do(func() { close(s.stopChan) })

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("ingress shutdown error", "error", err)
	}

	s.wg.Wait()
	s.logger.Info("ingress stopped cleanly")
	return nil
}

func (s *Server) handleHello(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "hello from %s\n", s.config.Name)
}

// handlePlay enqueues the body and answers once it has played
func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	ch, err := parseChannel(r.URL.Query().Get("channel"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		http.Error(w, "failed to read body: "+err.Error(), http.StatusRequestEntityTooLarge)
		return
	}
	if len(data) == 0 {
		http.Error(w, "empty body", http.StatusBadRequest)
		return
	}

	ticket := s.config.Scheduler.Enqueue(ch, data, nil)
	w.Header().Set("X-Voxroute-Id", ticket.ID)

	if r.URL.Query().Get("wait") != "false" {
		s.await(r.Context(), ticket)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok")
}

// await holds the caller until the ticket completes, the ingress timeout
// elapses, the client leaves or the server stops
func (s *Server) await(ctx context.Context, ticket *playback.Ticket) bool {
	timer := time.NewTimer(s.config.IngressTimeout)
	defer timer.Stop()

	select {
	case <-ticket.Done():
		return true
	case <-timer.C:
		s.logger.Info("released producer before playback finished", "unit", ticket.ID, "channel", ticket.Channel)
	case <-ctx.Done():
	case <-s.stopChan:
	}
	return false
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.config.Settings.Snapshot())
}

func (s *Server) handlePutSetting(w http.ResponseWriter, r *http.Request) {
	ch, err := strconv.Atoi(r.PathValue("channel"))
	if err != nil {
		http.Error(w, "invalid channel", http.StatusBadRequest)
		return
	}

	var setting channel.Setting
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&setting); err != nil {
		http.Error(w, "invalid setting: "+err.Error(), http.StatusBadRequest)
		return
	}
	setting.Channel = ch

	if err := s.config.Settings.Update(setting); err != nil {
		if errors.Is(err, channel.ErrUnknownChannel) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.logger.Info("channel setting updated", "channel", ch, "volume", setting.Volume, "muted", setting.IsMute, "device", setting.DeviceID)
	writeJSON(w, http.StatusOK, s.config.Settings.Snapshot()[ch])
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.config.Settings.Reset()
	writeJSON(w, http.StatusOK, s.config.Settings.Snapshot())
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.config.Devices.Refresh(r.Context()))
}

// parseChannel reads the channel query parameter; absent means 0
func parseChannel(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	ch, err := strconv.Atoi(raw)
	if err != nil || ch < 0 {
		return 0, fmt.Errorf("invalid channel %q", raw)
	}
	return ch, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("failed to write response", "error", err)
	}
}
