// ABOUTME: Daemon orchestration for voxroute
// ABOUTME: Wires devices, output engine, channel table, scheduler, ingress, discovery and TUI
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/voxroute/voxroute/internal/channel"
	"github.com/voxroute/voxroute/internal/config"
	"github.com/voxroute/voxroute/internal/device"
	"github.com/voxroute/voxroute/internal/discovery"
	"github.com/voxroute/voxroute/internal/ingress"
	"github.com/voxroute/voxroute/internal/logging"
	"github.com/voxroute/voxroute/internal/metrics"
	"github.com/voxroute/voxroute/internal/playback"
	"github.com/voxroute/voxroute/internal/settings"
	"github.com/voxroute/voxroute/internal/ui"
	"github.com/voxroute/voxroute/pkg/audio/output"
	"golang.org/x/sync/errgroup"
)

const statusInterval = 250 * time.Millisecond

// Daemon is the running voxroute service
type Daemon struct {
	config *config.Config
	logger *slog.Logger

	registry  *device.Registry
	table     *channel.Table
	store     *settings.FileStore
	graph     *playback.Graph
	scheduler *playback.Scheduler

	ready chan struct{}
	addr  net.Addr
}

// New creates a daemon from validated configuration
func New(cfg *config.Config) *Daemon {
	return &Daemon{
		config: cfg,
		logger: logging.WithComponent("app"),
		ready:  make(chan struct{}),
	}
}

// Ready is closed once the ingress is accepting connections
func (d *Daemon) Ready() <-chan struct{} {
	return d.ready
}

// Addr returns the bound ingress address; valid after Ready
func (d *Daemon) Addr() net.Addr {
	return d.addr
}

// Run starts every component and blocks until ctx is done, the TUI
// quits, or a component fails.
func (d *Daemon) Run(ctx context.Context) error {
	cfg := d.config

	enum, err := device.ForBackend(cfg.Backend)
	if err != nil {
		return err
	}
	d.registry = device.NewRegistry(enum, logging.WithComponent("device"))
	outputs := d.registry.Refresh(ctx)
	d.logger.Info("output devices enumerated", "count", len(outputs), "backend", cfg.Backend)

	format := output.DefaultFormat()
	format.SampleRate = cfg.SampleRate
	format.BitDepth = cfg.BitDepth

	engine, err := output.New(cfg.Backend, format, logging.WithComponent("output"))
	if err != nil {
		return fmt.Errorf("failed to open audio output: %w", err)
	}
	defer engine.Close()

	d.graph = playback.NewGraph(engine, d.registry, logging.WithComponent("graph"))

	d.store = settings.NewFileStore(cfg.SettingsFile, cfg.Channels, logging.WithComponent("settings"))
	d.table, err = channel.Open(cfg.Channels, d.store, logging.WithComponent("channel"))
	if err != nil {
		return err
	}
	d.logger.Info("channel table loaded", "channels", d.table.Count(), "path", d.store.Path())

	var (
		observer       playback.Observer
		metricsHandler http.Handler
	)
	if cfg.Metrics {
		m := metrics.New(d.table.Count())
		observer = m
		metricsHandler = m.Handler()
	}

	d.scheduler = playback.New(playback.Config{
		Graph:    d.graph,
		Channels: d.table,
		Timeout:  cfg.Timeout,
		Observer: observer,
		Logger:   logging.WithComponent("scheduler"),
	})
	defer d.scheduler.Close()

	server := ingress.New(ingress.Config{
		Name:           cfg.Name,
		IngressTimeout: cfg.IngressTimeout,
		Scheduler:      d.scheduler,
		Settings:       d.table,
		Devices:        d.registry,
		Metrics:        metricsHandler,
		Logger:         logging.WithComponent("ingress"),
	})

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Listen, err)
	}
	d.addr = ln.Addr()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Serve(gctx, ln)
	})

	g.Go(func() error {
		return d.store.Watch(gctx, func(stored []channel.Setting) {
			d.logger.Info("settings file changed, reloading")
			d.table.Load(stored)
		})
	})

	if cfg.MDNS {
		if err := d.advertise(gctx); err != nil {
			// Discovery is a convenience; the ingress still works without it
			d.logger.Warn("mDNS advertisement failed", "error", err)
		}
	}

	if cfg.TUI {
		d.runTUI(gctx, g, cancel)
	}

	close(d.ready)
	d.logger.Info("voxroute running", "name", cfg.Name, "addr", d.addr.String())

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (d *Daemon) advertise(ctx context.Context) error {
	tcp, ok := d.addr.(*net.TCPAddr)
	if !ok {
		return fmt.Errorf("unexpected listener address %T", d.addr)
	}

	mgr := discovery.NewManager(discovery.Config{
		ServiceName: d.config.Name,
		Port:        tcp.Port,
		Channels:    d.table.Count(),
		Logger:      logging.WithComponent("discovery"),
	})
	if err := mgr.Advertise(); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		mgr.Stop()
	}()
	return nil
}

// runTUI starts the mixer; quitting it stops the daemon
func (d *Daemon) runTUI(ctx context.Context, g *errgroup.Group, stop context.CancelFunc) {
	prog := ui.Run(d.table, d.registry)

	g.Go(func() error {
		defer stop()
		if _, err := prog.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("tui failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(statusInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				prog.Quit()
				return nil
			case <-ticker.C:
				prog.Send(d.status())
			}
		}
	})
}

func (d *Daemon) status() ui.StatusMsg {
	stats := d.scheduler.Stats()
	return ui.StatusMsg{
		ServerName: d.config.Name,
		Listen:     d.addr.String(),
		State:      d.scheduler.State().String(),
		Bound:      d.graph.Bound(),
		Queue:      d.scheduler.Len(),
		Received:   stats.Received,
		Played:     stats.Played,
		Failed:     stats.Failed,
		TimedOut:   stats.TimedOut,
		Cancelled:  stats.Cancelled,
	}
}

// ListDevices enumerates outputs for backend without starting the daemon
func ListDevices(ctx context.Context, backend string) ([]device.Device, error) {
	enum, err := device.ForBackend(backend)
	if err != nil {
		return nil, err
	}
	found, err := enum.Outputs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", device.ErrEnumeration, err)
	}
	return found, nil
}
