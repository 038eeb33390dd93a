// ABOUTME: Command-line producer for voxroute
// ABOUTME: Sends audio files or a generated tone to a channel over HTTP or WebSocket
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/voxroute/voxroute/internal/discovery"
	"github.com/voxroute/voxroute/internal/logging"
	"github.com/voxroute/voxroute/pkg/audio"
	"github.com/voxroute/voxroute/pkg/audio/encode"
	"github.com/voxroute/voxroute/pkg/protocol"
)

type options struct {
	server          string
	channel         int
	ws              bool
	tone            float64
	duration        time.Duration
	timeout         time.Duration
	discoverTimeout time.Duration
	verbose         bool
}

// item is one buffer to submit
type item struct {
	name string
	data []byte
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "voxroute-send [file...]",
		Short: "Send audio to a voxroute channel",
		Long: `voxroute-send submits each file, or a generated test tone, to a voxroute
daemon and waits for it to finish playing. Without --server the daemon is
found over mDNS.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.server, "server", "s", "", "daemon address host:port (default: discover over mDNS)")
	f.IntVarP(&opts.channel, "channel", "c", 0, "channel to play on")
	f.BoolVar(&opts.ws, "ws", false, "use the WebSocket ingress")
	f.Float64Var(&opts.tone, "tone", 0, "send a sine tone of this frequency in Hz instead of files")
	f.DurationVar(&opts.duration, "duration", time.Second, "tone duration")
	f.DurationVar(&opts.timeout, "timeout", time.Minute, "how long to wait for each buffer")
	f.DurationVar(&opts.discoverTimeout, "discover-timeout", 5*time.Second, "how long to browse for a daemon")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	return cmd
}

func run(cmd *cobra.Command, opts options, args []string) error {
	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	slog.SetDefault(slog.New(logging.NewHandler(cmd.ErrOrStderr(), level, "text")))

	items, err := payloads(args, opts.tone, opts.duration)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr, err := resolveServer(ctx, opts)
	if err != nil {
		return err
	}

	if opts.ws {
		return sendStream(ctx, cmd, addr, opts, items)
	}
	return sendHTTP(ctx, cmd, addr, opts, items)
}

// payloads reads each file, or synthesizes a tone when frequency is set
func payloads(files []string, frequency float64, duration time.Duration) ([]item, error) {
	if frequency > 0 {
		if len(files) > 0 {
			return nil, errors.New("--tone and files are mutually exclusive")
		}
		clip := audio.Tone(frequency, duration, 48000, 2)
		data, err := encode.WAV(clip, 16)
		if err != nil {
			return nil, fmt.Errorf("failed to encode tone: %w", err)
		}
		return []item{{name: fmt.Sprintf("tone %.0fHz", frequency), data: data}}, nil
	}

	if len(files) == 0 {
		return nil, errors.New("no input: pass files or --tone")
	}

	items := make([]item, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		items = append(items, item{name: filepath.Base(path), data: data})
	}
	return items, nil
}

func resolveServer(ctx context.Context, opts options) (string, error) {
	if opts.server != "" {
		return opts.server, nil
	}

	slog.Debug("browsing for voxroute server", "timeout", opts.discoverTimeout)
	server, err := discovery.Find(ctx, opts.discoverTimeout)
	if err != nil {
		return "", fmt.Errorf("server discovery failed: %w", err)
	}
	slog.Debug("discovered server", "name", server.Name, "addr", server.Addr())
	return server.Addr(), nil
}

func sendHTTP(ctx context.Context, cmd *cobra.Command, addr string, opts options, items []item) error {
	client := protocol.NewClient(addr)

	for _, it := range items {
		playCtx, cancel := context.WithTimeout(ctx, opts.timeout)
		start := time.Now()
		err := client.Play(playCtx, opts.channel, it.data)
		cancel()
		if err != nil {
			return fmt.Errorf("%s: %w", it.name, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: played on channel %d (%s)\n",
			it.name, opts.channel, time.Since(start).Round(time.Millisecond))
	}
	return nil
}

func sendStream(ctx context.Context, cmd *cobra.Command, addr string, opts options, items []item) error {
	client, err := protocol.Dial(ctx, addr)
	if err != nil {
		return err
	}
	defer client.Close()

	hello := client.Hello()
	slog.Debug("connected", "server", hello.Name, "channels", hello.Channels)

	for _, it := range items {
		playCtx, cancel := context.WithTimeout(ctx, opts.timeout)
		done, err := client.Play(playCtx, opts.channel, it.data)
		cancel()
		if err != nil {
			return fmt.Errorf("%s: %w", it.name, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s on channel %d\n", it.name, done.Outcome, done.Channel)
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
