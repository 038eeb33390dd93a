// ABOUTME: Entry point for the voxroute daemon
// ABOUTME: Cobra commands for serving, listing devices and printing version
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/voxroute/voxroute/internal/app"
	"github.com/voxroute/voxroute/internal/config"
	"github.com/voxroute/voxroute/internal/logging"
	"github.com/voxroute/voxroute/internal/version"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd runs the daemon when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "voxroute",
	Short: "Per-channel audio playback router",
	Long: `voxroute accepts encoded audio buffers over HTTP or WebSocket, tagged with a
logical channel, and plays them one at a time on the output device that channel
is routed to, at that channel's volume.`,
	SilenceUsage: true,
	RunE:         runDaemon,
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio output devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper(), cfgFile)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		devices, err := app.ListDevices(ctx, cfg.Backend)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-40s %s\n", "ID", "NAME")
		fmt.Fprintf(out, "%-40s %s\n", "default", "System default output")
		for _, d := range devices {
			marker := ""
			if d.Default {
				marker = " (default)"
			}
			fmt.Fprintf(out, "%-40s %s%s\n", d.ID, d.Label, marker)
		}
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper(), cfgFile)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./voxroute.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("backend", "malgo", "audio output backend (malgo, oto, portaudio, null)")

	rootCmd.Flags().StringP("listen", "l", ":8686", "ingress listen address")
	rootCmd.Flags().IntP("channels", "c", 5, "number of logical channels")
	rootCmd.Flags().Duration("timeout", 30*time.Second, "maximum playback time per buffer")
	rootCmd.Flags().Duration("ingress-timeout", 30*time.Second, "how long POST / waits for completion")
	rootCmd.Flags().Int("sample-rate", 48000, "output sample rate")
	rootCmd.Flags().Int("bit-depth", 16, "output bit depth (16, 24, 32)")
	rootCmd.Flags().String("settings", "", "channel settings file")
	rootCmd.Flags().String("name", "", "name advertised over mDNS")
	rootCmd.Flags().Bool("mdns", true, "advertise the ingress over mDNS")
	rootCmd.Flags().Bool("metrics", true, "serve Prometheus metrics on /metrics")
	rootCmd.Flags().Bool("tui", false, "show the interactive channel mixer")
	rootCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().String("log-format", "text", "log format (text, json)")
	rootCmd.Flags().String("log-file", "", "rotated log file")

	viper.BindPFlag("backend", rootCmd.PersistentFlags().Lookup("backend"))
	viper.BindPFlag("listen", rootCmd.Flags().Lookup("listen"))
	viper.BindPFlag("channels", rootCmd.Flags().Lookup("channels"))
	viper.BindPFlag("timeout", rootCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("ingress_timeout", rootCmd.Flags().Lookup("ingress-timeout"))
	viper.BindPFlag("sample_rate", rootCmd.Flags().Lookup("sample-rate"))
	viper.BindPFlag("bit_depth", rootCmd.Flags().Lookup("bit-depth"))
	viper.BindPFlag("mdns", rootCmd.Flags().Lookup("mdns"))
	viper.BindPFlag("metrics", rootCmd.Flags().Lookup("metrics"))
	viper.BindPFlag("tui", rootCmd.Flags().Lookup("tui"))
	viper.BindPFlag("logging.level", rootCmd.Flags().Lookup("log-level"))
	viper.BindPFlag("logging.format", rootCmd.Flags().Lookup("log-format"))
	viper.BindPFlag("logging.file", rootCmd.Flags().Lookup("log-file"))

	rootCmd.AddCommand(devicesCmd, configShowCmd, versionCmd)
}

// initConfig applies flags whose defaults live in config.SetDefaults
func initConfig() {
	if verbose {
		viper.Set("logging.level", "debug")
	}
	// Empty flags must not shadow the computed defaults
	if f := rootCmd.Flags().Lookup("settings"); f != nil && f.Changed {
		viper.Set("settings_file", f.Value.String())
	}
	if f := rootCmd.Flags().Lookup("name"); f != nil && f.Changed {
		viper.Set("name", f.Value.String())
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	closeLog, err := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File, !cfg.TUI)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return app.New(cfg).Run(ctx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
