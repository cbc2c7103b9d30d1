// Command facewatch labels faces in a live camera feed against the enrolled
// gallery.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/MrCodeEU/facewatch/pkg/config"
	"github.com/MrCodeEU/facewatch/pkg/logging"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	cfg        *config.Config
	configFile string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:           "facewatch",
	Short:         "Live face recognition against an enrolled gallery",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Resolve(configFile)
		if err != nil {
			return err
		}

		level := cfg.Logging.Level
		if debug {
			level = "debug"
		}
		if err := logging.Init(level, cfg.Logging.File, cfg.Logging.Format); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Could not initialize file logging: %v\n", err)
		}
		logging.Debugf("facewatch v%s starting", version)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		printConfig(cmd, cfg)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "facewatch v%s\n", version)
		fmt.Fprintf(out, "  Go version: %s\n", runtime.Version())
		fmt.Fprintf(out, "  Platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func printConfig(cmd *cobra.Command, c *config.Config) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Current Configuration:")
	fmt.Fprintln(out, "======================")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "[Camera]")
	fmt.Fprintf(out, "  Device:          %s\n", c.Camera.Device)
	fmt.Fprintf(out, "  Resolution:      %dx%d @ %d FPS\n", c.Camera.Width, c.Camera.Height, c.Camera.FPS)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "[Recognition]")
	fmt.Fprintf(out, "  Tolerance:       %.2f\n", c.Recognition.Tolerance)
	fmt.Fprintf(out, "  Downscale:       %.2f\n", c.Recognition.DownscaleFactor)
	fmt.Fprintf(out, "  Detector:        %s\n", c.Recognition.Detector)
	fmt.Fprintf(out, "  Model Path:      %s\n", c.Recognition.ModelPath)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "[Pipeline]")
	fmt.Fprintf(out, "  Max Failures:    %d\n", c.Pipeline.MaxCaptureFailures)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "[Gallery]")
	fmt.Fprintf(out, "  URI:             %s\n", c.Gallery.Redacted())
	fmt.Fprintf(out, "  Collection:      %s\n", c.Gallery.Collection)
	fmt.Fprintf(out, "  Sealed:          %t\n", c.Gallery.SealKey != "")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "[Display]")
	fmt.Fprintf(out, "  Enabled:         %t\n", c.Display.Enabled)
	fmt.Fprintf(out, "  Window:          %s\n", c.Display.WindowTitle)
	fmt.Fprintf(out, "  Stop Key:        %s\n", c.Display.StopKey)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "[Logging]")
	fmt.Fprintf(out, "  Level:           %s\n", c.Logging.Level)
	fmt.Fprintf(out, "  Format:          %s\n", c.Logging.Format)
	fmt.Fprintf(out, "  File:            %s\n", c.Logging.File)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.AddCommand(runCmd, configCmd, downloadCmd, versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logging.WithError(err).Error("Command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
