// Command facegallery enrolls, lists and removes gallery identities.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrCodeEU/facewatch/pkg/config"
	"github.com/MrCodeEU/facewatch/pkg/logging"
	"github.com/MrCodeEU/facewatch/pkg/storage"
	"github.com/spf13/cobra"
)

var (
	cfg        *config.Config
	store      *storage.MongoStore
	configFile string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:           "facegallery",
	Short:         "Manage the face recognition gallery",
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

		store, err = storage.Connect(cmd.Context(), cfg.Gallery)
		if err != nil {
			return fmt.Errorf("gallery store at %s: %w", cfg.Gallery.Redacted(), err)
		}
		return nil
	},
}

// closeStore disconnects from the gallery store if a command connected.
func closeStore() {
	if store == nil {
		return
	}
	// The command context may already be cancelled by Ctrl+C.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = store.Close(ctx)
	store = nil
}

// execute runs cmd and then cleanup, whether or not the command failed.
func execute(ctx context.Context, cmd *cobra.Command, cleanup func()) error {
	defer cleanup()
	return cmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.AddCommand(addCmd, listCmd, removeCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, rootCmd, closeStore); err != nil {
		logging.WithError(err).Error("Command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
